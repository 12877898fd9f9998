package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"pet-health-scheduler/internal/adapters/auth/accounts"
	"pet-health-scheduler/internal/adapters/refdata"
	"pet-health-scheduler/internal/domain/lifecycle"
	"pet-health-scheduler/internal/jobs"
	"pet-health-scheduler/internal/platform/logger"
	"pet-health-scheduler/internal/ports/auth"
	"pet-health-scheduler/internal/router"
)

func main() {
	log := logger.NewFromEnv()

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	rules, err := loadRules(log)
	if err != nil {
		log.Error("load master rules failed", map[string]any{"err": err.Error()})
		os.Exit(1)
	}
	log.Info("master rules loaded", map[string]any{
		"version": rules.Version,
		"rules":   len(rules.Rules),
	})

	app := router.New(router.Options{
		AuthVerifier: buildVerifier(),
		Rules:        rules,
	})

	// Recálculo batch nocturno, opcional por env.
	if spec := os.Getenv("RECOMPUTE_CRON"); spec != "" {
		job := jobs.NewRecompute(jobs.Config{
			Spec:     spec,
			Timezone: os.Getenv("RECOMPUTE_TZ"),
		}, log, app.Pets, app.Lifecycle)

		if err := job.Start(); err != nil {
			log.Error("start recompute job failed", map[string]any{"err": err.Error()})
			os.Exit(1)
		}
		defer job.Stop()
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      app.Handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Info("starting server", map[string]any{"addr": addr})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", map[string]any{"err": err.Error()})
		os.Exit(1)
	}
}

// loadRules: RULES_URL (servicio central) > RULES_FILE (seed local).
func loadRules(log logger.Logger) (lifecycle.RuleSet, error) {
	if baseURL := os.Getenv("RULES_URL"); baseURL != "" {
		client, err := refdata.NewRemoteClient(refdata.RemoteConfig{
			BaseURL: baseURL,
			APIKey:  os.Getenv("RULES_API_KEY"),
		})
		if err != nil {
			return lifecycle.RuleSet{}, err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return client.Fetch(ctx)
	}

	path := os.Getenv("RULES_FILE")
	if path == "" {
		path = "configs/master_rules.yaml"
	}
	return refdata.LoadFile(path)
}

func buildVerifier() auth.AuthVerifier {
	baseURL := os.Getenv("ACCOUNTS_URL")
	if baseURL == "" {
		return nil // modo dev: X-Debug-User-ID
	}

	client, err := accounts.NewClient(accounts.Config{
		BaseURL: baseURL,
		APIKey:  os.Getenv("ACCOUNTS_API_KEY"),
	})
	if err != nil {
		return nil
	}
	return accounts.NewVerifier(client)
}
