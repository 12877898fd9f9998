// Package jobs corre el recálculo batch de calendarios. Cada mascota es
// independiente del resto, así que el fan-out es un pool de workers sin
// coordinación; el upsert idempotente hace seguro repetir corridas.
package jobs

import (
	"context"
	"strings"
	"sync"
	"time"

	"pet-health-scheduler/internal/domain/lifecycle"
	"pet-health-scheduler/internal/domain/pets"
	"pet-health-scheduler/internal/platform/logger"

	"github.com/robfig/cron/v3"
)

type Config struct {
	// Spec cron estándar de 5 campos, o descriptores tipo "@daily".
	Spec string

	// Workers del pool; <= 0 usa 4.
	Workers int

	// IANA TZ, p.ej. "America/Lima". Vacía = local.
	Timezone string
}

type Recompute struct {
	cfg       Config
	log       logger.Logger
	pets      *pets.Service
	lifecycle *lifecycle.Service

	c *cron.Cron
}

func NewRecompute(cfg Config, log logger.Logger, petsSvc *pets.Service, lifecycleSvc *lifecycle.Service) *Recompute {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &Recompute{
		cfg:       cfg,
		log:       log.With(map[string]any{"job": "recompute"}),
		pets:      petsSvc,
		lifecycle: lifecycleSvc,
	}
}

// Start registra el cron y arranca. Devuelve error solo por spec/timezone
// inválidos; las fallas por mascota se aíslan en RunOnce.
func (j *Recompute) Start() error {
	loc := time.Local
	if tz := strings.TrimSpace(j.cfg.Timezone); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return err
		}
		loc = l
	}

	j.c = cron.New(cron.WithLocation(loc))
	if _, err := j.c.AddFunc(j.cfg.Spec, func() {
		j.RunOnce(context.Background())
	}); err != nil {
		return err
	}

	j.c.Start()
	j.log.Info("recompute job scheduled", map[string]any{"spec": j.cfg.Spec, "tz": loc.String()})
	return nil
}

func (j *Recompute) Stop() {
	if j.c != nil {
		j.c.Stop()
	}
}

// RunOnce recorre toda la población una vez. Una mascota con data mala no
// aborta el batch: se loguea y se sigue.
func (j *Recompute) RunOnce(ctx context.Context) {
	started := time.Now()

	population, err := j.pets.ListAll(ctx)
	if err != nil {
		j.log.Error("list pets failed", map[string]any{"err": err.Error()})
		return
	}

	queue := make(chan pets.Pet)

	var failed int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for w := 0; w < j.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range queue {
				if _, err := j.lifecycle.Recompute(ctx, p); err != nil {
					mu.Lock()
					failed++
					mu.Unlock()
					j.log.Warn("recompute failed for pet", map[string]any{
						"pet_id": p.ID,
						"err":    err.Error(),
					})
				}
			}
		}()
	}

	for _, p := range population {
		select {
		case <-ctx.Done():
			close(queue)
			wg.Wait()
			j.log.Warn("recompute cancelled", map[string]any{"err": ctx.Err().Error()})
			return
		case queue <- p:
		}
	}
	close(queue)
	wg.Wait()

	j.log.Info("recompute finished", map[string]any{
		"pets":     len(population),
		"failed":   failed,
		"duration": time.Since(started).String(),
	})
}
