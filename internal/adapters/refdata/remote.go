package refdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pet-health-scheduler/internal/domain/lifecycle"
	"pet-health-scheduler/internal/platform/httpclient"
)

var (
	ErrRemoteNotConfigured = errors.New("refdata remote not configured")
)

// RemoteConfig apunta al servicio central que mantiene la tabla de reglas.
type RemoteConfig struct {
	BaseURL string
	APIKey  string

	// Header de la API key; default "X-Api-Key".
	APIKeyHeader string

	Timeout time.Duration
}

// RemoteClient trae el RuleSet desde el servicio de referencia. Mismo
// camino de validación que el seed en archivo.
type RemoteClient struct {
	http         *httpclient.Client
	apiKey       string
	apiKeyHeader string
}

func NewRemoteClient(cfg RemoteConfig) (*RemoteClient, error) {
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	hc, err := httpclient.NewWithBaseURL(strings.TrimSpace(cfg.BaseURL), timeout)
	if err != nil {
		return nil, err
	}

	return &RemoteClient{
		http:         hc,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		apiKeyHeader: h,
	}, nil
}

func (c *RemoteClient) IsConfigured() bool {
	return c != nil && c.http != nil && c.http.BaseURL != ""
}

type ruleJSON struct {
	ServiceName  string `json:"service_name"`
	Code         string `json:"code"`
	MinAgeMonths int    `json:"min_age_months"`
	MaxAgeMonths int    `json:"max_age_months"`
	Sex          string `json:"sex"`
	DoseNumber   int    `json:"dose_number"`
	TotalDoses   int    `json:"total_doses"`
	IntervalDays *int   `json:"interval_days"`
	Priority     string `json:"priority"`
	Active       *bool  `json:"active"`
	Source       string `json:"source"`
}

// Fetch trae y valida el dataset completo. Se llama una vez al arrancar;
// recargar implica reiniciar el proceso (dataset inmutable por diseño del
// servicio, no de este cliente).
func (c *RemoteClient) Fetch(ctx context.Context) (lifecycle.RuleSet, error) {
	if !c.IsConfigured() {
		return lifecycle.RuleSet{}, ErrRemoteNotConfigured
	}

	var out struct {
		Version string     `json:"version"`
		Rules   []ruleJSON `json:"rules"`
	}

	headers := map[string]string{}
	if c.apiKey != "" {
		headers[c.apiKeyHeader] = c.apiKey
	}

	if err := c.http.DoJSON(ctx, http.MethodGet, "/v1/master-rules", headers, nil, &out); err != nil {
		return lifecycle.RuleSet{}, fmt.Errorf("refdata: fetch master rules: %w", err)
	}

	rs := lifecycle.RuleSet{
		Version: strings.TrimSpace(out.Version),
		Rules:   make([]lifecycle.MasterRule, 0, len(out.Rules)),
	}

	for i, r := range out.Rules {
		rule, err := toMasterRule(ruleYAML(r), rs.Version)
		if err != nil {
			return lifecycle.RuleSet{}, fmt.Errorf("refdata: remote rule #%d: %w", i+1, err)
		}
		rs.Rules = append(rs.Rules, rule)
	}

	return rs, nil
}
