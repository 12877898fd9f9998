// Package refdata carga el dataset de reglas maestras. El dataset se carga
// una sola vez al arrancar y se inyecta como lifecycle.RuleSet inmutable:
// no hay estado global ni recargas en caliente.
package refdata

import (
	"fmt"
	"os"
	"strings"

	"pet-health-scheduler/internal/domain/lifecycle"

	yaml "go.yaml.in/yaml/v3"
)

// ruleYAML es el formato del seed. Los enums viajan como strings y se
// validan al convertir; una regla corrupta corta la carga completa.
type ruleYAML struct {
	ServiceName  string `yaml:"service_name"`
	Code         string `yaml:"code"`
	MinAgeMonths int    `yaml:"min_age_months"`
	MaxAgeMonths int    `yaml:"max_age_months"`
	Sex          string `yaml:"sex"` // all|male|female; vacío = all
	DoseNumber   int    `yaml:"dose_number"`
	TotalDoses   int    `yaml:"total_doses"`
	IntervalDays *int   `yaml:"interval_days"`
	Priority     string `yaml:"priority"`
	Active       *bool  `yaml:"active"` // default true
	Source       string `yaml:"source"`
}

type ruleFileYAML struct {
	Version string     `yaml:"version"`
	Rules   []ruleYAML `yaml:"rules"`
}

// LoadFile lee y valida un seed YAML de reglas maestras.
func LoadFile(path string) (lifecycle.RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return lifecycle.RuleSet{}, fmt.Errorf("refdata: read %s: %w", path, err)
	}
	return parseYAML(data)
}

func parseYAML(data []byte) (lifecycle.RuleSet, error) {
	var f ruleFileYAML
	if err := yaml.Unmarshal(data, &f); err != nil {
		return lifecycle.RuleSet{}, fmt.Errorf("refdata: yaml unmarshal: %w", err)
	}

	rs := lifecycle.RuleSet{
		Version: strings.TrimSpace(f.Version),
		Rules:   make([]lifecycle.MasterRule, 0, len(f.Rules)),
	}

	for i, r := range f.Rules {
		rule, err := toMasterRule(r, rs.Version)
		if err != nil {
			return lifecycle.RuleSet{}, fmt.Errorf("refdata: rule #%d: %w", i+1, err)
		}
		rs.Rules = append(rs.Rules, rule)
	}

	return rs, nil
}

func toMasterRule(r ruleYAML, version string) (lifecycle.MasterRule, error) {
	sex := lifecycle.SexRequirement(strings.TrimSpace(r.Sex))
	if sex == "" {
		sex = lifecycle.SexAll
	}

	active := true
	if r.Active != nil {
		active = *r.Active
	}

	source := strings.TrimSpace(r.Source)
	if source == "" && version != "" {
		source = "seed:" + version
	}

	rule := lifecycle.MasterRule{
		ServiceName:  strings.TrimSpace(r.ServiceName),
		Code:         strings.TrimSpace(r.Code),
		MinAgeMonths: r.MinAgeMonths,
		MaxAgeMonths: r.MaxAgeMonths,
		Sex:          sex,
		DoseNumber:   r.DoseNumber,
		TotalDoses:   r.TotalDoses,
		IntervalDays: r.IntervalDays,
		Priority:     lifecycle.Priority(strings.TrimSpace(r.Priority)),
		Active:       active,
		Source:       source,
	}

	if err := rule.Validate(); err != nil {
		return lifecycle.MasterRule{}, err
	}
	return rule, nil
}
