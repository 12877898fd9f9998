package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidInput = errors.New("invalid input")
)

// MasterRule es una regla de referencia del plan de salud: define a qué edad
// (en meses, intervalo cerrado) y para qué sexo aplica un servicio, y cuántas
// dosis componen la serie. Es data seed, inmutable durante una ejecución;
// nunca la crea un usuario final.
type MasterRule struct {
	ServiceName string // p.ej. "rabia", "parvovirus"
	Code        string // opcional, desambigua reglas con el mismo nombre

	MinAgeMonths int
	MaxAgeMonths int

	Sex SexRequirement

	DoseNumber int // 1..TotalDoses
	TotalDoses int

	// Días desde la dosis anterior completada. Requerido para encadenar
	// dosis > 1; si falta, se usa el fallback por edad.
	IntervalDays *int

	Priority Priority
	Active   bool
	Source   string // procedencia del dato (p.ej. "seed:v3", "clinica-central")
}

// Key identifica la serie: service_name, o service_name/code si hay código.
func (r MasterRule) Key() string {
	name := strings.TrimSpace(r.ServiceName)
	code := strings.TrimSpace(r.Code)
	if code == "" {
		return name
	}
	return name + "/" + code
}

// Validate protege contra data de referencia corrupta.
func (r MasterRule) Validate() error {
	if strings.TrimSpace(r.ServiceName) == "" {
		return fmt.Errorf("%w: rule without service_name", ErrInvalidInput)
	}
	if r.MinAgeMonths < 0 || r.MaxAgeMonths < 0 {
		return fmt.Errorf("%w: rule %q: negative age window", ErrInvalidInput, r.Key())
	}
	if r.MinAgeMonths > r.MaxAgeMonths {
		return fmt.Errorf("%w: rule %q: min_age_months > max_age_months", ErrInvalidInput, r.Key())
	}
	if !r.Sex.Valid() {
		return fmt.Errorf("%w: rule %q: sex must be all|male|female", ErrInvalidInput, r.Key())
	}
	if r.DoseNumber < 1 || r.TotalDoses < r.DoseNumber {
		return fmt.Errorf("%w: rule %q: dose %d of %d", ErrInvalidInput, r.Key(), r.DoseNumber, r.TotalDoses)
	}
	if r.IntervalDays != nil && *r.IntervalDays <= 0 {
		return fmt.Errorf("%w: rule %q: interval_days must be > 0", ErrInvalidInput, r.Key())
	}
	if !r.Priority.Valid() {
		return fmt.Errorf("%w: rule %q: priority must be required|recommended|optional", ErrInvalidInput, r.Key())
	}
	return nil
}

// RuleSet es el dataset de referencia cargado una sola vez al arrancar
// e inyectado en el servicio. No hay estado global mutable.
type RuleSet struct {
	Version string
	Rules   []MasterRule
}

// Validate valida cada regla; corta en la primera inválida.
func (rs RuleSet) Validate() error {
	for _, r := range rs.Rules {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Completion es el historial: una dosis aplicada (o registrada como pendiente
// si CompletedDate es nil). Lo escribe la acción de registro; el motor solo lee.
type Completion struct {
	ID    string
	PetID string

	RuleKey    string
	DoseNumber int

	CompletedDate *time.Time // nil = aún no aplicada
	Notes         string

	RecordedAt time.Time
}

// Schedule es un candidato calculado y persistido, con upsert por
// (pet_id, rule_key, dose_number) para que recomputar no duplique filas.
type Schedule struct {
	ID    string
	PetID string

	RuleKey    string
	DoseNumber int
	TotalDoses int

	RecommendedDate time.Time
	Priority        Priority
	IntervalDays    *int
	Source          string

	UpdatedAt time.Time
}
