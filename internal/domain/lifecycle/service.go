package lifecycle

import (
	"context"
	"strings"
	"time"

	"pet-health-scheduler/internal/domain/pets"

	"github.com/google/uuid"
)

type Service struct {
	rules       RuleSet
	completions CompletionRepository
	schedules   ScheduleRepository
	now         func() time.Time
}

// NewService recibe el RuleSet ya cargado y validado (refdata lo carga una
// vez al arrancar). El servicio nunca vuelve a leer las reglas.
func NewService(rules RuleSet, completions CompletionRepository, schedules ScheduleRepository) *Service {
	return &Service{
		rules:       rules,
		completions: completions,
		schedules:   schedules,
		now:         time.Now,
	}
}

func (s *Service) Rules() RuleSet { return s.rules }

type CompletionInput struct {
	RuleKey       string
	DoseNumber    int
	CompletedDate *time.Time
	Notes         string
}

// RecordCompletion registra una dosis del historial. CompletedDate nil
// significa "agendada pero aún no aplicada"; esas no cuentan para el matcher.
func (s *Service) RecordCompletion(ctx context.Context, pet pets.Pet, in CompletionInput) (Completion, error) {
	if strings.TrimSpace(in.RuleKey) == "" {
		return Completion{}, ErrInvalidInput
	}
	if in.DoseNumber < 1 {
		return Completion{}, ErrInvalidInput
	}

	now := s.now()

	var completed *time.Time
	if in.CompletedDate != nil {
		d := atMidnight(*in.CompletedDate)
		if d.After(atMidnight(now)) {
			return Completion{}, ErrInvalidInput
		}
		completed = &d
	}

	c := Completion{
		ID:            uuid.NewString(),
		PetID:         pet.ID,
		RuleKey:       strings.TrimSpace(in.RuleKey),
		DoseNumber:    in.DoseNumber,
		CompletedDate: completed,
		Notes:         strings.TrimSpace(in.Notes),
		RecordedAt:    now,
	}

	if err := s.completions.Create(ctx, c); err != nil {
		return Completion{}, err
	}
	return c, nil
}

func (s *Service) ListCompletions(ctx context.Context, petID string) ([]Completion, error) {
	return s.completions.ListByPet(ctx, petID)
}

// Recompute corre el motor completo para una mascota:
// historial → índice → match → sequence → orden → upsert.
// Es todo-o-nada: si algo falla antes del upsert no se persiste nada parcial.
func (s *Service) Recompute(ctx context.Context, pet pets.Pet) ([]Schedule, error) {
	if pet.BirthDate.IsZero() {
		return nil, ErrInvalidInput
	}

	history, err := s.completions.ListByPet(ctx, pet.ID)
	if err != nil {
		return nil, err
	}

	today := s.now()
	idx := BuildCompletionIndex(history)

	candidates := make([]Schedule, 0)
	for _, rule := range Match(pet, today, s.rules.Rules, idx) {
		if cand, ok := sequence(rule, pet, idx, today); ok {
			candidates = append(candidates, cand)
		}
	}
	sortSchedules(candidates)

	out := make([]Schedule, 0, len(candidates))
	for _, cand := range candidates {
		cand.UpdatedAt = today
		saved, err := s.schedules.Upsert(ctx, cand)
		if err != nil {
			return nil, err
		}
		out = append(out, saved)
	}
	return out, nil
}

// ListSchedules devuelve lo persistido, en el mismo orden que produce el
// motor (prioridad desc, fecha asc).
func (s *Service) ListSchedules(ctx context.Context, petID string) ([]Schedule, error) {
	items, err := s.schedules.ListByPet(ctx, petID)
	if err != nil {
		return nil, err
	}
	sortSchedules(items)
	return items, nil
}
