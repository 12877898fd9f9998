package lifecycle

import "context"

type CompletionRepository interface {
	Create(ctx context.Context, c Completion) error
	ListByPet(ctx context.Context, petID string) ([]Completion, error)
}

type ScheduleRepository interface {
	// Upsert actualiza por (pet_id, rule_key, dose_number) si existe,
	// si no inserta. Recomputar tiene que ser idempotente.
	Upsert(ctx context.Context, s Schedule) (Schedule, error)
	ListByPet(ctx context.Context, petID string) ([]Schedule, error)
}
