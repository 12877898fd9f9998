package periodic

import "context"

type Repository interface {
	Create(ctx context.Context, s PeriodicService) error
	GetByID(ctx context.Context, id string) (PeriodicService, error)
	ListByPet(ctx context.Context, petID string) ([]PeriodicService, error)

	// ListActiveByOwner alimenta los recordatorios del usuario.
	ListActiveByOwner(ctx context.Context, ownerUserID string) ([]PeriodicService, error)

	Update(ctx context.Context, s PeriodicService) error
}
