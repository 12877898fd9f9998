package pets

import "context"

type Repository interface {
	Create(ctx context.Context, p Pet) error
	GetByID(ctx context.Context, id string) (Pet, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]Pet, error)

	// ListAll existe para el job batch de recálculo (recorre toda la población).
	ListAll(ctx context.Context) ([]Pet, error)
}
