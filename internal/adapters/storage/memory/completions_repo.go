package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"pet-health-scheduler/internal/domain/lifecycle"
)

type completionsRepo struct {
	mu   sync.RWMutex
	byID map[string]lifecycle.Completion
}

func NewCompletionsRepo() lifecycle.CompletionRepository {
	return &completionsRepo{
		byID: make(map[string]lifecycle.Completion),
	}
}

func (r *completionsRepo) Create(ctx context.Context, c lifecycle.Completion) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.ID == "" {
		return errors.New("completion id required")
	}
	if _, exists := r.byID[c.ID]; exists {
		return errors.New("completion already exists")
	}

	r.byID[c.ID] = c
	return nil
}

func (r *completionsRepo) ListByPet(ctx context.Context, petID string) ([]lifecycle.Completion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]lifecycle.Completion, 0)
	for _, c := range r.byID {
		if c.PetID == petID {
			out = append(out, c)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].RecordedAt.Equal(out[j].RecordedAt) {
			return out[i].RecordedAt.Before(out[j].RecordedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
