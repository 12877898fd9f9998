package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"pet-health-scheduler/internal/domain/periodic"
)

type periodicRepo struct {
	mu   sync.RWMutex
	byID map[string]periodic.PeriodicService
}

func NewPeriodicRepo() periodic.Repository {
	return &periodicRepo{
		byID: make(map[string]periodic.PeriodicService),
	}
}

func (r *periodicRepo) Create(ctx context.Context, s periodic.PeriodicService) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.ID == "" {
		return errors.New("service id required")
	}
	if _, exists := r.byID[s.ID]; exists {
		return errors.New("service already exists")
	}

	r.byID[s.ID] = s
	return nil
}

func (r *periodicRepo) GetByID(ctx context.Context, id string) (periodic.PeriodicService, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	if !ok {
		return periodic.PeriodicService{}, ErrNotFound
	}
	return s, nil
}

func (r *periodicRepo) ListByPet(ctx context.Context, petID string) ([]periodic.PeriodicService, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]periodic.PeriodicService, 0)
	for _, s := range r.byID {
		if s.PetID == petID {
			out = append(out, s)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].NextServiceDate.Before(out[j].NextServiceDate)
	})
	return out, nil
}

func (r *periodicRepo) ListActiveByOwner(ctx context.Context, ownerUserID string) ([]periodic.PeriodicService, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]periodic.PeriodicService, 0)
	for _, s := range r.byID {
		if s.OwnerUserID == ownerUserID && s.Active {
			out = append(out, s)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].NextServiceDate.Before(out[j].NextServiceDate)
	})
	return out, nil
}

func (r *periodicRepo) Update(ctx context.Context, s periodic.PeriodicService) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[s.ID]; !ok {
		return ErrNotFound
	}
	r.byID[s.ID] = s
	return nil
}
