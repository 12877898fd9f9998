package memory

import (
	"context"
	"fmt"
	"sync"

	"pet-health-scheduler/internal/domain/lifecycle"

	"github.com/google/uuid"
)

type schedulesRepo struct {
	mu sync.RWMutex

	// Clave natural (pet_id, rule_key, dose_number): recomputar actualiza
	// la misma entrada en vez de duplicar.
	byKey map[string]lifecycle.Schedule
}

func NewSchedulesRepo() lifecycle.ScheduleRepository {
	return &schedulesRepo{
		byKey: make(map[string]lifecycle.Schedule),
	}
}

func scheduleKey(s lifecycle.Schedule) string {
	return fmt.Sprintf("%s|%s|%d", s.PetID, s.RuleKey, s.DoseNumber)
}

func (r *schedulesRepo) Upsert(ctx context.Context, s lifecycle.Schedule) (lifecycle.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := scheduleKey(s)
	if existing, ok := r.byKey[key]; ok {
		s.ID = existing.ID
	} else if s.ID == "" {
		s.ID = uuid.NewString()
	}

	r.byKey[key] = s
	return s, nil
}

func (r *schedulesRepo) ListByPet(ctx context.Context, petID string) ([]lifecycle.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]lifecycle.Schedule, 0)
	for _, s := range r.byKey {
		if s.PetID == petID {
			out = append(out, s)
		}
	}
	// El orden de presentación lo define el servicio (prioridad, fecha).
	return out, nil
}
