package periodic

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNotActive = errors.New("service is not active")

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	ServiceType        string
	CycleType          CycleType
	CycleDays          int
	LastServiceDate    *time.Time
	ReminderDaysBefore int
	ReminderEnabled    bool
}

// Create valida y calcula la NextServiceDate inicial. Si viene
// LastServiceDate se parte de ahí (con autocorrección si quedó vieja);
// si no, desde hoy.
func (s *Service) Create(ctx context.Context, petID, ownerUserID string, in CreateInput) (PeriodicService, error) {
	if strings.TrimSpace(petID) == "" || strings.TrimSpace(ownerUserID) == "" {
		return PeriodicService{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.ServiceType) == "" {
		return PeriodicService{}, ErrInvalidInput
	}
	if in.ReminderDaysBefore < 0 {
		return PeriodicService{}, ErrInvalidInput
	}

	now := s.now()

	next, err := NextOccurrence(in.LastServiceDate, in.CycleType, in.CycleDays, now)
	if err != nil {
		return PeriodicService{}, err
	}

	var last *time.Time
	if in.LastServiceDate != nil {
		d := atMidnight(*in.LastServiceDate)
		last = &d
	}

	svc := PeriodicService{
		ID:                 uuid.NewString(),
		PetID:              petID,
		OwnerUserID:        ownerUserID,
		ServiceType:        strings.TrimSpace(in.ServiceType),
		CycleType:          in.CycleType,
		CycleDays:          in.CycleDays,
		LastServiceDate:    last,
		NextServiceDate:    next,
		ReminderDaysBefore: in.ReminderDaysBefore,
		ReminderEnabled:    in.ReminderEnabled,
		Active:             true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repo.Create(ctx, svc); err != nil {
		return PeriodicService{}, err
	}
	return svc, nil
}

// Complete marca el servicio como realizado en la fecha dada: fija
// LastServiceDate y recalcula NextServiceDate desde esa fecha. El servicio
// sigue activo.
func (s *Service) Complete(ctx context.Context, id string, completedOn time.Time) (PeriodicService, error) {
	svc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return PeriodicService{}, err
	}
	if !svc.Active {
		return PeriodicService{}, ErrNotActive
	}
	if completedOn.IsZero() {
		return PeriodicService{}, ErrInvalidInput
	}

	now := s.now()
	done := atMidnight(completedOn)
	if done.After(atMidnight(now)) {
		return PeriodicService{}, ErrInvalidInput
	}

	next, err := NextOccurrence(&done, svc.CycleType, svc.CycleDays, now)
	if err != nil {
		return PeriodicService{}, err
	}

	svc.LastServiceDate = &done
	svc.NextServiceDate = next
	svc.UpdatedAt = now

	if err := s.repo.Update(ctx, svc); err != nil {
		return PeriodicService{}, err
	}
	return svc, nil
}

// Deactivate apaga el servicio (soft). Reactivarlo queda fuera del alcance
// de este módulo.
func (s *Service) Deactivate(ctx context.Context, id string) (PeriodicService, error) {
	svc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return PeriodicService{}, err
	}
	if !svc.Active {
		return svc, nil // idempotente
	}

	svc.Active = false
	svc.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, svc); err != nil {
		return PeriodicService{}, err
	}
	return svc, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (PeriodicService, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPet(ctx context.Context, petID string) ([]PeriodicService, error) {
	return s.repo.ListByPet(ctx, petID)
}

// Projection proyecta las próximas visitas dentro del horizonte (días).
// horizonDays <= 0 usa el default de un año.
func (s *Service) Projection(ctx context.Context, id string, horizonDays int) (PeriodicService, []ProjectedVisit, error) {
	svc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return PeriodicService{}, nil, err
	}
	if !svc.Active {
		return PeriodicService{}, nil, ErrNotActive
	}

	visits, err := Project(svc, s.now(), horizonDays)
	if err != nil {
		return PeriodicService{}, nil, err
	}
	return svc, visits, nil
}

// Reminder asocia un servicio con sus flags de recordatorio.
type Reminder struct {
	Service PeriodicService
	Status  ReminderStatus
}

// Reminders evalúa los servicios activos con recordatorio habilitado de un
// usuario. La capa de notificaciones decide qué hacer con los flags.
func (s *Service) Reminders(ctx context.Context, ownerUserID string) ([]Reminder, error) {
	items, err := s.repo.ListActiveByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}

	today := s.now()

	out := make([]Reminder, 0, len(items))
	for _, svc := range items {
		if !svc.ReminderEnabled {
			continue
		}
		out = append(out, Reminder{
			Service: svc,
			Status:  EvaluateReminder(svc.NextServiceDate, svc.ReminderDaysBefore, today),
		})
	}
	return out, nil
}
