package pets

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
)

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
	Name      string
	Species   string
	Breed     string
	Sex       string
	BirthDate time.Time
	Microchip string
	Notes     string
}

func (s *Service) Create(ctx context.Context, ownerUserID string, in CreateInput) (Pet, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return Pet{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Name) == "" {
		return Pet{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Species) == "" {
		return Pet{}, ErrInvalidInput
	}
	// Sin fecha de nacimiento no hay cálculo de edad ni calendarios.
	if in.BirthDate.IsZero() {
		return Pet{}, ErrInvalidInput
	}

	now := s.now()

	sex := Sex(strings.TrimSpace(in.Sex))
	switch sex {
	case SexMale, SexFemale, SexUnknown:
	case "":
		sex = SexUnknown
	default:
		return Pet{}, ErrInvalidInput
	}

	bd := in.BirthDate
	if bd.After(now) {
		return Pet{}, ErrInvalidInput
	}

	p := Pet{
		ID:          uuid.NewString(),
		OwnerUserID: ownerUserID,
		Name:        strings.TrimSpace(in.Name),
		Species:     Species(strings.TrimSpace(in.Species)),
		Breed:       strings.TrimSpace(in.Breed),
		Sex:         sex,
		BirthDate:   time.Date(bd.Year(), bd.Month(), bd.Day(), 0, 0, 0, 0, bd.Location()),
		Microchip:   strings.TrimSpace(in.Microchip),
		Notes:       strings.TrimSpace(in.Notes),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Pet{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Pet, error) {
	return s.repo.ListByOwner(ctx, ownerUserID)
}

func (s *Service) ListAll(ctx context.Context) ([]Pet, error) {
	return s.repo.ListAll(ctx)
}
