package postgres

import (
	"context"
	"database/sql"
	"strings"

	"pet-health-scheduler/internal/domain/periodic"
)

type PeriodicRepo struct {
	db *sql.DB
}

func NewPeriodicRepo(db *sql.DB) *PeriodicRepo {
	return &PeriodicRepo{db: db}
}

func (r *PeriodicRepo) Create(ctx context.Context, s periodic.PeriodicService) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO periodic_services (
			id, pet_id, owner_user_id,
			service_type, cycle_type, cycle_days,
			last_service_date, next_service_date,
			reminder_days_before, reminder_enabled,
			active,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		s.ID,
		s.PetID,
		s.OwnerUserID,
		s.ServiceType,
		string(s.CycleType),
		s.CycleDays,
		s.LastServiceDate,
		s.NextServiceDate,
		s.ReminderDaysBefore,
		s.ReminderEnabled,
		s.Active,
		s.CreatedAt,
		s.UpdatedAt,
	)
	return err
}

const periodicColumns = `
	id, pet_id, owner_user_id,
	service_type, cycle_type, cycle_days,
	last_service_date, next_service_date,
	reminder_days_before, reminder_enabled,
	active,
	created_at, updated_at
`

func scanPeriodic(row interface{ Scan(...any) error }) (periodic.PeriodicService, error) {
	var s periodic.PeriodicService
	var cycleType string

	if err := row.Scan(
		&s.ID,
		&s.PetID,
		&s.OwnerUserID,
		&s.ServiceType,
		&cycleType,
		&s.CycleDays,
		&s.LastServiceDate,
		&s.NextServiceDate,
		&s.ReminderDaysBefore,
		&s.ReminderEnabled,
		&s.Active,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return periodic.PeriodicService{}, err
	}

	s.CycleType = periodic.CycleType(cycleType)
	return s, nil
}

func (r *PeriodicRepo) GetByID(ctx context.Context, id string) (periodic.PeriodicService, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return periodic.PeriodicService{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+periodicColumns+` FROM periodic_services WHERE id = $1`, id)

	s, err := scanPeriodic(row)
	if err == sql.ErrNoRows {
		return periodic.PeriodicService{}, ErrNotFound
	}
	return s, err
}

func (r *PeriodicRepo) ListByPet(ctx context.Context, petID string) ([]periodic.PeriodicService, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+periodicColumns+`
		FROM periodic_services
		WHERE pet_id = $1
		ORDER BY next_service_date
	`, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPeriodic(rows)
}

func (r *PeriodicRepo) ListActiveByOwner(ctx context.Context, ownerUserID string) ([]periodic.PeriodicService, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+periodicColumns+`
		FROM periodic_services
		WHERE owner_user_id = $1 AND active
		ORDER BY next_service_date
	`, ownerUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPeriodic(rows)
}

func (r *PeriodicRepo) Update(ctx context.Context, s periodic.PeriodicService) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE periodic_services SET
			service_type         = $2,
			cycle_type           = $3,
			cycle_days           = $4,
			last_service_date    = $5,
			next_service_date    = $6,
			reminder_days_before = $7,
			reminder_enabled     = $8,
			active               = $9,
			updated_at           = $10
		WHERE id = $1
	`,
		s.ID,
		s.ServiceType,
		string(s.CycleType),
		s.CycleDays,
		s.LastServiceDate,
		s.NextServiceDate,
		s.ReminderDaysBefore,
		s.ReminderEnabled,
		s.Active,
		s.UpdatedAt,
	)
	if err != nil {
		return err
	}

	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func collectPeriodic(rows *sql.Rows) ([]periodic.PeriodicService, error) {
	out := make([]periodic.PeriodicService, 0)
	for rows.Next() {
		s, err := scanPeriodic(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
