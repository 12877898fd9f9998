package postgres

import (
	"context"
	"database/sql"

	"pet-health-scheduler/internal/domain/lifecycle"

	"github.com/google/uuid"
)

type SchedulesRepo struct {
	db *sql.DB
}

func NewSchedulesRepo(db *sql.DB) *SchedulesRepo {
	return &SchedulesRepo{db: db}
}

// Upsert usa la unique (pet_id, rule_key, dose_number) para que recomputar
// actualice la fila existente en vez de duplicar.
func (r *SchedulesRepo) Upsert(ctx context.Context, s lifecycle.Schedule) (lifecycle.Schedule, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO schedules (
			id, pet_id,
			rule_key, dose_number, total_doses,
			recommended_date, priority, interval_days, source,
			updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (pet_id, rule_key, dose_number) DO UPDATE SET
			total_doses      = EXCLUDED.total_doses,
			recommended_date = EXCLUDED.recommended_date,
			priority         = EXCLUDED.priority,
			interval_days    = EXCLUDED.interval_days,
			source           = EXCLUDED.source,
			updated_at       = EXCLUDED.updated_at
		RETURNING id
	`,
		s.ID,
		s.PetID,
		s.RuleKey,
		s.DoseNumber,
		s.TotalDoses,
		s.RecommendedDate,
		string(s.Priority),
		s.IntervalDays,
		s.Source,
		s.UpdatedAt,
	)

	if err := row.Scan(&s.ID); err != nil {
		return lifecycle.Schedule{}, err
	}
	return s, nil
}

func (r *SchedulesRepo) ListByPet(ctx context.Context, petID string) ([]lifecycle.Schedule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, pet_id,
			rule_key, dose_number, total_doses,
			recommended_date, priority, interval_days, source,
			updated_at
		FROM schedules
		WHERE pet_id = $1
	`, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]lifecycle.Schedule, 0)
	for rows.Next() {
		var s lifecycle.Schedule
		var priority string
		var intervalDays sql.NullInt64

		if err := rows.Scan(
			&s.ID,
			&s.PetID,
			&s.RuleKey,
			&s.DoseNumber,
			&s.TotalDoses,
			&s.RecommendedDate,
			&priority,
			&intervalDays,
			&s.Source,
			&s.UpdatedAt,
		); err != nil {
			return nil, err
		}

		s.Priority = lifecycle.Priority(priority)
		if intervalDays.Valid {
			n := int(intervalDays.Int64)
			s.IntervalDays = &n
		}

		out = append(out, s)
	}
	return out, rows.Err()
}
