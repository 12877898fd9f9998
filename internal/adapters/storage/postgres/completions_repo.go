package postgres

import (
	"context"
	"database/sql"

	"pet-health-scheduler/internal/domain/lifecycle"
)

type CompletionsRepo struct {
	db *sql.DB
}

func NewCompletionsRepo(db *sql.DB) *CompletionsRepo {
	return &CompletionsRepo{db: db}
}

func (r *CompletionsRepo) Create(ctx context.Context, c lifecycle.Completion) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO completions (
			id, pet_id,
			rule_key, dose_number,
			completed_date, notes,
			recorded_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		c.ID,
		c.PetID,
		c.RuleKey,
		c.DoseNumber,
		c.CompletedDate,
		c.Notes,
		c.RecordedAt,
	)
	return err
}

func (r *CompletionsRepo) ListByPet(ctx context.Context, petID string) ([]lifecycle.Completion, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, pet_id,
			rule_key, dose_number,
			completed_date, notes,
			recorded_at
		FROM completions
		WHERE pet_id = $1
		ORDER BY recorded_at, id
	`, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]lifecycle.Completion, 0)
	for rows.Next() {
		var c lifecycle.Completion
		if err := rows.Scan(
			&c.ID,
			&c.PetID,
			&c.RuleKey,
			&c.DoseNumber,
			&c.CompletedDate,
			&c.Notes,
			&c.RecordedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
