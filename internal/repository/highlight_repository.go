package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/notcelab/notce-backend/internal/model"
)

// HighlightRepository stores learner highlights inside case vignettes.
// Highlight IDs are client-generated so repeated saves of the same span
// upsert instead of duplicating.
type HighlightRepository struct {
	pool *pgxpool.Pool
}

// NewHighlightRepository creates a new HighlightRepository.
func NewHighlightRepository(pool *pgxpool.Pool) *HighlightRepository {
	return &HighlightRepository{pool: pool}
}

// Upsert saves a highlight, replacing an existing one with the same ID.
func (r *HighlightRepository) Upsert(ctx context.Context, h *model.Highlight) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO highlights (id, user_id, case_study_id, start_index, end_index, text)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id)
		 DO UPDATE SET start_index = EXCLUDED.start_index,
		               end_index = EXCLUDED.end_index,
		               text = EXCLUDED.text
		 RETURNING created_at`,
		h.ID, h.UserID, h.CaseStudyID, h.StartIndex, h.EndIndex, h.Text,
	).Scan(&h.CreatedAt)
}

// ListByCase retrieves a user's highlights in one case, in document order.
func (r *HighlightRepository) ListByCase(ctx context.Context, userID int, caseID string) ([]model.Highlight, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, case_study_id, start_index, end_index, text, created_at
		 FROM highlights
		 WHERE user_id = $1 AND case_study_id = $2
		 ORDER BY start_index ASC`, userID, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var highlights []model.Highlight
	for rows.Next() {
		var h model.Highlight
		if err := rows.Scan(&h.ID, &h.UserID, &h.CaseStudyID, &h.StartIndex,
			&h.EndIndex, &h.Text, &h.CreatedAt); err != nil {
			return nil, err
		}
		highlights = append(highlights, h)
	}
	return highlights, rows.Err()
}

// Delete removes a highlight owned by the user. Returns the affected count
// so callers can distinguish not-found.
func (r *HighlightRepository) Delete(ctx context.Context, userID int, highlightID string) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM highlights WHERE id = $1 AND user_id = $2`, highlightID, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
