package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/notcelab/notce-backend/internal/model"
)

// CaseProgressRepository tracks each user's position inside case studies.
type CaseProgressRepository struct {
	pool *pgxpool.Pool
}

// NewCaseProgressRepository creates a new CaseProgressRepository.
func NewCaseProgressRepository(pool *pgxpool.Pool) *CaseProgressRepository {
	return &CaseProgressRepository{pool: pool}
}

// Upsert saves a user's position in a case, replacing any previous state.
func (r *CaseProgressRepository) Upsert(ctx context.Context, userID int, p *model.CaseProgress) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_case_sessions (user_id, case_study_id, current_index, is_completed, last_accessed)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (user_id, case_study_id)
		 DO UPDATE SET current_index = EXCLUDED.current_index,
		               is_completed = EXCLUDED.is_completed,
		               last_accessed = NOW()`,
		userID, p.CaseStudyID, p.CurrentIndex, p.IsCompleted)
	return err
}

// Get retrieves a user's progress in a specific case.
func (r *CaseProgressRepository) Get(ctx context.Context, userID int, caseID string) (*model.CaseProgress, error) {
	p := &model.CaseProgress{}
	err := r.pool.QueryRow(ctx,
		`SELECT case_study_id, current_index, is_completed, last_accessed
		 FROM user_case_sessions
		 WHERE user_id = $1 AND case_study_id = $2`, userID, caseID,
	).Scan(&p.CaseStudyID, &p.CurrentIndex, &p.IsCompleted, &p.LastAccessed)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetLatestIncomplete retrieves the most recently touched unfinished case for
// resume.
func (r *CaseProgressRepository) GetLatestIncomplete(ctx context.Context, userID int) (*model.CaseProgress, error) {
	p := &model.CaseProgress{}
	err := r.pool.QueryRow(ctx,
		`SELECT case_study_id, current_index, is_completed, last_accessed
		 FROM user_case_sessions
		 WHERE user_id = $1 AND is_completed = FALSE
		 ORDER BY last_accessed DESC
		 LIMIT 1`, userID,
	).Scan(&p.CaseStudyID, &p.CurrentIndex, &p.IsCompleted, &p.LastAccessed)
	if err != nil {
		return nil, err
	}
	return p, nil
}
