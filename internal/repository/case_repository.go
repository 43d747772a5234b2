package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/notcelab/notce-backend/internal/model"
)

// CaseRepository handles case study and case question data access.
type CaseRepository struct {
	pool *pgxpool.Pool
}

// NewCaseRepository creates a new CaseRepository.
func NewCaseRepository(pool *pgxpool.Pool) *CaseRepository {
	return &CaseRepository{pool: pool}
}

// CreateWithQuestions inserts a case and its questions atomically.
func (r *CaseRepository) CreateWithQuestions(ctx context.Context, cs *model.CaseStudy) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO case_studies (id, title, vignette, setting, tags)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at`,
		cs.ID, cs.Title, cs.Vignette, cs.Setting, cs.Tags,
	).Scan(&cs.CreatedAt, &cs.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert case: %w", err)
	}

	for i := range cs.Questions {
		q := &cs.Questions[i]
		q.CaseStudyID = cs.ID
		_, err = tx.Exec(ctx,
			`INSERT INTO case_questions
				(id, case_study_id, position, stem, domain, correct_label,
				 correct_rationale, distractors)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			q.ID, q.CaseStudyID, i+1, q.Stem, q.Domain, q.CorrectLabel,
			q.CorrectRationale, q.Distractors)
		if err != nil {
			return fmt.Errorf("insert question %s: %w", q.ID, err)
		}
	}

	return tx.Commit(ctx)
}

// List retrieves case summaries without question bodies, newest first.
func (r *CaseRepository) List(ctx context.Context) ([]model.CaseStudy, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.title, c.vignette, c.setting, c.tags, c.created_at, c.updated_at
		 FROM case_studies c
		 ORDER BY c.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cases []model.CaseStudy
	for rows.Next() {
		var cs model.CaseStudy
		if err := rows.Scan(&cs.ID, &cs.Title, &cs.Vignette, &cs.Setting, &cs.Tags,
			&cs.CreatedAt, &cs.UpdatedAt); err != nil {
			return nil, err
		}
		cases = append(cases, cs)
	}
	return cases, rows.Err()
}

// GetByID retrieves a case with its questions in position order.
func (r *CaseRepository) GetByID(ctx context.Context, id string) (*model.CaseStudy, error) {
	cs := &model.CaseStudy{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, vignette, setting, tags, created_at, updated_at
		 FROM case_studies
		 WHERE id = $1`, id,
	).Scan(&cs.ID, &cs.Title, &cs.Vignette, &cs.Setting, &cs.Tags, &cs.CreatedAt, &cs.UpdatedAt)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, case_study_id, stem, domain, correct_label, correct_rationale, distractors
		 FROM case_questions
		 WHERE case_study_id = $1
		 ORDER BY position ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var q model.CaseQuestion
		if err := rows.Scan(&q.ID, &q.CaseStudyID, &q.Stem, &q.Domain,
			&q.CorrectLabel, &q.CorrectRationale, &q.Distractors); err != nil {
			return nil, err
		}
		cs.Questions = append(cs.Questions, q)
	}
	return cs, rows.Err()
}

// GetQuestion retrieves a single case question with its answer key.
func (r *CaseRepository) GetQuestion(ctx context.Context, questionID string) (*model.CaseQuestion, error) {
	q := &model.CaseQuestion{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, case_study_id, stem, domain, correct_label, correct_rationale, distractors
		 FROM case_questions
		 WHERE id = $1`, questionID,
	).Scan(&q.ID, &q.CaseStudyID, &q.Stem, &q.Domain, &q.CorrectLabel,
		&q.CorrectRationale, &q.Distractors)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// Count returns how many case studies exist. The background generator uses
// it to keep the library topped up.
func (r *CaseRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM case_studies`).Scan(&n)
	return n, err
}
