package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/notcelab/notce-backend/internal/model"
)

// StudySessionRepository handles study session rows, including the ephemeral
// JSONB question payloads held on the row while a session is in flight.
type StudySessionRepository struct {
	pool *pgxpool.Pool
}

// NewStudySessionRepository creates a new StudySessionRepository.
func NewStudySessionRepository(pool *pgxpool.Pool) *StudySessionRepository {
	return &StudySessionRepository{pool: pool}
}

const studySessionColumns = `id, user_id, domain, difficulty, mode, total_questions,
	current_question, correct_count, answered, topics_covered,
	current_question_data, next_question_data, pivot_data,
	session_history, highlights, exam_config, timer_start,
	is_active, started_at, last_accessed, completed_at`

func scanStudySession(row interface{ Scan(dest ...any) error }) (*model.StudySession, error) {
	s := &model.StudySession{}
	err := row.Scan(
		&s.ID, &s.UserID, &s.Domain, &s.Difficulty, &s.Mode, &s.TotalQuestions,
		&s.CurrentQuestion, &s.CorrectCount, &s.Answered, &s.TopicsCovered,
		&s.CurrentQuestionData, &s.NextQuestionData, &s.PivotData,
		&s.History, &s.Highlights, &s.ExamConfig, &s.TimerStart,
		&s.IsActive, &s.StartedAt, &s.LastAccessed, &s.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a new session with its first question payload.
func (r *StudySessionRepository) Create(ctx context.Context, s *model.StudySession) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO study_sessions
			(id, user_id, domain, difficulty, mode, total_questions,
			 current_question, correct_count, topics_covered,
			 current_question_data, session_history, highlights,
			 exam_config, timer_start, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, TRUE)
		 RETURNING started_at, last_accessed`,
		s.ID, s.UserID, s.Domain, s.Difficulty, s.Mode, s.TotalQuestions,
		s.CurrentQuestion, s.CorrectCount, s.TopicsCovered,
		s.CurrentQuestionData, s.History, s.Highlights,
		s.ExamConfig, s.TimerStart,
	).Scan(&s.StartedAt, &s.LastAccessed)
}

// GetByID retrieves a session by ID.
func (r *StudySessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.StudySession, error) {
	return scanStudySession(r.pool.QueryRow(ctx,
		`SELECT `+studySessionColumns+` FROM study_sessions WHERE id = $1`, id))
}

// GetActiveByUser retrieves the user's single active session, if any.
func (r *StudySessionRepository) GetActiveByUser(ctx context.Context, userID int) (*model.StudySession, error) {
	return scanStudySession(r.pool.QueryRow(ctx,
		`SELECT `+studySessionColumns+`
		 FROM study_sessions
		 WHERE user_id = $1 AND is_active = TRUE
		 ORDER BY last_accessed DESC
		 LIMIT 1`, userID))
}

// Update persists the full mutable state of an in-flight session.
func (r *StudySessionRepository) Update(ctx context.Context, s *model.StudySession) error {
	s.LastAccessed = time.Now()
	_, err := r.pool.Exec(ctx,
		`UPDATE study_sessions
		 SET current_question = $1, correct_count = $2, answered = $3,
		     topics_covered = $4, current_question_data = $5,
		     next_question_data = $6, pivot_data = $7, session_history = $8,
		     highlights = $9, is_active = $10, completed_at = $11,
		     last_accessed = $12
		 WHERE id = $13`,
		s.CurrentQuestion, s.CorrectCount, s.Answered,
		s.TopicsCovered, s.CurrentQuestionData,
		s.NextQuestionData, s.PivotData, s.History,
		s.Highlights, s.IsActive, s.CompletedAt,
		s.LastAccessed, s.ID)
	return err
}

// SetNextQuestion stores a prefetched question payload without touching the
// rest of the session state. The prefetch worker calls this concurrently with
// learner requests.
func (r *StudySessionRepository) SetNextQuestion(ctx context.Context, id uuid.UUID, q *model.GeneratedQuestion) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE study_sessions
		 SET next_question_data = $1, last_accessed = NOW()
		 WHERE id = $2 AND is_active = TRUE`,
		q, id)
	return err
}

// SaveHighlights persists the highlight autosave state only.
func (r *StudySessionRepository) SaveHighlights(ctx context.Context, id uuid.UUID, highlights []model.HighlightSpan) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE study_sessions
		 SET highlights = $1, last_accessed = NOW()
		 WHERE id = $2 AND is_active = TRUE`,
		highlights, id)
	return err
}

// Abandon deactivates any active sessions for a user. Used when starting a
// new session replaces a stale one.
func (r *StudySessionRepository) Abandon(ctx context.Context, userID int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE study_sessions
		 SET is_active = FALSE, last_accessed = NOW()
		 WHERE user_id = $1 AND is_active = TRUE`, userID)
	return err
}
