package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/notcelab/notce-backend/internal/model"
)

// DomainRow is one aggregated accuracy row from the answer archive.
type DomainRow struct {
	Domain    model.DomainTag
	Attempted int
	Correct   int
}

// AnswerRepository archives graded answers for analytics.
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

// Insert archives a single answer event.
func (r *AnswerRepository) Insert(ctx context.Context, e *model.AnswerEvent) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_answers
			(user_id, question_id, selected_label, confidence, is_correct, domain, topic, answered_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.UserID, e.QuestionID, e.SelectedLabel, e.Confidence, e.IsCorrect,
		e.Domain, e.Topic, e.AnsweredAt)
	return err
}

// BulkInsert archives a batch of answer events in one statement.
func (r *AnswerRepository) BulkInsert(ctx context.Context, batch []*model.AnswerEvent) error {
	n := len(batch)
	if n == 0 {
		return nil
	}

	userIDs := make([]int, 0, n)
	questionIDs := make([]string, 0, n)
	labels := make([]string, 0, n)
	confidences := make([]string, 0, n)
	corrects := make([]bool, 0, n)
	domains := make([]string, 0, n)
	topics := make([]string, 0, n)
	answeredAts := make([]time.Time, 0, n)

	for _, e := range batch {
		userIDs = append(userIDs, e.UserID)
		questionIDs = append(questionIDs, e.QuestionID)
		labels = append(labels, e.SelectedLabel)
		confidences = append(confidences, string(e.Confidence))
		corrects = append(corrects, e.IsCorrect)
		domains = append(domains, string(e.Domain))
		topics = append(topics, e.Topic)
		answeredAts = append(answeredAts, e.AnsweredAt)
	}

	query := `
		INSERT INTO user_answers
			(user_id, question_id, selected_label, confidence, is_correct, domain, topic, answered_at)
		SELECT u.user_id, u.question_id, u.selected_label, u.confidence,
		       u.is_correct, u.domain, u.topic, u.answered_at
		FROM UNNEST(
			$1::int[],
			$2::text[],
			$3::text[],
			$4::text[],
			$5::boolean[],
			$6::text[],
			$7::text[],
			$8::timestamptz[]
		) AS u (user_id, question_id, selected_label, confidence, is_correct, domain, topic, answered_at)
	`

	_, err := r.pool.Exec(ctx, query,
		userIDs, questionIDs, labels, confidences, corrects, domains, topics, answeredAts)
	return err
}

// DomainBreakdown aggregates a user's attempts and correct counts per domain.
// Domains the user never touched produce no row.
func (r *AnswerRepository) DomainBreakdown(ctx context.Context, userID int) ([]DomainRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT domain,
		        COUNT(*) AS attempted,
		        COUNT(*) FILTER (WHERE is_correct) AS correct
		 FROM user_answers
		 WHERE user_id = $1
		 GROUP BY domain`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DomainRow
	for rows.Next() {
		var d DomainRow
		if err := rows.Scan(&d.Domain, &d.Attempted, &d.Correct); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListByUser retrieves a user's answer history, newest first.
func (r *AnswerRepository) ListByUser(ctx context.Context, userID, limit int) ([]model.UserAnswer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, question_id, selected_label, confidence, is_correct, domain, topic, answered_at
		 FROM user_answers
		 WHERE user_id = $1
		 ORDER BY answered_at DESC
		 LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.UserAnswer
	for rows.Next() {
		var a model.UserAnswer
		if err := rows.Scan(&a.ID, &a.UserID, &a.QuestionID, &a.SelectedLabel,
			&a.Confidence, &a.IsCorrect, &a.Domain, &a.Topic, &a.AnsweredAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}
