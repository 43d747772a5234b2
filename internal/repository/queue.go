package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/notcelab/notce-backend/internal/config"
	"github.com/notcelab/notce-backend/internal/model"
	"github.com/redis/go-redis/v9"
)

// PrefetchJob asks the prefetch worker to generate the next question for a
// session.
type PrefetchJob struct {
	SessionID string `json:"session_id"`
}

// CaseGenJob asks the case generation worker to add a case to the library.
type CaseGenJob struct {
	Domain     model.DomainTag  `json:"domain"`
	Difficulty model.Difficulty `json:"difficulty"`
}

// ProgressJob carries a highlight autosave captured over the WebSocket
// stream to the progress worker.
type ProgressJob struct {
	SessionID  string                `json:"session_id"`
	Highlights []model.HighlightSpan `json:"highlights"`
}

// Queue pushes background jobs onto the Redis worker queues.
type Queue struct {
	rdb *redis.Client
}

// NewQueue creates a new Queue.
func NewQueue(rdb *redis.Client) *Queue {
	return &Queue{rdb: rdb}
}

func (q *Queue) push(ctx context.Context, key string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return q.rdb.RPush(ctx, key, raw).Err()
}

// EnqueuePrefetch schedules next-question generation for a session.
func (q *Queue) EnqueuePrefetch(ctx context.Context, sessionID string) error {
	return q.push(ctx, config.WorkerKey.PrefetchQueue, PrefetchJob{SessionID: sessionID})
}

// EnqueueAnswerEvent archives a graded answer asynchronously.
func (q *Queue) EnqueueAnswerEvent(ctx context.Context, e *model.AnswerEvent) error {
	return q.push(ctx, config.WorkerKey.AnswerEventsQueue, e)
}

// EnqueueCaseGeneration schedules background case library generation.
func (q *Queue) EnqueueCaseGeneration(ctx context.Context, domain model.DomainTag, difficulty model.Difficulty) error {
	return q.push(ctx, config.WorkerKey.CaseGenerationQueue, CaseGenJob{Domain: domain, Difficulty: difficulty})
}

// EnqueueProgressSave schedules a highlight autosave.
func (q *Queue) EnqueueProgressSave(ctx context.Context, sessionID string, highlights []model.HighlightSpan) error {
	return q.push(ctx, config.WorkerKey.ProgressSaveQueue, ProgressJob{SessionID: sessionID, Highlights: highlights})
}
