package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/notcelab/notce-backend/internal/config"
	"github.com/notcelab/notce-backend/internal/repository"
	"github.com/notcelab/notce-backend/internal/service"
)

// PrefetchWorker consumes prefetch_queue and generates the next question for
// a session ahead of the learner reaching it.
type PrefetchWorker struct {
	sessions *repository.StudySessionRepository
	source   service.QuestionSource
	rdb      *redis.Client
	log      zerolog.Logger
}

// NewPrefetchWorker creates a new PrefetchWorker.
func NewPrefetchWorker(sessions *repository.StudySessionRepository, source service.QuestionSource, rdb *redis.Client, log zerolog.Logger) *PrefetchWorker {
	return &PrefetchWorker{
		sessions: sessions,
		source:   source,
		rdb:      rdb,
		log:      log.With().Str("component", "prefetch_worker").Logger(),
	}
}

// Start begins the worker loop. Call in a goroutine.
func (w *PrefetchWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *PrefetchWorker) processNext(ctx context.Context) {
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.PrefetchQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}
	if len(result) < 2 {
		return
	}

	var job repository.PrefetchJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		w.log.Error().Err(err).Msg("Invalid JSON payload")
		return
	}

	// Prefetch failures are never surfaced: the session falls back to
	// synchronous generation on advance.
	if err := w.generate(ctx, job.SessionID); err != nil {
		w.log.Warn().Err(err).Str("session_id", job.SessionID).Msg("Prefetch skipped")
	}
}

func (w *PrefetchWorker) generate(ctx context.Context, rawID string) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return err
	}

	session, err := w.sessions.GetByID(ctx, id)
	if err != nil {
		return err
	}

	// The job may be stale by the time it is picked up.
	if !session.IsActive ||
		session.CurrentQuestion >= session.TotalQuestions ||
		session.NextQuestionData != nil {
		return nil
	}

	q, err := w.source.PracticeQuestion(ctx, session.Domain, session.Difficulty,
		session.CurrentQuestion+1, session.TotalQuestions, session.TopicsCovered)
	if err != nil {
		return err
	}

	if err := w.sessions.SetNextQuestion(ctx, id, q); err != nil {
		return err
	}

	w.log.Info().
		Str("session_id", rawID).
		Int("question", session.CurrentQuestion+1).
		Msg("Next question prefetched")
	return nil
}
