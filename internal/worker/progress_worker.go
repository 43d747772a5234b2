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
)

// ProgressWorker consumes progress_save_queue and persists highlight
// autosaves captured over the WebSocket stream.
type ProgressWorker struct {
	sessions *repository.StudySessionRepository
	rdb      *redis.Client
	log      zerolog.Logger
}

// NewProgressWorker creates a new ProgressWorker.
func NewProgressWorker(sessions *repository.StudySessionRepository, rdb *redis.Client, log zerolog.Logger) *ProgressWorker {
	return &ProgressWorker{
		sessions: sessions,
		rdb:      rdb,
		log:      log.With().Str("component", "progress_worker").Logger(),
	}
}

// Start begins the worker loop. Call in a goroutine.
func (w *ProgressWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *ProgressWorker) processNext(ctx context.Context) {
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.ProgressSaveQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}
	if len(result) < 2 {
		return
	}

	var job repository.ProgressJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		w.log.Error().Err(err).Msg("Invalid JSON payload")
		return
	}

	if err := w.persist(ctx, &job); err != nil {
		w.log.Error().Err(err).Str("session_id", job.SessionID).Msg("Persist error, retrying in 5s")
		w.rdb.RPush(ctx, config.WorkerKey.ProgressSaveQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *ProgressWorker) persist(ctx context.Context, job *repository.ProgressJob) error {
	id, err := uuid.Parse(job.SessionID)
	if err != nil {
		return err
	}

	// Saves against an inactive session are a no-op in the repository.
	return w.sessions.SaveHighlights(ctx, id, job.Highlights)
}

// drain processes all remaining autosaves before shutdown.
func (w *ProgressWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.ProgressSaveQueue).Result()
		if err != nil {
			break
		}

		var job repository.ProgressJob
		if err := json.Unmarshal([]byte(result), &job); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.persist(ctx, &job); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.ProgressSaveQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining autosaves")
	}
}
