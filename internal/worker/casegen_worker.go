package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/notcelab/notce-backend/internal/config"
	"github.com/notcelab/notce-backend/internal/repository"
	"github.com/notcelab/notce-backend/internal/service"
)

// CaseGenTimeout bounds one library generation; case generation is the
// slowest AI call in the system.
const CaseGenTimeout = 90 * time.Second

// CaseGenWorker consumes case_generation_queue and tops up the case study
// library in the background.
type CaseGenWorker struct {
	caseService *service.CaseService
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewCaseGenWorker creates a new CaseGenWorker.
func NewCaseGenWorker(caseService *service.CaseService, rdb *redis.Client, log zerolog.Logger) *CaseGenWorker {
	return &CaseGenWorker{
		caseService: caseService,
		rdb:         rdb,
		log:         log.With().Str("component", "casegen_worker").Logger(),
	}
}

// Start begins the worker loop. Call in a goroutine.
func (w *CaseGenWorker) Start(ctx context.Context) {
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

func (w *CaseGenWorker) processNext(ctx context.Context) {
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.CaseGenerationQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}
	if len(result) < 2 {
		return
	}

	var job repository.CaseGenJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		w.log.Error().Err(err).Msg("Invalid JSON payload")
		return
	}

	genCtx, cancel := context.WithTimeout(context.Background(), CaseGenTimeout)
	defer cancel()

	cs, err := w.caseService.GenerateBackground(genCtx, job.Domain, job.Difficulty)
	if err != nil {
		// Dropped, not requeued: a failed AI call usually fails again and a
		// stuck job would starve the queue.
		w.log.Warn().Err(err).Str("domain", string(job.Domain)).Msg("Background case generation failed")
		return
	}

	w.log.Info().Str("case_id", cs.ID).Str("domain", string(job.Domain)).Msg("Library case generated")
}
