package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/notcelab/notce-backend/internal/config"
	"github.com/notcelab/notce-backend/internal/model"
	"github.com/notcelab/notce-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrCaseNotFound indicates a missing case study or case question.
var ErrCaseNotFound = errors.New("case study not found")

const casePayloadTTL = 10 * time.Minute

// CaseService manages the case study library: listing, AI generation, and
// per-user resume progress.
type CaseService struct {
	cases    *repository.CaseRepository
	progress *repository.CaseProgressRepository
	memories *repository.MemoryRepository
	source   QuestionSource
	queue    JobQueue
	rdb      *redis.Client
	log      zerolog.Logger
}

// NewCaseService creates a new CaseService.
func NewCaseService(cases *repository.CaseRepository, progress *repository.CaseProgressRepository, memories *repository.MemoryRepository, source QuestionSource, queue JobQueue, rdb *redis.Client, log zerolog.Logger) *CaseService {
	return &CaseService{
		cases:    cases,
		progress: progress,
		memories: memories,
		source:   source,
		queue:    queue,
		rdb:      rdb,
		log:      log.With().Str("component", "case_service").Logger(),
	}
}

// List returns case summaries without question bodies.
func (s *CaseService) List(ctx context.Context) ([]model.CaseStudy, error) {
	return s.cases.List(ctx)
}

// Get returns a full case with questions, via a short-lived Redis cache.
// Case content is immutable after creation so staleness is bounded by TTL
// on the list only.
func (s *CaseService) Get(ctx context.Context, id string) (*model.CaseStudy, error) {
	key := config.CacheKey.CasePayloadKey(id)
	if cached, err := s.rdb.Get(ctx, key).Result(); err == nil {
		var cs model.CaseStudy
		if err := json.Unmarshal([]byte(cached), &cs); err == nil {
			return &cs, nil
		}
	}

	cs, err := s.cases.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}

	if raw, err := json.Marshal(cs); err == nil {
		if err := s.rdb.Set(ctx, key, raw, casePayloadTTL).Err(); err != nil {
			s.log.Warn().Err(err).Str("case_id", id).Msg("Case payload cache write failed")
		}
	}
	return cs, nil
}

// Generate produces a new case synchronously, persists it, and records it in
// agent memory. userID 0 means no memory entry (background generation).
func (s *CaseService) Generate(ctx context.Context, userID int, req *model.GenerateCaseRequest) (*model.CaseStudy, error) {
	domain := req.Domain
	if domain == "" {
		domain = model.DomainOTExpertise
	}
	if !domain.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDomain, domain)
	}
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = model.DifficultyMedium
	}
	return s.generateAndStore(ctx, userID, domain, difficulty, "AI-Generated")
}

// GenerateBackground is the worker entry point for topping up the library.
func (s *CaseService) GenerateBackground(ctx context.Context, domain model.DomainTag, difficulty model.Difficulty) (*model.CaseStudy, error) {
	if !domain.Valid() {
		domain = model.DomainOTExpertise
	}
	if difficulty == "" {
		difficulty = model.DifficultyMedium
	}
	return s.generateAndStore(ctx, 0, domain, difficulty, "Prefetched")
}

func (s *CaseService) generateAndStore(ctx context.Context, userID int, domain model.DomainTag, difficulty model.Difficulty, tag string) (*model.CaseStudy, error) {
	generated, err := s.source.CaseStudy(ctx, domain, difficulty)
	if err != nil {
		s.log.Error().Err(err).Str("domain", string(domain)).Msg("Case generation failed")
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	cs := assembleCase(generated, domain, difficulty, tag)
	if err := s.cases.CreateWithQuestions(ctx, cs); err != nil {
		return nil, fmt.Errorf("persist case: %w", err)
	}

	// Drop the stale library listing.
	if err := s.rdb.Del(ctx, config.CacheKey.CaseListKey()).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Case list cache invalidation failed")
	}

	if userID != 0 {
		value, _ := json.Marshal(map[string]string{"title": cs.Title, "domain": string(domain)})
		mem := &model.AgentMemory{
			UserID:   userID,
			Key:      fmt.Sprintf("generated_case:%s", cs.ID),
			Value:    value,
			Category: "case_history",
		}
		if err := s.memories.Upsert(ctx, mem); err != nil {
			s.log.Warn().Err(err).Str("case_id", cs.ID).Msg("Case memory record failed")
		}
	}

	s.log.Info().Str("case_id", cs.ID).Str("domain", string(domain)).Int("questions", len(cs.Questions)).Msg("Case study stored")
	return cs, nil
}

// assembleCase assigns short IDs and converts generated content into the
// persisted shape. Question IDs derive from the case ID so they stay
// human-scannable.
func assembleCase(g *model.GeneratedCase, domain model.DomainTag, difficulty model.Difficulty, tag string) *model.CaseStudy {
	id := fmt.Sprintf("case-%s", strings.ReplaceAll(uuid.New().String(), "-", "")[:8])

	cs := &model.CaseStudy{
		ID:       id,
		Title:    g.Title,
		Vignette: g.Vignette,
		Setting:  g.Setting,
		Tags:     []string{tag, string(domain), string(difficulty)},
	}
	if cs.Setting == "" {
		cs.Setting = "General"
	}

	for i, gq := range g.Questions {
		cs.Questions = append(cs.Questions, model.CaseQuestion{
			ID:               fmt.Sprintf("%s-q%d", id, i+1),
			CaseStudyID:      id,
			Stem:             gq.Stem,
			Domain:           gq.Domain,
			CorrectLabel:     strings.ToUpper(gq.CorrectLabel),
			CorrectRationale: gq.CorrectRationale,
			Distractors:      gq.Distractors,
		})
	}
	return cs
}

// Prefetch enqueues background library generation.
func (s *CaseService) Prefetch(ctx context.Context, req *model.GenerateCaseRequest) error {
	domain := req.Domain
	if domain == "" {
		domain = model.DomainOTExpertise
	}
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = model.DifficultyMedium
	}
	return s.queue.EnqueueCaseGeneration(ctx, domain, difficulty)
}

// SaveProgress upserts the user's position in a case.
func (s *CaseService) SaveProgress(ctx context.Context, userID int, req *model.SaveCaseProgressRequest) (*model.CaseProgress, error) {
	if _, err := s.cases.GetByID(ctx, req.CaseStudyID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}

	p := &model.CaseProgress{
		CaseStudyID:  req.CaseStudyID,
		CurrentIndex: req.CurrentIndex,
		IsCompleted:  req.IsCompleted,
	}
	if err := s.progress.Upsert(ctx, userID, p); err != nil {
		return nil, fmt.Errorf("save case progress: %w", err)
	}
	return p, nil
}

// Resume returns progress for a specific case, or the latest unfinished case
// when caseID is empty. Returns nil when there is nothing to resume.
func (s *CaseService) Resume(ctx context.Context, userID int, caseID string) (*model.CaseProgress, error) {
	var (
		p   *model.CaseProgress
		err error
	)
	if caseID != "" {
		p, err = s.progress.Get(ctx, userID, caseID)
	} else {
		p, err = s.progress.GetLatestIncomplete(ctx, userID)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}
