package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/notcelab/notce-backend/internal/config"
	"github.com/notcelab/notce-backend/internal/database"
	"github.com/notcelab/notce-backend/internal/gemini"
	"github.com/notcelab/notce-backend/internal/logger"
	"github.com/notcelab/notce-backend/internal/model"
	"github.com/notcelab/notce-backend/internal/repository"
	"github.com/notcelab/notce-backend/internal/service"
)

// Seeds the case study library by generating cases round-robin across the
// six competency domains. Slow by nature: one live AI call per case.
func main() {
	var count int
	flag.IntVar(&count, "count", 12, "Number of cases to generate")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	if cfg.GeminiAPIKey == "" {
		log.Fatal().Msg("GEMINI_API_KEY is required")
	}
	source, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GenTimeout, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	caseRepo := repository.NewCaseRepository(pool)
	progressRepo := repository.NewCaseProgressRepository(pool)
	memoryRepo := repository.NewMemoryRepository(pool)
	queue := repository.NewQueue(rdb)
	caseService := service.NewCaseService(caseRepo, progressRepo, memoryRepo, source, queue, rdb, log)

	existing, err := caseRepo.Count(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to count cases")
	}
	fmt.Printf("=== Seeding %d Cases (library currently holds %d) ===\n", count, existing)

	difficulties := []model.Difficulty{model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard}

	successCount := 0
	for i := 0; i < count; i++ {
		domain := model.AllDomains[i%len(model.AllDomains)]
		difficulty := difficulties[(i/len(model.AllDomains))%len(difficulties)]

		cs, err := caseService.GenerateBackground(ctx, domain, difficulty)
		if err != nil {
			fmt.Printf("Error generating case %d (%s/%s): %v\n", i+1, domain, difficulty, err)
			continue
		}
		successCount++
		fmt.Printf("Created %s: %q (%s, %s, %d questions)\n",
			cs.ID, cs.Title, domain, difficulty, len(cs.Questions))
	}

	fmt.Printf("\nSeed completed! Successfully added %d/%d cases.\n", successCount, count)
}
