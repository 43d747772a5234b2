package service

import (
	"context"
	"fmt"
	"math"

	"github.com/notcelab/notce-backend/internal/model"
	"github.com/notcelab/notce-backend/internal/repository"
)

// breakdownStore aggregates answer history per domain.
type breakdownStore interface {
	DomainBreakdown(ctx context.Context, userID int) ([]repository.DomainRow, error)
}

// AnalyticsService builds the domain-weighted performance read model.
// Everything is recomputed from the answer archive on each read; no derived
// score is ever stored.
type AnalyticsService struct {
	answers breakdownStore
}

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService(answers breakdownStore) *AnalyticsService {
	return &AnalyticsService{answers: answers}
}

// DomainStats returns one row per domain in blueprint order. Domains with no
// attempts appear with zero counts so the client always renders all six.
func (s *AnalyticsService) DomainStats(ctx context.Context, userID int) ([]model.DomainStat, error) {
	rows, err := s.answers.DomainBreakdown(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("domain breakdown: %w", err)
	}

	byDomain := make(map[model.DomainTag]repository.DomainRow, len(rows))
	for _, r := range rows {
		byDomain[r.Domain] = r
	}

	stats := make([]model.DomainStat, 0, len(model.AllDomains))
	for _, d := range model.AllDomains {
		r := byDomain[d]
		stat := model.DomainStat{
			Domain:    d,
			Name:      d.FullName(),
			Attempted: r.Attempted,
			Correct:   r.Correct,
			Weight:    d.Weight(),
		}
		if r.Attempted > 0 {
			stat.Accuracy = math.Round(float64(r.Correct)/float64(r.Attempted)*1000) / 10
		}
		stats = append(stats, stat)
	}
	return stats, nil
}
