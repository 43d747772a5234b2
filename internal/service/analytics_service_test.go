package service

import (
	"context"
	"math"
	"testing"

	"github.com/notcelab/notce-backend/internal/model"
	"github.com/notcelab/notce-backend/internal/repository"
)

type fakeBreakdown struct {
	rows []repository.DomainRow
}

func (f *fakeBreakdown) DomainBreakdown(context.Context, int) ([]repository.DomainRow, error) {
	return f.rows, nil
}

func TestDomainStatsAlwaysCoversAllDomains(t *testing.T) {
	svc := NewAnalyticsService(&fakeBreakdown{rows: []repository.DomainRow{
		{Domain: model.DomainOTExpertise, Attempted: 8, Correct: 6},
		{Domain: model.DomainCEJJustice, Attempted: 3, Correct: 1},
	}})

	stats, err := svc.DomainStats(context.Background(), testUser)
	if err != nil {
		t.Fatalf("DomainStats: %v", err)
	}
	if len(stats) != len(model.AllDomains) {
		t.Fatalf("got %d rows, want %d", len(stats), len(model.AllDomains))
	}

	byDomain := make(map[model.DomainTag]model.DomainStat)
	for _, s := range stats {
		byDomain[s.Domain] = s
	}

	ot := byDomain[model.DomainOTExpertise]
	if ot.Attempted != 8 || ot.Correct != 6 {
		t.Errorf("OT_EXP = %+v", ot)
	}
	if ot.Accuracy != 75.0 {
		t.Errorf("OT_EXP accuracy = %v, want 75.0", ot.Accuracy)
	}
	if ot.Weight != 0.40 {
		t.Errorf("OT_EXP weight = %v, want 0.40", ot.Weight)
	}

	cej := byDomain[model.DomainCEJJustice]
	if cej.Accuracy != 33.3 {
		t.Errorf("CEJ accuracy = %v, want 33.3", cej.Accuracy)
	}

	// Untouched domains report zeros, never divide-by-zero artifacts.
	eng := byDomain[model.DomainEngagement]
	if eng.Attempted != 0 || eng.Correct != 0 || eng.Accuracy != 0 {
		t.Errorf("ENGAGEMENT = %+v", eng)
	}
	if eng.Name == "" {
		t.Error("zero rows still carry the display name")
	}
}

func TestDomainStatsOrderMatchesBlueprint(t *testing.T) {
	svc := NewAnalyticsService(&fakeBreakdown{})
	stats, err := svc.DomainStats(context.Background(), testUser)
	if err != nil {
		t.Fatal(err)
	}
	for i, s := range stats {
		if s.Domain != model.AllDomains[i] {
			t.Errorf("row %d = %s, want %s", i, s.Domain, model.AllDomains[i])
		}
	}
}

func TestDomainWeightsSumToOne(t *testing.T) {
	sum := 0.0
	for _, d := range model.AllDomains {
		sum += d.Weight()
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("weights sum to %v, want 1.00", sum)
	}
}
