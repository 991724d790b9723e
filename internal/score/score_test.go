package score

import (
	"fmt"
	"testing"
	"time"

	"github.com/vitalvault/vitalvault/internal/metrics"
	"github.com/vitalvault/vitalvault/internal/models"
)

func presentKeys(core, other int) map[string]bool {
	present := make(map[string]bool)
	coreLeft, otherLeft := core, other
	for _, e := range metrics.Registry {
		key := metrics.NormalizeKey(string(e.Kind))
		if e.Core && coreLeft > 0 {
			present[key] = true
			coreLeft--
		} else if !e.Core && otherLeft > 0 {
			present[key] = true
			otherLeft--
		}
	}
	// Top up "other" with synthetic keys when the registry runs out.
	for i := 0; otherLeft > 0; i++ {
		present[fmt.Sprintf("ExtraMetric%d", i)] = true
		otherLeft--
	}
	return present
}

func rangeOfDays(days int) (time.Time, time.Time) {
	end := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return end.AddDate(0, 0, -days), end
}

func TestScoreBoundaries(t *testing.T) {
	tests := []struct {
		name         string
		core, other  int
		days         int
		wantScore    int
		wantTier     models.Tier
		wantComplete bool
	}{
		{
			// 50*(7/9) + 0 + 20 = 58.9 → floor 58. Core is complete but the
			// score is below 60, so the tier is BRONZE.
			name: "seven core full days",
			core: 7, other: 0, days: 90,
			wantScore: 58, wantTier: models.TierBronze, wantComplete: true,
		},
		{
			// All 9 core + 6 other + full days: 50 + 12 + 20 = 82.
			name: "gold",
			core: 9, other: 6, days: 120,
			wantScore: 82, wantTier: models.TierGold, wantComplete: true,
		},
		{
			// 50*(8/9)=44.4 + 2 + 20 = 66.8 → floor 66 → SILVER.
			name: "silver",
			core: 8, other: 1, days: 90,
			wantScore: 66, wantTier: models.TierSilver, wantComplete: true,
		},
		{
			// 50*(3/9)=16.6 + 0 + 4.4 = 21.1 → floor 21 → NONE.
			name: "sparse",
			core: 3, other: 0, days: 20,
			wantScore: 21, wantTier: models.TierNone, wantComplete: false,
		},
		{
			// 6 core misses the ≥7 rule: 33.3 + 30 + 20 = 83.3 → floor 83,
			// but GOLD and SILVER require core completeness → BRONZE.
			name: "high score without core completeness",
			core: 6, other: 20, days: 365,
			wantScore: 83, wantTier: models.TierBronze, wantComplete: false,
		},
		{
			name: "empty",
			core: 0, other: 0, days: 0,
			wantScore: 0, wantTier: models.TierNone, wantComplete: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := rangeOfDays(tt.days)
			got := Score(presentKeys(tt.core, tt.other), start, end)

			if got.Score != tt.wantScore {
				t.Errorf("score = %d, want %d", got.Score, tt.wantScore)
			}
			if got.Tier != tt.wantTier {
				t.Errorf("tier = %s, want %s", got.Tier, tt.wantTier)
			}
			if got.CoreComplete != tt.wantComplete {
				t.Errorf("coreComplete = %v, want %v", got.CoreComplete, tt.wantComplete)
			}
			if got.DaysCovered != tt.days {
				t.Errorf("daysCovered = %d, want %d", got.DaysCovered, tt.days)
			}
		})
	}
}

func TestOtherScoreCapped(t *testing.T) {
	// 25 other metrics would be 50 points uncapped; the cap is 30.
	// 0 core + 30 + 20 = 50 → BRONZE.
	start, end := rangeOfDays(90)
	got := Score(presentKeys(0, 25), start, end)
	if got.Score != 50 {
		t.Errorf("score = %d, want 50 (other capped at 30)", got.Score)
	}
	if got.Tier != models.TierBronze {
		t.Errorf("tier = %s, want BRONZE", got.Tier)
	}
}

func TestDaysScoreCapped(t *testing.T) {
	// 400 days earns no more than 90 days.
	start, end := rangeOfDays(400)
	got := Score(presentKeys(0, 0), start, end)
	if got.Score != 20 {
		t.Errorf("score = %d, want 20 (days capped)", got.Score)
	}
}

func TestDaysScoreProRated(t *testing.T) {
	// 45 of 90 days → 10 points.
	start, end := rangeOfDays(45)
	got := Score(presentKeys(0, 0), start, end)
	if got.Score != 10 {
		t.Errorf("score = %d, want 10", got.Score)
	}
}

func TestTierRequiresCoreCompleteness(t *testing.T) {
	// A persisted score of 80 without core completeness must re-derive to
	// BRONZE, never GOLD.
	if tier := tierFor(80, false); tier != models.TierBronze {
		t.Errorf("tierFor(80, false) = %s, want BRONZE", tier)
	}
	if tier := tierFor(80, true); tier != models.TierGold {
		t.Errorf("tierFor(80, true) = %s, want GOLD", tier)
	}
	if tier := tierFor(60, true); tier != models.TierSilver {
		t.Errorf("tierFor(60, true) = %s, want SILVER", tier)
	}
	if tier := tierFor(40, false); tier != models.TierBronze {
		t.Errorf("tierFor(40, false) = %s, want BRONZE", tier)
	}
	if tier := tierFor(39, true); tier != models.TierNone {
		t.Errorf("tierFor(39, true) = %s, want NONE", tier)
	}
}
