// Package score computes the data-completeness rubric. The arithmetic here
// is load-bearing: attestation consumers re-derive tiers from the persisted
// score, so thresholds, weights, and rounding must not drift.
package score

import (
	"math"
	"time"

	"github.com/vitalvault/vitalvault/internal/metrics"
	"github.com/vitalvault/vitalvault/internal/models"
)

const (
	coreMaxPoints  = 50.0
	otherMaxPoints = 30.0
	daysMaxPoints  = 20.0

	pointsPerOtherMetric = 2.0
	fullCreditDays       = 90.0

	// coreCompleteThreshold: at least 7 of the 9 core metrics present.
	coreCompleteThreshold = 7
)

// Score evaluates the completeness of a data set. metricsPresent holds
// normalized metric keys; the range is [start, end]. Pure and deterministic.
func Score(metricsPresent map[string]bool, start, end time.Time) models.CompletenessResult {
	coreKeys := metrics.CoreKeys()

	corePresent := 0
	otherPresent := 0
	for key := range metricsPresent {
		if coreKeys[key] {
			corePresent++
		} else {
			otherPresent++
		}
	}

	coreComplete := corePresent >= coreCompleteThreshold
	coreScore := float64(corePresent) / float64(metrics.CoreCount) * coreMaxPoints
	otherScore := math.Min(otherMaxPoints, float64(otherPresent)*pointsPerOtherMetric)

	daysCovered := int(end.Sub(start).Hours() / 24)
	daysScore := math.Min(daysMaxPoints, float64(daysCovered)/fullCreditDays*daysMaxPoints)

	total := int(math.Floor(coreScore + otherScore + daysScore))

	return models.CompletenessResult{
		Score:        total,
		Tier:         tierFor(total, coreComplete),
		CoreComplete: coreComplete,
		DaysCovered:  daysCovered,
	}
}

// tierFor assigns the tier, first match wins. GOLD and SILVER require the
// core set to be complete; BRONZE does not.
func tierFor(score int, coreComplete bool) models.Tier {
	switch {
	case score >= 80 && coreComplete:
		return models.TierGold
	case score >= 60 && coreComplete:
		return models.TierSilver
	case score >= 40:
		return models.TierBronze
	default:
		return models.TierNone
	}
}
