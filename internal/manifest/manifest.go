// Package manifest assembles the transfer manifest describing an upload
// payload.
package manifest

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/vitalvault/vitalvault/internal/metrics"
	"github.com/vitalvault/vitalvault/internal/models"
)

// Version identifies the manifest schema carried in every payload.
const Version = "1.0"

// MetricsPresent collects the normalized metric keys present anywhere in the
// daily summaries. A sleep summary on any day counts as the sleep metric.
func MetricsPresent(days map[string]*models.DailySummary) map[string]bool {
	present := make(map[string]bool)
	for _, d := range days {
		for key := range d.Metrics {
			present[key] = true
		}
		if d.Sleep != nil {
			present[metrics.NormalizeKey(string(metrics.SleepAnalysis))] = true
		}
	}
	return present
}

// Build constructs the manifest for one sync attempt. points is the full
// fetched set, used for the record count and the source distribution.
func Build(days map[string]*models.DailySummary, points map[metrics.Kind][]models.DataPoint, comp models.CompletenessResult, start, end, now time.Time) models.Manifest {
	present := MetricsPresent(days)
	keys := make([]string, 0, len(present))
	for key := range present {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	recordCount := 0
	for _, pts := range points {
		recordCount += len(pts)
	}

	return models.Manifest{
		Version:        Version,
		ExportDate:     now,
		UploadDate:     now,
		DateRange:      models.DateRange{Start: start, End: end},
		MetricsPresent: keys,
		Completeness: models.ManifestCompleteness{
			Score:        comp.Score,
			Tier:         comp.Tier,
			CoreComplete: comp.CoreComplete,
			DaysCovered:  comp.DaysCovered,
			RecordCount:  recordCount,
		},
		Sources: sourceDistribution(points),
	}
}

// sourceDistribution classifies each point's provenance as watch, phone, or
// other by case-insensitive substring match and returns rounded percentages.
// The rounding is independent per bucket; a sum slightly off 100 is accepted
// as display-only imprecision.
func sourceDistribution(points map[metrics.Kind][]models.DataPoint) models.SourceDistribution {
	var watch, phone, other, total int

	for _, pts := range points {
		for _, p := range pts {
			total++
			origin := strings.ToLower(p.Source + " " + p.Device)
			switch {
			case strings.Contains(origin, "watch"):
				watch++
			case strings.Contains(origin, "phone"):
				phone++
			default:
				other++
			}
		}
	}

	// Floor the divisor at 1 to avoid dividing by zero on an empty set.
	div := total
	if div < 1 {
		div = 1
	}

	pct := func(n int) int {
		return int(math.Round(float64(n) * 100 / float64(div)))
	}
	return models.SourceDistribution{
		WatchPct: pct(watch),
		PhonePct: pct(phone),
		OtherPct: pct(other),
	}
}
