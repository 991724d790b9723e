// Package aggregate converts raw sample points into per-day, per-metric
// summaries.
package aggregate

import (
	"time"

	"github.com/vitalvault/vitalvault/internal/metrics"
	"github.com/vitalvault/vitalvault/internal/models"
)

const dateLayout = "2006-01-02"

// BuildDailySummaries folds all fetched points into daily summaries keyed by
// local calendar date. Pure function: no side effects beyond allocation.
//
// Non-sleep metrics group by the point's start date. Sleep groups by the
// end date, so a session starting late at night is attributed to the morning
// it ends.
func BuildDailySummaries(allPoints map[metrics.Kind][]models.DataPoint) map[string]*models.DailySummary {
	days := make(map[string]*models.DailySummary)

	for kind, points := range allPoints {
		switch metrics.CategoryOf(kind) {
		case metrics.Sleep:
			foldSleep(days, points)
		case metrics.Workout:
			foldWorkouts(days, kind, points)
		case metrics.Cumulative:
			foldCumulative(days, kind, points)
		default:
			foldInstantaneous(days, kind, points)
		}
	}

	finalizeSleep(days)
	return days
}

func dayFor(days map[string]*models.DailySummary, t time.Time) *models.DailySummary {
	date := t.Format(dateLayout)
	d, ok := days[date]
	if !ok {
		d = models.NewDailySummary(date)
		days[date] = d
	}
	return d
}

func foldCumulative(days map[string]*models.DailySummary, kind metrics.Kind, points []models.DataPoint) {
	key := metrics.NormalizeKey(string(kind))

	for _, p := range points {
		v, ok := p.NumericValue()
		if !ok {
			continue
		}
		d := dayFor(days, p.StartTime)
		s, ok := d.Metrics[key]
		if !ok {
			s = &models.MetricSummary{Total: new(float64)}
			d.Metrics[key] = s
		}
		*s.Total += v
		s.Count++
	}
}

func foldInstantaneous(days map[string]*models.DailySummary, kind metrics.Kind, points []models.DataPoint) {
	key := metrics.NormalizeKey(string(kind))

	type acc struct {
		sum      float64
		min, max float64
		count    int
		day      *models.DailySummary
	}
	byDate := make(map[string]*acc)

	for _, p := range points {
		v, ok := p.NumericValue()
		if !ok {
			continue
		}
		d := dayFor(days, p.StartTime)
		a, ok := byDate[d.Date]
		if !ok {
			a = &acc{min: v, max: v, day: d}
			byDate[d.Date] = a
		}
		a.sum += v
		a.count++
		if v < a.min {
			a.min = v
		}
		if v > a.max {
			a.max = v
		}
	}

	for _, a := range byDate {
		avg := a.sum / float64(a.count)
		mn, mx := a.min, a.max
		a.day.Metrics[key] = &models.MetricSummary{
			Avg:   &avg,
			Min:   &mn,
			Max:   &mx,
			Count: a.count,
		}
	}
}

// foldWorkouts records workout presence per day. Workout values are activity
// names, never numeric, so only the sample count is carried.
func foldWorkouts(days map[string]*models.DailySummary, kind metrics.Kind, points []models.DataPoint) {
	key := metrics.NormalizeKey(string(kind))

	for _, p := range points {
		d := dayFor(days, p.StartTime)
		s, ok := d.Metrics[key]
		if !ok {
			s = &models.MetricSummary{}
			d.Metrics[key] = s
		}
		s.Count++
	}
}

func foldSleep(days map[string]*models.DailySummary, points []models.DataPoint) {
	for _, p := range points {
		stage, ok := models.ClassifySleepStage(p.Value)
		if !ok {
			continue
		}

		// Wake-up day attribution: group by the sample's end date.
		d := dayFor(days, p.EndTime)
		if d.Sleep == nil {
			d.Sleep = &models.SleepSummary{}
		}

		minutes := p.DurationMinutes()
		switch stage {
		case models.StageInBed:
			d.Sleep.InBedMinutes += minutes
		case models.StageAwake:
			d.Sleep.AwakeMinutes += minutes
		case models.StageDeep:
			d.Sleep.DeepMinutes += minutes
			d.Sleep.TotalAsleepMinutes += minutes
		case models.StageREM:
			d.Sleep.REMMinutes += minutes
			d.Sleep.TotalAsleepMinutes += minutes
		case models.StageCore, models.StageAsleep:
			// Generic "asleep" carries no stage detail and folds into core.
			d.Sleep.CoreMinutes += minutes
			d.Sleep.TotalAsleepMinutes += minutes
		}
	}
}

// finalizeSleep computes per-day sleep efficiency. Efficiency stays nil when
// no in-bed time was measured: absent means unmeasurable, zero would mean
// measured-and-bad.
func finalizeSleep(days map[string]*models.DailySummary) {
	for _, d := range days {
		if d.Sleep == nil {
			continue
		}
		if d.Sleep.InBedMinutes > 0 {
			eff := d.Sleep.TotalAsleepMinutes / d.Sleep.InBedMinutes
			d.Sleep.Efficiency = &eff
		}
	}
}
