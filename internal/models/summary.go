package models

// MetricSummary is one day of one metric. Exactly one of Total or Avg/Min/Max
// is populated, selected by the metric's category: cumulative metrics carry a
// total, instantaneous metrics carry avg/min/max.
type MetricSummary struct {
	Total *float64 `json:"total,omitempty"`
	Avg   *float64 `json:"avg,omitempty"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
	Count int      `json:"count"`
}

// SleepSummary holds one night's stage durations, attributed to the wake-up
// day. Efficiency is nil (not zero) when no in-bed time was measured.
type SleepSummary struct {
	TotalAsleepMinutes float64  `json:"total_asleep_minutes"`
	InBedMinutes       float64  `json:"in_bed_minutes"`
	AwakeMinutes       float64  `json:"awake_minutes"`
	CoreMinutes        float64  `json:"core_minutes"`
	DeepMinutes        float64  `json:"deep_minutes"`
	REMMinutes         float64  `json:"rem_minutes"`
	Efficiency         *float64 `json:"efficiency,omitempty"`
}

// DailySummary is one calendar day of aggregated data, keyed by local date
// string ("2006-01-02"). Metrics map normalized metric keys to summaries.
type DailySummary struct {
	Date    string                    `json:"date"`
	Metrics map[string]*MetricSummary `json:"metrics"`
	Sleep   *SleepSummary             `json:"sleep,omitempty"`
}

// NewDailySummary creates an empty summary for the given date.
func NewDailySummary(date string) *DailySummary {
	return &DailySummary{
		Date:    date,
		Metrics: make(map[string]*MetricSummary),
	}
}
