package models

import "time"

// Tier is the data-quality classification derived from the completeness
// score and core-metric coverage.
type Tier string

const (
	TierGold   Tier = "GOLD"
	TierSilver Tier = "SILVER"
	TierBronze Tier = "BRONZE"
	TierNone   Tier = "NONE"
)

// CompletenessResult is the output of the completeness scorer.
type CompletenessResult struct {
	Score        int  `json:"score"` // 0–100
	Tier         Tier `json:"tier"`
	CoreComplete bool `json:"core_complete"`
	DaysCovered  int  `json:"days_covered"`
}

// DateRange is a half-open [Start, End) export window.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// SourceDistribution is the percentage split of sample provenance across
// device classes. The values are rounded independently and may not sum to
// exactly 100.
type SourceDistribution struct {
	WatchPct int `json:"watch_pct"`
	PhonePct int `json:"phone_pct"`
	OtherPct int `json:"other_pct"`
}

// ManifestCompleteness embeds the scorer output plus the raw record count.
type ManifestCompleteness struct {
	Score        int  `json:"score"`
	Tier         Tier `json:"tier"`
	CoreComplete bool `json:"core_complete"`
	DaysCovered  int  `json:"days_covered"`
	RecordCount  int  `json:"record_count"`
}

// Manifest describes a payload's contents. Built once per sync attempt and
// immutable afterwards; shipped inside the payload it describes.
type Manifest struct {
	Version        string               `json:"version"`
	ExportDate     time.Time            `json:"export_date"`
	UploadDate     time.Time            `json:"upload_date"`
	DateRange      DateRange            `json:"date_range"`
	MetricsPresent []string             `json:"metrics_present"`
	Completeness   ManifestCompleteness `json:"completeness"`
	Sources        SourceDistribution   `json:"sources"`
}

// Payload is the unit shipped to the vault: the manifest plus all daily
// summaries, keyed by date.
type Payload struct {
	Manifest       Manifest                 `json:"manifest"`
	DailySummaries map[string]*DailySummary `json:"daily_summaries"`
}

// SyncResult is the immutable record of one sync attempt's outcome. On
// failure only Error is populated alongside Success=false.
type SyncResult struct {
	Success      bool      `json:"success"`
	StorjURI     string    `json:"storj_uri,omitempty"`
	ContentHash  string    `json:"content_hash,omitempty"`
	Tier         Tier      `json:"tier,omitempty"`
	Score        int       `json:"score,omitempty"`
	MetricsCount int       `json:"metrics_count,omitempty"`
	DaysCovered  int       `json:"days_covered,omitempty"`
	Error        string    `json:"error,omitempty"`
	CompletedAt  time.Time `json:"completed_at"`
}
