package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// SampleTime handles the health-bridge date format: "2006-01-02 15:04:05 -0700"
// Also handles the date-only format "2006-01-02" used in aggregated samples.
type SampleTime struct {
	time.Time
}

const (
	SampleTimeLayout     = "2006-01-02 15:04:05 -0700"
	SampleDateOnlyLayout = "2006-01-02"
)

func (t *SampleTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return t.Parse(s)
}

func (t SampleTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(SampleTimeLayout))
}

// Parse parses a sample time string, trying full datetime first, then date-only.
func (t *SampleTime) Parse(s string) error {
	parsed, err := time.Parse(SampleTimeLayout, s)
	if err == nil {
		t.Time = parsed
		return nil
	}
	parsed, err2 := time.Parse(SampleDateOnlyLayout, s)
	if err2 == nil {
		t.Time = parsed
		return nil
	}
	return fmt.Errorf("cannot parse sample time %q: %w", s, err)
}

// DataPoint is a single timestamped measurement as produced by a sample
// source. Value is a string so continuous quantities and categorical labels
// (sleep stage names, workout activity names) share one shape.
type DataPoint struct {
	Kind      string    `json:"kind"`
	Value     string    `json:"value"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Source    string    `json:"source,omitempty"`
	Device    string    `json:"device,omitempty"`
}

// NumericValue parses the point's value as a float. Returns false for
// categorical values.
func (p DataPoint) NumericValue() (float64, bool) {
	v, err := strconv.ParseFloat(p.Value, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// DurationMinutes is the span between start and end in minutes.
func (p DataPoint) DurationMinutes() float64 {
	return p.EndTime.Sub(p.StartTime).Minutes()
}
