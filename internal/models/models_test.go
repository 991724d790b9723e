package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSampleTimeParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
		ok    bool
	}{
		{
			name:  "full datetime with offset",
			input: "2025-01-15 08:30:00 +0100",
			want:  time.Date(2025, 1, 15, 8, 30, 0, 0, time.FixedZone("", 3600)),
			ok:    true,
		},
		{
			name:  "date only",
			input: "2025-01-15",
			want:  time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "garbage",
			input: "yesterday",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var st SampleTime
			err := st.Parse(tt.input)
			if tt.ok != (err == nil) {
				t.Fatalf("Parse(%q) err = %v, want ok=%v", tt.input, err, tt.ok)
			}
			if tt.ok && !st.Time.Equal(tt.want) {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, st.Time, tt.want)
			}
		})
	}
}

func TestSampleTimeJSONRoundTrip(t *testing.T) {
	var st SampleTime
	if err := json.Unmarshal([]byte(`"2025-03-01 22:15:00 +0000"`), &st); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	out, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `"2025-03-01 22:15:00 +0000"` {
		t.Errorf("marshal = %s", out)
	}
}

func TestNumericValue(t *testing.T) {
	if v, ok := (DataPoint{Value: "72.5"}).NumericValue(); !ok || v != 72.5 {
		t.Errorf("NumericValue(72.5) = %v, %v", v, ok)
	}
	if _, ok := (DataPoint{Value: "Core"}).NumericValue(); ok {
		t.Error("categorical value must not parse as numeric")
	}
}

func TestDurationMinutes(t *testing.T) {
	start := time.Date(2025, 3, 1, 23, 0, 0, 0, time.UTC)
	p := DataPoint{StartTime: start, EndTime: start.Add(90 * time.Minute)}
	if got := p.DurationMinutes(); got != 90 {
		t.Errorf("DurationMinutes = %v, want 90", got)
	}
}

func TestClassifySleepStage(t *testing.T) {
	tests := []struct {
		raw   string
		want  SleepStage
		known bool
	}{
		{"Core", StageCore, true},
		{"deep", StageDeep, true},
		{"REM", StageREM, true},
		{"In Bed", StageInBed, true},
		{"Awake", StageAwake, true},
		{"Asleep", StageAsleep, true},
		{"  asleep  ", StageAsleep, true},
		{"AsleepCore", StageCore, true},
		{"AsleepUnspecified", StageAsleep, true},
		{"Kern", StageCore, true},
		{"Tief", StageDeep, true},
		{"profond", StageDeep, true},
		{"コア", StageCore, true},
		{"深度", StageDeep, true},
		{"Nap", StageUnknown, false},
		{"", StageUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ClassifySleepStage(tt.raw)
			if got != tt.want || ok != tt.known {
				t.Errorf("ClassifySleepStage(%q) = %v, %v; want %v, %v",
					tt.raw, got, ok, tt.want, tt.known)
			}
		})
	}
}

func TestSleepStageString(t *testing.T) {
	if got := StageREM.String(); got != "REM" {
		t.Errorf("StageREM.String() = %q", got)
	}
	if got := SleepStage(99).String(); got != "Unknown" {
		t.Errorf("out-of-range stage String() = %q", got)
	}
}
