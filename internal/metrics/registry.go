// Package metrics holds the closed registry of tracked metric kinds and the
// aggregation policy attached to each. Everything that dispatches on metric
// kind (fetch shape selection, daily aggregation, completeness scoring) goes
// through this table rather than branching inline.
package metrics

import "strings"

// Kind identifies a tracked health measurement category, using the
// platform's type identifiers.
type Kind string

// Category selects the aggregation policy for a kind.
type Category int

const (
	// Cumulative metrics sum across a day (steps, distance, energy).
	Cumulative Category = iota
	// Instantaneous metrics average across a day with min/max extremes
	// (heart rate, HRV, blood oxygen).
	Instantaneous
	// Sleep samples carry stage labels and aggregate by wake-up day.
	Sleep
	// Workout samples are recorded individually, never aggregated.
	Workout
)

// Tracked metric kinds.
const (
	StepCount                Kind = "HKQuantityTypeIdentifierStepCount"
	DistanceWalkingRunning   Kind = "HKQuantityTypeIdentifierDistanceWalkingRunning"
	ActiveEnergyBurned       Kind = "HKQuantityTypeIdentifierActiveEnergyBurned"
	FlightsClimbed           Kind = "HKQuantityTypeIdentifierFlightsClimbed"
	AppleExerciseTime        Kind = "HKQuantityTypeIdentifierAppleExerciseTime"
	HeartRate                Kind = "HKQuantityTypeIdentifierHeartRate"
	RestingHeartRate         Kind = "HKQuantityTypeIdentifierRestingHeartRate"
	HeartRateVariabilitySDNN Kind = "HKQuantityTypeIdentifierHeartRateVariabilitySDNN"
	RespiratoryRate          Kind = "HKQuantityTypeIdentifierRespiratoryRate"
	OxygenSaturation         Kind = "HKQuantityTypeIdentifierOxygenSaturation"
	BodyTemperature          Kind = "HKQuantityTypeIdentifierBodyTemperature"
	BodyMass                 Kind = "HKQuantityTypeIdentifierBodyMass"
	VO2Max                   Kind = "HKQuantityTypeIdentifierVO2Max"
	SleepAnalysis            Kind = "HKCategoryTypeIdentifierSleepAnalysis"
	WorkoutType              Kind = "HKWorkoutTypeIdentifierWorkout"
)

// Entry describes one tracked kind.
type Entry struct {
	Kind     Kind
	Category Category
	Label    string // human-readable, used in progress messages
	Core     bool   // one of the 9 kinds anchoring the completeness rubric
}

// Registry is the ordered list of all tracked kinds. Order determines fetch
// order and progress fractions.
var Registry = []Entry{
	{StepCount, Cumulative, "step count", true},
	{HeartRate, Instantaneous, "heart rate", true},
	{SleepAnalysis, Sleep, "sleep analysis", true},
	{ActiveEnergyBurned, Cumulative, "active energy", true},
	{RestingHeartRate, Instantaneous, "resting heart rate", true},
	{HeartRateVariabilitySDNN, Instantaneous, "heart rate variability", true},
	{DistanceWalkingRunning, Cumulative, "walking distance", true},
	{RespiratoryRate, Instantaneous, "respiratory rate", true},
	{OxygenSaturation, Instantaneous, "blood oxygen", true},
	{FlightsClimbed, Cumulative, "flights climbed", false},
	{AppleExerciseTime, Cumulative, "exercise time", false},
	{BodyTemperature, Instantaneous, "body temperature", false},
	{BodyMass, Instantaneous, "body mass", false},
	{VO2Max, Instantaneous, "VO2 max", false},
	{WorkoutType, Workout, "workouts", false},
}

// CoreCount is the size of the core metric set gating GOLD/SILVER.
const CoreCount = 9

var byKind = func() map[Kind]Entry {
	m := make(map[Kind]Entry, len(Registry))
	for _, e := range Registry {
		m[e.Kind] = e
	}
	return m
}()

// Lookup returns the registry entry for a kind.
func Lookup(kind Kind) (Entry, bool) {
	e, ok := byKind[kind]
	return e, ok
}

// CategoryOf returns the aggregation category for a kind. Unregistered kinds
// default to Instantaneous (average-only aggregation).
func CategoryOf(kind Kind) Category {
	if e, ok := byKind[kind]; ok {
		return e.Category
	}
	return Instantaneous
}

// CoreKeys returns the normalized keys of the core metric set.
func CoreKeys() map[string]bool {
	keys := make(map[string]bool, CoreCount)
	for _, e := range Registry {
		if e.Core {
			keys[NormalizeKey(string(e.Kind))] = true
		}
	}
	return keys
}

// typePrefixes are the platform type-name prefixes stripped from metric keys
// before they are surfaced anywhere (summaries, manifests, score input).
var typePrefixes = []string{
	"HKQuantityTypeIdentifier",
	"HKCategoryTypeIdentifier",
	"HKWorkoutTypeIdentifier",
	"HKDataTypeIdentifier",
}

// NormalizeKey strips platform type-name prefixes so the same logical metric
// never appears under two different keys.
func NormalizeKey(kind string) string {
	for _, p := range typePrefixes {
		if strings.HasPrefix(kind, p) {
			return strings.TrimPrefix(kind, p)
		}
	}
	return kind
}
