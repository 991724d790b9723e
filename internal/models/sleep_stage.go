package models

import "strings"

// SleepStage is the classified stage of a single sleep sample.
type SleepStage int

const (
	StageUnknown SleepStage = iota
	StageInBed
	StageAwake
	StageCore
	StageDeep
	StageREM
	StageAsleep // generic "asleep" with no stage detail; folds into core
)

// String returns the canonical English stage name.
func (s SleepStage) String() string {
	switch s {
	case StageInBed:
		return "In Bed"
	case StageAwake:
		return "Awake"
	case StageCore:
		return "Core"
	case StageDeep:
		return "Deep"
	case StageREM:
		return "REM"
	case StageAsleep:
		return "Asleep"
	default:
		return "Unknown"
	}
}

// sleepStageMap maps lowercased stage labels to stages. Health exports
// localize stage names, so the common non-English labels are included.
var sleepStageMap = map[string]SleepStage{
	// English
	"core":   StageCore,
	"deep":   StageDeep,
	"rem":    StageREM,
	"awake":  StageAwake,
	"in bed": StageInBed,
	"inbed":  StageInBed,
	"asleep": StageAsleep,

	// HealthKit category value identifiers, as some bridges emit raw names
	"asleepcore":        StageCore,
	"asleepdeep":        StageDeep,
	"asleeprem":         StageREM,
	"asleepunspecified": StageAsleep,

	// German
	"kern":    StageCore,
	"tief":    StageDeep,
	"wach":    StageAwake,
	"im bett": StageInBed,

	// French
	"paradoxal": StageREM,
	"profond":   StageDeep,
	"léger":     StageCore,
	"éveillé":   StageAwake,
	"au lit":    StageInBed,
	"endormi":   StageAsleep,

	// Spanish / Portuguese
	"profundo":   StageDeep,
	"principal":  StageCore,
	"despierto":  StageAwake,
	"en la cama": StageInBed,
	"dormido":    StageAsleep,

	// Japanese
	"コア":   StageCore,
	"深い":   StageDeep,
	"レム":   StageREM,
	"覚醒":   StageAwake,
	"ベッドで": StageInBed,

	// Chinese (Simplified)
	"核心":   StageCore,
	"深度":   StageDeep,
	"快速眼动": StageREM,
	"清醒":   StageAwake,
	"在床上":  StageInBed,
}

// ClassifySleepStage maps a possibly-localized sleep stage label to its
// stage. Returns StageUnknown and false for unrecognized labels.
func ClassifySleepStage(raw string) (SleepStage, bool) {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if stage, ok := sleepStageMap[lower]; ok {
		return stage, true
	}
	return StageUnknown, false
}
