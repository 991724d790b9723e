// Package source defines the sample source contract and the Health Auto
// Export TCP bridge implementation that backs it.
package source

import (
	"context"
	"errors"
	"time"

	"github.com/vitalvault/vitalvault/internal/metrics"
	"github.com/vitalvault/vitalvault/internal/models"
)

// ErrUnavailable indicates the source is categorically unable to serve any
// retrieval (bridge unreachable, capability absent). Per-metric failures use
// ordinary errors and are not fatal to a batch.
var ErrUnavailable = errors.New("sample source unavailable")

// Source produces timestamped samples for one metric kind over a date range.
// Implementations must tolerate one call per tracked kind per sync.
type Source interface {
	Fetch(ctx context.Context, kind metrics.Kind, start, end time.Time) ([]models.DataPoint, error)
}
