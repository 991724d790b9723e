// Package syncer drives the staged health-data sync pipeline: fetch fan-out,
// daily aggregation, completeness scoring, manifest assembly, and encrypted
// upload, with retry and background-sync throttling.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vitalvault/vitalvault/internal/aggregate"
	"github.com/vitalvault/vitalvault/internal/fetch"
	"github.com/vitalvault/vitalvault/internal/identity"
	"github.com/vitalvault/vitalvault/internal/manifest"
	"github.com/vitalvault/vitalvault/internal/models"
	"github.com/vitalvault/vitalvault/internal/score"
	"github.com/vitalvault/vitalvault/internal/source"
	"github.com/vitalvault/vitalvault/internal/vaultclient"
)

// Sentinel errors surfaced to callers. The messages double as the
// user-visible Error state text.
var (
	ErrSyncInProgress = errors.New("sync already in progress")
	ErrNotConnected   = errors.New("wallet not connected")
	ErrNoData         = errors.New("no data available")
	ErrNoPendingSync  = errors.New("no pending sync to retry")
)

// Phase is the orchestrator's lifecycle phase.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSyncing
	PhaseError
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSyncing:
		return "syncing"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// SyncState is a snapshot of the orchestrator's state. Progress and Message
// are meaningful while syncing; Message carries the error text in the error
// phase.
type SyncState struct {
	Phase    Phase   `json:"phase"`
	Progress float64 `json:"progress"`
	Message  string  `json:"message,omitempty"`
}

// Pipeline progress constants. The fetch fan-out's internal progress is
// rescaled into [fetchWindowLo, fetchWindowHi].
const (
	progressStarting    = 0.00
	progressFetching    = 0.10
	fetchWindowLo       = 0.10
	fetchWindowHi       = 0.40
	progressAggregating = 0.45
	progressScoring     = 0.50
	progressUploading   = 0.60
	progressAttesting   = 0.90
	progressComplete    = 1.00
)

// defaultRangeDays is the full-sync window when the caller gives no range.
const defaultRangeDays = 365

// backgroundRangeDays is the window for throttled background syncs.
const backgroundRangeDays = 7

// backgroundInterval is the minimum gap between background syncs.
const backgroundInterval = 24 * time.Hour

// completionDwell keeps the "complete" state visible briefly before the
// orchestrator returns to idle.
const completionDwell = 2 * time.Second

// RemoteStore is the slice of the vault client the orchestrator needs.
type RemoteStore interface {
	Store(ctx context.Context, payload *models.Payload, identityAddr string, key []byte) (*vaultclient.StoreResult, error)
}

// Syncer owns the sync state machine. Exactly one attempt may be in flight
// at a time; the pending payload and lastSyncDate are mutated only here.
type Syncer struct {
	fetcher *fetch.Fetcher
	store   RemoteStore
	id      identity.Provider
	state   *StateStore
	log     *slog.Logger

	now   func() time.Time
	dwell time.Duration

	mu           sync.Mutex
	st           SyncState
	running      bool
	pending      *models.Payload
	lastPayload  *models.Payload
	lastResult   *models.SyncResult
	lastSyncDate time.Time
	hasSynced    bool

	events chan SyncState
}

// New creates a Syncer. The last sync date is loaded from the state store so
// background throttling survives restarts.
func New(fetcher *fetch.Fetcher, store RemoteStore, id identity.Provider, state *StateStore, log *slog.Logger) (*Syncer, error) {
	s := &Syncer{
		fetcher: fetcher,
		store:   store,
		id:      id,
		state:   state,
		log:     log,
		now:     time.Now,
		dwell:   completionDwell,
		st:      SyncState{Phase: PhaseIdle},
		events:  make(chan SyncState, 64),
	}

	if state != nil {
		last, ok, err := state.LastSyncDate()
		if err != nil {
			return nil, fmt.Errorf("loading last sync date: %w", err)
		}
		s.lastSyncDate = last
		s.hasSynced = ok
	}
	return s, nil
}

// Events returns the stream of state transitions. The channel is buffered;
// slow consumers miss intermediate snapshots rather than blocking the
// pipeline.
func (s *Syncer) Events() <-chan SyncState {
	return s.events
}

// State returns the current state snapshot.
func (s *Syncer) State() SyncState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st
}

// LastSyncDate returns the time of the last successful sync, or false if
// none has completed.
func (s *Syncer) LastSyncDate() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSyncDate, s.hasSynced
}

// LastResult returns the outcome of the most recent attempt, or nil.
func (s *Syncer) LastResult() *models.SyncResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastResult
}

// LastPayload returns the most recently built payload, successfully uploaded
// or not. Read-only snapshot for inspection surfaces; nil before any build.
func (s *Syncer) LastPayload() *models.Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPayload
}

// HasPending reports whether a built payload is awaiting retry.
func (s *Syncer) HasPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

func (s *Syncer) setState(st SyncState) {
	s.mu.Lock()
	s.st = st
	s.mu.Unlock()

	select {
	case s.events <- st:
	default:
	}
}

func (s *Syncer) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrSyncInProgress
	}
	s.running = true
	return nil
}

func (s *Syncer) finish() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// fail transitions to the error phase, records the failed attempt, and
// returns err unchanged for the caller.
func (s *Syncer) fail(err error) error {
	s.setState(SyncState{Phase: PhaseError, Message: err.Error()})

	result := models.SyncResult{
		Success:     false,
		Error:       err.Error(),
		CompletedAt: s.now(),
	}
	s.recordResult(result)
	return err
}

func (s *Syncer) recordResult(r models.SyncResult) {
	s.mu.Lock()
	s.lastResult = &r
	s.mu.Unlock()

	if s.state != nil {
		if err := s.state.AppendHistory(r); err != nil {
			s.log.Warn("failed to journal sync result", "error", err)
		}
	}
}

// PerformFullSync runs the staged pipeline over [start, end). Zero times
// default to the most recent 365 days ending now. On upload failure the
// built payload is retained for RetrySync.
func (s *Syncer) PerformFullSync(ctx context.Context, start, end time.Time) (*models.SyncResult, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.finish()

	// A fresh full sync abandons any payload from a failed prior attempt.
	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()

	s.setState(SyncState{Phase: PhaseSyncing, Progress: progressStarting, Message: "starting"})

	identityAddr, ok := s.id.Identity()
	if !ok {
		return nil, s.fail(ErrNotConnected)
	}
	key, ok := s.id.CurrentKey()
	if !ok {
		return nil, s.fail(ErrNotConnected)
	}

	if end.IsZero() {
		end = s.now()
	}
	if start.IsZero() {
		start = end.AddDate(0, 0, -defaultRangeDays)
	}

	s.setState(SyncState{Phase: PhaseSyncing, Progress: progressFetching, Message: "fetching"})

	points, err := s.fetcher.FetchAll(ctx, start, end, func(p fetch.Progress) {
		rescaled := fetchWindowLo + p.Fraction*(fetchWindowHi-fetchWindowLo)
		s.setState(SyncState{Phase: PhaseSyncing, Progress: rescaled, Message: p.Message})
	})
	if err != nil {
		if errors.Is(err, source.ErrUnavailable) {
			return nil, s.fail(ErrNoData)
		}
		return nil, s.fail(err)
	}
	if len(points) == 0 {
		return nil, s.fail(ErrNoData)
	}

	s.setState(SyncState{Phase: PhaseSyncing, Progress: progressAggregating, Message: "aggregating"})
	days := aggregate.BuildDailySummaries(points)

	s.setState(SyncState{Phase: PhaseSyncing, Progress: progressScoring, Message: "scoring"})
	comp := score.Score(manifest.MetricsPresent(days), start, end)

	man := manifest.Build(days, points, comp, start, end, s.now())

	payload := &models.Payload{
		Manifest:       man,
		DailySummaries: days,
	}

	s.mu.Lock()
	s.pending = payload
	s.lastPayload = payload
	s.mu.Unlock()

	return s.uploadPending(ctx, payload, identityAddr, key)
}

// RetrySync re-uploads the pending payload from a failed attempt without
// re-fetching or re-aggregating.
func (s *Syncer) RetrySync(ctx context.Context) (*models.SyncResult, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.finish()

	s.mu.Lock()
	payload := s.pending
	s.mu.Unlock()

	if payload == nil {
		return nil, s.fail(ErrNoPendingSync)
	}

	identityAddr, ok := s.id.Identity()
	if !ok {
		return nil, s.fail(ErrNotConnected)
	}
	key, ok := s.id.CurrentKey()
	if !ok {
		return nil, s.fail(ErrNotConnected)
	}

	return s.uploadPending(ctx, payload, identityAddr, key)
}

// uploadPending runs the upload/attest/complete tail of the pipeline over an
// already-built payload.
func (s *Syncer) uploadPending(ctx context.Context, payload *models.Payload, identityAddr string, key []byte) (*models.SyncResult, error) {
	s.setState(SyncState{Phase: PhaseSyncing, Progress: progressUploading, Message: "uploading"})

	stored, err := s.store.Store(ctx, payload, identityAddr, key)
	if err != nil {
		// Pending payload stays intact for retry.
		return nil, s.fail(fmt.Errorf("upload failed: %s", err))
	}

	// Attestation is produced by the vault as a side effect of storage; this
	// stage is advisory only.
	s.setState(SyncState{Phase: PhaseSyncing, Progress: progressAttesting, Message: "attesting"})

	s.setState(SyncState{Phase: PhaseSyncing, Progress: progressComplete, Message: "complete"})

	now := s.now()
	man := payload.Manifest
	result := models.SyncResult{
		Success:      true,
		StorjURI:     stored.URI,
		ContentHash:  stored.ContentHash,
		Tier:         man.Completeness.Tier,
		Score:        man.Completeness.Score,
		MetricsCount: len(man.MetricsPresent),
		DaysCovered:  man.Completeness.DaysCovered,
		CompletedAt:  now,
	}

	s.mu.Lock()
	s.pending = nil
	s.lastSyncDate = now
	s.hasSynced = true
	s.mu.Unlock()

	if s.state != nil {
		if err := s.state.SetLastSyncDate(now); err != nil {
			s.log.Warn("failed to persist last sync date", "error", err)
		}
	}
	s.recordResult(result)

	s.log.Info("sync complete",
		"uri", stored.URI,
		"tier", man.Completeness.Tier,
		"score", man.Completeness.Score,
		"days", man.Completeness.DaysCovered,
	)

	// Brief dwell so a consumer can show the completion state.
	if s.dwell > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(s.dwell):
		}
	}
	s.setState(SyncState{Phase: PhaseIdle})

	return &result, nil
}

// PerformBackgroundSync runs a throttled 7-day sync. It returns false with
// no error when a sync already ran within the last 24 hours, and never
// prompts for connection: a missing identity is an error.
func (s *Syncer) PerformBackgroundSync(ctx context.Context) (bool, error) {
	s.mu.Lock()
	recent := s.hasSynced && s.now().Sub(s.lastSyncDate) < backgroundInterval
	s.mu.Unlock()

	if recent {
		s.log.Debug("background sync skipped, already synced")
		return false, nil
	}

	if _, ok := s.id.CurrentKey(); !ok {
		return false, ErrNotConnected
	}

	end := s.now()
	start := end.AddDate(0, 0, -backgroundRangeDays)
	if _, err := s.PerformFullSync(ctx, start, end); err != nil {
		return false, err
	}
	return true, nil
}
