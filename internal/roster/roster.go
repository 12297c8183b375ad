// Package roster loads the driver roster once at startup.
package roster

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/example/swiftride/internal/models"
	"github.com/example/swiftride/internal/observability"
	"github.com/example/swiftride/internal/state"
)

type DriverLister interface {
	ListDrivers(ctx context.Context) (models.Roster, error)
}

// Sync owns the roster. The roster is either empty or exactly the last
// successfully fetched list; failures are recorded, never returned.
type Sync struct {
	lister   DriverLister
	logger   *slog.Logger
	onChange func()

	once   sync.Once
	mu     sync.RWMutex
	result state.Result[models.Roster]
	closed bool
}

func NewSync(lister DriverLister, logger *slog.Logger, onChange func()) *Sync {
	if onChange == nil {
		onChange = func() {}
	}
	return &Sync{
		lister:   lister,
		logger:   logger,
		onChange: onChange,
		result:   state.Result[models.Roster]{Status: state.StatusIdle, Value: models.Roster{}},
	}
}

// Load fetches the roster on its first call only; later calls return the
// stored roster without touching the backend.
func (s *Sync) Load(ctx context.Context) models.Roster {
	s.once.Do(func() { s.load(ctx) })
	return s.Roster()
}

func (s *Sync) load(ctx context.Context) {
	if !s.set(state.Pending(models.Roster{})) {
		return
	}

	drivers, err := s.lister.ListDrivers(ctx)
	if err != nil {
		observability.RosterLoadsTotal.WithLabelValues(observability.OutcomeFailed).Inc()
		observability.RosterSize.Set(0)
		s.logger.Warn("roster load failed", "error", err)
		s.set(state.Failed(models.Roster{}, err))
		return
	}
	observability.RosterLoadsTotal.WithLabelValues(observability.OutcomeOK).Inc()
	observability.RosterSize.Set(float64(len(drivers)))
	s.logger.Info("roster loaded", "drivers", len(drivers))
	s.set(state.OK(drivers))
}

// set replaces the result unless the owner is gone. It reports whether the
// value was stored.
func (s *Sync) set(r state.Result[models.Roster]) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Debug("roster result dropped after close", "status", r.Status)
		return false
	}
	s.result = r
	s.mu.Unlock()
	s.onChange()
	return true
}

func (s *Sync) Result() state.Result[models.Roster] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r := s.result
	r.Value = slices.Clone(r.Value)
	if r.Value == nil {
		r.Value = models.Roster{}
	}
	return r
}

func (s *Sync) Roster() models.Roster { return s.Result().Value }

// Close stops any in-flight load from writing its result.
func (s *Sync) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
