// Package app is the composition root of the rider client. It holds the
// roster and ride-request state and tells subscribers when either changes.
package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/example/swiftride/internal/models"
	"github.com/example/swiftride/internal/riderequest"
	"github.com/example/swiftride/internal/roster"
	"github.com/example/swiftride/internal/state"
	"github.com/example/swiftride/internal/storage"
)

const sinkTimeout = 3 * time.Second

type Backend interface {
	roster.DriverLister
	riderequest.RideRequester
}

type Publisher interface {
	PublishRideRequested(ctx context.Context, e storage.Entry) error
}

type Options struct {
	Pickup  models.Coordinate
	Dropoff models.Coordinate

	// Optional audit sinks; nil disables them.
	Journal   storage.Journal
	Publisher Publisher

	Phone riderequest.PhoneFunc
}

// Snapshot is everything the view needs, copied out under lock.
type Snapshot struct {
	Roster     state.Result[models.Roster]        `json:"roster"`
	Input      models.RideRequestInput            `json:"input"`
	Ride       state.Result[*models.RideResponse] `json:"ride"`
	Submitting bool                               `json:"submitting"`
}

type App struct {
	logger    *slog.Logger
	roster    *roster.Sync
	rides     *riderequest.Flow
	journal   storage.Journal
	publisher Publisher

	ctx    context.Context
	cancel context.CancelFunc

	subMu  sync.Mutex
	subs   map[int]chan struct{}
	nextID int
	closed bool
}

func New(backend Backend, logger *slog.Logger, opts Options) *App {
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		logger:    logger,
		journal:   opts.Journal,
		publisher: opts.Publisher,
		ctx:       ctx,
		cancel:    cancel,
		subs:      make(map[int]chan struct{}),
	}
	a.roster = roster.NewSync(backend, logger.With("component", "roster"), a.notify)
	flowOpts := []riderequest.Option{riderequest.WithOnChange(a.notify), riderequest.WithObserver(a)}
	if opts.Phone != nil {
		flowOpts = append(flowOpts, riderequest.WithPhoneFunc(opts.Phone))
	}
	a.rides = riderequest.NewFlow(backend, logger.With("component", "riderequest"), opts.Pickup, opts.Dropoff, flowOpts...)
	return a
}

// Start kicks off the one roster load in the background and returns at once.
func (a *App) Start() {
	go a.roster.Load(a.ctx)
}

// LoadRoster runs the startup roster load and waits for it. Calling it after
// Start, or twice, does not fetch again.
func (a *App) LoadRoster(ctx context.Context) models.Roster {
	ctx, stop := a.bind(ctx)
	defer stop()
	return a.roster.Load(ctx)
}

func (a *App) Submit(ctx context.Context) (models.RideResponse, error) {
	ctx, stop := a.bind(ctx)
	defer stop()
	return a.rides.Submit(ctx)
}

func (a *App) SetName(name string)   { a.rides.SetName(name) }
func (a *App) SetPhone(phone string) { a.rides.SetPhone(phone) }

func (a *App) SetPickup(c models.Coordinate) error  { return a.rides.SetPickup(c) }
func (a *App) SetDropoff(c models.Coordinate) error { return a.rides.SetDropoff(c) }

func (a *App) Edit(field, value string) error { return a.rides.Edit(field, value) }

func (a *App) Snapshot() Snapshot {
	return Snapshot{
		Roster:     a.roster.Result(),
		Input:      a.rides.Input(),
		Ride:       a.rides.Result(),
		Submitting: a.rides.Submitting(),
	}
}

// Subscribe returns a channel that receives a tick after state changes.
// Ticks are coalesced; read Snapshot for the current value.
func (a *App) Subscribe() (<-chan struct{}, func()) {
	a.subMu.Lock()
	defer a.subMu.Unlock()
	ch := make(chan struct{}, 1)
	if a.closed {
		close(ch)
		return ch, func() {}
	}
	id := a.nextID
	a.nextID++
	a.subs[id] = ch
	return ch, func() {
		a.subMu.Lock()
		defer a.subMu.Unlock()
		if c, ok := a.subs[id]; ok {
			delete(a.subs, id)
			close(c)
		}
	}
}

func (a *App) notify() {
	a.subMu.Lock()
	defer a.subMu.Unlock()
	for _, ch := range a.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// RideSubmitted feeds the optional audit sinks. Sink failures are logged and
// never reach the rider.
func (a *App) RideSubmitted(ctx context.Context, p models.RideRequestPayload, resp models.RideResponse, err error) {
	if a.journal == nil && a.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkTimeout)
	defer cancel()
	entry := storage.NewEntry(p, resp, err)
	if a.journal != nil {
		if jerr := a.journal.Append(ctx, entry); jerr != nil {
			a.logger.Warn("journal append failed", "entry_id", entry.ID, "error", jerr)
		}
	}
	if a.publisher != nil && err == nil {
		if perr := a.publisher.PublishRideRequested(ctx, entry); perr != nil {
			a.logger.Warn("ride event publish failed", "ride_id", resp.RideID, "error", perr)
		}
	}
}

// Close tears the app down. Responses that arrive afterwards are discarded.
func (a *App) Close() {
	a.roster.Close()
	a.rides.Close()
	a.cancel()

	a.subMu.Lock()
	defer a.subMu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	for id, ch := range a.subs {
		delete(a.subs, id)
		close(ch)
	}
}

// bind ties a caller context to the app lifetime.
func (a *App) bind(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(a.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
