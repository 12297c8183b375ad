// Package riderequest owns the rider's form fields and the ride submission
// state machine (idle, submitting, done or failed).
package riderequest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/example/swiftride/internal/models"
	"github.com/example/swiftride/internal/observability"
	"github.com/example/swiftride/internal/state"
)

var (
	ErrSubmitInFlight = errors.New("a ride request is already being submitted")
	ErrClosed         = errors.New("ride request flow is closed")
	ErrUnknownField   = errors.New("unknown field")
)

type RideRequester interface {
	RequestRide(ctx context.Context, p models.RideRequestPayload) (models.RideResponse, error)
}

// Observer hears about every finished submission. It runs after the result
// has been stored and cannot change it.
type Observer interface {
	RideSubmitted(ctx context.Context, p models.RideRequestPayload, resp models.RideResponse, err error)
}

type Flow struct {
	requester RideRequester
	logger    *slog.Logger
	phone     PhoneFunc
	onChange  func()
	observers []Observer

	mu         sync.Mutex
	input      models.RideRequestInput
	result     state.Result[*models.RideResponse]
	submitting bool
	closed     bool
}

type Option func(*Flow)

func WithPhoneFunc(f PhoneFunc) Option { return func(fl *Flow) { fl.phone = f } }

func WithObserver(o Observer) Option {
	return func(fl *Flow) {
		if o != nil {
			fl.observers = append(fl.observers, o)
		}
	}
}

func WithOnChange(f func()) Option { return func(fl *Flow) { fl.onChange = f } }

// NewFlow starts with blank contact fields and the given endpoints.
func NewFlow(requester RideRequester, logger *slog.Logger, pickup, dropoff models.Coordinate, opts ...Option) *Flow {
	f := &Flow{
		requester: requester,
		logger:    logger,
		phone:     RandomPhone,
		onChange:  func() {},
		input:     models.RideRequestInput{Pickup: pickup, Dropoff: dropoff},
		result:    state.Result[*models.RideResponse]{Status: state.StatusIdle},
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

func (f *Flow) Input() models.RideRequestInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.input
}

// Result returns the latest submission state. Value is nil until the first
// successful response and survives later failures.
func (f *Flow) Result() state.Result[*models.RideResponse] {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.result
	if r.Value != nil {
		v := *r.Value
		r.Value = &v
	}
	return r
}

func (f *Flow) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

func (f *Flow) SetName(name string) {
	f.edit(func(in *models.RideRequestInput) { in.RiderName = name })
}

func (f *Flow) SetPhone(phone string) {
	f.edit(func(in *models.RideRequestInput) { in.RiderPhone = phone })
}

func (f *Flow) SetPickup(c models.Coordinate) error {
	if err := ValidateCoordinate("pickup", c); err != nil {
		return err
	}
	f.edit(func(in *models.RideRequestInput) { in.Pickup = c })
	return nil
}

func (f *Flow) SetDropoff(c models.Coordinate) error {
	if err := ValidateCoordinate("dropoff", c); err != nil {
		return err
	}
	f.edit(func(in *models.RideRequestInput) { in.Dropoff = c })
	return nil
}

// Edit applies a text edit to one named field. Rejected coordinate text leaves
// the field at its previous value.
func (f *Flow) Edit(field, value string) error {
	switch field {
	case FieldName:
		f.SetName(value)
		return nil
	case FieldPhone:
		f.SetPhone(value)
		return nil
	case FieldPickupLat, FieldPickupLng, FieldDropoffLat, FieldDropoffLng:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	v, err := ParseCoordinateField(field, value)
	if err != nil {
		return err
	}
	f.edit(func(in *models.RideRequestInput) {
		switch field {
		case FieldPickupLat:
			in.Pickup.Lat = v
		case FieldPickupLng:
			in.Pickup.Lng = v
		case FieldDropoffLat:
			in.Dropoff.Lat = v
		case FieldDropoffLng:
			in.Dropoff.Lng = v
		}
	})
	return nil
}

func (f *Flow) edit(apply func(*models.RideRequestInput)) {
	f.mu.Lock()
	apply(&f.input)
	f.mu.Unlock()
	f.onChange()
}

// Submit sends one ride request built from the current input. Only one
// submission may be in flight; every accepted submission ends ok or failed.
func (f *Flow) Submit(ctx context.Context) (models.RideResponse, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return models.RideResponse{}, ErrClosed
	}
	if f.submitting {
		f.mu.Unlock()
		return models.RideResponse{}, ErrSubmitInFlight
	}
	f.submitting = true
	payload := BuildPayload(f.input, f.phone)
	f.result = state.Pending(f.result.Value)
	f.mu.Unlock()
	f.onChange()

	f.logger.Info("submitting ride request", "rider_name", payload.RiderName,
		"pickup_lat", payload.Pickup.Lat, "pickup_lng", payload.Pickup.Lng,
		"dropoff_lat", payload.Dropoff.Lat, "dropoff_lng", payload.Dropoff.Lng)
	resp, err := f.requester.RequestRide(ctx, payload)

	f.mu.Lock()
	f.submitting = false
	if f.closed {
		f.mu.Unlock()
		f.logger.Debug("ride response dropped after close", "error", err)
		if err == nil {
			err = ErrClosed
		}
		return models.RideResponse{}, err
	}
	if err != nil {
		f.result = state.Failed(f.result.Value, err)
	} else {
		stored := resp
		f.result = state.OK(&stored)
	}
	f.mu.Unlock()
	f.onChange()

	if err != nil {
		observability.RideSubmissionsTotal.WithLabelValues(observability.OutcomeFailed).Inc()
		f.logger.Warn("ride request failed", "error", err)
	} else {
		observability.RideSubmissionsTotal.WithLabelValues(observability.OutcomeOK).Inc()
		f.logger.Info("ride requested", "ride_id", resp.RideID, "status", resp.Status, "assigned", resp.Assigned())
	}
	for _, o := range f.observers {
		o.RideSubmitted(ctx, payload, resp, err)
	}
	return resp, err
}

// Close makes any in-flight submission drop its result and refuses new ones.
func (f *Flow) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}
