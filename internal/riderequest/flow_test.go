package riderequest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/example/swiftride/internal/logging"
	"github.com/example/swiftride/internal/models"
	"github.com/example/swiftride/internal/state"
)

type fakeRequester struct {
	mu       sync.Mutex
	payloads []models.RideRequestPayload
	resp     models.RideResponse
	err      error
	started  chan struct{}
	block    chan struct{}
}

func (f *fakeRequester) RequestRide(ctx context.Context, p models.RideRequestPayload) (models.RideResponse, error) {
	f.mu.Lock()
	f.payloads = append(f.payloads, p)
	f.mu.Unlock()
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	return f.resp, f.err
}

type recordingObserver struct {
	payloads []models.RideRequestPayload
	errs     []error
}

func (r *recordingObserver) RideSubmitted(ctx context.Context, p models.RideRequestPayload, resp models.RideResponse, err error) {
	r.payloads = append(r.payloads, p)
	r.errs = append(r.errs, err)
}

func strPtr(s string) *string { return &s }

func newTestFlow(req RideRequester, opts ...Option) *Flow {
	return NewFlow(req, logging.Discard(), defaultPickup, defaultDropoff, opts...)
}

func TestSubmitDefaultsAndStoresResponse(t *testing.T) {
	req := &fakeRequester{resp: models.RideResponse{RideID: "abc123", Status: "pending"}}
	obs := &recordingObserver{}
	f := newTestFlow(req, WithPhoneFunc(func() string { return "0123456789" }), WithObserver(obs))

	resp, err := f.Submit(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := models.RideRequestPayload{RiderName: "Guest Rider", RiderPhone: "0123456789", Pickup: defaultPickup, Dropoff: defaultDropoff}
	if len(req.payloads) != 1 || req.payloads[0] != want {
		t.Fatalf("unexpected payloads %+v", req.payloads)
	}
	r := f.Result()
	if r.Status != state.StatusOK || r.Value == nil || *r.Value != resp || r.Value.DriverID != nil {
		t.Fatalf("unexpected result %+v", r)
	}
	if in := f.Input(); in.RiderName != "" || in.RiderPhone != "" {
		t.Fatalf("defaults leaked into input: %+v", in)
	}
	if len(obs.payloads) != 1 || obs.errs[0] != nil {
		t.Fatalf("observer not told: %+v", obs)
	}
}

func TestSubmitOverwritesPreviousResponse(t *testing.T) {
	req := &fakeRequester{resp: models.RideResponse{RideID: "r1", Status: "requested"}}
	f := newTestFlow(req)
	f.Submit(context.Background())
	req.resp = models.RideResponse{RideID: "r2", Status: "matched", DriverID: strPtr("d2")}
	f.Submit(context.Background())
	r := f.Result()
	if r.Value.RideID != "r2" || r.Value.DriverID == nil || *r.Value.DriverID != "d2" {
		t.Fatalf("expected r2 with driver d2, got %+v", r.Value)
	}
}

func TestSubmitFailureKeepsPreviousResponse(t *testing.T) {
	req := &fakeRequester{resp: models.RideResponse{RideID: "r1", Status: "requested"}}
	f := newTestFlow(req)
	f.Submit(context.Background())

	req.err = errors.New("connection refused")
	if _, err := f.Submit(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	r := f.Result()
	if r.Status != state.StatusFailed || r.Reason != "connection refused" {
		t.Fatalf("expected failed state, got %+v", r)
	}
	if r.Value == nil || r.Value.RideID != "r1" {
		t.Fatalf("previous response lost: %+v", r.Value)
	}
	if f.Submitting() {
		t.Fatal("flow stuck in submitting")
	}
}

func TestSubmitRejectsConcurrentSubmission(t *testing.T) {
	req := &fakeRequester{resp: models.RideResponse{RideID: "r1"}, started: make(chan struct{}), block: make(chan struct{})}
	f := newTestFlow(req)

	done := make(chan error)
	go func() {
		_, err := f.Submit(context.Background())
		done <- err
	}()
	<-req.started
	if !f.Submitting() || f.Result().Status != state.StatusPending {
		t.Fatalf("expected pending, got %+v", f.Result())
	}
	if _, err := f.Submit(context.Background()); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("expected ErrSubmitInFlight, got %v", err)
	}
	close(req.block)
	if err := <-done; err != nil {
		t.Fatalf("first submission failed: %v", err)
	}
	if len(req.payloads) != 1 {
		t.Fatalf("expected one outbound request, got %d", len(req.payloads))
	}
}

func TestSubmitAfterCloseIsDropped(t *testing.T) {
	req := &fakeRequester{resp: models.RideResponse{RideID: "late"}, started: make(chan struct{}), block: make(chan struct{})}
	f := newTestFlow(req)
	done := make(chan error)
	go func() {
		_, err := f.Submit(context.Background())
		done <- err
	}()
	<-req.started
	f.Close()
	close(req.block)
	if err := <-done; !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if r := f.Result(); r.Value != nil {
		t.Fatalf("late response stored: %+v", r.Value)
	}
	if _, err := f.Submit(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed on new submit, got %v", err)
	}
}

func TestEditFields(t *testing.T) {
	f := newTestFlow(&fakeRequester{})
	if err := f.Edit(FieldName, "Ann"); err != nil {
		t.Fatal(err)
	}
	if err := f.Edit(FieldPickupLat, "40.1"); err != nil {
		t.Fatal(err)
	}
	if err := f.Edit(FieldDropoffLng, "not-a-number"); err == nil {
		t.Fatal("expected validation error")
	}
	if err := f.Edit("color", "red"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	in := f.Input()
	if in.RiderName != "Ann" || in.Pickup.Lat != 40.1 || in.Pickup.Lng != defaultPickup.Lng {
		t.Fatalf("unexpected input %+v", in)
	}
	if in.Dropoff != defaultDropoff {
		t.Fatalf("rejected edit changed dropoff: %+v", in.Dropoff)
	}
	if err := f.SetDropoff(models.Coordinate{Lat: 0, Lng: 200}); err == nil {
		t.Fatal("expected out-of-range dropoff to be rejected")
	}
}
