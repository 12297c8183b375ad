package riderequest

import (
	"testing"

	"github.com/example/swiftride/internal/models"
)

var (
	defaultPickup  = models.Coordinate{Lat: 37.7749, Lng: -122.4194}
	defaultDropoff = models.Coordinate{Lat: 37.7849, Lng: -122.4094}
)

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func TestBuildPayloadDefaults(t *testing.T) {
	in := models.RideRequestInput{Pickup: defaultPickup, Dropoff: defaultDropoff}
	p := BuildPayload(in, nil)
	if p.RiderName != "Guest Rider" {
		t.Fatalf("expected Guest Rider, got %q", p.RiderName)
	}
	if len(p.RiderPhone) != 10 || !isDigits(p.RiderPhone) {
		t.Fatalf("expected 10 digits, got %q", p.RiderPhone)
	}
	if p.Pickup != defaultPickup || p.Dropoff != defaultDropoff {
		t.Fatalf("coordinates changed: %+v", p)
	}
	if in.RiderName != "" || in.RiderPhone != "" {
		t.Fatal("input must not be mutated")
	}
}

func TestBuildPayloadKeepsExplicitFields(t *testing.T) {
	called := false
	in := models.RideRequestInput{RiderName: "Ann", RiderPhone: "+1 555"}
	p := BuildPayload(in, func() string { called = true; return "x" })
	if p.RiderName != "Ann" || p.RiderPhone != "+1 555" {
		t.Fatalf("explicit fields changed: %+v", p)
	}
	if called {
		t.Fatal("phone generator used despite explicit phone")
	}
}

func TestRandomPhone(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		p := RandomPhone()
		if len(p) != 10 || !isDigits(p) {
			t.Fatalf("bad phone %q", p)
		}
		seen[p] = true
	}
	if len(seen) < 199 {
		t.Fatalf("too many collisions: %d unique of 200", len(seen))
	}
}
