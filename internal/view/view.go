// Package view projects app state into what a rider sees. It has no state
// of its own.
package view

import (
	"fmt"
	"io"
	"strconv"

	"github.com/example/swiftride/internal/app"
	"github.com/example/swiftride/internal/state"
)

const (
	Title            = "SwiftRide"
	EmptyRosterText  = "No drivers yet. Add some via API or seed."
	PendingDriver    = "Pending assignment"
	LabelAvailable   = "Available"
	LabelBusy        = "Busy"
	DetailOnRide     = "On a ride"
	RosterLoadingMsg = "Loading drivers..."
	SubmittingMsg    = "Requesting ride..."
)

type DriverRow struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Detail    string `json:"detail"`
	Label     string `json:"label"`
	Available bool   `json:"available"`
}

type RidePanel struct {
	RideID string `json:"ride_id"`
	Status string `json:"status"`
	Driver string `json:"driver"`
}

type Form struct {
	RiderName  string `json:"rider_name"`
	RiderPhone string `json:"rider_phone"`
	PickupLat  string `json:"pickup_lat"`
	PickupLng  string `json:"pickup_lng"`
	DropoffLat string `json:"dropoff_lat"`
	DropoffLng string `json:"dropoff_lng"`
	// SubmitEnabled is false while a request is in flight.
	SubmitEnabled bool `json:"submit_enabled"`
}

type View struct {
	Form         Form         `json:"form"`
	Drivers      []DriverRow  `json:"drivers"`
	RosterStatus state.Status `json:"roster_status"`
	// RosterError separates "backend unreachable" from an empty roster.
	RosterError string       `json:"roster_error,omitempty"`
	EmptyNotice string       `json:"empty_notice,omitempty"`
	Ride        *RidePanel   `json:"ride,omitempty"`
	RideStatus  state.Status `json:"ride_status"`
	RideError   string       `json:"ride_error,omitempty"`
}

func Project(s app.Snapshot) View {
	v := View{
		Form: Form{
			RiderName:     s.Input.RiderName,
			RiderPhone:    s.Input.RiderPhone,
			PickupLat:     formatFloat(s.Input.Pickup.Lat),
			PickupLng:     formatFloat(s.Input.Pickup.Lng),
			DropoffLat:    formatFloat(s.Input.Dropoff.Lat),
			DropoffLng:    formatFloat(s.Input.Dropoff.Lng),
			SubmitEnabled: !s.Submitting,
		},
		Drivers:      make([]DriverRow, 0, len(s.Roster.Value)),
		RosterStatus: s.Roster.Status,
		RideStatus:   s.Ride.Status,
	}

	for _, d := range s.Roster.Value {
		row := DriverRow{
			ID:        d.ID,
			Title:     d.Name + " • " + d.CarModel,
			Available: d.IsAvailable,
			Label:     LabelBusy,
		}
		detail := DetailOnRide
		if d.IsAvailable {
			row.Label = LabelAvailable
			detail = LabelAvailable
		}
		row.Detail = "Plate " + d.Plate + " • " + detail
		v.Drivers = append(v.Drivers, row)
	}
	if s.Roster.Status == state.StatusFailed {
		v.RosterError = s.Roster.Reason
	}
	if len(v.Drivers) == 0 && s.Roster.Status != state.StatusPending {
		v.EmptyNotice = EmptyRosterText
	}

	if r := s.Ride.Value; r != nil {
		p := &RidePanel{RideID: r.RideID, Status: r.Status, Driver: PendingDriver}
		if r.Assigned() {
			p.Driver = *r.DriverID
		}
		v.Ride = p
	}
	if s.Ride.Status == state.StatusFailed {
		v.RideError = s.Ride.Reason
	}
	return v
}

// Render writes a plain-text version of the view.
func Render(w io.Writer, v View) error {
	ew := &errWriter{w: w}
	ew.printf("%s\n\n", Title)

	ew.printf("Request a Ride\n")
	ew.printf("  Name:    %s\n", orDash(v.Form.RiderName))
	ew.printf("  Phone:   %s\n", orDash(v.Form.RiderPhone))
	ew.printf("  Pickup:  %s, %s\n", v.Form.PickupLat, v.Form.PickupLng)
	ew.printf("  Dropoff: %s, %s\n", v.Form.DropoffLat, v.Form.DropoffLng)
	if !v.Form.SubmitEnabled {
		ew.printf("  %s\n", SubmittingMsg)
	}
	if v.RideError != "" {
		ew.printf("  Request failed: %s\n", v.RideError)
	}
	if v.Ride != nil {
		ew.printf("  Ride created\n")
		ew.printf("    ID: %s\n", v.Ride.RideID)
		ew.printf("    Status: %s\n", v.Ride.Status)
		ew.printf("    Driver: %s\n", v.Ride.Driver)
	}

	ew.printf("\nNearby Drivers\n")
	switch {
	case v.RosterStatus == state.StatusPending:
		ew.printf("  %s\n", RosterLoadingMsg)
	case v.RosterError != "":
		ew.printf("  Could not load drivers: %s\n", v.RosterError)
	}
	if v.EmptyNotice != "" {
		ew.printf("  %s\n", v.EmptyNotice)
	}
	for _, d := range v.Drivers {
		ew.printf("  %-40s [%s]\n    %s\n", d.Title, d.Label, d.Detail)
	}
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
