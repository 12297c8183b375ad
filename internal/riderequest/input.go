package riderequest

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/example/swiftride/internal/models"
)

// Field names used by the view server and CLI to address form inputs.
const (
	FieldName       = "rider_name"
	FieldPhone      = "rider_phone"
	FieldPickupLat  = "pickup.lat"
	FieldPickupLng  = "pickup.lng"
	FieldDropoffLat = "dropoff.lat"
	FieldDropoffLng = "dropoff.lng"
)

type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// ParseCoordinateField turns user text into a latitude or longitude,
// rejecting anything unparseable, non-finite or off the globe.
func ParseCoordinateField(field, text string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, &ValidationError{Field: field, Value: text, Reason: "not a number"}
	}
	if err := checkAxis(field, v); err != nil {
		return 0, err
	}
	return v, nil
}

// ValidateCoordinate applies the same bounds to an already-numeric value.
func ValidateCoordinate(prefix string, c models.Coordinate) error {
	if err := checkAxis(prefix+".lat", c.Lat); err != nil {
		return err
	}
	return checkAxis(prefix+".lng", c.Lng)
}

func checkAxis(field string, v float64) error {
	text := strconv.FormatFloat(v, 'g', -1, 64)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &ValidationError{Field: field, Value: text, Reason: "must be finite"}
	}
	limit := 180.0
	if strings.HasSuffix(field, ".lat") {
		limit = 90
	}
	if v < -limit || v > limit {
		return &ValidationError{Field: field, Value: text, Reason: fmt.Sprintf("must be between -%g and %g", limit, limit)}
	}
	return nil
}
