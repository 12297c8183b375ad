package models

import "encoding/json"

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RideRequestInput is the rider's form state. Empty name/phone are resolved
// only when a payload is built.
type RideRequestInput struct {
	RiderName  string     `json:"rider_name"`
	RiderPhone string     `json:"rider_phone"`
	Pickup     Coordinate `json:"pickup"`
	Dropoff    Coordinate `json:"dropoff"`
}

// RideRequestPayload is the wire body of POST /rides/request.
type RideRequestPayload struct {
	RiderName  string     `json:"rider_name"`
	RiderPhone string     `json:"rider_phone"`
	Pickup     Coordinate `json:"pickup"`
	Dropoff    Coordinate `json:"dropoff"`
}

// RideResponse is stored exactly as the backend returned it.
// DriverID stays nil until the backend assigns someone.
type RideResponse struct {
	RideID   string  `json:"ride_id"`
	Status   string  `json:"status"`
	DriverID *string `json:"driver_id"`
}

// Assigned reports whether the backend named a driver for the ride.
func (r RideResponse) Assigned() bool { return r.DriverID != nil && *r.DriverID != "" }

type Driver struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CarModel    string `json:"car_model"`
	Plate       string `json:"plate"`
	IsAvailable bool   `json:"is_available"`
}

// UnmarshalJSON accepts Mongo-style backends that key drivers by "_id".
func (d *Driver) UnmarshalJSON(b []byte) error {
	type plain Driver
	var aux struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*d = Driver(aux.plain)
	if d.ID == "" {
		d.ID = aux.MongoID
	}
	return nil
}

// Roster keeps the backend's ordering.
type Roster []Driver
