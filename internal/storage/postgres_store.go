package storage

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"
)

type PostgresJournal struct {
	db *sql.DB
}

func NewPostgresJournal(dsn string) (*PostgresJournal, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresJournal{db: db}, nil
}

// DB exposes the pool for migrations.
func (p *PostgresJournal) DB() *sql.DB { return p.db }

func (p *PostgresJournal) Append(ctx context.Context, e Entry) error {
	var rideID, status, driverID sql.NullString
	if e.Response != nil {
		rideID = sql.NullString{String: e.Response.RideID, Valid: true}
		status = sql.NullString{String: e.Response.Status, Valid: true}
		if e.Response.DriverID != nil {
			driverID = sql.NullString{String: *e.Response.DriverID, Valid: true}
		}
	}
	_, err := p.db.ExecContext(ctx, `INSERT INTO ride_journal(id, submitted_at, rider_name, rider_phone, pickup_lat, pickup_lng, dropoff_lat, dropoff_lng, ride_id, status, driver_id, error) VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		e.ID, e.SubmittedAt, e.Payload.RiderName, e.Payload.RiderPhone,
		e.Payload.Pickup.Lat, e.Payload.Pickup.Lng, e.Payload.Dropoff.Lat, e.Payload.Dropoff.Lng,
		rideID, status, driverID, sql.NullString{String: e.Error, Valid: e.Error != ""})
	return err
}

func (p *PostgresJournal) Close() error { return p.db.Close() }
