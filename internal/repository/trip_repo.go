package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aditya/go-carpool/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

func (s *postgresStore) CreateTrip(ctx context.Context, trip *models.Trip) error {
	if trip.ID == "" {
		trip.ID = uuid.New().String()
	}
	now := time.Now()
	trip.CreatedAt = now
	trip.UpdatedAt = now

	query := `
		INSERT INTO trips (id, author_id, mode_id, prefs_id, expires, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.q.ExecContext(ctx, query,
		trip.ID, trip.AuthorID, trip.ModeID, trip.PrefsID, trip.Expires, trip.Active,
		trip.CreatedAt, trip.UpdatedAt)
	return wrapErr("insert trip", err)
}

func (s *postgresStore) GetTripByID(ctx context.Context, id string) (*models.Trip, error) {
	return s.getTrip(ctx, `SELECT * FROM trips WHERE id = $1`, id)
}

// GetTripByIDForUpdate locks the trip row until the enclosing transaction ends.
func (s *postgresStore) GetTripByIDForUpdate(ctx context.Context, id string) (*models.Trip, error) {
	return s.getTrip(ctx, `SELECT * FROM trips WHERE id = $1 FOR UPDATE`, id)
}

func (s *postgresStore) getTrip(ctx context.Context, query, id string) (*models.Trip, error) {
	var trip models.Trip
	err := sqlx.GetContext(ctx, s.q, &trip, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("get trip", err)
	}
	return &trip, nil
}

func (s *postgresStore) SetTripActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE trips SET active = $1, updated_at = $2 WHERE id = $3`
	_, err := s.q.ExecContext(ctx, query, active, time.Now(), id)
	return wrapErr("update trip", err)
}

func (s *postgresStore) AddTripLocation(ctx context.Context, tl *models.TripLocation) error {
	query := `
		INSERT INTO trip_locations (trip_id, location_id, role, seq)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.q.ExecContext(ctx, query, tl.TripID, tl.LocationID, tl.Role, tl.Seq)
	return wrapErr("insert trip location", err)
}

func (s *postgresStore) GetTripLocations(ctx context.Context, tripID string) ([]models.Location, error) {
	var locs []models.Location
	query := `
		SELECT l.* FROM locations l
		JOIN trip_locations tl ON tl.location_id = l.id
		WHERE tl.trip_id = $1
		ORDER BY tl.seq
	`
	if err := sqlx.SelectContext(ctx, s.q, &locs, query, tripID); err != nil {
		return nil, wrapErr("list trip locations", err)
	}
	return locs, nil
}

func (s *postgresStore) GetActiveTripByAuthor(ctx context.Context, authorID string) (*models.Trip, error) {
	query := `
		SELECT * FROM trips
		WHERE author_id = $1 AND active = TRUE
		ORDER BY created_at DESC
		LIMIT 1
	`
	return s.getTrip(ctx, query, authorID)
}
