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

func (s *postgresStore) CreateLocation(ctx context.Context, loc *models.Location) error {
	if loc.ID == "" {
		loc.ID = uuid.New().String()
	}
	loc.CreatedAt = time.Now()

	query := `
		INSERT INTO locations (id, role, label, street, town, region, country, postcode,
			lat, lon, leaves, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.q.ExecContext(ctx, query,
		loc.ID, loc.Role, loc.Label, loc.Street, loc.Town, loc.Region, loc.Country, loc.Postcode,
		loc.Lat, loc.Lon, loc.Leaves, loc.CreatedAt)
	return wrapErr("insert location", err)
}

func (s *postgresStore) GetLocationByID(ctx context.Context, id string) (*models.Location, error) {
	var loc models.Location
	query := `SELECT * FROM locations WHERE id = $1`
	err := sqlx.GetContext(ctx, s.q, &loc, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("get location", err)
	}
	return &loc, nil
}
