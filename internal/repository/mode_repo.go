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

func (s *postgresStore) UpsertMode(ctx context.Context, mode *models.Mode) error {
	now := time.Now()
	query := `
		INSERT INTO modes (id, person_id, kind, capacity, vacancy, make, model, year,
			color, lic, cost, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (person_id, make, model, capacity, kind)
		DO UPDATE SET vacancy = EXCLUDED.vacancy, updated_at = EXCLUDED.updated_at
		RETURNING *
	`
	var stored models.Mode
	err := sqlx.GetContext(ctx, s.q, &stored, query,
		uuid.New().String(), mode.PersonID, mode.Kind, mode.Capacity, mode.Vacancy, mode.Make,
		mode.Model, mode.Year, mode.Color, mode.Lic, mode.Cost, now, now)
	if err != nil {
		return wrapErr("upsert mode", err)
	}
	*mode = stored
	return nil
}

func (s *postgresStore) GetModeByID(ctx context.Context, id string) (*models.Mode, error) {
	var mode models.Mode
	query := `SELECT * FROM modes WHERE id = $1`
	err := sqlx.GetContext(ctx, s.q, &mode, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("get mode", err)
	}
	return &mode, nil
}
