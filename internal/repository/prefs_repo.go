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

func (s *postgresStore) CreatePrefs(ctx context.Context, prefs *models.Prefs) error {
	if prefs.ID == "" {
		prefs.ID = uuid.New().String()
	}
	prefs.CreatedAt = time.Now()

	query := `
		INSERT INTO prefs (id, age, nonsmoking, gender, drive, ride, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.q.ExecContext(ctx, query,
		prefs.ID, prefs.Age, prefs.Nonsmoking, prefs.Gender, prefs.Drive, prefs.Ride, prefs.CreatedAt)
	return wrapErr("insert prefs", err)
}

func (s *postgresStore) GetPrefsByID(ctx context.Context, id string) (*models.Prefs, error) {
	var prefs models.Prefs
	query := `SELECT * FROM prefs WHERE id = $1`
	err := sqlx.GetContext(ctx, s.q, &prefs, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("get prefs", err)
	}
	return &prefs, nil
}
