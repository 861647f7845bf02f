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

func (s *postgresStore) CreatePerson(ctx context.Context, person *models.Person) error {
	if person.ID == "" {
		person.ID = uuid.New().String()
	}
	now := time.Now()
	person.CreatedAt = now
	person.UpdatedAt = now

	query := `
		INSERT INTO persons (id, username, first_name, last_name, email, position_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.q.ExecContext(ctx, query,
		person.ID, person.Username, person.FirstName, person.LastName, person.Email,
		person.PositionID, person.CreatedAt, person.UpdatedAt)
	return wrapErr("insert person", err)
}

func (s *postgresStore) GetPersonByID(ctx context.Context, id string) (*models.Person, error) {
	return s.getPerson(ctx, `SELECT * FROM persons WHERE id = $1`, id)
}

func (s *postgresStore) GetPersonByUsername(ctx context.Context, username string) (*models.Person, error) {
	return s.getPerson(ctx, `SELECT * FROM persons WHERE username = $1`, username)
}

func (s *postgresStore) getPerson(ctx context.Context, query, arg string) (*models.Person, error) {
	var person models.Person
	err := sqlx.GetContext(ctx, s.q, &person, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("get person", err)
	}
	return &person, nil
}

func (s *postgresStore) SetPersonPosition(ctx context.Context, personID string, loc *models.Location) error {
	return s.WithTransaction(ctx, func(tx Store) error {
		loc.Role = models.LocationRolePosition
		if err := tx.CreateLocation(ctx, loc); err != nil {
			return err
		}
		query := `UPDATE persons SET position_id = $1, updated_at = $2 WHERE id = $3`
		_, err := tx.(*postgresStore).q.ExecContext(ctx, query, loc.ID, time.Now(), personID)
		return wrapErr("update person position", err)
	})
}

func (s *postgresStore) GetPersonPosition(ctx context.Context, personID string) (*models.Location, error) {
	var loc models.Location
	query := `
		SELECT l.* FROM locations l
		JOIN persons p ON p.position_id = l.id
		WHERE p.id = $1
	`
	err := sqlx.GetContext(ctx, s.q, &loc, query, personID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("get person position", err)
	}
	return &loc, nil
}
