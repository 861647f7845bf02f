package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/aditya/go-carpool/internal/errors"
	"github.com/aditya/go-carpool/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type LocationRepository interface {
	CreateLocation(ctx context.Context, loc *models.Location) error
	GetLocationByID(ctx context.Context, id string) (*models.Location, error)
}

type ModeRepository interface {
	// UpsertMode stores the mode, reusing the row with the same
	// (person, make, model, capacity, kind) and overwriting its vacancy.
	UpsertMode(ctx context.Context, mode *models.Mode) error
	GetModeByID(ctx context.Context, id string) (*models.Mode, error)
}

type PrefsRepository interface {
	CreatePrefs(ctx context.Context, prefs *models.Prefs) error
	GetPrefsByID(ctx context.Context, id string) (*models.Prefs, error)
}

type TripRepository interface {
	CreateTrip(ctx context.Context, trip *models.Trip) error
	GetTripByID(ctx context.Context, id string) (*models.Trip, error)
	GetTripByIDForUpdate(ctx context.Context, id string) (*models.Trip, error)
	SetTripActive(ctx context.Context, id string, active bool) error
	AddTripLocation(ctx context.Context, tl *models.TripLocation) error
	GetTripLocations(ctx context.Context, tripID string) ([]models.Location, error)
	GetActiveTripByAuthor(ctx context.Context, authorID string) (*models.Trip, error)
}

type PersonRepository interface {
	CreatePerson(ctx context.Context, person *models.Person) error
	GetPersonByID(ctx context.Context, id string) (*models.Person, error)
	GetPersonByUsername(ctx context.Context, username string) (*models.Person, error)
	// SetPersonPosition stores loc as a position location and points the person at it.
	SetPersonPosition(ctx context.Context, personID string, loc *models.Location) error
	// GetPersonPosition returns nil when the person has no known position.
	GetPersonPosition(ctx context.Context, personID string) (*models.Location, error)
}

type ParticipationRepository interface {
	CreateParticipation(ctx context.Context, p *models.Participation) error
	GetParticipation(ctx context.Context, tripID, personID string) (*models.Participation, error)
	GetParticipationForUpdate(ctx context.Context, tripID, personID string) (*models.Participation, error)
	GetDriverParticipationForUpdate(ctx context.Context, tripID string) (*models.Participation, error)
	ListParticipations(ctx context.Context, tripID string) ([]models.Participation, error)
	// ListRideRequests returns the persons with a pending request on the trip,
	// oldest request first, leaving out excludePersonID.
	ListRideRequests(ctx context.Context, tripID, excludePersonID string) ([]models.Person, error)

	// The Mark* methods are conditional updates. They report false when the
	// guard did not hold and nothing was written.
	MarkStarted(ctx context.Context, id string, at time.Time, positionID *string) (bool, error)
	MarkAccepted(ctx context.Context, id string, at time.Time, positionID *string) (bool, error)
	MarkRefused(ctx context.Context, id string, at time.Time, positionID *string, strict bool) (bool, error)
	MarkFinished(ctx context.Context, id string, at time.Time) (bool, error)
}

// Store is the storage boundary of the coordinator.
type Store interface {
	LocationRepository
	ModeRepository
	PrefsRepository
	TripRepository
	PersonRepository
	ParticipationRepository

	// WithTransaction runs fn against a store bound to a single transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	// Nested calls join the outer transaction.
	WithTransaction(ctx context.Context, fn func(tx Store) error) error
}

type postgresStore struct {
	db *sqlx.DB
	q  sqlx.ExtContext
	tx *sqlx.Tx
}

func NewPostgresStore(db *sqlx.DB) Store {
	return &postgresStore{db: db, q: db}
}

func (s *postgresStore) WithTransaction(ctx context.Context, fn func(tx Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&postgresStore{db: s.db, q: tx, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Postgres integrity violations
const (
	pqForeignKeyViolation = "23503"
	pqUniqueViolation     = "23505"
	pqCheckViolation      = "23514"
)

func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqForeignKeyViolation, pqUniqueViolation, pqCheckViolation:
			return apperrors.Constraint(err)
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func rowsAffected(op string, res interface{ RowsAffected() (int64, error) }) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapErr(op, err)
	}
	return n == 1, nil
}
