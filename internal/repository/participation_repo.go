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

func (s *postgresStore) CreateParticipation(ctx context.Context, p *models.Participation) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	query := `
		INSERT INTO participations (id, person_id, trip_id, role,
			requested, requested_timestamp, requested_position_id, requested_deleted,
			accepted, accepted_timestamp, accepted_position_id,
			refused, refused_timestamp, refused_position_id,
			started, started_timestamp, started_position_id,
			finished, finished_timestamp, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21)
	`
	_, err := s.q.ExecContext(ctx, query,
		p.ID, p.PersonID, p.TripID, p.Role,
		p.Requested, p.RequestedTimestamp, p.RequestedPositionID, p.RequestedDeleted,
		p.Accepted, p.AcceptedTimestamp, p.AcceptedPositionID,
		p.Refused, p.RefusedTimestamp, p.RefusedPositionID,
		p.Started, p.StartedTimestamp, p.StartedPositionID,
		p.Finished, p.FinishedTimestamp, p.CreatedAt, p.UpdatedAt)
	return wrapErr("insert participation", err)
}

func (s *postgresStore) GetParticipation(ctx context.Context, tripID, personID string) (*models.Participation, error) {
	query := `SELECT * FROM participations WHERE trip_id = $1 AND person_id = $2`
	return s.getParticipation(ctx, query, tripID, personID)
}

func (s *postgresStore) GetParticipationForUpdate(ctx context.Context, tripID, personID string) (*models.Participation, error) {
	query := `SELECT * FROM participations WHERE trip_id = $1 AND person_id = $2 FOR UPDATE`
	return s.getParticipation(ctx, query, tripID, personID)
}

func (s *postgresStore) GetDriverParticipationForUpdate(ctx context.Context, tripID string) (*models.Participation, error) {
	query := `SELECT * FROM participations WHERE trip_id = $1 AND role = $2 FOR UPDATE`
	return s.getParticipation(ctx, query, tripID, models.ParticipationRoleDriver)
}

func (s *postgresStore) getParticipation(ctx context.Context, query string, args ...interface{}) (*models.Participation, error) {
	var p models.Participation
	err := sqlx.GetContext(ctx, s.q, &p, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("get participation", err)
	}
	return &p, nil
}

func (s *postgresStore) ListParticipations(ctx context.Context, tripID string) ([]models.Participation, error) {
	var ps []models.Participation
	query := `SELECT * FROM participations WHERE trip_id = $1 ORDER BY created_at, id`
	if err := sqlx.SelectContext(ctx, s.q, &ps, query, tripID); err != nil {
		return nil, wrapErr("list participations", err)
	}
	return ps, nil
}

func (s *postgresStore) ListRideRequests(ctx context.Context, tripID, excludePersonID string) ([]models.Person, error) {
	var persons []models.Person
	query := `
		SELECT p.* FROM persons p
		JOIN participations pa ON pa.person_id = p.id
		WHERE pa.trip_id = $1
			AND pa.requested AND NOT pa.requested_deleted
			AND NOT pa.accepted AND NOT pa.refused
			AND NOT pa.started AND NOT pa.finished
			AND pa.person_id <> $2
		ORDER BY pa.created_at, pa.id
	`
	if err := sqlx.SelectContext(ctx, s.q, &persons, query, tripID, excludePersonID); err != nil {
		return nil, wrapErr("list ride requests", err)
	}
	return persons, nil
}

func (s *postgresStore) MarkStarted(ctx context.Context, id string, at time.Time, positionID *string) (bool, error) {
	query := `
		UPDATE participations
		SET started = TRUE, started_timestamp = $1, started_position_id = $2, updated_at = $1
		WHERE id = $3 AND NOT started
	`
	res, err := s.q.ExecContext(ctx, query, at, positionID, id)
	if err != nil {
		return false, wrapErr("mark participation started", err)
	}
	return rowsAffected("mark participation started", res)
}

func (s *postgresStore) MarkAccepted(ctx context.Context, id string, at time.Time, positionID *string) (bool, error) {
	query := `
		UPDATE participations
		SET accepted = TRUE, accepted_timestamp = $1, accepted_position_id = $2, updated_at = $1
		WHERE id = $3 AND requested AND NOT requested_deleted AND NOT accepted AND NOT refused
	`
	res, err := s.q.ExecContext(ctx, query, at, positionID, id)
	if err != nil {
		return false, wrapErr("mark participation accepted", err)
	}
	return rowsAffected("mark participation accepted", res)
}

func (s *postgresStore) MarkRefused(ctx context.Context, id string, at time.Time, positionID *string, strict bool) (bool, error) {
	query := `
		UPDATE participations
		SET refused = TRUE, refused_timestamp = $1, refused_position_id = $2, updated_at = $1
		WHERE id = $3
	`
	if strict {
		query += ` AND requested AND NOT accepted AND NOT refused`
	}
	res, err := s.q.ExecContext(ctx, query, at, positionID, id)
	if err != nil {
		return false, wrapErr("mark participation refused", err)
	}
	return rowsAffected("mark participation refused", res)
}

func (s *postgresStore) MarkFinished(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `
		UPDATE participations
		SET finished = TRUE, finished_timestamp = $1, updated_at = $1
		WHERE id = $2 AND started AND NOT finished
	`
	res, err := s.q.ExecContext(ctx, query, at, id)
	if err != nil {
		return false, wrapErr("mark participation finished", err)
	}
	return rowsAffected("mark participation finished", res)
}
