package service

import (
	"context"
	"errors"

	apperrors "github.com/aditya/go-carpool/internal/errors"
	"github.com/aditya/go-carpool/internal/events"
	"github.com/aditya/go-carpool/internal/models"
	"github.com/aditya/go-carpool/internal/repository"
	"go.uber.org/zap"
)

func (s *tripCoordinator) CheckRideRequests(ctx context.Context, ref *models.TripRef, caller *models.Person) *models.Response {
	return s.instrument(ctx, "check_ride_requests", caller, func() *models.Response {
		if err := s.check(ref); err != nil {
			return invalidPayload(err)
		}

		trip, err := s.store.GetTripByID(ctx, ref.ID)
		if err != nil {
			return s.storageFailure("check_ride_requests", err)
		}
		if trip == nil {
			return models.Negative(models.MsgTripNotFound, models.TypeBoolean, false)
		}

		persons, err := s.store.ListRideRequests(ctx, trip.ID, caller.ID)
		if err != nil {
			return s.storageFailure("check_ride_requests", err)
		}
		if len(persons) == 0 {
			return models.Negative(models.MsgRideRequestsNotFound, models.TypeBoolean, false)
		}

		out := make([]*models.PersonResponse, 0, len(persons))
		for i := range persons {
			out = append(out, persons[i].ToResponse())
		}
		return models.Positive(models.MsgRideRequestsFound, models.TypePersonArray, out)
	})
}

func (s *tripCoordinator) AcceptRideRequest(ctx context.Context, ref *models.TripRef, rider *models.PersonRef, caller *models.Person) *models.Response {
	return s.instrument(ctx, "accept_ride_request", caller, func() *models.Response {
		answer := func(tx repository.Store, p *models.Participation, positionID *string) (bool, error) {
			if !p.CanAccept() {
				return false, nil
			}
			return tx.MarkAccepted(ctx, p.ID, s.now(), positionID)
		}

		tripID, riderID, err := s.answerRideRequest(ctx, ref, rider, answer)
		if resp := s.answerFailure("accept_ride_request", ref, rider, err, models.MsgRideRequestRefused); resp != nil {
			return resp
		}

		s.logger.Info("ride request accepted", zap.String("trip_id", tripID), zap.String("rider", rider.Username))
		s.publish(ctx, events.Event{Type: events.TypeRideRequestAccepted, TripID: tripID, ActorID: caller.ID, SubjectID: riderID})
		return models.Positive(models.MsgRideRequestAccepted, models.TypeBoolean, true)
	})
}

func (s *tripCoordinator) RefuseRideRequest(ctx context.Context, ref *models.TripRef, rider *models.PersonRef, caller *models.Person) *models.Response {
	return s.instrument(ctx, "refuse_ride_request", caller, func() *models.Response {
		strict := !s.cfg.LegacyRefusal
		answer := func(tx repository.Store, p *models.Participation, positionID *string) (bool, error) {
			if strict && !p.Requested {
				return false, apperrors.ErrNotRequested
			}
			if !p.CanRefuse(strict) {
				return false, nil
			}
			return tx.MarkRefused(ctx, p.ID, s.now(), positionID, strict)
		}

		tripID, riderID, err := s.answerRideRequest(ctx, ref, rider, answer)
		if resp := s.answerFailure("refuse_ride_request", ref, rider, err, models.MsgRideRequestAlreadyAnswered); resp != nil {
			return resp
		}

		s.logger.Info("ride request refused", zap.String("trip_id", tripID), zap.String("rider", rider.Username))
		s.publish(ctx, events.Event{Type: events.TypeRideRequestRefused, TripID: tripID, ActorID: caller.ID, SubjectID: riderID})
		return models.Positive(models.MsgRideRequestRefused, models.TypeBoolean, true)
	})
}

type answerFunc func(tx repository.Store, p *models.Participation, positionID *string) (bool, error)

// answerRideRequest locks the rider's participation and applies answer to it.
// A false result from answer means the guard did not hold.
func (s *tripCoordinator) answerRideRequest(ctx context.Context, ref *models.TripRef, rider *models.PersonRef, answer answerFunc) (string, string, error) {
	if err := s.check(ref); err != nil {
		return "", "", err
	}
	if rider == nil {
		return "", "", apperrors.Validation("missing person")
	}
	if err := s.check(rider); err != nil {
		return "", "", err
	}

	var tripID, riderID string
	err := s.store.WithTransaction(ctx, func(tx repository.Store) error {
		trip, err := tx.GetTripByID(ctx, ref.ID)
		if err != nil {
			return err
		}
		if trip == nil {
			return apperrors.ErrTripNotFound
		}

		person, err := tx.GetPersonByUsername(ctx, rider.Username)
		if err != nil {
			return err
		}
		if person == nil {
			return apperrors.ErrPersonNotFound
		}

		participation, err := tx.GetParticipationForUpdate(ctx, trip.ID, person.ID)
		if err != nil {
			return err
		}
		if participation == nil {
			return apperrors.ErrParticipationNotFound
		}

		position, err := tx.GetPersonPosition(ctx, person.ID)
		if err != nil {
			return err
		}

		ok, err := answer(tx, participation, locationID(position))
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.ErrInvalidTransition
		}

		tripID, riderID = trip.ID, person.ID
		return nil
	})
	return tripID, riderID, err
}

// answerFailure maps an answerRideRequest error to a response, or nil on success.
func (s *tripCoordinator) answerFailure(op string, ref *models.TripRef, rider *models.PersonRef, err error, rejected string) *models.Response {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apperrors.ErrValidation):
		return invalidPayload(err)
	case errors.Is(err, apperrors.ErrTripNotFound):
		return models.Negative(models.MsgPersonNotFound, models.TypeTrip, ref)
	case errors.Is(err, apperrors.ErrPersonNotFound):
		return models.Negative(models.MsgPersonNotFound, models.TypePerson, rider)
	case errors.Is(err, apperrors.ErrParticipationNotFound):
		return models.Negative(models.MsgPersonNotFound, models.TypeBoolean, false)
	case errors.Is(err, apperrors.ErrNotRequested):
		return models.Negative(models.MsgRideRequestNotFound, models.TypeBoolean, false)
	case errors.Is(err, apperrors.ErrInvalidTransition):
		return models.Negative(rejected, models.TypeBoolean, false)
	default:
		return s.storageFailure(op, err)
	}
}
