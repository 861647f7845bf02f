package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aditya/go-carpool/internal/cache"
	apperrors "github.com/aditya/go-carpool/internal/errors"
	"github.com/aditya/go-carpool/internal/events"
	"github.com/aditya/go-carpool/internal/models"
	"github.com/aditya/go-carpool/internal/observability"
	"github.com/aditya/go-carpool/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/newrelic/go-agent/v3/newrelic"
	"go.uber.org/zap"
)

// TripCoordinator runs the trip and participation lifecycle. Every operation
// answers with a Response; storage and validation failures become negative
// responses rather than errors.
type TripCoordinator interface {
	// AddTrip is the deprecated flat insertion.
	AddTrip(ctx context.Context, req *models.AddTripRequest, driver *models.Person) *models.Response
	AddTripExp(ctx context.Context, payload *models.TripPayload, driver *models.Person) *models.Response
	StartTrip(ctx context.Context, ref *models.TripRef, driver *models.Person) *models.Response
	CheckRideRequests(ctx context.Context, ref *models.TripRef, caller *models.Person) *models.Response
	AcceptRideRequest(ctx context.Context, ref *models.TripRef, rider *models.PersonRef, caller *models.Person) *models.Response
	RefuseRideRequest(ctx context.Context, ref *models.TripRef, rider *models.PersonRef, caller *models.Person) *models.Response
	FinishTrip(ctx context.Context, ref *models.TripRef, driver *models.Person) *models.Response
	GetTrip(ctx context.Context, ref *models.TripRef, caller *models.Person) *models.Response
	ActiveTrip(ctx context.Context, caller *models.Person) *models.Response
}

type CoordinatorConfig struct {
	// LegacyRefusal lets any existing participation be refused, including
	// already answered ones.
	LegacyRefusal bool
}

type tripCoordinator struct {
	store       repository.Store
	publisher   events.Publisher
	activeTrips cache.ActiveTripCache
	logger      *zap.Logger
	validate    *validator.Validate
	cfg         CoordinatorConfig
	now         func() time.Time
}

func NewTripCoordinator(
	store repository.Store,
	publisher events.Publisher,
	activeTrips cache.ActiveTripCache,
	logger *zap.Logger,
	cfg CoordinatorConfig,
) TripCoordinator {
	return newTripCoordinator(store, publisher, activeTrips, logger, cfg)
}

func newTripCoordinator(
	store repository.Store,
	publisher events.Publisher,
	activeTrips cache.ActiveTripCache,
	logger *zap.Logger,
	cfg CoordinatorConfig,
) *tripCoordinator {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &tripCoordinator{
		store:       store,
		publisher:   publisher,
		activeTrips: activeTrips,
		logger:      logger,
		validate:    validator.New(),
		cfg:         cfg,
		now:         time.Now,
	}
}

func (s *tripCoordinator) AddTrip(ctx context.Context, req *models.AddTripRequest, driver *models.Person) *models.Response {
	return s.instrument(ctx, "add_trip", driver, func() *models.Response {
		if req == nil {
			return invalidPayload(apperrors.Validation("missing trip"))
		}
		req.Source.Role = models.LocationRoleOrigin
		req.Destination.Role = models.LocationRoleDestination
		if err := s.check(req); err != nil {
			return invalidPayload(err)
		}
		locations := []models.LocationPayload{req.Source, req.Destination}
		return s.createTrip(ctx, "add_trip", driver, req.Trip.Expires, &req.Mode, &req.Prefs, locations)
	})
}

func (s *tripCoordinator) AddTripExp(ctx context.Context, payload *models.TripPayload, driver *models.Person) *models.Response {
	return s.instrument(ctx, "add_trip_exp", driver, func() *models.Response {
		if payload == nil {
			return invalidPayload(apperrors.Validation("missing trip"))
		}
		if err := s.check(payload); err != nil {
			return invalidPayload(err)
		}
		locations, err := orderedLocations(payload)
		if err != nil {
			return invalidPayload(err)
		}
		return s.createTrip(ctx, "add_trip_exp", driver, payload.Expires, &payload.Content.Mode, &payload.Content.Prefs, locations)
	})
}

// orderedLocations returns origin, destination, then waypoints in payload order.
func orderedLocations(payload *models.TripPayload) ([]models.LocationPayload, error) {
	var origins, destinations int
	for _, loc := range payload.Content.Locations {
		switch loc.Role {
		case models.LocationRoleOrigin:
			origins++
		case models.LocationRoleDestination:
			destinations++
		}
	}
	if origins != 1 || destinations != 1 {
		return nil, apperrors.Validation(fmt.Sprintf("locations need exactly one orig and one dest, got %d and %d", origins, destinations))
	}

	out := []models.LocationPayload{*payload.Origin(), *payload.Destination()}
	return append(out, payload.Waypoints()...), nil
}

func (s *tripCoordinator) createTrip(
	ctx context.Context,
	op string,
	driver *models.Person,
	expires *time.Time,
	modePayload *models.ModePayload,
	prefsPayload *models.PrefsPayload,
	locations []models.LocationPayload,
) *models.Response {
	var created *models.TripResponse

	err := s.store.WithTransaction(ctx, func(tx repository.Store) error {
		locs := make([]models.Location, 0, len(locations))
		for i := range locations {
			loc := locations[i].ToLocation()
			if err := tx.CreateLocation(ctx, loc); err != nil {
				return err
			}
			locs = append(locs, *loc)
		}

		mode := modePayload.ToMode(driver.ID)
		if err := tx.UpsertMode(ctx, mode); err != nil {
			return err
		}

		prefs := prefsPayload.ToPrefs()
		if err := tx.CreatePrefs(ctx, prefs); err != nil {
			return err
		}

		trip := &models.Trip{
			AuthorID: driver.ID,
			ModeID:   mode.ID,
			PrefsID:  prefs.ID,
			Expires:  expires,
		}
		if err := tx.CreateTrip(ctx, trip); err != nil {
			return err
		}

		for i, loc := range locs {
			tl := &models.TripLocation{TripID: trip.ID, LocationID: loc.ID, Role: loc.Role, Seq: i}
			if err := tx.AddTripLocation(ctx, tl); err != nil {
				return err
			}
		}

		participation := &models.Participation{
			PersonID: driver.ID,
			TripID:   trip.ID,
			Role:     models.ParticipationRoleDriver,
		}
		if err := tx.CreateParticipation(ctx, participation); err != nil {
			return err
		}

		created = trip.ToResponse()
		created.Author = driver.ToResponse()
		created.Mode = mode
		created.Prefs = prefs
		created.Locations = locs
		return nil
	})
	if err != nil {
		return s.storageFailure(op, err)
	}

	s.logger.Info("trip created",
		zap.String("trip_id", created.ID),
		zap.String("driver", driver.Username),
		zap.Int("locations", len(created.Locations)),
	)
	s.publish(ctx, events.Event{Type: events.TypeTripCreated, TripID: created.ID, ActorID: driver.ID})

	return models.Positive(models.MsgTripInserted, models.TypeTrip, created)
}

func (s *tripCoordinator) StartTrip(ctx context.Context, ref *models.TripRef, driver *models.Person) *models.Response {
	return s.instrument(ctx, "start_trip", driver, func() *models.Response {
		if err := s.check(ref); err != nil {
			return invalidPayload(err)
		}

		var trip *models.Trip
		err := s.store.WithTransaction(ctx, func(tx repository.Store) error {
			var err error
			trip, err = tx.GetTripByIDForUpdate(ctx, ref.ID)
			if err != nil {
				return err
			}
			if trip == nil {
				return apperrors.ErrTripNotFound
			}

			participation, err := tx.GetDriverParticipationForUpdate(ctx, trip.ID)
			if err != nil {
				return err
			}
			if participation == nil {
				return apperrors.ErrParticipationNotFound
			}
			if !participation.CanStart() {
				return apperrors.ErrTripAlreadyStarted
			}

			position, err := tx.GetPersonPosition(ctx, driver.ID)
			if err != nil {
				return err
			}

			ok, err := tx.MarkStarted(ctx, participation.ID, s.now(), locationID(position))
			if err != nil {
				return err
			}
			if !ok {
				return apperrors.ErrTripAlreadyStarted
			}

			return tx.SetTripActive(ctx, trip.ID, true)
		})

		switch {
		case errors.Is(err, apperrors.ErrTripNotFound):
			return models.Negative(models.MsgTripNotFound, models.TypeBoolean, false)
		case errors.Is(err, apperrors.ErrParticipationNotFound):
			return models.Negative(models.MsgPersonNotFound, models.TypeBoolean, false)
		case errors.Is(err, apperrors.ErrTripAlreadyStarted):
			return models.Negative(models.MsgTripAlreadyStarted, models.TypeBoolean, false)
		case err != nil:
			return s.storageFailure("start_trip", err)
		}

		observability.ActiveTrips.Inc()
		if s.activeTrips != nil {
			if err := s.activeTrips.SetActiveTrip(ctx, trip.AuthorID, trip.ID); err != nil {
				s.logger.Warn("failed to cache active trip", zap.String("trip_id", trip.ID), zap.Error(err))
			}
		}
		s.publish(ctx, events.Event{Type: events.TypeTripStarted, TripID: trip.ID, ActorID: driver.ID})

		return models.Positive(models.MsgTripStarted, models.TypeBoolean, true)
	})
}

func (s *tripCoordinator) FinishTrip(ctx context.Context, ref *models.TripRef, driver *models.Person) *models.Response {
	return s.instrument(ctx, "finish_trip", driver, func() *models.Response {
		if err := s.check(ref); err != nil {
			return invalidPayload(err)
		}

		var trip *models.Trip
		finished := false
		err := s.store.WithTransaction(ctx, func(tx repository.Store) error {
			var err error
			trip, err = tx.GetTripByIDForUpdate(ctx, ref.ID)
			if err != nil {
				return err
			}
			if trip == nil {
				return apperrors.ErrTripNotFound
			}

			participation, err := tx.GetParticipationForUpdate(ctx, trip.ID, driver.ID)
			if err != nil {
				return err
			}
			if participation != nil && participation.CanFinish() {
				finished, err = tx.MarkFinished(ctx, participation.ID, s.now())
				if err != nil {
					return err
				}
			}

			// Riders keep their own state; they drop off individually.
			return tx.SetTripActive(ctx, trip.ID, false)
		})

		switch {
		case errors.Is(err, apperrors.ErrTripNotFound):
			return models.Negative(models.MsgTripNotFound, models.TypeBoolean, false)
		case err != nil:
			return s.storageFailure("finish_trip", err)
		}

		if finished {
			observability.ActiveTrips.Dec()
		}
		if s.activeTrips != nil {
			if err := s.activeTrips.ClearActiveTrip(ctx, trip.AuthorID); err != nil {
				s.logger.Warn("failed to clear active trip", zap.String("trip_id", trip.ID), zap.Error(err))
			}
		}
		s.publish(ctx, events.Event{Type: events.TypeTripFinished, TripID: trip.ID, ActorID: driver.ID})

		return models.Positive(models.MsgTripFinished, models.TypeBoolean, true)
	})
}

func (s *tripCoordinator) GetTrip(ctx context.Context, ref *models.TripRef, caller *models.Person) *models.Response {
	return s.instrument(ctx, "get_trip", caller, func() *models.Response {
		if err := s.check(ref); err != nil {
			return invalidPayload(err)
		}

		trip, err := s.store.GetTripByID(ctx, ref.ID)
		if err != nil {
			return s.storageFailure("get_trip", err)
		}
		if trip == nil {
			return models.Negative(models.MsgTripNotFound, models.TypeBoolean, false)
		}

		resp, err := s.tripResponse(ctx, trip)
		if err != nil {
			return s.storageFailure("get_trip", err)
		}
		return models.Positive(models.MsgTripFound, models.TypeTrip, resp)
	})
}

// ActiveTrip looks up the caller's running trip, trying the cache before storage.
func (s *tripCoordinator) ActiveTrip(ctx context.Context, caller *models.Person) *models.Response {
	return s.instrument(ctx, "active_trip", caller, func() *models.Response {
		trip, err := s.cachedActiveTrip(ctx, caller)
		if err != nil {
			return s.storageFailure("active_trip", err)
		}

		if trip == nil {
			trip, err = s.store.GetActiveTripByAuthor(ctx, caller.ID)
			if err != nil {
				return s.storageFailure("active_trip", err)
			}
			if trip == nil {
				return models.Negative(models.MsgActiveTripNotFound, models.TypeBoolean, false)
			}
			if s.activeTrips != nil {
				if err := s.activeTrips.SetActiveTrip(ctx, caller.ID, trip.ID); err != nil {
					s.logger.Warn("failed to cache active trip", zap.String("trip_id", trip.ID), zap.Error(err))
				}
			}
		}

		resp, err := s.tripResponse(ctx, trip)
		if err != nil {
			return s.storageFailure("active_trip", err)
		}
		return models.Positive(models.MsgTripFound, models.TypeTrip, resp)
	})
}

// cachedActiveTrip returns nil when the cache has nothing usable.
func (s *tripCoordinator) cachedActiveTrip(ctx context.Context, caller *models.Person) (*models.Trip, error) {
	if s.activeTrips == nil {
		return nil, nil
	}
	tripID, err := s.activeTrips.GetActiveTrip(ctx, caller.ID)
	if err != nil {
		s.logger.Warn("active trip cache unavailable", zap.Error(err))
		return nil, nil
	}
	if tripID == "" {
		return nil, nil
	}

	trip, err := s.store.GetTripByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip == nil || !trip.Active || trip.AuthorID != caller.ID {
		return nil, nil
	}
	return trip, nil
}

func (s *tripCoordinator) tripResponse(ctx context.Context, trip *models.Trip) (*models.TripResponse, error) {
	resp := trip.ToResponse()

	author, err := s.store.GetPersonByID(ctx, trip.AuthorID)
	if err != nil {
		return nil, err
	}
	if author != nil {
		resp.Author = author.ToResponse()
	}

	if resp.Mode, err = s.store.GetModeByID(ctx, trip.ModeID); err != nil {
		return nil, err
	}
	if resp.Prefs, err = s.store.GetPrefsByID(ctx, trip.PrefsID); err != nil {
		return nil, err
	}

	locs, err := s.store.GetTripLocations(ctx, trip.ID)
	if err != nil {
		return nil, err
	}
	if len(locs) > 0 {
		resp.Locations = locs
	}
	return resp, nil
}

// instrument wraps an operation with tracing, metrics and a caller check.
func (s *tripCoordinator) instrument(ctx context.Context, op string, caller *models.Person, fn func() *models.Response) *models.Response {
	defer newrelic.FromContext(ctx).StartSegment("TripCoordinator/" + op).End()
	start := time.Now()

	var resp *models.Response
	if caller == nil {
		resp = models.Negative(models.MsgPersonNotFound, models.TypeBoolean, false)
	} else {
		resp = fn()
	}

	observability.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	observability.OperationsTotal.WithLabelValues(op, resp.Status.String()).Inc()
	return resp
}

func (s *tripCoordinator) check(payload interface{}) error {
	if err := s.validate.Struct(payload); err != nil {
		return apperrors.Validation(err.Error())
	}
	return nil
}

func (s *tripCoordinator) storageFailure(op string, err error) *models.Response {
	s.logger.Error("operation failed", zap.String("operation", op), zap.Error(err))
	return models.Negative(err.Error(), models.TypeBoolean, false)
}

func (s *tripCoordinator) publish(ctx context.Context, ev events.Event) {
	ev.OccurredAt = s.now()
	if err := s.publisher.Publish(ctx, ev); err != nil {
		observability.EventPublishFailures.WithLabelValues(ev.Type).Inc()
		s.logger.Warn("failed to publish event",
			zap.String("type", ev.Type),
			zap.String("trip_id", ev.TripID),
			zap.Error(err),
		)
	}
}

func invalidPayload(err error) *models.Response {
	return models.Negative(err.Error(), models.TypeBoolean, false)
}

func locationID(loc *models.Location) *string {
	if loc == nil {
		return nil
	}
	id := loc.ID
	return &id
}
