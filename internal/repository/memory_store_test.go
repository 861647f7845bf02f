package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/aditya/go-carpool/internal/errors"
	"github.com/aditya/go-carpool/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTrip(t *testing.T, s *MemoryStore) (*models.Person, *models.Trip) {
	t.Helper()
	ctx := context.Background()

	driver := &models.Person{Username: "driver"}
	require.NoError(t, s.CreatePerson(ctx, driver))

	mode := &models.Mode{PersonID: driver.ID, Kind: models.ModeKindCar, Capacity: 4, Vacancy: 3, Make: "Fiat", Model: "Panda"}
	require.NoError(t, s.UpsertMode(ctx, mode))
	prefs := &models.Prefs{}
	require.NoError(t, s.CreatePrefs(ctx, prefs))

	trip := &models.Trip{AuthorID: driver.ID, ModeID: mode.ID, PrefsID: prefs.ID}
	require.NoError(t, s.CreateTrip(ctx, trip))
	require.NoError(t, s.CreateParticipation(ctx, &models.Participation{
		PersonID: driver.ID, TripID: trip.ID, Role: models.ParticipationRoleDriver,
	}))
	return driver, trip
}

func TestMemoryStoreRollback(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTransaction(ctx, func(tx Store) error {
		require.NoError(t, tx.CreatePerson(ctx, &models.Person{Username: "ghost"}))
		require.NoError(t, tx.CreateLocation(ctx, &models.Location{Role: models.LocationRoleOrigin}))
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, MemoryStats{}, s.Stats())

	p, err := s.GetPersonByUsername(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestMemoryStoreCommitAndNesting(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	err := s.WithTransaction(ctx, func(tx Store) error {
		if err := tx.CreatePerson(ctx, &models.Person{Username: "a"}); err != nil {
			return err
		}
		return tx.WithTransaction(ctx, func(inner Store) error {
			return inner.CreatePerson(ctx, &models.Person{Username: "b"})
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Stats().Persons)
}

func TestMemoryStoreModeUpsert(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	driver := &models.Person{Username: "driver"}
	require.NoError(t, s.CreatePerson(ctx, driver))

	first := &models.Mode{PersonID: driver.ID, Kind: models.ModeKindCar, Capacity: 4, Vacancy: 3, Make: "Fiat", Model: "Panda", Color: "red"}
	require.NoError(t, s.UpsertMode(ctx, first))

	second := &models.Mode{PersonID: driver.ID, Kind: models.ModeKindCar, Capacity: 4, Vacancy: 1, Make: "Fiat", Model: "Panda", Color: "blue"}
	require.NoError(t, s.UpsertMode(ctx, second))

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, second.Vacancy)
	assert.Equal(t, "red", second.Color)
	assert.Equal(t, 1, s.Stats().Modes)

	other := &models.Mode{PersonID: driver.ID, Kind: models.ModeKindVan, Capacity: 4, Vacancy: 1, Make: "Fiat", Model: "Panda"}
	require.NoError(t, s.UpsertMode(ctx, other))
	assert.NotEqual(t, first.ID, other.ID)

	bad := &models.Mode{PersonID: driver.ID, Kind: models.ModeKindCar, Capacity: 2, Vacancy: 5}
	err := s.UpsertMode(ctx, bad)
	assert.ErrorIs(t, err, apperrors.ErrConstraintViolation)
}

func TestMemoryStoreParticipationConstraints(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	driver, trip := seedTrip(t, s)

	err := s.CreateParticipation(ctx, &models.Participation{PersonID: driver.ID, TripID: trip.ID, Role: models.ParticipationRoleRider})
	assert.ErrorIs(t, err, apperrors.ErrConstraintViolation)

	other := &models.Person{Username: "other"}
	require.NoError(t, s.CreatePerson(ctx, other))
	err = s.CreateParticipation(ctx, &models.Participation{PersonID: other.ID, TripID: trip.ID, Role: models.ParticipationRoleDriver})
	assert.ErrorIs(t, err, apperrors.ErrConstraintViolation)
}

func TestMemoryStoreRideRequestsOrderAndFilter(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	driver, trip := seedTrip(t, s)

	names := []string{"r1", "r2", "r3", "r4"}
	ids := map[string]string{}
	for _, name := range names {
		p := &models.Person{Username: name}
		require.NoError(t, s.CreatePerson(ctx, p))
		ids[name] = p.ID
		require.NoError(t, s.CreateParticipation(ctx, &models.Participation{
			PersonID: p.ID, TripID: trip.ID, Role: models.ParticipationRoleRider, Requested: true,
		}))
	}

	r3, err := s.GetParticipation(ctx, trip.ID, ids["r3"])
	require.NoError(t, err)
	ok, err := s.MarkAccepted(ctx, r3.ID, time.Now(), nil)
	require.NoError(t, err)
	assert.True(t, ok)

	persons, err := s.ListRideRequests(ctx, trip.ID, driver.ID)
	require.NoError(t, err)
	var got []string
	for _, p := range persons {
		got = append(got, p.Username)
	}
	assert.Equal(t, []string{"r1", "r2", "r4"}, got)

	persons, err = s.ListRideRequests(ctx, trip.ID, ids["r1"])
	require.NoError(t, err)
	assert.Len(t, persons, 2)
}

func TestMemoryStoreConditionalMarks(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	driver, trip := seedTrip(t, s)
	now := time.Now()

	dp, err := s.GetDriverParticipationForUpdate(ctx, trip.ID)
	require.NoError(t, err)
	require.NotNil(t, dp)
	assert.Equal(t, driver.ID, dp.PersonID)

	ok, err := s.MarkFinished(ctx, dp.ID, now)
	require.NoError(t, err)
	assert.False(t, ok, "cannot finish before start")

	ok, err = s.MarkStarted(ctx, dp.ID, now, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.MarkStarted(ctx, dp.ID, now, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.MarkFinished(ctx, dp.ID, now)
	require.NoError(t, err)
	assert.True(t, ok)

	rider := &models.Person{Username: "rider"}
	require.NoError(t, s.CreatePerson(ctx, rider))
	rp := &models.Participation{PersonID: rider.ID, TripID: trip.ID, Role: models.ParticipationRoleRider, Requested: true}
	require.NoError(t, s.CreateParticipation(ctx, rp))

	ok, err = s.MarkRefused(ctx, rp.ID, now, nil, true)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.MarkAccepted(ctx, rp.ID, now, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.MarkRefused(ctx, rp.ID, now, nil, true)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.MarkRefused(ctx, rp.ID, now, nil, false)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStorePositionsAndLocations(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	driver, trip := seedTrip(t, s)

	pos, err := s.GetPersonPosition(ctx, driver.ID)
	require.NoError(t, err)
	assert.Nil(t, pos)

	require.NoError(t, s.SetPersonPosition(ctx, driver.ID, &models.Location{Lat: 46.07, Lon: 11.12}))
	pos, err = s.GetPersonPosition(ctx, driver.ID)
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.Equal(t, models.LocationRolePosition, pos.Role)

	for i, role := range []string{models.LocationRoleDestination, models.LocationRoleOrigin} {
		loc := &models.Location{Role: role, Label: role}
		require.NoError(t, s.CreateLocation(ctx, loc))
		require.NoError(t, s.AddTripLocation(ctx, &models.TripLocation{TripID: trip.ID, LocationID: loc.ID, Role: role, Seq: 1 - i}))
	}
	locs, err := s.GetTripLocations(ctx, trip.ID)
	require.NoError(t, err)
	require.Len(t, locs, 2)
	assert.Equal(t, models.LocationRoleOrigin, locs[0].Role)
	assert.Equal(t, models.LocationRoleDestination, locs[1].Role)

	active, err := s.GetActiveTripByAuthor(ctx, driver.ID)
	require.NoError(t, err)
	assert.Nil(t, active)

	require.NoError(t, s.SetTripActive(ctx, trip.ID, true))
	active, err = s.GetActiveTripByAuthor(ctx, driver.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, trip.ID, active.ID)
}
