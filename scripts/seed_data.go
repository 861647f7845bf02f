//go:build ignore

package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/aditya/go-carpool/internal/config"
	"github.com/aditya/go-carpool/internal/database"
	"github.com/aditya/go-carpool/internal/logging"
	"github.com/aditya/go-carpool/internal/middleware"
	"github.com/aditya/go-carpool/internal/models"
	"github.com/aditya/go-carpool/internal/repository"
	"github.com/aditya/go-carpool/internal/service"
	"go.uber.org/zap"
)

// Trento coordinates
const (
	baseLat = 46.0748
	baseLon = 11.1217
)

var (
	firstNames = []string{"Marco", "Giulia", "Luca", "Chiara", "Paolo", "Sara", "Andrea", "Elena", "Matteo", "Anna"}
	lastNames  = []string{"Rossi", "Bianchi", "Ferrari", "Esposito", "Romano", "Gallo", "Costa", "Fontana"}
	towns      = []string{"Trento", "Rovereto", "Bolzano", "Pergine", "Riva del Garda", "Arco"}
	makes      = []struct{ make, model string }{{"Fiat", "Panda"}, {"Volkswagen", "Golf"}, {"Renault", "Clio"}, {"Toyota", "Yaris"}}
)

const (
	driverCount     = 10
	riderCount      = 40
	requestsPerTrip = 3
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	logger := logging.NewLogger(logging.Options{Level: cfg.LogLevel, Env: cfg.Env})
	defer logger.Sync()

	ctx := context.Background()

	db, err := database.NewPostgres(ctx, database.PostgresOptions{
		URL:          cfg.DatabaseURL,
		MaxConns:     cfg.DBMaxConnections,
		MaxIdleConns: cfg.DBMaxIdleConnections,
	})
	if err != nil {
		logger.Fatal("failed to connect to PostgreSQL", zap.Error(err))
	}
	defer db.Close()
	store := repository.NewPostgresStore(db.DB)
	coordinator := service.NewTripCoordinator(store, nil, nil, logger, service.CoordinatorConfig{})

	drivers := seedPersons(ctx, store, logger, "driver", driverCount)
	riders := seedPersons(ctx, store, logger, "rider", riderCount)

	var tripIDs []string
	for _, driver := range drivers {
		resp := coordinator.AddTripExp(ctx, randomTrip(), driver)
		if !resp.IsPositive() {
			logger.Warn("failed to create trip", zap.String("driver", driver.Username), zap.String("message", resp.Message))
			continue
		}
		trip := resp.Value.(*models.TripResponse)
		tripIDs = append(tripIDs, trip.ID)

		// Ride requests arrive through the booking flow; seed a few directly.
		for _, idx := range rand.Perm(len(riders))[:requestsPerTrip] {
			now := time.Now()
			p := &models.Participation{
				PersonID:           riders[idx].ID,
				TripID:             trip.ID,
				Role:               models.ParticipationRoleRider,
				Requested:          true,
				RequestedTimestamp: &now,
			}
			if err := store.CreateParticipation(ctx, p); err != nil {
				logger.Warn("failed to create ride request", zap.String("trip_id", trip.ID), zap.Error(err))
			}
		}
	}

	logger.Info("seed data created",
		zap.Int("drivers", len(drivers)),
		zap.Int("riders", len(riders)),
		zap.Int("trips", len(tripIDs)),
	)

	if len(drivers) > 0 && len(tripIDs) > 0 {
		token, err := middleware.GenerateToken(cfg.JWTSecret, drivers[0].Username, 24*time.Hour)
		if err != nil {
			logger.Fatal("failed to sign token", zap.Error(err))
		}
		fmt.Printf("\nSample driver: %s\nSample trip:   %s\nBearer token:  %s\n", drivers[0].Username, tripIDs[0], token)
	}
}

func seedPersons(ctx context.Context, store repository.Store, logger *zap.Logger, prefix string, n int) []*models.Person {
	persons := make([]*models.Person, 0, n)
	for i := 0; i < n; i++ {
		p := &models.Person{
			Username:  fmt.Sprintf("%s%03d", prefix, i),
			FirstName: firstNames[rand.Intn(len(firstNames))],
			LastName:  lastNames[rand.Intn(len(lastNames))],
		}
		if err := store.CreatePerson(ctx, p); err != nil {
			logger.Warn("failed to create person", zap.String("username", p.Username), zap.Error(err))
			continue
		}

		// Half of the persons report a position.
		if rand.Float64() > 0.5 {
			pos := &models.Location{Lat: jitter(baseLat), Lon: jitter(baseLon)}
			if err := store.SetPersonPosition(ctx, p.ID, pos); err != nil {
				logger.Warn("failed to set position", zap.String("username", p.Username), zap.Error(err))
			}
		}
		persons = append(persons, p)
	}
	return persons
}

func randomTrip() *models.TripPayload {
	car := makes[rand.Intn(len(makes))]
	capacity := 3 + rand.Intn(3)
	expires := time.Now().Add(time.Duration(2+rand.Intn(10)) * time.Hour)

	return &models.TripPayload{
		Expires: &expires,
		Content: models.TripContent{
			Mode: models.ModePayload{
				Kind:     models.ModeKindCar,
				Capacity: capacity,
				Vacancy:  rand.Intn(capacity + 1),
				Make:     car.make,
				Model:    car.model,
			},
			Prefs: models.PrefsPayload{Nonsmoking: rand.Float64() > 0.3, Drive: true},
			Locations: []models.LocationPayload{
				{Role: models.LocationRoleOrigin, Town: towns[rand.Intn(len(towns))], Lat: jitter(baseLat), Lon: jitter(baseLon)},
				{Role: models.LocationRoleDestination, Town: towns[rand.Intn(len(towns))], Lat: jitter(baseLat), Lon: jitter(baseLon)},
			},
		},
	}
}

// jitter spreads coordinates over roughly 10km.
func jitter(v float64) float64 {
	return v + (rand.Float64()-0.5)*0.1
}
