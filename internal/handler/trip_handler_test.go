package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aditya/go-carpool/internal/cache"
	"github.com/aditya/go-carpool/internal/middleware"
	"github.com/aditya/go-carpool/internal/models"
	"github.com/aditya/go-carpool/internal/repository"
	"github.com/aditya/go-carpool/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "handler-secret-0123456789"

type envelope struct {
	Status           models.ResponseStatus `json:"status"`
	Message          string                `json:"message"`
	ReturnedTypeName string                `json:"returnedTypeName"`
	Value            json.RawMessage       `json:"value"`
}

type testServer struct {
	t      *testing.T
	router http.Handler
	store  *repository.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := repository.NewMemoryStore()
	logger := zap.NewNop()
	coordinator := service.NewTripCoordinator(store, nil, cache.NewMemoryActiveTripCache(time.Hour), logger, service.CoordinatorConfig{})

	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(testSecret, store, logger).Handler)
		NewTripHandler(coordinator).RegisterRoutes(r)
		NewPersonHandler(store, logger).RegisterRoutes(r)
	})

	return &testServer{t: t, router: r, store: store}
}

func (s *testServer) person(username string) *models.Person {
	s.t.Helper()
	p := &models.Person{Username: username, FirstName: username}
	require.NoError(s.t, s.store.CreatePerson(context.Background(), p))
	return p
}

func (s *testServer) do(method, path, username string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if username != "" {
		token, err := middleware.GenerateToken(testSecret, username, time.Hour)
		require.NoError(s.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Code == http.StatusOK {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func tripBody() map[string]interface{} {
	return map[string]interface{}{
		"content": map[string]interface{}{
			"mode":  map[string]interface{}{"kind": "car", "capacity": 4, "vacancy": 2, "make": "Fiat", "model": "Punto"},
			"prefs": map[string]interface{}{"nonsmoking": true},
			"locations": []map[string]interface{}{
				{"role": "orig", "lat": 46.07, "lon": 11.12, "town": "Trento"},
				{"role": "dest", "lat": 46.5, "lon": 11.35, "town": "Bolzano"},
			},
		},
	}
}

func TestTripLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	s.person("driver")
	rider := s.person("rider")

	rec, env := s.do(http.MethodPost, "/v1/trips", "driver", tripBody())
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, models.StatusPositive, env.Status, env.Message)
	assert.Equal(t, models.TypeTrip, env.ReturnedTypeName)

	var trip models.TripResponse
	require.NoError(t, json.Unmarshal(env.Value, &trip))
	require.NotEmpty(t, trip.ID)
	assert.Equal(t, "driver", trip.Author.Username)

	now := time.Now()
	require.NoError(t, s.store.CreateParticipation(context.Background(), &models.Participation{
		PersonID: rider.ID, TripID: trip.ID, Role: models.ParticipationRoleRider,
		Requested: true, RequestedTimestamp: &now,
	}))

	base := "/v1/trips/" + trip.ID

	_, env = s.do(http.MethodGet, base+"/requests", "driver", nil)
	require.Equal(t, models.StatusPositive, env.Status)
	var persons []models.PersonResponse
	require.NoError(t, json.Unmarshal(env.Value, &persons))
	require.Len(t, persons, 1)
	assert.Equal(t, "rider", persons[0].Username)

	_, env = s.do(http.MethodPost, base+"/requests/rider/accept", "driver", nil)
	assert.Equal(t, models.StatusPositive, env.Status)
	assert.Equal(t, models.MsgRideRequestAccepted, env.Message)

	_, env = s.do(http.MethodPost, base+"/requests/rider/refuse", "driver", nil)
	assert.Equal(t, models.StatusNegative, env.Status)
	assert.Equal(t, models.MsgRideRequestAlreadyAnswered, env.Message)

	_, env = s.do(http.MethodPost, base+"/start", "driver", nil)
	assert.Equal(t, models.StatusPositive, env.Status)

	rec, env = s.do(http.MethodPost, base+"/start", "driver", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusNegative, env.Status)
	assert.Equal(t, models.MsgTripAlreadyStarted, env.Message)

	_, env = s.do(http.MethodGet, "/v1/me/active-trip", "driver", nil)
	assert.Equal(t, models.StatusPositive, env.Status)

	_, env = s.do(http.MethodPost, base+"/finish", "driver", nil)
	assert.Equal(t, models.StatusPositive, env.Status)

	_, env = s.do(http.MethodGet, "/v1/me/active-trip", "driver", nil)
	assert.Equal(t, models.StatusNegative, env.Status)
	assert.Equal(t, models.MsgActiveTripNotFound, env.Message)

	_, env = s.do(http.MethodGet, base, "rider", nil)
	assert.Equal(t, models.StatusPositive, env.Status)
	assert.Equal(t, models.MsgTripFound, env.Message)
}

func TestLegacyAddTripOverHTTP(t *testing.T) {
	s := newTestServer(t)
	s.person("driver")

	body := map[string]interface{}{
		"trip":        map[string]interface{}{},
		"mode":        map[string]interface{}{"kind": "bus", "capacity": 40, "vacancy": 10},
		"prefs":       map[string]interface{}{},
		"source":      map[string]interface{}{"lat": 1, "lon": 2},
		"destination": map[string]interface{}{"lat": 3, "lon": 4},
	}
	_, env := s.do(http.MethodPost, "/v1/trips/legacy", "driver", body)
	require.Equal(t, models.StatusPositive, env.Status, env.Message)
	assert.Equal(t, models.MsgTripInserted, env.Message)
}

func TestDomainFailuresAreEnvelopes(t *testing.T) {
	s := newTestServer(t)
	s.person("driver")

	rec, env := s.do(http.MethodPost, "/v1/trips/"+uuid.New().String()+"/start", "driver", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusNegative, env.Status)
	assert.Equal(t, models.MsgTripNotFound, env.Message)

	rec, env = s.do(http.MethodPost, "/v1/trips/not-a-uuid/finish", "driver", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusNegative, env.Status)
	assert.Contains(t, env.Message, "invalid payload")

	body := tripBody()
	body["content"].(map[string]interface{})["mode"] = map[string]interface{}{"kind": "car", "capacity": 1, "vacancy": 3}
	rec, env = s.do(http.MethodPost, "/v1/trips", "driver", body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusNegative, env.Status)
	assert.Zero(t, s.store.Stats().Trips)
}

func TestTransportFailures(t *testing.T) {
	s := newTestServer(t)
	s.person("driver")

	rec, _ := s.do(http.MethodGet, "/v1/me/active-trip", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(http.MethodGet, "/v1/me/active-trip", "ghost", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := middleware.GenerateToken(testSecret, "driver", time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/trips", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPositionIsRecordedOnStart(t *testing.T) {
	s := newTestServer(t)
	driver := s.person("driver")

	_, env := s.do(http.MethodGet, "/v1/me", "driver", nil)
	require.Equal(t, models.StatusPositive, env.Status)
	assert.Equal(t, models.MsgPersonFound, env.Message)

	_, env = s.do(http.MethodPut, "/v1/me/position", "driver", map[string]interface{}{"lat": 200, "lon": 0})
	assert.Equal(t, models.StatusNegative, env.Status)
	assert.Contains(t, env.Message, "invalid payload")

	_, env = s.do(http.MethodPut, "/v1/me/position", "driver", map[string]interface{}{"lat": 46.07, "lon": 11.12, "label": "home"})
	require.Equal(t, models.StatusPositive, env.Status, env.Message)

	position, err := s.store.GetPersonPosition(context.Background(), driver.ID)
	require.NoError(t, err)
	require.NotNil(t, position)
	assert.Equal(t, models.LocationRolePosition, position.Role)

	_, env = s.do(http.MethodPost, "/v1/trips", "driver", tripBody())
	var trip models.TripResponse
	require.NoError(t, json.Unmarshal(env.Value, &trip))

	_, env = s.do(http.MethodPost, "/v1/trips/"+trip.ID+"/start", "driver", nil)
	require.Equal(t, models.StatusPositive, env.Status)

	p, err := s.store.GetParticipation(context.Background(), trip.ID, driver.ID)
	require.NoError(t, err)
	require.NotNil(t, p.StartedPositionID)
	assert.Equal(t, position.ID, *p.StartedPositionID)
}
