package handler

import (
	"encoding/json"
	"net/http"

	"github.com/aditya/go-carpool/internal/middleware"
	"github.com/aditya/go-carpool/internal/models"
	"github.com/aditya/go-carpool/internal/service"
	"github.com/aditya/go-carpool/pkg/utils"
	"github.com/go-chi/chi/v5"
)

// TripHandler exposes the trip coordinator over HTTP. Payload validation is
// left to the coordinator so that every domain outcome, including invalid
// payloads, is answered with a response envelope.
type TripHandler struct {
	coordinator service.TripCoordinator
}

func NewTripHandler(coordinator service.TripCoordinator) *TripHandler {
	return &TripHandler{coordinator: coordinator}
}

func (h *TripHandler) RegisterRoutes(r chi.Router) {
	r.Post("/trips", h.AddTripExp)
	r.Post("/trips/legacy", h.AddTrip)
	r.Get("/trips/{id}", h.GetTrip)
	r.Post("/trips/{id}/start", h.StartTrip)
	r.Get("/trips/{id}/requests", h.CheckRideRequests)
	r.Post("/trips/{id}/requests/{username}/accept", h.AcceptRideRequest)
	r.Post("/trips/{id}/requests/{username}/refuse", h.RefuseRideRequest)
	r.Post("/trips/{id}/finish", h.FinishTrip)
	r.Get("/me/active-trip", h.ActiveTrip)
}

// POST /v1/trips
func (h *TripHandler) AddTripExp(w http.ResponseWriter, r *http.Request) {
	var req models.TripPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}

	utils.Envelope(w, h.coordinator.AddTripExp(r.Context(), &req, middleware.CallerFromContext(r.Context())))
}

// POST /v1/trips/legacy
func (h *TripHandler) AddTrip(w http.ResponseWriter, r *http.Request) {
	var req models.AddTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}

	utils.Envelope(w, h.coordinator.AddTrip(r.Context(), &req, middleware.CallerFromContext(r.Context())))
}

// GET /v1/trips/{id}
func (h *TripHandler) GetTrip(w http.ResponseWriter, r *http.Request) {
	utils.Envelope(w, h.coordinator.GetTrip(r.Context(), tripRef(r), middleware.CallerFromContext(r.Context())))
}

// POST /v1/trips/{id}/start
func (h *TripHandler) StartTrip(w http.ResponseWriter, r *http.Request) {
	utils.Envelope(w, h.coordinator.StartTrip(r.Context(), tripRef(r), middleware.CallerFromContext(r.Context())))
}

// GET /v1/trips/{id}/requests
func (h *TripHandler) CheckRideRequests(w http.ResponseWriter, r *http.Request) {
	utils.Envelope(w, h.coordinator.CheckRideRequests(r.Context(), tripRef(r), middleware.CallerFromContext(r.Context())))
}

// POST /v1/trips/{id}/requests/{username}/accept
func (h *TripHandler) AcceptRideRequest(w http.ResponseWriter, r *http.Request) {
	rider := &models.PersonRef{Username: chi.URLParam(r, "username")}
	utils.Envelope(w, h.coordinator.AcceptRideRequest(r.Context(), tripRef(r), rider, middleware.CallerFromContext(r.Context())))
}

// POST /v1/trips/{id}/requests/{username}/refuse
func (h *TripHandler) RefuseRideRequest(w http.ResponseWriter, r *http.Request) {
	rider := &models.PersonRef{Username: chi.URLParam(r, "username")}
	utils.Envelope(w, h.coordinator.RefuseRideRequest(r.Context(), tripRef(r), rider, middleware.CallerFromContext(r.Context())))
}

// POST /v1/trips/{id}/finish
func (h *TripHandler) FinishTrip(w http.ResponseWriter, r *http.Request) {
	utils.Envelope(w, h.coordinator.FinishTrip(r.Context(), tripRef(r), middleware.CallerFromContext(r.Context())))
}

// GET /v1/me/active-trip
func (h *TripHandler) ActiveTrip(w http.ResponseWriter, r *http.Request) {
	utils.Envelope(w, h.coordinator.ActiveTrip(r.Context(), middleware.CallerFromContext(r.Context())))
}

func tripRef(r *http.Request) *models.TripRef {
	return &models.TripRef{ID: chi.URLParam(r, "id")}
}
