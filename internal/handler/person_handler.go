package handler

import (
	"encoding/json"
	"net/http"

	"github.com/aditya/go-carpool/internal/middleware"
	"github.com/aditya/go-carpool/internal/models"
	"github.com/aditya/go-carpool/internal/repository"
	"github.com/aditya/go-carpool/pkg/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// PersonHandler serves the caller's own record and position reports.
type PersonHandler struct {
	personRepo repository.PersonRepository
	validate   *validator.Validate
	logger     *zap.Logger
}

func NewPersonHandler(personRepo repository.PersonRepository, logger *zap.Logger) *PersonHandler {
	return &PersonHandler{
		personRepo: personRepo,
		validate:   validator.New(),
		logger:     logger,
	}
}

func (h *PersonHandler) RegisterRoutes(r chi.Router) {
	r.Get("/me", h.GetMe)
	r.Put("/me/position", h.UpdatePosition)
}

// GET /v1/me
func (h *PersonHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	if caller == nil {
		utils.Envelope(w, models.Negative(models.MsgPersonNotFound, models.TypeBoolean, false))
		return
	}

	utils.Envelope(w, models.Positive(models.MsgPersonFound, models.TypePerson, caller.ToResponse()))
}

// PUT /v1/me/position
func (h *PersonHandler) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	if caller == nil {
		utils.Envelope(w, models.Negative(models.MsgPersonNotFound, models.TypeBoolean, false))
		return
	}

	var req models.PositionPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		utils.Envelope(w, models.Negative("invalid payload: "+err.Error(), models.TypeBoolean, false))
		return
	}

	if err := h.personRepo.SetPersonPosition(r.Context(), caller.ID, req.ToLocation()); err != nil {
		h.logger.Error("failed to update position", zap.String("username", caller.Username), zap.Error(err))
		utils.Envelope(w, models.Negative(err.Error(), models.TypeBoolean, false))
		return
	}

	utils.Envelope(w, models.Positive(models.MsgPositionUpdated, models.TypeBoolean, true))
}
