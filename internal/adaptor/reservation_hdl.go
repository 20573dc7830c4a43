package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"

	"reservation-engine/internal/data/repository"
	"reservation-engine/internal/dto/request"
	"reservation-engine/internal/usecase"
	"reservation-engine/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ReservationHandler struct {
	service usecase.ReservationService
	log     *zap.Logger
}

func NewReservationHandler(service usecase.ReservationService, log *zap.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		log:     log.With(zap.String("handler", "reservation")),
	}
}

// Reserve handles POST /api/reservations (protected)
func (h *ReservationHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	callerID, ok := utils.GetSubjectIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.ReserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	reservation, err := h.service.Reserve(r.Context(), callerID, &req)
	if err != nil {
		h.handleServiceError(w, err, "reserve")
		return
	}

	utils.ResponseCreated(w, "success", reservation)
}

// Cancel handles PUT /api/reservations/{id}/cancel (protected)
func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	callerID, ok := utils.GetSubjectIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	reservationID := chi.URLParam(r, "id")
	if reservationID == "" {
		utils.ResponseBadRequest(w, "Reservation ID is required", nil)
		return
	}

	var req request.CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := h.service.Cancel(r.Context(), callerID, reservationID, &req); err != nil {
		h.handleServiceError(w, err, "cancel")
		return
	}

	utils.ResponseSuccess(w, "success", nil)
}

// ReservationStatus handles GET /api/resources/{id}/reservation (protected)
func (h *ReservationHandler) ReservationStatus(w http.ResponseWriter, r *http.Request) {
	callerID, ok := utils.GetSubjectIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	resourceID := chi.URLParam(r, "id")
	if resourceID == "" {
		utils.ResponseBadRequest(w, "Resource ID is required", nil)
		return
	}

	status, err := h.service.ReservationStatus(r.Context(), callerID, resourceID)
	if err != nil {
		h.handleServiceError(w, err, "reservation status")
		return
	}

	utils.ResponseSuccess(w, "success", status)
}

// handleServiceError maps engine outcomes onto HTTP. Business-rule
// rejections are expected outcomes, logged at Warn and surfaced verbatim;
// only unclassified errors become a generic 500.
func (h *ReservationHandler) handleServiceError(w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, usecase.ErrValidation):
		h.log.Warn(operation+" validation failed",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrUnauthorized):
		h.log.Warn(operation+" failed - identity mismatch",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseForbidden(w, err.Error())

	case errors.Is(err, repository.ErrResourceNotFound),
		errors.Is(err, repository.ErrReservationNotFound):
		h.log.Warn(operation+" failed - not found",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, repository.ErrAlreadyReserved),
		errors.Is(err, repository.ErrAlreadyCancelled),
		errors.Is(err, repository.ErrResourceExpired),
		errors.Is(err, repository.ErrCapacityExhausted),
		errors.Is(err, repository.ErrCancellationWindowExpired):
		h.log.Warn(operation+" rejected",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseConflict(w, err.Error())

	case errors.Is(err, repository.ErrContention):
		h.log.Warn(operation+" failed - contention",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseUnavailable(w, "Resource is busy, please try again")

	default:
		h.log.Error("Failed to "+operation,
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
