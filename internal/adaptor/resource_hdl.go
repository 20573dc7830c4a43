package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"

	"reservation-engine/internal/dto/request"
	"reservation-engine/internal/usecase"
	"reservation-engine/pkg/utils"

	"go.uber.org/zap"
)

type ResourceHandler struct {
	service usecase.ResourceService
	log     *zap.Logger
}

func NewResourceHandler(service usecase.ResourceService, log *zap.Logger) *ResourceHandler {
	return &ResourceHandler{
		service: service,
		log:     log.With(zap.String("handler", "resource")),
	}
}

// CreateResource handles POST /api/admin/resources (admin only)
func (h *ResourceHandler) CreateResource(w http.ResponseWriter, r *http.Request) {
	var req request.CreateResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	resource, err := h.service.CreateResource(r.Context(), &req)
	if err != nil {
		if errors.Is(err, usecase.ErrValidation) {
			h.log.Warn("Create resource validation failed", zap.Error(err))
			utils.ResponseBadRequest(w, err.Error(), nil)
			return
		}
		h.log.Error("Failed to create resource", zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	utils.ResponseCreated(w, "success", resource)
}
