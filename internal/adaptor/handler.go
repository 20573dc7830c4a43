package adaptor

import (
	"reservation-engine/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Reservation *ReservationHandler
	Resource    *ResourceHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Reservation: NewReservationHandler(service.Reservation, log),
		Resource:    NewResourceHandler(service.Resource, log),
	}
}
