package wire

import (
	"reservation-engine/internal/adaptor"
	"reservation-engine/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireReservation(
	r chi.Router,
	reservationHandler *adaptor.ReservationHandler,
	log *zap.Logger,
) {
	// All reservation routes require an upstream-verified identity.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Identity(log))

		// POST /api/reservations - claim one unit of a resource's capacity
		r.Post("/api/reservations", reservationHandler.Reserve)

		// PUT /api/reservations/{id}/cancel - release a reservation (time-windowed)
		r.Put("/api/reservations/{id}/cancel", reservationHandler.Cancel)

		// GET /api/resources/{id}/reservation - caller's active reservation, if any
		r.Get("/api/resources/{id}/reservation", reservationHandler.ReservationStatus)
	})
}
