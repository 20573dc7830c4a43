package wire

import (
	"reservation-engine/internal/adaptor"
	"reservation-engine/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireResource(
	r chi.Router,
	resourceHandler *adaptor.ResourceHandler,
	log *zap.Logger,
) {
	// Administrative collaborator routes: identity plus admin role, both
	// decided upstream.
	r.Route("/api/admin/resources", func(r chi.Router) {
		r.Use(middleware.Identity(log))
		r.Use(middleware.Admin(log))

		// POST /api/admin/resources - create a bookable resource
		r.Post("/", resourceHandler.CreateResource)
	})
}
