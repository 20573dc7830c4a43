// internal/wire/wire.go
package wire

import (
	"net/http"

	"reservation-engine/internal/adaptor"
	"reservation-engine/internal/data/repository"
	"reservation-engine/internal/usecase"
	"reservation-engine/pkg/database"
	"reservation-engine/pkg/middleware"
	"reservation-engine/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// App holds the wired dependencies
type App struct {
	Router *chi.Mux
}

// Wiring initializes all dependencies
func Wiring(db database.PgxIface, repo *repository.Repository, config *utils.Config, clock clockwork.Clock, logger *zap.Logger) *App {
	service := usecase.NewService(repo, config, clock, logger)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, db, logger)

	return &App{
		Router: router,
	}
}

func setupRouter(handler *adaptor.Handler, db database.PgxIface, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.SubjectIDHeader, middleware.SubjectRoleHeader},
	}))

	wireReservation(r, handler.Reservation, logger)
	wireResource(r, handler.Resource, logger)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := db.Ping(req.Context()); err != nil {
			utils.ResponseUnavailable(w, "database unreachable")
			return
		}
		utils.ResponseSuccess(w, "OK", nil)
	})

	return r
}
