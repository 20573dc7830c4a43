// main.go
package main

import (
	"context"
	"log"

	"reservation-engine/cmd"
	"reservation-engine/internal/data/repository"
	"reservation-engine/internal/wire"
	"reservation-engine/pkg/database"
	"reservation-engine/pkg/utils"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	// Bootstrap schema (tables plus the active-scoped unique index)
	if err := database.Migrate(context.Background(), db); err != nil {
		logger.Fatal("Failed to apply schema", zap.Error(err))
	}

	// Initialize repositories
	repos := repository.NewRepository(db, config.Reservation.LockTimeout(), logger)

	// Wire all dependencies; the real clock is the single UTC time source
	app := wire.Wiring(db, repos, config, clockwork.NewRealClock(), logger)

	// Start server
	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	cmd.APIServer(app.Router, config.App.Port)
}
