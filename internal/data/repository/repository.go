package repository

import (
	"time"

	"reservation-engine/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	Resource    ResourceRepository
	Reservation ReservationRepository
}

func NewRepository(db database.PgxIface, lockTimeout time.Duration, log *zap.Logger) *Repository {
	return &Repository{
		Resource:    NewResourceRepository(db, log),
		Reservation: NewReservationRepository(db, lockTimeout, log),
	}
}
