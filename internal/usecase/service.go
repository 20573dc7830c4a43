package usecase

import (
	"reservation-engine/internal/data/repository"
	"reservation-engine/pkg/utils"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type Service struct {
	Reservation ReservationService
	Resource    ResourceService
}

func NewService(repo *repository.Repository, config *utils.Config, clock clockwork.Clock, log *zap.Logger) *Service {
	return &Service{
		Reservation: NewReservationService(repo, config.Reservation, clock, log),
		Resource:    NewResourceService(repo, clock, log),
	}
}
