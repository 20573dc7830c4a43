package usecase

import (
	"context"
	"errors"
	"fmt"

	"reservation-engine/internal/data/entity"
	"reservation-engine/internal/data/repository"
	"reservation-engine/internal/dto/request"
	"reservation-engine/internal/dto/response"
	"reservation-engine/pkg/utils"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Facade-level failures. Business-rule rejections come up from the
// repository as its sentinel errors and pass through unchanged.
var (
	// ErrUnauthorized is returned when the verified caller identity does
	// not match the subject named in the request. One identity must never
	// reserve or cancel on behalf of another.
	ErrUnauthorized = errors.New("caller identity does not match subject")

	// ErrValidation wraps request validation failures.
	ErrValidation = errors.New("validation failed")
)

type ReservationService interface {
	Reserve(ctx context.Context, callerID uuid.UUID, req *request.ReserveRequest) (*response.ReservationResponse, error)
	Cancel(ctx context.Context, callerID uuid.UUID, reservationID string, req *request.CancelRequest) error
	ReservationStatus(ctx context.Context, callerID uuid.UUID, resourceID string) (*response.ReservationStatusResponse, error)
}

type reservationService struct {
	repo  *repository.Repository
	cfg   utils.ReservationConfig
	clock clockwork.Clock
	log   *zap.Logger
}

func NewReservationService(repo *repository.Repository, cfg utils.ReservationConfig, clock clockwork.Clock, log *zap.Logger) ReservationService {
	return &reservationService{
		repo:  repo,
		cfg:   cfg,
		clock: clock,
		log:   log.With(zap.String("service", "reservation")),
	}
}

func (s *reservationService) Reserve(ctx context.Context, callerID uuid.UUID, req *request.ReserveRequest) (*response.ReservationResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Reserve validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	subjectID, err := uuid.Parse(req.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid subject ID %s", ErrValidation, req.SubjectID)
	}

	resourceID, err := uuid.Parse(req.ResourceID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid resource ID %s", ErrValidation, req.ResourceID)
	}

	if callerID != subjectID {
		s.log.Warn("Identity mismatch on reserve",
			zap.String("caller_id", callerID.String()),
			zap.String("subject_id", subjectID.String()),
		)
		return nil, ErrUnauthorized
	}

	// Retry sits here at the facade so the transaction itself stays short;
	// only contention is retried, every other outcome is final.
	var reservation *entity.Reservation
	err = s.withRetry(ctx, func() error {
		var opErr error
		reservation, opErr = s.repo.Reservation.Reserve(ctx, subjectID, resourceID, s.clock.Now().UTC())
		if opErr != nil && !errors.Is(opErr, repository.ErrContention) {
			return backoff.Permanent(opErr)
		}
		return opErr
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyReserved),
			errors.Is(err, repository.ErrCapacityExhausted),
			errors.Is(err, repository.ErrResourceExpired),
			errors.Is(err, repository.ErrResourceNotFound):
			// Expected outcomes, surfaced verbatim.
			s.log.Warn("Reserve rejected",
				zap.String("subject_id", subjectID.String()),
				zap.String("resource_id", resourceID.String()),
				zap.String("reason", err.Error()),
			)
			return nil, err
		case errors.Is(err, repository.ErrContention):
			s.log.Warn("Reserve contention retries exhausted",
				zap.String("subject_id", subjectID.String()),
				zap.String("resource_id", resourceID.String()),
			)
			return nil, err
		default:
			s.log.Error("Reserve failed",
				zap.Error(err),
				zap.String("subject_id", subjectID.String()),
				zap.String("resource_id", resourceID.String()),
				zap.String("operation", "reserve"),
			)
			return nil, fmt.Errorf("reserve resource %s: %w", resourceID.String(), err)
		}
	}

	s.log.Info("Reservation created",
		zap.String("reservation_id", reservation.ID.String()),
		zap.String("subject_id", subjectID.String()),
		zap.String("resource_id", resourceID.String()),
	)

	resp := response.ReservationToResponse(reservation)
	return &resp, nil
}

func (s *reservationService) Cancel(ctx context.Context, callerID uuid.UUID, reservationID string, req *request.CancelRequest) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Cancel validation failed", zap.Any("errors", errs))
		return fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	subjectID, err := uuid.Parse(req.SubjectID)
	if err != nil {
		return fmt.Errorf("%w: invalid subject ID %s", ErrValidation, req.SubjectID)
	}

	reservationUUID, err := uuid.Parse(reservationID)
	if err != nil {
		return fmt.Errorf("%w: invalid reservation ID %s", ErrValidation, reservationID)
	}

	if callerID != subjectID {
		s.log.Warn("Identity mismatch on cancel",
			zap.String("caller_id", callerID.String()),
			zap.String("subject_id", subjectID.String()),
		)
		return ErrUnauthorized
	}

	err = s.withRetry(ctx, func() error {
		opErr := s.repo.Reservation.Cancel(ctx, subjectID, reservationUUID, s.clock.Now().UTC(), s.cfg.CancelWindow())
		if opErr != nil && !errors.Is(opErr, repository.ErrContention) {
			return backoff.Permanent(opErr)
		}
		return opErr
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrReservationNotFound),
			errors.Is(err, repository.ErrAlreadyCancelled),
			errors.Is(err, repository.ErrCancellationWindowExpired):
			s.log.Warn("Cancel rejected",
				zap.String("subject_id", subjectID.String()),
				zap.String("reservation_id", reservationID),
				zap.String("reason", err.Error()),
			)
			return err
		case errors.Is(err, repository.ErrContention):
			s.log.Warn("Cancel contention retries exhausted",
				zap.String("reservation_id", reservationID),
			)
			return err
		default:
			s.log.Error("Cancel failed",
				zap.Error(err),
				zap.String("subject_id", subjectID.String()),
				zap.String("reservation_id", reservationID),
				zap.String("operation", "cancel"),
			)
			return fmt.Errorf("cancel reservation %s: %w", reservationID, err)
		}
	}

	s.log.Info("Reservation cancelled",
		zap.String("reservation_id", reservationID),
		zap.String("subject_id", subjectID.String()),
	)

	return nil
}

func (s *reservationService) ReservationStatus(ctx context.Context, callerID uuid.UUID, resourceID string) (*response.ReservationStatusResponse, error) {
	resourceUUID, err := uuid.Parse(resourceID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid resource ID %s", ErrValidation, resourceID)
	}

	reservation, err := s.repo.Reservation.FindActive(ctx, callerID, resourceUUID)
	if err != nil {
		s.log.Error("Reservation status lookup failed",
			zap.Error(err),
			zap.String("subject_id", callerID.String()),
			zap.String("resource_id", resourceID),
			zap.String("operation", "status"),
		)
		return nil, fmt.Errorf("reservation status for resource %s: %w", resourceID, err)
	}

	if reservation == nil {
		return &response.ReservationStatusResponse{Active: false}, nil
	}

	id := reservation.ID.String()
	return &response.ReservationStatusResponse{
		Active:        true,
		ReservationID: &id,
	}, nil
}

// withRetry runs op with bounded exponential backoff. op is expected to
// mark non-retryable errors as permanent.
func (s *reservationService) withRetry(ctx context.Context, op backoff.Operation) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.cfg.RetryInitial()

	return backoff.Retry(op, backoff.WithContext(
		backoff.WithMaxRetries(bo, uint64(s.cfg.ContentionRetries)), ctx))
}
