package usecase

import (
	"context"
	"fmt"
	"time"

	"reservation-engine/internal/data/entity"
	"reservation-engine/internal/data/repository"
	"reservation-engine/internal/dto/request"
	"reservation-engine/internal/dto/response"
	"reservation-engine/pkg/utils"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type ResourceService interface {
	CreateResource(ctx context.Context, req *request.CreateResourceRequest) (*response.ResourceResponse, error)
}

type resourceService struct {
	repo  *repository.Repository
	clock clockwork.Clock
	log   *zap.Logger
}

func NewResourceService(repo *repository.Repository, clock clockwork.Clock, log *zap.Logger) ResourceService {
	return &resourceService{
		repo:  repo,
		clock: clock,
		log:   log.With(zap.String("service", "resource")),
	}
}

// CreateResource is the administrative write path. Everything else about
// resource management lives outside this service.
func (s *resourceService) CreateResource(ctx context.Context, req *request.CreateResourceRequest) (*response.ResourceResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create resource validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		return nil, fmt.Errorf("%w: scheduled_at must be RFC3339, got %s", ErrValidation, req.ScheduledAt)
	}

	now := s.clock.Now().UTC()
	if !scheduledAt.After(now) {
		return nil, fmt.Errorf("%w: scheduled_at must be in the future", ErrValidation)
	}

	resource := &entity.Resource{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		ScheduledAt:     scheduledAt.UTC(),
		DurationMinutes: req.DurationMinutes,
		Capacity:        req.Capacity,
	}

	if err := s.repo.Resource.Create(ctx, resource); err != nil {
		s.log.Error("Failed to create resource",
			zap.Error(err),
			zap.String("resource_id", resource.ID.String()),
			zap.String("operation", "create_resource"),
		)
		return nil, fmt.Errorf("create resource: %w", err)
	}

	s.log.Info("Resource created",
		zap.String("resource_id", resource.ID.String()),
		zap.Time("scheduled_at", resource.ScheduledAt),
		zap.Int("capacity", resource.Capacity),
	)

	resp := response.ResourceToResponse(resource)
	return &resp, nil
}
