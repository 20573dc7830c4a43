package repository

import (
	"context"
	"fmt"

	"reservation-engine/internal/data/entity"
	"reservation-engine/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ResourceRepository interface {
	Create(ctx context.Context, resource *entity.Resource) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Resource, error)
}

type resourceRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewResourceRepository(db database.PgxIface, log *zap.Logger) ResourceRepository {
	return &resourceRepository{
		db:  db,
		log: log.With(zap.String("repository", "resource")),
	}
}

func (r *resourceRepository) Create(ctx context.Context, resource *entity.Resource) error {
	query := `
		INSERT INTO resources (id, scheduled_at, duration_minutes, capacity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		resource.ID,
		resource.ScheduledAt,
		resource.DurationMinutes,
		resource.Capacity,
		resource.CreatedAt,
		resource.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create resource",
			zap.Error(err),
			zap.String("resource_id", resource.ID.String()),
			zap.Int("capacity", resource.Capacity),
		)
		return fmt.Errorf("create resource %s: %w", resource.ID.String(), err)
	}

	return nil
}

func (r *resourceRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Resource, error) {
	query := `
		SELECT id, scheduled_at, duration_minutes, capacity, created_at, updated_at
		FROM resources
		WHERE id = $1
	`

	var resource entity.Resource
	err := r.db.QueryRow(ctx, query, id).Scan(
		&resource.ID,
		&resource.ScheduledAt,
		&resource.DurationMinutes,
		&resource.Capacity,
		&resource.CreatedAt,
		&resource.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find resource by ID",
			zap.Error(err),
			zap.String("resource_id", id.String()),
		)
		return nil, fmt.Errorf("find resource by ID %s: %w", id.String(), err)
	}

	return &resource, nil
}
