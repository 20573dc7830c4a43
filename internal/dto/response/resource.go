package response

import (
	"time"

	"reservation-engine/internal/data/entity"
)

type ResourceResponse struct {
	ID              string    `json:"id"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Capacity        int       `json:"capacity"`
	CreatedAt       time.Time `json:"created_at"`
}

func ResourceToResponse(resource *entity.Resource) ResourceResponse {
	return ResourceResponse{
		ID:              resource.ID.String(),
		ScheduledAt:     resource.ScheduledAt,
		DurationMinutes: resource.DurationMinutes,
		Capacity:        resource.Capacity,
		CreatedAt:       resource.CreatedAt,
	}
}
