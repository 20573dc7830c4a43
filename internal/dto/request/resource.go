package request

type CreateResourceRequest struct {
	// RFC3339 timestamp with timezone, e.g. 2026-09-01T18:00:00Z.
	ScheduledAt     string `json:"scheduled_at" validate:"required"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,min=1"`
	Capacity        int    `json:"capacity" validate:"required,min=1"`
}
