package response

import (
	"time"

	"reservation-engine/internal/data/entity"
)

type ReservationResponse struct {
	ID          string                   `json:"id"`
	SubjectID   string                   `json:"subject_id"`
	ResourceID  string                   `json:"resource_id"`
	Status      entity.ReservationStatus `json:"status"`
	CreatedAt   time.Time                `json:"created_at"`
	CancelledAt *time.Time               `json:"cancelled_at,omitempty"`
}

type ReservationStatusResponse struct {
	Active        bool    `json:"active"`
	ReservationID *string `json:"reservation_id,omitempty"`
}

func ReservationToResponse(reservation *entity.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:          reservation.ID.String(),
		SubjectID:   reservation.SubjectID.String(),
		ResourceID:  reservation.ResourceID.String(),
		Status:      reservation.Status,
		CreatedAt:   reservation.CreatedAt,
		CancelledAt: reservation.CancelledAt,
	}
}
