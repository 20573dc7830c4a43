package entity

import (
	"time"

	"github.com/google/uuid"
)

type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "active"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)

// Reservation is a subject's claim on one unit of a resource's capacity.
// Rows are never deleted; a cancelled reservation stays in the ledger and
// a rebooking creates a fresh row. The only transition is active -> cancelled.
type Reservation struct {
	BaseSimple
	SubjectID   uuid.UUID         `db:"subject_id"`
	ResourceID  uuid.UUID         `db:"resource_id"`
	Status      ReservationStatus `db:"status"`
	CancelledAt *time.Time        `db:"cancelled_at"`
}
