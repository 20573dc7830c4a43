package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Business-rule outcomes. These are expected control flow, returned as
// values so callers can branch on them with errors.Is instead of treating
// a full resource as a system failure.
var (
	// ErrResourceNotFound is returned when the target resource does not exist.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrResourceExpired is returned when the resource's scheduled time has passed.
	ErrResourceExpired = errors.New("resource scheduled time has passed")

	// ErrCapacityExhausted is returned when the resource has no remaining capacity.
	ErrCapacityExhausted = errors.New("resource capacity exhausted")

	// ErrAlreadyReserved is returned when the subject already holds an
	// active reservation for the resource.
	ErrAlreadyReserved = errors.New("subject already holds an active reservation")

	// ErrReservationNotFound is returned when a reservation does not exist
	// or does not belong to the requesting subject.
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrAlreadyCancelled is returned when the reservation is no longer active.
	ErrAlreadyCancelled = errors.New("reservation already cancelled")

	// ErrCancellationWindowExpired is returned when the resource starts too
	// soon for the reservation to be released.
	ErrCancellationWindowExpired = errors.New("cancellation window expired")

	// ErrContention is returned when a transaction lost a lock-wait timeout,
	// serialization failure, or deadlock. Safe to retry with backoff.
	ErrContention = errors.New("reservation contention, retry")
)

// Postgres error codes that indicate transient lock contention rather
// than a persistent fault.
const (
	pgCodeLockNotAvailable     = "55P03"
	pgCodeSerializationFailure = "40001"
	pgCodeDeadlockDetected     = "40P01"
	pgCodeUniqueViolation      = "23505"
)

// isContention reports whether err is a transient concurrency failure
// that a caller may retry.
func isContention(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgCodeLockNotAvailable, pgCodeSerializationFailure, pgCodeDeadlockDetected:
		return true
	}
	return false
}

// isUniqueViolation reports whether err is a unique-constraint violation.
// The active-scoped unique index makes the duplicate-reservation check
// hold even if the explicit pre-check is ever bypassed.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgCodeUniqueViolation
}
