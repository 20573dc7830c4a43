package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reservation-engine/internal/data/entity"
	"reservation-engine/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ReservationRepository interface {
	// Reserve atomically claims one unit of the resource's capacity for the
	// subject. Returns ErrResourceNotFound, ErrResourceExpired,
	// ErrAlreadyReserved, ErrCapacityExhausted, or ErrContention.
	Reserve(ctx context.Context, subjectID, resourceID uuid.UUID, now time.Time) (*entity.Reservation, error)

	// Cancel transitions the subject's reservation from active to cancelled,
	// provided the resource starts at least `window` after now. Returns
	// ErrReservationNotFound, ErrAlreadyCancelled,
	// ErrCancellationWindowExpired, or ErrContention.
	Cancel(ctx context.Context, subjectID, reservationID uuid.UUID, now time.Time, window time.Duration) error

	// FindActive returns the subject's active reservation for the resource,
	// or nil when none exists. Plain read, no locking.
	FindActive(ctx context.Context, subjectID, resourceID uuid.UUID) (*entity.Reservation, error)
}

type reservationRepository struct {
	db          database.PgxIface
	lockTimeout time.Duration
	log         *zap.Logger
}

func NewReservationRepository(db database.PgxIface, lockTimeout time.Duration, log *zap.Logger) ReservationRepository {
	return &reservationRepository{
		db:          db,
		lockTimeout: lockTimeout,
		log:         log.With(zap.String("repository", "reservation")),
	}
}

// Reserve runs the whole check-and-insert as one transaction.
//
// The SELECT ... FOR UPDATE on the resource row is the linchpin: every
// concurrent Reserve for the same resource queues on that lock, so the
// duplicate check, the expiry check, and the capacity-gated insert below
// all execute against a serialized view of the ledger. The insert itself
// re-evaluates the live active count in its predicate, so "check" and
// "act" are a single statement even under the lock.
func (r *reservationRepository) Reserve(ctx context.Context, subjectID, resourceID uuid.UUID, now time.Time) (*entity.Reservation, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin reserve transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// Bounded lock wait: a queued transaction fails with 55P03 instead of
	// hanging, which the caller sees as retryable contention.
	if _, err = tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())); err != nil {
		return nil, fmt.Errorf("set lock timeout: %w", err)
	}

	var scheduledAt time.Time
	var capacity int
	err = tx.QueryRow(ctx,
		`SELECT scheduled_at, capacity
		 FROM resources
		 WHERE id = $1
		 FOR UPDATE`,
		resourceID,
	).Scan(&scheduledAt, &capacity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrResourceNotFound
			return nil, err
		}
		if isContention(err) {
			r.log.Warn("Resource row lock contention",
				zap.String("resource_id", resourceID.String()),
			)
			err = fmt.Errorf("lock resource row %s: %w", resourceID.String(), ErrContention)
			return nil, err
		}
		return nil, fmt.Errorf("lock resource row %s: %w", resourceID.String(), err)
	}

	if !scheduledAt.After(now) {
		err = ErrResourceExpired
		return nil, err
	}

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM reservations
			WHERE subject_id = $1 AND resource_id = $2 AND status = $3
		 )`,
		subjectID, resourceID, entity.ReservationStatusActive,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check existing reservation: %w", err)
	}
	if exists {
		err = ErrAlreadyReserved
		return nil, err
	}

	reservation := &entity.Reservation{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: now,
		},
		SubjectID:  subjectID,
		ResourceID: resourceID,
		Status:     entity.ReservationStatusActive,
	}

	// Capacity check and insert collapsed into one conditional write. The
	// insert only lands if the live active count is still below capacity;
	// zero rows affected means the resource filled up.
	tag, err := tx.Exec(ctx,
		`INSERT INTO reservations (id, subject_id, resource_id, status, created_at)
		 SELECT $1, $2, $3, $4, $5
		 WHERE (
			SELECT COUNT(*) FROM reservations
			WHERE resource_id = $3 AND status = $4
		 ) < $6`,
		reservation.ID, subjectID, resourceID, entity.ReservationStatusActive, now, capacity,
	)
	if err != nil {
		if isUniqueViolation(err) {
			err = ErrAlreadyReserved
			return nil, err
		}
		if isContention(err) {
			err = fmt.Errorf("insert reservation: %w", ErrContention)
			return nil, err
		}
		return nil, fmt.Errorf("insert reservation for subject %s resource %s: %w",
			subjectID.String(), resourceID.String(), err)
	}
	if tag.RowsAffected() == 0 {
		err = ErrCapacityExhausted
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		if isContention(err) {
			err = fmt.Errorf("commit reservation: %w", ErrContention)
			return nil, err
		}
		return nil, fmt.Errorf("commit reservation: %w", err)
	}

	return reservation, nil
}

// Cancel enforces the time-window rule and flips the row with an update
// conditioned on status = active, so two racing cancels cannot both
// succeed; the loser simply finds nothing left to update.
func (r *reservationRepository) Cancel(ctx context.Context, subjectID, reservationID uuid.UUID, now time.Time, window time.Duration) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin cancel transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())); err != nil {
		return fmt.Errorf("set lock timeout: %w", err)
	}

	var status entity.ReservationStatus
	var scheduledAt time.Time
	err = tx.QueryRow(ctx,
		`SELECT r.status, res.scheduled_at
		 FROM reservations r
		 JOIN resources res ON res.id = r.resource_id
		 WHERE r.id = $1 AND r.subject_id = $2
		 FOR UPDATE OF r`,
		reservationID, subjectID,
	).Scan(&status, &scheduledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrReservationNotFound
			return err
		}
		if isContention(err) {
			err = fmt.Errorf("lock reservation row %s: %w", reservationID.String(), ErrContention)
			return err
		}
		return fmt.Errorf("lock reservation row %s: %w", reservationID.String(), err)
	}

	if status != entity.ReservationStatusActive {
		err = ErrAlreadyCancelled
		return err
	}

	if scheduledAt.Sub(now) < window {
		err = ErrCancellationWindowExpired
		return err
	}

	tag, err := tx.Exec(ctx,
		`UPDATE reservations
		 SET status = $3, cancelled_at = $4
		 WHERE id = $1 AND status = $2`,
		reservationID, entity.ReservationStatusActive, entity.ReservationStatusCancelled, now,
	)
	if err != nil {
		return fmt.Errorf("cancel reservation %s: %w", reservationID.String(), err)
	}
	if tag.RowsAffected() == 0 {
		err = ErrAlreadyCancelled
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit cancellation: %w", err)
	}

	return nil
}

func (r *reservationRepository) FindActive(ctx context.Context, subjectID, resourceID uuid.UUID) (*entity.Reservation, error) {
	query := `
		SELECT id, subject_id, resource_id, status, created_at, cancelled_at
		FROM reservations
		WHERE subject_id = $1 AND resource_id = $2 AND status = $3
	`

	var reservation entity.Reservation
	err := r.db.QueryRow(ctx, query, subjectID, resourceID, entity.ReservationStatusActive).Scan(
		&reservation.ID,
		&reservation.SubjectID,
		&reservation.ResourceID,
		&reservation.Status,
		&reservation.CreatedAt,
		&reservation.CancelledAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find active reservation",
			zap.Error(err),
			zap.String("subject_id", subjectID.String()),
			zap.String("resource_id", resourceID.String()),
		)
		return nil, fmt.Errorf("find active reservation for subject %s resource %s: %w",
			subjectID.String(), resourceID.String(), err)
	}

	return &reservation, nil
}
