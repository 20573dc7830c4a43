package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"reservation-engine/internal/data/entity"
	"reservation-engine/internal/data/repository"
	"reservation-engine/internal/dto/request"
	"reservation-engine/internal/usecase"
	"reservation-engine/pkg/utils"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStore is an in-memory stand-in for the pgx repositories. Reserve
// and Cancel take a single mutex for their whole check-and-write, which
// mirrors the serialization the resource row lock provides in Postgres.
type fakeStore struct {
	mu           sync.Mutex
	resources    map[uuid.UUID]*entity.Resource
	reservations map[uuid.UUID]*entity.Reservation
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		resources:    make(map[uuid.UUID]*entity.Resource),
		reservations: make(map[uuid.UUID]*entity.Reservation),
	}
}

func (f *fakeStore) Create(ctx context.Context, resource *entity.Resource) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resources[resource.ID] = resource
	return nil
}

func (f *fakeStore) FindByID(ctx context.Context, id uuid.UUID) (*entity.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resources[id], nil
}

func (f *fakeStore) Reserve(ctx context.Context, subjectID, resourceID uuid.UUID, now time.Time) (*entity.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	resource, ok := f.resources[resourceID]
	if !ok {
		return nil, repository.ErrResourceNotFound
	}
	if resource.Expired(now) {
		return nil, repository.ErrResourceExpired
	}

	active := 0
	for _, r := range f.reservations {
		if r.ResourceID == resourceID && r.Status == entity.ReservationStatusActive {
			if r.SubjectID == subjectID {
				return nil, repository.ErrAlreadyReserved
			}
			active++
		}
	}
	if active >= resource.Capacity {
		return nil, repository.ErrCapacityExhausted
	}

	reservation := &entity.Reservation{
		BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: now},
		SubjectID:  subjectID,
		ResourceID: resourceID,
		Status:     entity.ReservationStatusActive,
	}
	f.reservations[reservation.ID] = reservation
	return reservation, nil
}

func (f *fakeStore) Cancel(ctx context.Context, subjectID, reservationID uuid.UUID, now time.Time, window time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	reservation, ok := f.reservations[reservationID]
	if !ok || reservation.SubjectID != subjectID {
		return repository.ErrReservationNotFound
	}
	if reservation.Status != entity.ReservationStatusActive {
		return repository.ErrAlreadyCancelled
	}

	resource := f.resources[reservation.ResourceID]
	if resource.ScheduledAt.Sub(now) < window {
		return repository.ErrCancellationWindowExpired
	}

	reservation.Status = entity.ReservationStatusCancelled
	reservation.CancelledAt = &now
	return nil
}

func (f *fakeStore) FindActive(ctx context.Context, subjectID, resourceID uuid.UUID) (*entity.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reservations {
		if r.SubjectID == subjectID && r.ResourceID == resourceID && r.Status == entity.ReservationStatusActive {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ledgerRows(resourceID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.reservations {
		if r.ResourceID == resourceID {
			n++
		}
	}
	return n
}

// flakyReservations fails the first n Reserve/Cancel calls with
// ErrContention, then delegates.
type flakyReservations struct {
	repository.ReservationRepository
	mu       sync.Mutex
	failures int
	attempts int
}

func (f *flakyReservations) Reserve(ctx context.Context, subjectID, resourceID uuid.UUID, now time.Time) (*entity.Reservation, error) {
	f.mu.Lock()
	f.attempts++
	fail := f.attempts <= f.failures
	f.mu.Unlock()
	if fail {
		return nil, repository.ErrContention
	}
	return f.ReservationRepository.Reserve(ctx, subjectID, resourceID, now)
}

var testBase = time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

func testConfig() utils.ReservationConfig {
	return utils.ReservationConfig{
		CancelWindowHours: 24,
		LockTimeoutMS:     100,
		ContentionRetries: 3,
		RetryInitialMS:    1,
	}
}

func newTestService(store *fakeStore, reservations repository.ReservationRepository) (usecase.ReservationService, clockwork.FakeClock) {
	clock := clockwork.NewFakeClockAt(testBase)
	repo := &repository.Repository{Resource: store, Reservation: reservations}
	svc := usecase.NewReservationService(repo, testConfig(), clock, zap.NewNop())
	return svc, clock
}

func addResource(store *fakeStore, capacity int, startsIn time.Duration) uuid.UUID {
	resource := &entity.Resource{
		Base:            entity.Base{ID: uuid.New(), CreatedAt: testBase, UpdatedAt: testBase},
		ScheduledAt:     testBase.Add(startsIn),
		DurationMinutes: 60,
		Capacity:        capacity,
	}
	store.resources[resource.ID] = resource
	return resource.ID
}

func reserveReq(subjectID, resourceID uuid.UUID) *request.ReserveRequest {
	return &request.ReserveRequest{
		SubjectID:  subjectID.String(),
		ResourceID: resourceID.String(),
	}
}

func TestReserve_CreatesActiveReservation(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store, store)
	subject := uuid.New()
	resource := addResource(store, 5, 48*time.Hour)

	resp, err := svc.Reserve(context.Background(), subject, reserveReq(subject, resource))

	require.NoError(t, err)
	assert.Equal(t, entity.ReservationStatusActive, resp.Status)
	assert.Equal(t, subject.String(), resp.SubjectID)
	assert.Equal(t, resource.String(), resp.ResourceID)
}

func TestReserve_SecondAttemptReturnsAlreadyReserved(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store, store)
	subject := uuid.New()
	resource := addResource(store, 5, 48*time.Hour)

	_, err := svc.Reserve(context.Background(), subject, reserveReq(subject, resource))
	require.NoError(t, err)

	_, err = svc.Reserve(context.Background(), subject, reserveReq(subject, resource))
	require.ErrorIs(t, err, repository.ErrAlreadyReserved)

	// Still exactly one ledger row.
	assert.Equal(t, 1, store.ledgerRows(resource))
}

func TestReserve_ResourceNotFound(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store, store)
	subject := uuid.New()

	_, err := svc.Reserve(context.Background(), subject, reserveReq(subject, uuid.New()))

	require.ErrorIs(t, err, repository.ErrResourceNotFound)
}

func TestReserve_ExpiredResource(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store, store)
	subject := uuid.New()
	resource := addResource(store, 5, -2*time.Hour)

	_, err := svc.Reserve(context.Background(), subject, reserveReq(subject, resource))

	require.ErrorIs(t, err, repository.ErrResourceExpired)
	assert.Equal(t, 0, store.ledgerRows(resource))
}

func TestReserve_IdentityMismatch(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store, store)
	resource := addResource(store, 5, 48*time.Hour)

	_, err := svc.Reserve(context.Background(), uuid.New(), reserveReq(uuid.New(), resource))

	require.ErrorIs(t, err, usecase.ErrUnauthorized)
	assert.Equal(t, 0, store.ledgerRows(resource))
}

func TestReserve_MalformedRequestRejectedBeforeStore(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store, store)

	_, err := svc.Reserve(context.Background(), uuid.New(), &request.ReserveRequest{
		SubjectID:  "not-a-uuid",
		ResourceID: "also-not-a-uuid",
	})

	require.ErrorIs(t, err, usecase.ErrValidation)
	assert.Empty(t, store.reservations)
}

func TestReserve_CapacityInvariantUnderConcurrency(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store, store)
	resource := addResource(store, 2, 48*time.Hour)

	subjects := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	var wg sync.WaitGroup
	results := make([]error, len(subjects))
	for i, subject := range subjects {
		wg.Add(1)
		go func(i int, subject uuid.UUID) {
			defer wg.Done()
			_, results[i] = svc.Reserve(context.Background(), subject, reserveReq(subject, resource))
		}(i, subject)
	}
	wg.Wait()

	created, exhausted := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			created++
		case errors.Is(err, repository.ErrCapacityExhausted):
			exhausted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 2, created)
	assert.Equal(t, 1, exhausted)
	assert.Equal(t, 2, store.ledgerRows(resource))

	// The winners both see an active reservation.
	activeCount := 0
	for i, subject := range subjects {
		status, err := svc.ReservationStatus(context.Background(), subject, resource.String())
		require.NoError(t, err)
		if results[i] == nil {
			assert.True(t, status.Active)
			activeCount++
		} else {
			assert.False(t, status.Active)
		}
	}
	assert.Equal(t, 2, activeCount)
}

func TestReserve_LargerFanOutNeverOvershootsCapacity(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store, store)
	const capacity = 5
	const callers = 20
	resource := addResource(store, capacity, 48*time.Hour)

	var wg sync.WaitGroup
	results := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			subject := uuid.New()
			_, results[i] = svc.Reserve(context.Background(), subject, reserveReq(subject, resource))
		}(i)
	}
	wg.Wait()

	created, exhausted := 0, 0
	for _, err := range results {
		if err == nil {
			created++
		} else if errors.Is(err, repository.ErrCapacityExhausted) {
			exhausted++
		}
	}

	assert.Equal(t, capacity, created)
	assert.Equal(t, callers-capacity, exhausted)
	assert.Equal(t, capacity, store.ledgerRows(resource))
}

func TestReserve_RetriesTransientContention(t *testing.T) {
	store := newFakeStore()
	flaky := &flakyReservations{ReservationRepository: store, failures: 2}
	svc, _ := newTestService(store, flaky)
	subject := uuid.New()
	resource := addResource(store, 5, 48*time.Hour)

	resp, err := svc.Reserve(context.Background(), subject, reserveReq(subject, resource))

	require.NoError(t, err)
	assert.Equal(t, entity.ReservationStatusActive, resp.Status)
	assert.Equal(t, 3, flaky.attempts)
}

func TestReserve_ContentionRetriesExhaust(t *testing.T) {
	store := newFakeStore()
	flaky := &flakyReservations{ReservationRepository: store, failures: 100}
	svc, _ := newTestService(store, flaky)
	subject := uuid.New()
	resource := addResource(store, 5, 48*time.Hour)

	_, err := svc.Reserve(context.Background(), subject, reserveReq(subject, resource))

	require.ErrorIs(t, err, repository.ErrContention)
	// Initial attempt plus the configured retries.
	assert.Equal(t, 4, flaky.attempts)
	assert.Equal(t, 0, store.ledgerRows(resource))
}

func TestCancel_ReleasesReservation(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store, store)
	subject := uuid.New()
	resource := addResource(store, 5, 30*time.Hour)

	resp, err := svc.Reserve(context.Background(), subject, reserveReq(subject, resource))
	require.NoError(t, err)

	err = svc.Cancel(context.Background(), subject, resp.ID, &request.CancelRequest{SubjectID: subject.String()})
	require.NoError(t, err)

	status, err := svc.ReservationStatus(context.Background(), subject, resource.String())
	require.NoError(t, err)
	assert.False(t, status.Active)

	// The cancelled row stays in the ledger.
	assert.Equal(t, 1, store.ledgerRows(resource))
}

func TestCancel_WindowBoundary(t *testing.T) {
	tests := []struct {
		name     string
		startsIn time.Duration
		wantErr  error
	}{
		{"23 hours before start", 23 * time.Hour, repository.ErrCancellationWindowExpired},
		{"exactly 24 hours", 24 * time.Hour, nil},
		{"24 hours 1 minute", 24*time.Hour + time.Minute, nil},
		{"1 minute before start", time.Minute, repository.ErrCancellationWindowExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			svc, _ := newTestService(store, store)
			subject := uuid.New()
			resource := addResource(store, 5, tt.startsIn)

			resp, err := svc.Reserve(context.Background(), subject, reserveReq(subject, resource))
			require.NoError(t, err)

			err = svc.Cancel(context.Background(), subject, resp.ID, &request.CancelRequest{SubjectID: subject.String()})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestCancel_WindowClosesAsTimeAdvances(t *testing.T) {
	store := newFakeStore()
	svc, clock := newTestService(store, store)
	subject := uuid.New()
	resource := addResource(store, 5, 48*time.Hour)

	resp, err := svc.Reserve(context.Background(), subject, reserveReq(subject, resource))
	require.NoError(t, err)

	// 30 hours later only 18 hours remain before the scheduled start.
	clock.Advance(30 * time.Hour)

	err = svc.Cancel(context.Background(), subject, resp.ID, &request.CancelRequest{SubjectID: subject.String()})
	require.ErrorIs(t, err, repository.ErrCancellationWindowExpired)
}

func TestCancel_WrongSubjectLooksLikeNotFound(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store, store)
	owner := uuid.New()
	other := uuid.New()
	resource := addResource(store, 5, 48*time.Hour)

	resp, err := svc.Reserve(context.Background(), owner, reserveReq(owner, resource))
	require.NoError(t, err)

	err = svc.Cancel(context.Background(), other, resp.ID, &request.CancelRequest{SubjectID: other.String()})
	require.ErrorIs(t, err, repository.ErrReservationNotFound)
}

func TestCancel_TwiceReturnsAlreadyCancelled(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store, store)
	subject := uuid.New()
	resource := addResource(store, 5, 48*time.Hour)

	resp, err := svc.Reserve(context.Background(), subject, reserveReq(subject, resource))
	require.NoError(t, err)

	req := &request.CancelRequest{SubjectID: subject.String()}
	require.NoError(t, svc.Cancel(context.Background(), subject, resp.ID, req))
	require.ErrorIs(t, svc.Cancel(context.Background(), subject, resp.ID, req), repository.ErrAlreadyCancelled)
}

func TestCancel_IdentityMismatch(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store, store)
	subject := uuid.New()
	resource := addResource(store, 5, 48*time.Hour)

	resp, err := svc.Reserve(context.Background(), subject, reserveReq(subject, resource))
	require.NoError(t, err)

	err = svc.Cancel(context.Background(), uuid.New(), resp.ID, &request.CancelRequest{SubjectID: subject.String()})
	require.ErrorIs(t, err, usecase.ErrUnauthorized)
}

func TestRebookAfterCancelKeepsHistory(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store, store)
	subject := uuid.New()
	resource := addResource(store, 5, 48*time.Hour)

	first, err := svc.Reserve(context.Background(), subject, reserveReq(subject, resource))
	require.NoError(t, err)

	err = svc.Cancel(context.Background(), subject, first.ID, &request.CancelRequest{SubjectID: subject.String()})
	require.NoError(t, err)

	second, err := svc.Reserve(context.Background(), subject, reserveReq(subject, resource))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	// Two ledger rows: one cancelled, one active.
	assert.Equal(t, 2, store.ledgerRows(resource))

	status, err := svc.ReservationStatus(context.Background(), subject, resource.String())
	require.NoError(t, err)
	require.True(t, status.Active)
	assert.Equal(t, second.ID, *status.ReservationID)
}

func TestCancel_FreesSlotForAnotherSubject(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store, store)
	resource := addResource(store, 2, 48*time.Hour)

	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	respA, err := svc.Reserve(context.Background(), a, reserveReq(a, resource))
	require.NoError(t, err)
	_, err = svc.Reserve(context.Background(), b, reserveReq(b, resource))
	require.NoError(t, err)

	// Resource full: C is rejected.
	_, err = svc.Reserve(context.Background(), c, reserveReq(c, resource))
	require.ErrorIs(t, err, repository.ErrCapacityExhausted)

	// A releases; D takes the freed slot without overshooting capacity.
	err = svc.Cancel(context.Background(), a, respA.ID, &request.CancelRequest{SubjectID: a.String()})
	require.NoError(t, err)

	_, err = svc.Reserve(context.Background(), d, reserveReq(d, resource))
	require.NoError(t, err)

	statusA, _ := svc.ReservationStatus(context.Background(), a, resource.String())
	assert.False(t, statusA.Active)
	statusD, _ := svc.ReservationStatus(context.Background(), d, resource.String())
	assert.True(t, statusD.Active)
}

func TestReservationStatus_NoReservation(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store, store)
	resource := addResource(store, 5, 48*time.Hour)

	status, err := svc.ReservationStatus(context.Background(), uuid.New(), resource.String())

	require.NoError(t, err)
	assert.False(t, status.Active)
	assert.Nil(t, status.ReservationID)
}
