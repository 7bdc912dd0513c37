package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Domenick1991/seatbooking/internal/domain"
	"github.com/Domenick1991/seatbooking/internal/events"
	"github.com/Domenick1991/seatbooking/internal/repository"
)

// Mock структуры

type MockStore struct {
	mock.Mock
	repository.Store
	tx repository.Tx
}

func (m *MockStore) InTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.Called(ctx)
	return fn(ctx, m.tx)
}

func (m *MockStore) ListBookingsByActor(ctx context.Context, actorID string) ([]domain.Booking, error) {
	args := m.Called(ctx, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockStore) GetBookingBySeat(ctx context.Context, seatID int64) (*domain.Booking, error) {
	args := m.Called(ctx, seatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

type MockTx struct {
	mock.Mock
	repository.Tx
}

func (m *MockTx) GetSeatForUpdate(ctx context.Context, seatID int64, timeout time.Duration) (*domain.Seat, error) {
	args := m.Called(ctx, seatID, timeout)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Seat), args.Error(1)
}

func (m *MockTx) UpdateSeat(ctx context.Context, seat *domain.Seat) error {
	args := m.Called(ctx, seat)
	return args.Error(0)
}

func (m *MockTx) CreateBooking(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

type MockKeys struct {
	mock.Mock
}

func (m *MockKeys) Lock(ctx context.Context, tx repository.Tx, actorID, key string, timeout time.Duration) error {
	args := m.Called(ctx, actorID, key, timeout)
	return args.Error(0)
}

func (m *MockKeys) Lookup(ctx context.Context, tx repository.Tx, actorID, key string) (*domain.Booking, bool, error) {
	args := m.Called(ctx, actorID, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.Booking), args.Bool(1), args.Error(2)
}

func (m *MockKeys) Save(ctx context.Context, tx repository.Tx, actorID, key string, booking *domain.Booking, now time.Time) error {
	args := m.Called(ctx, actorID, key, booking, now)
	return args.Error(0)
}

type MockAdmission struct {
	mock.Mock
}

func (m *MockAdmission) CheckUser(actorID string) error  { return m.Called(actorID).Error(0) }
func (m *MockAdmission) CheckSeat(seatID int64) error    { return m.Called(seatID).Error(0) }
func (m *MockAdmission) CheckEvent(eventID string) error { return m.Called(eventID).Error(0) }

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Charge(ctx context.Context, actorID string, amountCents int64, idempotencyKey string) error {
	args := m.Called(ctx, actorID, amountCents, idempotencyKey)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event events.SeatEvent) error {
	return m.Called(ctx, event).Error(0)
}

var (
	testNow     = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lockTimeout = 2 * time.Second
)

type fixture struct {
	service   *BookingService
	store     *MockStore
	tx        *MockTx
	keys      *MockKeys
	admission *MockAdmission
	gateway   *MockGateway
	publisher *MockPublisher
}

func newFixture() *fixture {
	f := &fixture{
		tx:        &MockTx{},
		keys:      &MockKeys{},
		admission: &MockAdmission{},
		gateway:   &MockGateway{},
		publisher: &MockPublisher{},
	}
	f.store = &MockStore{tx: f.tx}
	f.service = NewBookingService(f.store, f.admission, f.keys, f.gateway, lockTimeout,
		WithClock(func() time.Time { return testNow }),
		WithPublisher(f.publisher),
	)
	return f
}

func (f *fixture) allowAll() {
	f.admission.On("CheckUser", mock.Anything).Return(nil)
	f.admission.On("CheckSeat", mock.Anything).Return(nil)
	f.admission.On("CheckEvent", mock.Anything).Return(nil)
	f.store.On("InTx", mock.Anything).Return()
	f.keys.On("Lock", mock.Anything, mock.Anything, mock.Anything, lockTimeout).Return(nil)
}

func heldSeat(actor string, expiresAt time.Time) *domain.Seat {
	s := domain.NewSeat("event-1", "A1")
	s.ID = 1
	if err := s.Hold(actor, expiresAt); err != nil {
		panic(err)
	}
	return s
}

// ============================ Тесты для BookingService ============================

func TestBookingService_ConfirmSeat_Success(t *testing.T) {
	f := newFixture()
	f.allowAll()
	ctx := context.Background()
	seat := heldSeat("user-1", testNow.Add(time.Minute))

	f.keys.On("Lookup", ctx, "user-1", "k1").Return(nil, false, nil).Once()
	f.tx.On("GetSeatForUpdate", ctx, int64(1), lockTimeout).Return(seat, nil).Once()
	f.gateway.On("Charge", ctx, "user-1", int64(DefaultAmountCents), "k1").Return(nil).Once()
	f.tx.On("UpdateSeat", ctx, seat).Return(nil).Once()
	f.tx.On("CreateBooking", ctx, mock.AnythingOfType("*domain.Booking")).
		Run(func(args mock.Arguments) { args.Get(1).(*domain.Booking).ID = 42 }).
		Return(nil).Once()
	f.keys.On("Save", ctx, "user-1", "k1", mock.AnythingOfType("*domain.Booking"), testNow).Return(nil).Once()
	f.publisher.On("Publish", ctx, mock.MatchedBy(func(e events.SeatEvent) bool {
		return e.Type == events.SeatBooked && e.BookingID == 42
	})).Return(nil).Once()

	booking, err := f.service.ConfirmSeat(ctx, 1, "user-1", "k1")

	require.NoError(t, err)
	assert.Equal(t, int64(42), booking.ID)
	assert.Equal(t, int64(1), booking.SeatID)
	assert.Equal(t, "user-1", booking.ActorID)
	assert.Equal(t, domain.SeatStatusBooked, seat.Status)
	assert.Empty(t, seat.HeldBy)

	f.tx.AssertExpectations(t)
	f.keys.AssertExpectations(t)
	f.gateway.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestBookingService_ConfirmSeat_Replay(t *testing.T) {
	f := newFixture()
	f.allowAll()
	ctx := context.Background()
	stored := &domain.Booking{ID: 42, SeatID: 1, ActorID: "user-1", BookedAt: testNow}

	f.keys.On("Lookup", ctx, "user-1", "k1").Return(stored, true, nil).Once()

	booking, err := f.service.ConfirmSeat(ctx, 1, "user-1", "k1")

	require.NoError(t, err)
	assert.Equal(t, stored, booking)
	f.tx.AssertNotCalled(t, "GetSeatForUpdate", mock.Anything, mock.Anything, mock.Anything)
	f.gateway.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestBookingService_ConfirmSeat_KeyReusedForOtherSeat(t *testing.T) {
	f := newFixture()
	f.allowAll()
	ctx := context.Background()

	f.keys.On("Lookup", ctx, "user-1", "k1").Return(&domain.Booking{ID: 42, SeatID: 9}, true, nil).Once()

	_, err := f.service.ConfirmSeat(ctx, 1, "user-1", "k1")

	assert.Equal(t, domain.KindIdempotencyKeyReused, domain.KindOf(err))
	f.gateway.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_ConfirmSeat_ValidationErrors(t *testing.T) {
	expires := testNow.Add(time.Minute)

	testCases := []struct {
		name     string
		seat     func() *domain.Seat
		wantKind domain.ErrorKind
	}{
		{
			name:     "Seat not held",
			seat:     func() *domain.Seat { s := domain.NewSeat("event-1", "A1"); s.ID = 1; return s },
			wantKind: domain.KindInvalidTransition,
		},
		{
			name:     "Held by another user",
			seat:     func() *domain.Seat { return heldSeat("user-2", expires) },
			wantKind: domain.KindUnauthorized,
		},
		{
			name:     "Hold expired",
			seat:     func() *domain.Seat { return heldSeat("user-1", testNow.Add(-time.Second)) },
			wantKind: domain.KindHoldExpired,
		},
		{
			name: "Already booked",
			seat: func() *domain.Seat {
				s := heldSeat("user-2", expires)
				_ = s.Book("user-2", testNow)
				return s
			},
			wantKind: domain.KindAlreadyBooked,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.allowAll()
			ctx := context.Background()
			seat := tc.seat()
			before := *seat

			f.keys.On("Lookup", ctx, "user-1", "k1").Return(nil, false, nil).Once()
			f.tx.On("GetSeatForUpdate", ctx, int64(1), lockTimeout).Return(seat, nil).Once()

			_, err := f.service.ConfirmSeat(ctx, 1, "user-1", "k1")

			assert.Equal(t, tc.wantKind, domain.KindOf(err))
			assert.Equal(t, before.Status, seat.Status)
			assert.Equal(t, before.HeldBy, seat.HeldBy)
			f.gateway.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			f.tx.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
		})
	}
}

func TestBookingService_ConfirmSeat_HonorsHoldAtExpiryInstant(t *testing.T) {
	f := newFixture()
	f.allowAll()
	ctx := context.Background()
	seat := heldSeat("user-1", testNow)

	f.keys.On("Lookup", ctx, "user-1", "k1").Return(nil, false, nil).Once()
	f.tx.On("GetSeatForUpdate", ctx, int64(1), lockTimeout).Return(seat, nil).Once()
	f.gateway.On("Charge", ctx, "user-1", int64(DefaultAmountCents), "k1").Return(nil).Once()
	f.tx.On("UpdateSeat", ctx, seat).Return(nil).Once()
	f.tx.On("CreateBooking", ctx, mock.Anything).Return(nil).Once()
	f.keys.On("Save", ctx, "user-1", "k1", mock.Anything, testNow).Return(nil).Once()
	f.publisher.On("Publish", ctx, mock.Anything).Return(nil).Once()

	_, err := f.service.ConfirmSeat(ctx, 1, "user-1", "k1")
	require.NoError(t, err)
	assert.Equal(t, domain.SeatStatusBooked, seat.Status)
}

func TestBookingService_ConfirmSeat_PaymentFailure(t *testing.T) {
	f := newFixture()
	f.allowAll()
	ctx := context.Background()
	seat := heldSeat("user-1", testNow.Add(time.Minute))
	declined := errors.New("insufficient funds")

	f.keys.On("Lookup", ctx, "user-1", "k1").Return(nil, false, nil).Once()
	f.tx.On("GetSeatForUpdate", ctx, int64(1), lockTimeout).Return(seat, nil).Once()
	f.gateway.On("Charge", ctx, "user-1", int64(DefaultAmountCents), "k1").Return(declined).Once()

	_, err := f.service.ConfirmSeat(ctx, 1, "user-1", "k1")

	assert.Equal(t, domain.KindPaymentFailed, domain.KindOf(err))
	assert.ErrorIs(t, err, declined)
	assert.Equal(t, domain.SeatStatusHeld, seat.Status)
	f.tx.AssertNotCalled(t, "UpdateSeat", mock.Anything, mock.Anything)
	f.tx.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
	f.keys.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_ConfirmSeat_StoreErrors(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		wantKind domain.ErrorKind
	}{
		{name: "Unknown seat", err: repository.ErrNotFound, wantKind: domain.KindNotFound},
		{name: "Lock timeout", err: repository.ErrLockTimeout, wantKind: domain.KindLockTimeout},
		{name: "Broken connection", err: errors.New("conn closed"), wantKind: domain.KindUnexpected},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.allowAll()
			ctx := context.Background()

			f.keys.On("Lookup", ctx, "user-1", "k1").Return(nil, false, nil).Once()
			f.tx.On("GetSeatForUpdate", ctx, int64(1), lockTimeout).Return(nil, tc.err).Once()

			_, err := f.service.ConfirmSeat(ctx, 1, "user-1", "k1")
			assert.Equal(t, tc.wantKind, domain.KindOf(err))
		})
	}
}

func TestBookingService_ConfirmSeat_RateLimited(t *testing.T) {
	f := newFixture()
	limited := domain.NewError(domain.KindRateLimited, "too many requests for user: user-1")
	f.admission.On("CheckUser", "user-1").Return(limited).Once()

	_, err := f.service.ConfirmSeat(context.Background(), 1, "user-1", "k1")

	assert.Equal(t, domain.KindRateLimited, domain.KindOf(err))
	f.store.AssertNotCalled(t, "InTx", mock.Anything)
}

func TestBookingService_ConfirmSeat_EventRateLimited(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.admission.On("CheckUser", "user-1").Return(nil)
	f.admission.On("CheckSeat", int64(1)).Return(nil)
	f.admission.On("CheckEvent", "event-1").Return(domain.NewError(domain.KindRateLimited, "too many requests for event: event-1"))
	f.store.On("InTx", mock.Anything).Return()
	f.keys.On("Lock", ctx, "user-1", "k1", lockTimeout).Return(nil)
	f.keys.On("Lookup", ctx, "user-1", "k1").Return(nil, false, nil)
	f.tx.On("GetSeatForUpdate", ctx, int64(1), lockTimeout).Return(heldSeat("user-1", testNow.Add(time.Minute)), nil)

	_, err := f.service.ConfirmSeat(ctx, 1, "user-1", "k1")

	assert.Equal(t, domain.KindRateLimited, domain.KindOf(err))
	f.gateway.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_ConfirmSeat_MissingKey(t *testing.T) {
	f := newFixture()
	_, err := f.service.ConfirmSeat(context.Background(), 1, "user-1", "  ")
	assert.Equal(t, domain.KindInvalidArgument, domain.KindOf(err))
}

func TestBookingService_ConfirmSeat_PublishFailureIsIgnored(t *testing.T) {
	f := newFixture()
	f.allowAll()
	ctx := context.Background()
	seat := heldSeat("user-1", testNow.Add(time.Minute))

	f.keys.On("Lookup", ctx, "user-1", "k1").Return(nil, false, nil).Once()
	f.tx.On("GetSeatForUpdate", ctx, int64(1), lockTimeout).Return(seat, nil).Once()
	f.gateway.On("Charge", ctx, "user-1", int64(DefaultAmountCents), "k1").Return(nil).Once()
	f.tx.On("UpdateSeat", ctx, seat).Return(nil).Once()
	f.tx.On("CreateBooking", ctx, mock.Anything).Return(nil).Once()
	f.keys.On("Save", ctx, "user-1", "k1", mock.Anything, testNow).Return(nil).Once()
	f.publisher.On("Publish", ctx, mock.Anything).Return(errors.New("broker down")).Once()

	booking, err := f.service.ConfirmSeat(ctx, 1, "user-1", "k1")
	require.NoError(t, err)
	assert.NotNil(t, booking)
}

func TestBookingService_ListBookings(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.store.On("ListBookingsByActor", ctx, "user-1").Return([]domain.Booking{{ID: 1}}, nil).Once()
	f.store.On("ListBookingsByActor", ctx, "user-2").Return(nil, errors.New("db down")).Once()

	list, err := f.service.ListBookings(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.service.ListBookings(ctx, "user-2")
	assert.Equal(t, domain.KindUnexpected, domain.KindOf(err))
}

func TestBookingService_GetSeatBooking(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.store.On("GetBookingBySeat", ctx, int64(3)).Return(&domain.Booking{ID: 7, SeatID: 3}, nil).Once()
	f.store.On("GetBookingBySeat", ctx, int64(4)).Return(nil, repository.ErrNotFound).Once()
	f.store.On("GetBookingBySeat", ctx, int64(5)).Return(nil, errors.New("db down")).Once()

	b, err := f.service.GetSeatBooking(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(7), b.ID)

	_, err = f.service.GetSeatBooking(ctx, 4)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	_, err = f.service.GetSeatBooking(ctx, 5)
	assert.Equal(t, domain.KindUnexpected, domain.KindOf(err))
}
