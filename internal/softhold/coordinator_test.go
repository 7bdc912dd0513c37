package softhold

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, value, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "seat:42", Key(42))
}

func TestCoordinator_TryClaim(t *testing.T) {
	ctx := context.Background()
	store := &MockStore{}
	c := NewCoordinator(store, 15*time.Second, nil)

	store.On("SetIfAbsent", ctx, "seat:1", "user-1", 15*time.Second).Return(true, nil).Once()
	store.On("SetIfAbsent", ctx, "seat:1", "user-2", 15*time.Second).Return(false, nil).Once()

	assert.True(t, c.TryClaim(ctx, 1, "user-1"))
	assert.False(t, c.TryClaim(ctx, 1, "user-2"))
	store.AssertExpectations(t)
}

func TestCoordinator_IsClaimedBy(t *testing.T) {
	ctx := context.Background()
	store := &MockStore{}
	c := NewCoordinator(store, time.Second, nil)

	store.On("Get", ctx, "seat:1").Return("user-1", true, nil)
	store.On("Get", ctx, "seat:2").Return("", false, nil)

	assert.True(t, c.IsClaimedBy(ctx, 1, "user-1"))
	assert.False(t, c.IsClaimedBy(ctx, 1, "user-2"))
	assert.False(t, c.IsClaimedBy(ctx, 2, "user-1"))
}

func TestCoordinator_FailOpenOnStoreErrors(t *testing.T) {
	ctx := context.Background()
	store := &MockStore{}
	c := NewCoordinator(store, time.Second, nil)
	down := errors.New("connection refused")

	store.On("SetIfAbsent", ctx, "seat:1", "user-1", time.Second).Return(false, down)
	store.On("Get", ctx, "seat:1").Return("", false, down)
	store.On("Delete", ctx, "seat:1").Return(down)

	assert.True(t, c.TryClaim(ctx, 1, "user-1"))
	assert.True(t, c.IsClaimedBy(ctx, 1, "user-1"))
	assert.NotPanics(t, func() { c.Release(ctx, 1) })
	store.AssertExpectations(t)
}

func TestCoordinator_NoStore(t *testing.T) {
	ctx := context.Background()
	c := NewCoordinator(nil, 0, nil)

	assert.True(t, c.TryClaim(ctx, 1, "user-1"))
	assert.True(t, c.TryClaim(ctx, 1, "user-2"))
	assert.True(t, c.IsClaimedBy(ctx, 1, "anyone"))
	assert.NotPanics(t, func() { c.Release(ctx, 1) })
	assert.Equal(t, DefaultTTL, c.ttl)
}
