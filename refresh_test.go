package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	session "github.com/goliatone/go-session"
)

// slowTransport counts refresh round-trips and holds each one long enough
// for concurrent callers to pile onto the same flight.
type slowTransport struct {
	calls   atomic.Int32
	delay   time.Duration
	respond func() (*session.Response, error)
}

func (t *slowTransport) Post(ctx context.Context, path string, body any) (*session.Response, error) {
	t.calls.Add(1)
	time.Sleep(t.delay)
	return t.respond()
}

func TestRefreshCoordinatorSingleFlight(t *testing.T) {
	now := time.Now()
	transport := &slowTransport{
		delay: 50 * time.Millisecond,
		respond: func() (*session.Response, error) {
			return successResponse(now), nil
		},
	}

	kv := newMapKV()
	store := session.NewStore(kv)
	store.Set(testMetadata(now))

	coordinator := session.NewRefreshCoordinator(transport, store)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]bool, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = coordinator.Refresh(context.Background())
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), transport.calls.Load(), "exactly one network call for N concurrent refreshes")
	for i := 0; i < callers; i++ {
		assert.NoError(t, errs[i])
		assert.True(t, results[i], "every caller receives the shared outcome")
	}
}

func TestRefreshSuccessMergesExpiryKeepsIdentity(t *testing.T) {
	now := time.Now()
	transport := new(MockTransport)
	transport.On("Post", mock.Anything, session.PathRefresh, nil).
		Return(&session.Response{
			IsSuccess:        true,
			Status:           200,
			Identity:         session.Identity{ID: "someone-else"},
			AccessExpiresAt:  now.Add(time.Hour),
			RefreshExpiresAt: now.Add(24 * time.Hour),
		}, nil).Once()

	store := session.NewStore(newMapKV())
	store.Set(testMetadata(now))

	coordinator := session.NewRefreshCoordinator(transport, store)

	renewed, err := coordinator.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, renewed)

	got := store.Get()
	require.NotNil(t, got)
	assert.Equal(t, testIdentity(), got.Identity, "identity held constant across silent refresh")
	assert.WithinDuration(t, now.Add(time.Hour), got.AccessExpiresAt, time.Second)
	transport.AssertExpectations(t)
}

func TestRefreshRejectedLocksTokens(t *testing.T) {
	now := time.Now()
	transport := new(MockTransport)
	transport.On("Post", mock.Anything, session.PathRefresh, nil).
		Return(&session.Response{IsSuccess: false, Status: 401}, nil).Once()

	store := session.NewStore(newMapKV())
	store.Set(testMetadata(now))

	coordinator := session.NewRefreshCoordinator(transport, store)

	renewed, err := coordinator.Refresh(context.Background())
	require.NoError(t, err)
	assert.False(t, renewed)

	got := store.Get()
	require.NotNil(t, got)
	assert.True(t, got.Locked(), "rejection locks tokens but keeps identity")
}

func TestRefreshTransportFailureMutatesNothing(t *testing.T) {
	now := time.Now()
	transport := new(MockTransport)
	transport.On("Post", mock.Anything, session.PathRefresh, nil).
		Return(nil, errors.New("connection refused")).Once()

	store := session.NewStore(newMapKV())
	store.Set(testMetadata(now))

	coordinator := session.NewRefreshCoordinator(transport, store)

	renewed, err := coordinator.Refresh(context.Background())
	assert.False(t, renewed)
	require.Error(t, err)
	assert.True(t, session.IsNetworkUnavailable(err))

	got := store.Get()
	require.NotNil(t, got)
	assert.False(t, got.Locked(), "a network blip must not degrade the session")
	assert.False(t, got.AccessExpiresAt.IsZero())
}
