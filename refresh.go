package session

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/sync/singleflight"
)

// RefreshCoordinator is the shared choke point for credential renewal. Every
// caller (boot, the proactive monitor, the reactive 401 interceptor) goes
// through Refresh, and single-flight memoization guarantees at most one
// outstanding refresh request regardless of how many callers arrive.
//
// The coordinator publishes nothing itself; callers decide whether silence, a
// renewed state, or a forced re-authentication is appropriate.
type RefreshCoordinator struct {
	group     singleflight.Group
	transport Transport
	store     *Store
	logger    Logger
}

// NewRefreshCoordinator returns a coordinator mutating store through transport.
func NewRefreshCoordinator(transport Transport, store *Store, opts ...RefreshOption) *RefreshCoordinator {
	c := &RefreshCoordinator{
		transport: transport,
		store:     store,
		logger:    defLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RefreshOption customizes coordinator construction.
type RefreshOption func(*RefreshCoordinator)

// WithRefreshLogger sets the coordinator logger.
func WithRefreshLogger(logger Logger) RefreshOption {
	return func(c *RefreshCoordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

type refreshOutcome struct {
	renewed bool
}

// Refresh renews the access credential. Concurrent callers share one network
// round-trip and receive the same outcome.
//
// Returns (true, nil) when the backend renewed the credentials and the new
// expiry data was merged into the store; (false, nil) when the backend
// rejected the refresh, in which case the tokens are locked; (false, err) for
// a transport failure, in which case nothing is mutated so the caller can
// retry later.
func (c *RefreshCoordinator) Refresh(ctx context.Context) (bool, error) {
	v, err, _ := c.group.Do("refresh", func() (any, error) {
		resp, err := c.transport.Post(ctx, PathRefresh, nil)
		if err != nil {
			c.logger.Warn("refresh transport failure", "error", err)
			return refreshOutcome{}, goerrors.Wrap(err, goerrors.CategoryOperation, "refresh request failed").
				WithTextCode(textCodeNetworkUnavailable)
		}

		if !resp.IsSuccess {
			c.logger.Info("refresh rejected by backend", "status", resp.Status)
			c.store.LockTokens()
			return refreshOutcome{renewed: false}, nil
		}

		// Identity is held constant across a silent refresh.
		c.store.MergeExpiry(resp.AccessExpiresAt, resp.RefreshExpiresAt)
		c.logger.Debug("credentials renewed", "access_expires_at", resp.AccessExpiresAt)
		return refreshOutcome{renewed: true}, nil
	})

	if err != nil {
		return false, err
	}
	return v.(refreshOutcome).renewed, nil
}
