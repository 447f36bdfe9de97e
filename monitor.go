package session

import (
	"context"
	"sync"
	"time"
)

const (
	defaultMonitorInterval      = 30 * time.Second
	defaultRefreshWarningMargin = 2 * time.Minute
)

// TokenMonitor is the proactive half of credential renewal: a fixed-interval
// poll that renews the access credential shortly before it expires, so most
// sessions never hit the reactive 401 path at all. A failed proactive refresh
// is not fatal, since network blips should not kill a session; the monitor tries
// again on the next tick and the 401 interceptor remains the safety net.
type TokenMonitor struct {
	mu        sync.Mutex
	bus       *Bus
	store     *Store
	refresher *RefreshCoordinator
	nav       Navigator
	cfg       Config
	logger    Logger
	now       func() time.Time

	interval   time.Duration
	margin     time.Duration
	done       chan struct{}
	running    bool
	refreshing bool
}

// NewTokenMonitor returns a stopped monitor.
func NewTokenMonitor(cfg Config, bus *Bus, store *Store, refresher *RefreshCoordinator, nav Navigator, opts ...MonitorOption) *TokenMonitor {
	m := &TokenMonitor{
		bus:       bus,
		store:     store,
		refresher: refresher,
		nav:       nav,
		cfg:       cfg,
		logger:    defLogger{},
		now:       time.Now,
		interval:  cfg.GetMonitorInterval(),
		margin:    cfg.GetRefreshWarningMargin(),
	}
	if m.interval <= 0 {
		m.interval = defaultMonitorInterval
	}
	if m.margin <= 0 {
		m.margin = defaultRefreshWarningMargin
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MonitorOption customizes monitor construction.
type MonitorOption func(*TokenMonitor)

// WithMonitorLogger sets the monitor logger.
func WithMonitorLogger(logger Logger) MonitorOption {
	return func(m *TokenMonitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMonitorClock injects a custom clock (useful for tests).
func WithMonitorClock(clock func() time.Time) MonitorOption {
	return func(m *TokenMonitor) {
		if clock != nil {
			m.now = clock
		}
	}
}

// WithMonitorInterval overrides the poll interval.
func WithMonitorInterval(interval time.Duration) MonitorOption {
	return func(m *TokenMonitor) {
		if interval > 0 {
			m.interval = interval
		}
	}
}

// Start begins polling. Calling Start while running is a no-op.
func (m *TokenMonitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}
	m.running = true
	m.done = make(chan struct{})
	go m.loop(m.done)
	m.logger.Debug("token monitor started", "interval", m.interval)
}

// Stop halts polling. Safe to call repeatedly and from within a tick.
func (m *TokenMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

// Running reports whether the monitor is polling.
func (m *TokenMonitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *TokenMonitor) stopLocked() {
	if !m.running {
		return
	}
	m.running = false
	close(m.done)
}

func (m *TokenMonitor) loop(done chan struct{}) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			m.check(context.Background())
		}
	}
}

// check is one monitor tick. Exported behavior only; ticks overlapping an
// in-flight refresh are skipped rather than queued.
func (m *TokenMonitor) check(ctx context.Context) {
	m.mu.Lock()
	if m.refreshing || !m.running {
		m.mu.Unlock()
		return
	}

	meta := m.store.Get()
	if meta == nil || meta.Identity.IsZero() {
		m.stopLocked()
		m.mu.Unlock()
		return
	}

	now := m.now()

	if !meta.RefreshValidAt(now) {
		m.stopLocked()
		m.mu.Unlock()
		m.logger.Info("refresh credential expired, session over")
		m.bus.Publish(SessionExpired{Reason: ExpiredToken, LastRoute: m.nav.CurrentRoute()})
		return
	}

	if meta.AccessValidAt(now, m.margin) {
		m.mu.Unlock()
		return
	}

	m.refreshing = true
	m.mu.Unlock()

	renewed, err := m.refresher.Refresh(ctx)
	if err != nil || !renewed {
		// Not fatal here; next tick retries and the 401 interceptor
		// covers the window where the access credential actually dies.
		m.logger.Warn("proactive refresh did not renew", "renewed", renewed, "error", err)
	}

	m.mu.Lock()
	m.refreshing = false
	m.mu.Unlock()
}
