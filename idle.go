package session

import (
	"sync"
	"time"
)

const (
	defaultIdleTimeoutMinutes = 15
	minEffectiveIdleTimeout   = 60 * time.Second
)

// IdleDetector raises idle.detected after a configurable silence interval.
// The host feeds it interaction signals through Touch; by contract only
// low-frequency signals are bound (click, key, scroll, touch-start), and
// continuous pointer movement is excluded to avoid timer churn.
//
// After firing, the detector never re-arms itself. Restarting is the
// responsibility of whatever re-authenticates the session.
type IdleDetector struct {
	mu     sync.Mutex
	bus    *Bus
	store  *Store
	cfg    Config
	logger Logger
	now    func() time.Time

	timer     *time.Timer
	running   bool
	idle      bool
	effective time.Duration
	floor     time.Duration
}

// NewIdleDetector returns a stopped detector.
func NewIdleDetector(cfg Config, bus *Bus, store *Store, opts ...IdleOption) *IdleDetector {
	d := &IdleDetector{
		bus:    bus,
		store:  store,
		cfg:    cfg,
		logger: defLogger{},
		now:    time.Now,
		floor:  minEffectiveIdleTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// IdleOption customizes detector construction.
type IdleOption func(*IdleDetector)

// WithIdleLogger sets the detector logger.
func WithIdleLogger(logger Logger) IdleOption {
	return func(d *IdleDetector) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithIdleClock injects a custom clock (useful for tests).
func WithIdleClock(clock func() time.Time) IdleOption {
	return func(d *IdleDetector) {
		if clock != nil {
			d.now = clock
		}
	}
}

// EffectiveTimeout computes the silence interval the detector will arm with.
// The base timeout comes from configuration; when the refresh credential's
// remaining lifetime is shorter than the base, the effective timeout becomes
// half the remaining lifetime, floored at one minute, so the deadline never
// lands past the moment the session would die anyway.
func (d *IdleDetector) EffectiveTimeout() time.Duration {
	minutes := d.cfg.GetIdleTimeoutMinutes()
	if minutes <= 0 {
		minutes = defaultIdleTimeoutMinutes
	}
	base := time.Duration(minutes) * time.Minute

	meta := d.store.Get()
	if meta == nil || meta.RefreshExpiresAt.IsZero() {
		return base
	}

	remaining := meta.RefreshExpiresAt.Sub(d.now())
	if remaining >= base {
		return base
	}

	halved := remaining / 2
	if halved < d.floor {
		return d.floor
	}
	return halved
}

// Start arms the detector. The effective timeout is computed once here, not
// on every activity tick. Calling Start while running is a no-op.
func (d *IdleDetector) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return
	}

	d.running = true
	d.idle = false
	d.effective = d.EffectiveTimeout()
	d.armLocked()
	d.logger.Debug("idle detector started", "timeout", d.effective)
}

// Stop disarms the detector and stops listening for activity.
func (d *IdleDetector) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

// Touch records an interaction signal, pushing the deadline out. Signals
// arriving after the detector fired are ignored until the next Start.
func (d *IdleDetector) Touch() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running || d.idle {
		return
	}
	d.armLocked()
}

// Running reports whether the detector currently has a deadline armed.
func (d *IdleDetector) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

func (d *IdleDetector) armLocked() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.effective, d.trigger)
}

func (d *IdleDetector) stopLocked() {
	d.running = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *IdleDetector) trigger() {
	d.mu.Lock()
	if d.idle || !d.running {
		d.mu.Unlock()
		return
	}
	d.idle = true
	// Stop listening before publishing, so a stray interaction on the
	// overlay cannot reset a timer that already fired.
	d.stopLocked()
	d.mu.Unlock()

	d.logger.Info("idle detected")
	d.bus.Publish(IdleDetected{})
}
