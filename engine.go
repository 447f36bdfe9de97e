package session

import (
	"context"
	"time"
)

// Engine is the single explicit context object wiring the whole lifecycle
// machinery: bus, store, destination cache, refresh coordinator, auth
// service, idle detector, token monitor, and the two reactive controllers.
// Construct one per process at application start and pass it by reference;
// there is no hidden module-level state, so tests build a fresh Engine each.
type Engine struct {
	cfg       Config
	transport Transport
	nav       Navigator
	logger    Logger
	now       func() time.Time

	bus       *Bus
	store     *Store
	dest      *DestinationCache
	refresher *RefreshCoordinator
	service   *Service
	idle      *IdleDetector
	monitor   *TokenMonitor
	access    *AccessController
	modal     *ModalController

	offLifecycle func()
}

// EngineOption customizes engine construction.
type EngineOption func(*Engine)

// WithLogger sets the logger for the engine and every component it builds.
func WithLogger(logger Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) EngineOption {
	return func(e *Engine) {
		if clock != nil {
			e.now = clock
		}
	}
}

// New wires a complete engine. The transport, durable store, navigator, and
// modal presenter are host-supplied collaborators; everything else is built
// here and bound to one shared bus.
func New(cfg Config, transport Transport, kv KeyValue, nav Navigator, presenter ModalPresenter, opts ...EngineOption) *Engine {
	e := &Engine{
		cfg:       cfg,
		transport: transport,
		nav:       nav,
		logger:    defLogger{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.bus = NewBus(WithBusLogger(e.logger))
	e.store = NewStore(kv, WithStoreLogger(e.logger), WithStorageKey(cfg.GetStorageKey()))
	e.dest = NewDestinationCache()
	e.refresher = NewRefreshCoordinator(transport, e.store, WithRefreshLogger(e.logger))
	e.service = NewService(cfg, transport, e.bus, e.store, e.dest, e.refresher,
		WithServiceLogger(e.logger), WithServiceClock(e.now))
	e.idle = NewIdleDetector(cfg, e.bus, e.store, WithIdleLogger(e.logger), WithIdleClock(e.now))
	e.monitor = NewTokenMonitor(cfg, e.bus, e.store, e.refresher, nav,
		WithMonitorLogger(e.logger), WithMonitorClock(e.now))
	e.access = NewAccessController(cfg, e.dest, nav, WithAccessLogger(e.logger))
	e.modal = NewModalController(cfg, presenter, e.store, nav,
		WithModalLogger(e.logger), WithModalClock(e.now))

	e.access.Bind(e.bus)
	e.modal.Bind(e.bus)
	e.bindLifecycle()

	return e
}

// bindLifecycle keeps the background timers consistent with the session
// state: armed on every successful (re)authentication, torn down on logout
// and on session invalidation so no orphaned timer fires against a dead
// session. It also degrades the store and preserves the attempted
// destination when an active session expires mid-navigation.
func (e *Engine) bindLifecycle() {
	offStart := e.bus.SubscribeEvents(func(Event) {
		e.idle.Start()
		e.monitor.Start()
	}, EventBootAuthenticated, EventLoginSuccess, EventReloginSuccess)

	offExpired := e.bus.Subscribe(EventSessionExpired, func(event Event) {
		expired := event.(SessionExpired)
		e.store.LockTokens()
		if expired.LastRoute != "" {
			e.dest.Set(expired.LastRoute)
		}
		e.idle.Stop()
		e.monitor.Stop()
	})

	offLogout := e.bus.Subscribe(EventLogout, func(Event) {
		e.idle.Stop()
		e.monitor.Stop()
	})

	e.offLifecycle = func() {
		offStart()
		offExpired()
		offLogout()
	}
}

// Start resolves the initial authentication state. currentRoute is preserved
// as the attempted destination if the prior session turns out to be invalid.
func (e *Engine) Start(ctx context.Context, currentRoute string) {
	e.service.CheckSessionOnBoot(ctx, currentRoute)
}

// Stop tears down timers and bus subscriptions. Only needed by hosts that
// discard an engine before process exit (tests, mostly).
func (e *Engine) Stop() {
	e.idle.Stop()
	e.monitor.Stop()
	e.access.Unbind()
	e.modal.Unbind()
	if e.offLifecycle != nil {
		e.offLifecycle()
		e.offLifecycle = nil
	}
}

// Bus returns the shared event bus.
func (e *Engine) Bus() *Bus { return e.bus }

// Store returns the session store.
func (e *Engine) Store() *Store { return e.store }

// Destination returns the attempted-destination cache.
func (e *Engine) Destination() *DestinationCache { return e.dest }

// Refresher returns the shared refresh coordinator.
func (e *Engine) Refresher() *RefreshCoordinator { return e.refresher }

// Service returns the auth service.
func (e *Engine) Service() *Service { return e.service }

// Idle returns the idle detector; hosts feed it activity via Touch.
func (e *Engine) Idle() *IdleDetector { return e.idle }

// Monitor returns the proactive token monitor.
func (e *Engine) Monitor() *TokenMonitor { return e.monitor }

// Access returns the routing/access controller.
func (e *Engine) Access() *AccessController { return e.access }

// Modal returns the reauthentication modal controller.
func (e *Engine) Modal() *ModalController { return e.modal }
