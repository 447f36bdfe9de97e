package session

import (
	"sync"
	"time"
)

// bootGraceWindow suppresses a session.expired(inactivity) arriving right
// after boot.authenticated: a page reload racing the idle logic, not a real
// expiry.
const bootGraceWindow = 2 * time.Second

// ModalController opens and closes the blocking credential-entry overlay. A
// single boolean guard prevents duplicate overlays; the controller never
// challenges a visitor who was never authenticated, and never opens on top of
// the login surface itself.
type ModalController struct {
	mu   sync.Mutex
	open bool

	presenter ModalPresenter
	store     *Store
	nav       Navigator
	cfg       Config
	logger    Logger
	now       func() time.Time

	lastBootAuth time.Time
	grace        time.Duration
	off          func()
}

// NewModalController returns an unbound controller.
func NewModalController(cfg Config, presenter ModalPresenter, store *Store, nav Navigator, opts ...ModalOption) *ModalController {
	c := &ModalController{
		presenter: presenter,
		store:     store,
		nav:       nav,
		cfg:       cfg,
		logger:    defLogger{},
		now:       time.Now,
		grace:     bootGraceWindow,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ModalOption customizes controller construction.
type ModalOption func(*ModalController)

// WithModalLogger sets the controller logger.
func WithModalLogger(logger Logger) ModalOption {
	return func(c *ModalController) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithModalClock injects a custom clock (useful for tests).
func WithModalClock(clock func() time.Time) ModalOption {
	return func(c *ModalController) {
		if clock != nil {
			c.now = clock
		}
	}
}

// Bind subscribes the controller to the bus. Call once.
func (c *ModalController) Bind(bus *Bus) {
	c.off = bus.SubscribeEvents(c.handle,
		EventBootAuthenticated,
		EventBootHistoryInvalid,
		EventSessionExpired,
		EventIdleDetected,
		EventReloginSuccess,
		EventLoginSuccess,
		EventLogout,
	)
}

// Unbind removes the bus subscriptions.
func (c *ModalController) Unbind() {
	if c.off != nil {
		c.off()
		c.off = nil
	}
}

// IsOpen reports whether the overlay is currently showing.
func (c *ModalController) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *ModalController) handle(event Event) {
	switch e := event.(type) {
	case BootAuthenticated:
		c.mu.Lock()
		c.lastBootAuth = c.now()
		c.mu.Unlock()
	case BootHistoryInvalid:
		c.maybeOpen(ExpiredToken)
	case SessionExpired:
		if e.Reason == ExpiredInactivity && c.withinBootGrace() {
			c.logger.Debug("ignoring inactivity expiry inside boot grace window")
			return
		}
		c.maybeOpen(e.Reason)
	case IdleDetected:
		c.maybeOpen(ExpiredInactivity)
	case ReloginSuccess, LoginSuccess, Logout:
		c.closeIfOpen()
	}
}

func (c *ModalController) withinBootGrace() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastBootAuth.IsZero() {
		return false
	}
	return c.now().Sub(c.lastBootAuth) < c.grace
}

func (c *ModalController) maybeOpen(reason ExpiredReason) {
	c.mu.Lock()
	if c.open {
		c.mu.Unlock()
		return
	}

	meta := c.store.Get()
	if meta == nil || meta.Identity.IsZero() {
		// Never challenge a visitor who was never authenticated.
		c.mu.Unlock()
		return
	}

	if c.nav.CurrentRoute() == c.cfg.GetLoginRoute() {
		c.mu.Unlock()
		return
	}

	c.open = true
	c.mu.Unlock()

	c.logger.Info("opening reauthentication overlay", "reason", reason)
	c.presenter.Open(ReloginPrompt{
		Reason:    reason,
		LoginName: c.store.LastLoginName(),
	})
}

func (c *ModalController) closeIfOpen() {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return
	}
	c.open = false
	c.mu.Unlock()

	c.presenter.Close()
}
