package session

import "sync"

// AccessController owns the "may enter protected area" decision. Evaluated
// flips false to true exactly once, when any boot result arrives; CanAccess
// keeps flipping afterward as logins, logouts, and expiries come through.
//
// It is also the component performing the one-shot consumption of the
// attempted destination: on any event granting access it reads and clears
// the cache and navigates there.
type AccessController struct {
	mu        sync.Mutex
	evaluated bool
	canAccess bool

	dest   *DestinationCache
	nav    Navigator
	cfg    Config
	logger Logger
	off    func()
}

// NewAccessController returns an unbound controller.
func NewAccessController(cfg Config, dest *DestinationCache, nav Navigator, opts ...AccessOption) *AccessController {
	c := &AccessController{
		dest:   dest,
		nav:    nav,
		cfg:    cfg,
		logger: defLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AccessOption customizes controller construction.
type AccessOption func(*AccessController)

// WithAccessLogger sets the controller logger.
func WithAccessLogger(logger Logger) AccessOption {
	return func(c *AccessController) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Bind subscribes the controller to the bus. Call once.
func (c *AccessController) Bind(bus *Bus) {
	c.off = bus.SubscribeEvents(c.handle,
		EventBootNeverAuthenticated,
		EventBootHistoryInvalid,
		EventBootAuthenticated,
		EventLoginSuccess,
		EventReloginSuccess,
		EventReloginFailed,
		EventLogout,
	)
}

// Unbind removes the bus subscriptions.
func (c *AccessController) Unbind() {
	if c.off != nil {
		c.off()
		c.off = nil
	}
}

// Evaluated reports whether the boot decision has been made.
func (c *AccessController) Evaluated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evaluated
}

// CanAccess reports whether protected-route entry is currently permitted.
func (c *AccessController) CanAccess() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canAccess
}

func (c *AccessController) handle(event Event) {
	switch e := event.(type) {
	case BootNeverAuthenticated:
		c.setFlags(true, false)
	case BootHistoryInvalid:
		c.setFlags(true, false)
	case BootAuthenticated:
		c.setFlags(true, true)
		c.redirect("")
	case LoginSuccess:
		c.grantAccess()
		c.redirect(e.AttemptedRoute)
	case ReloginSuccess:
		c.grantAccess()
		c.redirect("")
	case ReloginFailed:
		c.revokeAccess()
	case Logout:
		c.revokeAccess()
		c.nav.Navigate(c.cfg.GetLoginRoute(), true)
	}
}

func (c *AccessController) setFlags(evaluated, canAccess bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if evaluated {
		c.evaluated = true
	}
	c.canAccess = canAccess
}

func (c *AccessController) grantAccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.canAccess = true
}

func (c *AccessController) revokeAccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.canAccess = false
}

// redirect sends the visitor to the remembered attempted destination,
// falling back first to the event-supplied route, then to the default
// landing route when nothing usable remains.
func (c *AccessController) redirect(fallback string) {
	target := c.dest.Consume()
	if target == "" {
		target = fallback
	}
	if target == "" || target == c.cfg.GetLoginRoute() {
		target = c.cfg.GetDefaultRoute()
	}
	c.logger.Debug("navigating after access granted", "route", target)
	c.nav.Navigate(target, true)
}
