package session

import "time"

// Event names form the canonical taxonomy. Every producer and consumer in the
// engine agrees on these; there is no secondary naming scheme.
const (
	EventBootNeverAuthenticated = "boot.never-authenticated"
	EventBootHistoryInvalid     = "boot.history-invalid"
	EventBootAuthenticated      = "boot.authenticated"
	EventLoginSuccess           = "login.success"
	EventReloginSuccess         = "relogin.success"
	EventReloginFailed          = "relogin.failed"
	EventLogout                 = "logout"
	EventSessionExpired         = "session.expired"
	EventIdleDetected           = "idle.detected"
)

// LogoutReason explains why the identity was cleared.
type LogoutReason string

const (
	LogoutUserAction     LogoutReason = "user_action"
	LogoutSessionExpired LogoutReason = "session_expired"
	LogoutIdleTimeout    LogoutReason = "idle_timeout"
)

// ExpiredReason explains why an active session was invalidated while in use.
type ExpiredReason string

const (
	ExpiredToken      ExpiredReason = "token"
	ExpiredInactivity ExpiredReason = "inactivity"
)

// ReloginFailReason is the coarse classification carried by relogin.failed.
type ReloginFailReason string

const (
	ReloginFailCredentials ReloginFailReason = "credentials"
	ReloginFailUnknown     ReloginFailReason = "unknown"
)

// Event is any payload delivered through the Bus.
type Event interface {
	EventName() string
}

// BootNeverAuthenticated: no prior identity was found locally.
type BootNeverAuthenticated struct{}

// BootHistoryInvalid: a prior identity existed but the boot refresh failed.
type BootHistoryInvalid struct {
	LastRoute string
}

// BootAuthenticated: the boot sequence restored an authenticated session.
type BootAuthenticated struct {
	LastRoute       string
	Identity        Identity
	AccessExpiresAt time.Time
}

// LoginSuccess: an explicit full-page login succeeded.
type LoginSuccess struct {
	Identity        Identity
	IsFirstLogin    bool
	AttemptedRoute  string
	AccessExpiresAt time.Time
}

// ReloginSuccess: modal credential re-entry succeeded.
type ReloginSuccess struct {
	Identity        Identity
	AccessExpiresAt time.Time
}

// ReloginFailed: modal credential re-entry was rejected.
type ReloginFailed struct {
	Reason ReloginFailReason
}

// Logout: the identity was cleared.
type Logout struct {
	Reason LogoutReason
}

// SessionExpired: an active session was invalidated while in use.
type SessionExpired struct {
	Reason    ExpiredReason
	LastRoute string
}

// IdleDetected: the configured silence interval elapsed.
type IdleDetected struct{}

func (BootNeverAuthenticated) EventName() string { return EventBootNeverAuthenticated }
func (BootHistoryInvalid) EventName() string     { return EventBootHistoryInvalid }
func (BootAuthenticated) EventName() string      { return EventBootAuthenticated }
func (LoginSuccess) EventName() string           { return EventLoginSuccess }
func (ReloginSuccess) EventName() string         { return EventReloginSuccess }
func (ReloginFailed) EventName() string          { return EventReloginFailed }
func (Logout) EventName() string                 { return EventLogout }
func (SessionExpired) EventName() string         { return EventSessionExpired }
func (IdleDetected) EventName() string           { return EventIdleDetected }
