package session

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity is the user record owned by the Store. It is replaced wholesale on
// login/relogin/boot and cleared on logout.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	LoginName   string `json:"login_name"`
}

// IsZero reports whether no identity is known.
func (i Identity) IsZero() bool {
	return i.ID == ""
}

// Credentials is the login/relogin payload submitted by the host UI.
type Credentials struct {
	LoginName string `json:"login_name"`
	Password  string `json:"password"`
}

// LoginContext carries caller-side context for a full-page login, most
// importantly the route the visitor wanted before being challenged.
type LoginContext struct {
	AttemptedRoute string
}

// Transport paths consumed by the engine.
const (
	PathLogin   = "auth/login"
	PathRefresh = "auth/refresh"
	PathLogout  = "auth/logout"
)

// Response is the transport's normalized answer to a Post call. A transport
// error (nil Response) means the backend was never reached; IsSuccess=false
// means the backend answered and rejected the request.
type Response struct {
	IsSuccess        bool
	Status           int
	Identity         Identity
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	ErrorMessage     string
}

// Transport is the black-box request/response function the engine talks
// through. The engine reacts only to Response fields, never to wire details.
type Transport interface {
	Post(ctx context.Context, path string, body any) (*Response, error)
}

// Navigator performs route changes on behalf of the Access controller and
// reports where the visitor currently is.
type Navigator interface {
	Navigate(route string, replace bool)
	CurrentRoute() string
}

// ReloginPrompt describes the blocking re-authentication overlay to the host.
type ReloginPrompt struct {
	Reason ExpiredReason
	// LoginName pre-fills the locked-session prompt with the last known
	// login name, so the visitor only re-enters a password.
	LoginName string
}

// ModalPresenter renders the blocking credential-entry overlay. The Modal
// controller guarantees Open is never called twice without a Close between.
type ModalPresenter interface {
	Open(prompt ReloginPrompt)
	Close()
}

// KeyValue is the durable store session metadata survives reloads in.
// Get returns (nil, nil) for a missing key.
type KeyValue interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
}

// Config holds engine options
type Config interface {
	GetIdleTimeoutMinutes() int
	GetMonitorInterval() time.Duration
	GetRefreshWarningMargin() time.Duration
	GetBootSafetyMargin() time.Duration
	GetDefaultRoute() string
	GetLoginRoute() string
	GetStorageKey() string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SESSION "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] SESSION "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SESSION "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SESSION "+newline(format), args...)
}

func newline(format string) string {
	if strings.HasSuffix(format, "\n") {
		return format
	}
	return format + "\n"
}
