// Package fiberauth is a reference backend speaking the cookie-and-envelope
// protocol the httpapi transport expects. It exists for demos and integration
// tests; production backends implement the same wire contract with their own
// stack.
package fiberauth

import (
	"net"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	session "github.com/goliatone/go-session"
)

const (
	refreshCookieName = "refresh_session"
	accessCookieName  = "access_session"
)

// User is a demo account the server accepts credentials for.
type User struct {
	ID          string
	DisplayName string
	LoginName   string
	Password    string
}

type refreshSession struct {
	user      User
	expiresAt time.Time
}

// Server hosts the auth endpoints plus a sample protected API route. Refresh
// credentials ride on an HttpOnly cookie; the access credential is a short
// lived JWT delivered both in the response envelope and as a cookie for the
// protected routes.
type Server struct {
	app    *fiber.App
	logger session.Logger
	secret []byte
	now    func() time.Time

	accessTTL  time.Duration
	refreshTTL time.Duration

	mu       sync.Mutex
	users    map[string]User
	sessions map[string]refreshSession
}

// Option customizes server construction.
type Option func(*Server)

// WithUser registers a demo account. A missing ID gets a random UUID.
func WithUser(user User) Option {
	return func(s *Server) {
		if user.ID == "" {
			user.ID = uuid.NewString()
		}
		s.users[user.LoginName] = user
	}
}

// WithSecret sets the JWT signing secret.
func WithSecret(secret []byte) Option {
	return func(s *Server) {
		if len(secret) > 0 {
			s.secret = secret
		}
	}
}

// WithAccessTTL sets the access credential lifetime.
func WithAccessTTL(ttl time.Duration) Option {
	return func(s *Server) {
		if ttl > 0 {
			s.accessTTL = ttl
		}
	}
}

// WithRefreshTTL sets the refresh credential lifetime.
func WithRefreshTTL(ttl time.Duration) Option {
	return func(s *Server) {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
	}
}

// WithLogger sets the server logger.
func WithLogger(logger session.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) Option {
	return func(s *Server) {
		if clock != nil {
			s.now = clock
		}
	}
}

// New builds a server with its routes registered.
func New(opts ...Option) *Server {
	s := &Server{
		logger:     noopLogger{},
		secret:     []byte(uuid.NewString()),
		now:        time.Now,
		accessTTL:  15 * time.Minute,
		refreshTTL: 8 * time.Hour,
		users:      map[string]User{},
		sessions:   map[string]refreshSession{},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.app = fiber.New(fiber.Config{DisableStartupMessage: true})
	s.app.Post("/"+session.PathLogin, s.handleLogin)
	s.app.Post("/"+session.PathRefresh, s.handleRefresh)
	s.app.Post("/"+session.PathLogout, s.handleLogout)
	s.app.Get("/api/ping", s.requireAccess, s.handlePing)

	return s
}

// App exposes the underlying fiber app for route additions.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves on addr, blocking.
func (s *Server) Listen(addr string) error { return s.app.Listen(addr) }

// Serve accepts connections from ln, blocking. Tests pass a random-port
// listener here.
func (s *Server) Serve(ln net.Listener) error { return s.app.Listener(ln) }

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error { return s.app.Shutdown() }

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var creds session.Credentials
	if err := c.BodyParser(&creds); err != nil {
		return respondError(c, fiber.StatusBadRequest, "malformed credentials payload")
	}

	s.mu.Lock()
	user, ok := s.users[creds.LoginName]
	s.mu.Unlock()

	if !ok || user.Password != creds.Password {
		s.logger.Info("login rejected", "login_name", creds.LoginName)
		return respondError(c, fiber.StatusUnauthorized, "invalid credentials")
	}

	return s.establish(c, user)
}

func (s *Server) handleRefresh(c *fiber.Ctx) error {
	token := c.Cookies(refreshCookieName)
	if token == "" {
		return respondError(c, fiber.StatusUnauthorized, "no refresh credential")
	}

	s.mu.Lock()
	sess, ok := s.sessions[token]
	if ok && s.now().After(sess.expiresAt) {
		delete(s.sessions, token)
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		return respondError(c, fiber.StatusUnauthorized, "refresh credential expired")
	}

	// Rotation: the old refresh credential dies with this call.
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()

	return s.establish(c, sess.user)
}

func (s *Server) handleLogout(c *fiber.Ctx) error {
	if token := c.Cookies(refreshCookieName); token != "" {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
	}

	expireCookie(c, refreshCookieName)
	expireCookie(c, accessCookieName)

	return c.JSON(fiber.Map{"is_success": true})
}

// establish mints fresh credentials for user and writes the auth envelope.
func (s *Server) establish(c *fiber.Ctx, user User) error {
	now := s.now()
	accessExpiry := now.Add(s.accessTTL)
	refreshExpiry := now.Add(s.refreshTTL)

	accessToken, err := s.mintAccessToken(user, now, accessExpiry)
	if err != nil {
		s.logger.Error("unable to mint access token", "error", err)
		return respondError(c, fiber.StatusInternalServerError, "unable to mint credentials")
	}

	refreshToken := uuid.NewString()
	s.mu.Lock()
	s.sessions[refreshToken] = refreshSession{user: user, expiresAt: refreshExpiry}
	s.mu.Unlock()

	c.Cookie(&fiber.Cookie{
		Name:     refreshCookieName,
		Value:    refreshToken,
		Expires:  refreshExpiry,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	c.Cookie(&fiber.Cookie{
		Name:     accessCookieName,
		Value:    accessToken,
		Expires:  accessExpiry,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.JSON(fiber.Map{
		"is_success": true,
		"data": fiber.Map{
			"user": fiber.Map{
				"id":           user.ID,
				"display_name": user.DisplayName,
				"login_name":   user.LoginName,
			},
			"access_expires_at":  accessExpiry.UnixMilli(),
			"refresh_expires_at": refreshExpiry.UnixMilli(),
			"access_token":       accessToken,
		},
	})
}

func (s *Server) mintAccessToken(user User, now, expiry time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   user.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiry),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// requireAccess guards API routes with the access cookie.
func (s *Server) requireAccess(c *fiber.Ctx) error {
	raw := c.Cookies(accessCookieName)
	if raw == "" {
		return respondError(c, fiber.StatusUnauthorized, "missing access credential")
	}

	_, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return respondError(c, fiber.StatusUnauthorized, "access credential rejected")
	}

	return c.Next()
}

func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"pong": true})
}

func respondError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"is_success": false,
		"error":      fiber.Map{"message": message},
	})
}

func expireCookie(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
