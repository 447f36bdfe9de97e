package session

import (
	"context"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

// Service orchestrates the session state machine: boot, login, relogin, and
// logout. Conceptually a session moves Booting -> {NeverAuthenticated,
// SessionInvalid, Authenticated} and from Authenticated to {Authenticated,
// Paused, LoggedOut}; the states are not stored, they emerge from the store
// contents and the events published here.
type Service struct {
	bus       *Bus
	store     *Store
	dest      *DestinationCache
	refresher *RefreshCoordinator
	transport Transport
	cfg       Config
	logger    Logger
	now       func() time.Time

	bootOnce sync.Once
}

// NewService wires the auth service against its collaborators.
func NewService(cfg Config, transport Transport, bus *Bus, store *Store, dest *DestinationCache, refresher *RefreshCoordinator, opts ...ServiceOption) *Service {
	s := &Service{
		bus:       bus,
		store:     store,
		dest:      dest,
		refresher: refresher,
		transport: transport,
		cfg:       cfg,
		logger:    defLogger{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ServiceOption customizes service construction.
type ServiceOption func(*Service)

// WithServiceLogger sets the service logger.
func WithServiceLogger(logger Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithServiceClock injects a custom clock (useful for tests).
func WithServiceClock(clock func() time.Time) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.now = clock
		}
	}
}

func validateCredentials(creds Credentials) error {
	err := validation.Errors{
		"login_name": validation.Validate(creds.LoginName, validation.Required),
		"password":   validation.Validate(creds.Password, validation.Required),
	}.Filter()
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid credentials payload").
			WithTextCode(textCodeInvalidCredentials).
			WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

// CheckSessionOnBoot resolves the initial authentication state. It runs at
// most once per Service lifetime; any concurrent or later call waits for and
// shares the first outcome instead of issuing duplicate network calls.
//
// Outcomes, as bus events: boot.never-authenticated when no prior identity
// exists locally; boot.authenticated when the access credential is still
// valid (with a safety margin, no network call) or when one silent refresh
// succeeds; boot.history-invalid otherwise, with the tokens locked, the
// identity retained, and currentRoute preserved as the attempted destination.
func (s *Service) CheckSessionOnBoot(ctx context.Context, currentRoute string) {
	s.bootOnce.Do(func() {
		s.boot(ctx, currentRoute)
	})
}

func (s *Service) boot(ctx context.Context, currentRoute string) {
	meta := s.store.Get()
	if meta == nil || meta.Identity.IsZero() {
		s.logger.Debug("boot: no prior identity")
		s.bus.Publish(BootNeverAuthenticated{})
		return
	}

	now := s.now()

	if meta.AccessValidAt(now, s.cfg.GetBootSafetyMargin()) {
		s.logger.Info("boot: access credential still valid", "user", meta.Identity.LoginName)
		s.bus.Publish(BootAuthenticated{
			LastRoute:       currentRoute,
			Identity:        meta.Identity,
			AccessExpiresAt: meta.AccessExpiresAt,
		})
		return
	}

	if meta.RefreshValidAt(now) {
		renewed, err := s.refresher.Refresh(ctx)
		if err != nil {
			s.logger.Warn("boot: silent refresh failed", "error", err)
		}
		if renewed {
			if fresh := s.store.Get(); fresh != nil {
				s.logger.Info("boot: session restored via refresh", "user", fresh.Identity.LoginName)
				s.bus.Publish(BootAuthenticated{
					LastRoute:       currentRoute,
					Identity:        fresh.Identity,
					AccessExpiresAt: fresh.AccessExpiresAt,
				})
				return
			}
		}
	}

	s.store.LockTokens()
	s.dest.Set(currentRoute)
	s.logger.Info("boot: prior session invalid, challenge required")
	s.bus.Publish(BootHistoryInvalid{LastRoute: currentRoute})
}

// Login performs an explicit full-page login. On failure the error propagates
// to the calling UI and no event is published; on success the metadata is
// stored and login.success carries the caller-supplied attempted route.
func (s *Service) Login(ctx context.Context, creds Credentials, loginCtx LoginContext) error {
	if err := validateCredentials(creds); err != nil {
		return err
	}

	resp, err := s.transport.Post(ctx, PathLogin, creds)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "login request failed").
			WithTextCode(textCodeNetworkUnavailable)
	}

	if !resp.IsSuccess {
		return goerrors.New(firstNonEmpty(resp.ErrorMessage, "credentials rejected"), goerrors.CategoryAuth).
			WithTextCode(textCodeCredentialsRejected).
			WithCode(goerrors.CodeUnauthorized)
	}

	// First login means no identity existed before this call, locked or not.
	prior := s.store.Get()
	isFirstLogin := prior == nil || prior.Identity.IsZero()

	s.store.Set(SessionMetadata{
		Identity:         resp.Identity,
		AccessExpiresAt:  resp.AccessExpiresAt,
		RefreshExpiresAt: resp.RefreshExpiresAt,
	})
	s.store.RememberLoginName(creds.LoginName)

	s.logger.Info("login succeeded", "user", resp.Identity.LoginName, "first_login", isFirstLogin)
	s.bus.Publish(LoginSuccess{
		Identity:        resp.Identity,
		IsFirstLogin:    isFirstLogin,
		AttemptedRoute:  loginCtx.AttemptedRoute,
		AccessExpiresAt: resp.AccessExpiresAt,
	})
	return nil
}

// Relogin re-enters credentials for a paused session. An expected rejection
// never surfaces as an error: the outcome is signaled through relogin.failed
// plus the returned flag. The error return is non-nil only for
// transport-level failure, as extra context for inline UI display; the bus
// event remains the canonical signal either way.
func (s *Service) Relogin(ctx context.Context, creds Credentials) (bool, error) {
	if err := validateCredentials(creds); err != nil {
		s.bus.Publish(ReloginFailed{Reason: ReloginFailCredentials})
		return false, nil
	}

	resp, err := s.transport.Post(ctx, PathLogin, creds)
	if err != nil {
		s.logger.Warn("relogin transport failure", "error", err)
		s.bus.Publish(ReloginFailed{Reason: ReloginFailUnknown})
		return false, goerrors.Wrap(err, goerrors.CategoryOperation, "relogin request failed").
			WithTextCode(textCodeNetworkUnavailable)
	}

	if !resp.IsSuccess {
		s.logger.Info("relogin rejected", "status", resp.Status)
		s.bus.Publish(ReloginFailed{Reason: ReloginFailCredentials})
		return false, nil
	}

	s.store.Set(SessionMetadata{
		Identity:         resp.Identity,
		AccessExpiresAt:  resp.AccessExpiresAt,
		RefreshExpiresAt: resp.RefreshExpiresAt,
	})
	s.store.RememberLoginName(creds.LoginName)

	s.logger.Info("relogin succeeded", "user", resp.Identity.LoginName)
	s.bus.Publish(ReloginSuccess{
		Identity:        resp.Identity,
		AccessExpiresAt: resp.AccessExpiresAt,
	})
	return true, nil
}

// Logout clears the session unconditionally. The server-side invalidation is
// best effort: its failure is logged and swallowed, never blocking the local
// effect.
func (s *Service) Logout(ctx context.Context) {
	if _, err := s.transport.Post(ctx, PathLogout, nil); err != nil {
		s.logger.Warn("server side logout failed, clearing locally anyway", "error", err)
	}

	s.store.Clear()
	s.bus.Publish(Logout{Reason: LogoutUserAction})
}

// TryRefreshToken exposes the shared refresh choke point, mirroring what the
// reactive 401 interceptor and the proactive monitor call.
func (s *Service) TryRefreshToken(ctx context.Context) (bool, error) {
	return s.refresher.Refresh(ctx)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
