// Package httpapi implements session.Transport against a JSON backend with
// cookie-borne credentials, plus the reactive 401 interception path for
// business requests.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	session "github.com/goliatone/go-session"
)

// Refresher is the shared refresh choke point the 401 interceptor funnels
// into. Satisfied by *session.RefreshCoordinator.
type Refresher interface {
	Refresh(ctx context.Context) (bool, error)
}

// Publisher is where the interceptor reports a dead session. Satisfied by
// *session.Bus.
type Publisher interface {
	Publish(event session.Event)
}

// Client talks to the backend. Auth endpoints go through Post (implementing
// session.Transport); everything else goes through Fetch, which intercepts a
// 401 by running one shared refresh and retrying the original request once.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger session.Logger

	refresher    Refresher
	bus          Publisher
	currentRoute func() string
}

var _ session.Transport = (*Client)(nil)

// Option customizes client construction.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(logger session.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client. The replacement should
// carry a cookie jar; credentials ride on HttpOnly cookies.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithCurrentRoute supplies the route reported in session.expired events
// raised from the 401 path.
func WithCurrentRoute(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.currentRoute = fn
		}
	}
}

// New returns a client rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid base URL").
			WithCode(goerrors.CodeBadRequest)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to build cookie jar")
	}

	c := &Client{
		base:         base,
		http:         &http.Client{Jar: jar, Timeout: 30 * time.Second},
		logger:       noopLogger{},
		currentRoute: func() string { return "" },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Bind attaches the refresh coordinator and bus once the engine exists. The
// engine needs the transport to be constructed first, so this closes the
// cycle after the fact.
func (c *Client) Bind(refresher Refresher, bus Publisher) {
	c.refresher = refresher
	c.bus = bus
}

// wire shapes, matching the backend's response envelope.
type wireUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	LoginName   string `json:"login_name"`
}

type wireAuthData struct {
	User *wireUser `json:"user"`
	// Expiries are unix milliseconds; zero means the backend expects the
	// client to derive them from the token's exp claim.
	AccessExpiresAt  int64  `json:"access_expires_at"`
	RefreshExpiresAt int64  `json:"refresh_expires_at"`
	AccessToken      string `json:"access_token,omitempty"`
}

type wireError struct {
	Message string `json:"message"`
}

type wireEnvelope struct {
	IsSuccess bool          `json:"is_success"`
	Data      *wireAuthData `json:"data"`
	Error     *wireError    `json:"error"`
}

// Post implements session.Transport for the auth endpoints.
func (c *Client) Post(ctx context.Context, path string, body any) (*session.Response, error) {
	raw, status, err := c.roundTrip(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}

	var envelope wireEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to decode auth response").
			WithCode(goerrors.CodeBadRequest)
	}

	resp := &session.Response{
		IsSuccess: envelope.IsSuccess && status < 400,
		Status:    status,
	}
	if envelope.Error != nil {
		resp.ErrorMessage = envelope.Error.Message
	}
	if envelope.Data != nil {
		if envelope.Data.User != nil {
			resp.Identity = session.Identity{
				ID:          envelope.Data.User.ID,
				DisplayName: envelope.Data.User.DisplayName,
				LoginName:   envelope.Data.User.LoginName,
			}
		}
		resp.AccessExpiresAt = fromUnixMillis(envelope.Data.AccessExpiresAt)
		resp.RefreshExpiresAt = fromUnixMillis(envelope.Data.RefreshExpiresAt)

		if resp.AccessExpiresAt.IsZero() && envelope.Data.AccessToken != "" {
			expiry, err := session.TokenExpiry(envelope.Data.AccessToken)
			if err != nil {
				c.logger.Warn("unable to derive expiry from access token", "error", err)
			} else {
				resp.AccessExpiresAt = expiry
			}
		}
	}

	return resp, nil
}

// Fetch performs a business request. A 401 from any non-auth endpoint is
// funneled into the shared refresh coordinator exactly as the proactive
// monitor would, then the original request is retried once. When the
// recovery refresh fails, session.expired is published and the session error
// returned.
func (c *Client) Fetch(ctx context.Context, method, path string, body any) ([]byte, int, error) {
	raw, status, err := c.roundTrip(ctx, method, path, body)
	if err != nil {
		return nil, 0, err
	}

	if status != http.StatusUnauthorized || isAuthPath(path) {
		return raw, status, nil
	}

	if c.refresher == nil {
		return raw, status, nil
	}

	renewed, refreshErr := c.refresher.Refresh(ctx)
	if refreshErr != nil {
		// Transport blip during recovery; not a dead session yet.
		return nil, status, refreshErr
	}
	if !renewed {
		c.logger.Info("401 recovery refresh rejected", "path", path)
		if c.bus != nil {
			c.bus.Publish(session.SessionExpired{
				Reason:    session.ExpiredToken,
				LastRoute: c.currentRoute(),
			})
		}
		return nil, status, session.ErrSessionExpired
	}

	return c.roundTrip(ctx, method, path, body)
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body any) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, 0, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to encode request body").
				WithCode(goerrors.CodeBadRequest)
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := c.base.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return nil, 0, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, 0, goerrors.Wrap(err, goerrors.CategoryOperation, "request failed").
			WithCode(goerrors.CodeInternal)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, 0, goerrors.Wrap(err, goerrors.CategoryOperation, "unable to read response body")
	}

	return raw, res.StatusCode, nil
}

func isAuthPath(path string) bool {
	trimmed := strings.TrimPrefix(path, "/")
	return trimmed == session.PathLogin || trimmed == session.PathRefresh || trimmed == session.PathLogout
}

func fromUnixMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
