package session_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	session "github.com/goliatone/go-session"
)

// MockTransport implements session.Transport
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Post(ctx context.Context, path string, body any) (*session.Response, error) {
	args := m.Called(ctx, path, body)
	if resp := args.Get(0); resp != nil {
		return resp.(*session.Response), args.Error(1)
	}
	return nil, args.Error(1)
}

// mapKV is a minimal in-memory session.KeyValue for tests.
type mapKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapKV() *mapKV {
	return &mapKV{data: map[string][]byte{}}
}

func (kv *mapKV) Get(key string) ([]byte, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	return kv.data[key], nil
}

func (kv *mapKV) Put(key string, value []byte) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.data[key] = append([]byte(nil), value...)
	return nil
}

func (kv *mapKV) Delete(key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	delete(kv.data, key)
	return nil
}

// recorderNav captures navigation calls.
type navCall struct {
	route   string
	replace bool
}

type recorderNav struct {
	mu      sync.Mutex
	current string
	calls   []navCall
}

func (n *recorderNav) Navigate(route string, replace bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, navCall{route: route, replace: replace})
	n.current = route
}

func (n *recorderNav) CurrentRoute() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

func (n *recorderNav) last() (navCall, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.calls) == 0 {
		return navCall{}, false
	}
	return n.calls[len(n.calls)-1], true
}

// recorderPresenter captures overlay open/close calls.
type recorderPresenter struct {
	mu     sync.Mutex
	opens  []session.ReloginPrompt
	closes int
}

func (p *recorderPresenter) Open(prompt session.ReloginPrompt) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opens = append(p.opens, prompt)
}

func (p *recorderPresenter) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closes++
}

func (p *recorderPresenter) openCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.opens)
}

// stubConfig implements session.Config with overridable fields.
type stubConfig struct {
	idleMinutes     int
	monitorInterval time.Duration
	warningMargin   time.Duration
	bootMargin      time.Duration
	defaultRoute    string
	loginRoute      string
	storageKey      string
}

func newStubConfig() *stubConfig {
	return &stubConfig{
		idleMinutes:     15,
		monitorInterval: 30 * time.Second,
		warningMargin:   2 * time.Minute,
		bootMargin:      10 * time.Second,
		defaultRoute:    "/",
		loginRoute:      "/login",
		storageKey:      "test:session-metadata",
	}
}

func (c *stubConfig) GetIdleTimeoutMinutes() int             { return c.idleMinutes }
func (c *stubConfig) GetMonitorInterval() time.Duration      { return c.monitorInterval }
func (c *stubConfig) GetRefreshWarningMargin() time.Duration { return c.warningMargin }
func (c *stubConfig) GetBootSafetyMargin() time.Duration     { return c.bootMargin }
func (c *stubConfig) GetDefaultRoute() string                { return c.defaultRoute }
func (c *stubConfig) GetLoginRoute() string                  { return c.loginRoute }
func (c *stubConfig) GetStorageKey() string                  { return c.storageKey }

// eventRecorder collects every event published for a set of names.
type eventRecorder struct {
	mu     sync.Mutex
	events []session.Event
}

func recordEvents(bus *session.Bus, names ...string) *eventRecorder {
	r := &eventRecorder{}
	bus.SubscribeEvents(func(event session.Event) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, event)
	}, names...)
	return r
}

func (r *eventRecorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventName())
	}
	return out
}

func (r *eventRecorder) all() []session.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]session.Event(nil), r.events...)
}

var allEventNames = []string{
	session.EventBootNeverAuthenticated,
	session.EventBootHistoryInvalid,
	session.EventBootAuthenticated,
	session.EventLoginSuccess,
	session.EventReloginSuccess,
	session.EventReloginFailed,
	session.EventLogout,
	session.EventSessionExpired,
	session.EventIdleDetected,
}

func testIdentity() session.Identity {
	return session.Identity{ID: "u-1", DisplayName: "Ada Lovelace", LoginName: "ada"}
}

func successResponse(now time.Time) *session.Response {
	return &session.Response{
		IsSuccess:        true,
		Status:           200,
		Identity:         testIdentity(),
		AccessExpiresAt:  now.Add(15 * time.Minute),
		RefreshExpiresAt: now.Add(8 * time.Hour),
	}
}
