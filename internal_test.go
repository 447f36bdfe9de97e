package session

import (
	"sync"
	"time"
)

// In-package test doubles. External suites use the richer mocks in
// mocks_test.go; these exist for white-box tests of the timer components,
// which the storage subpackages cannot serve without an import cycle.

type fakeKV struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newFakeKV() *fakeKV {
	return &fakeKV{m: make(map[string][]byte)}
}

func (kv *fakeKV) Get(key string) ([]byte, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	v, ok := kv.m[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (kv *fakeKV) Put(key string, value []byte) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.m[key] = append([]byte(nil), value...)
	return nil
}

func (kv *fakeKV) Delete(key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	delete(kv.m, key)
	return nil
}

type fakeConfig struct {
	idleMinutes int
	interval    time.Duration
	margin      time.Duration
	bootMargin  time.Duration
}

func (c fakeConfig) GetIdleTimeoutMinutes() int             { return c.idleMinutes }
func (c fakeConfig) GetMonitorInterval() time.Duration      { return c.interval }
func (c fakeConfig) GetRefreshWarningMargin() time.Duration { return c.margin }
func (c fakeConfig) GetBootSafetyMargin() time.Duration     { return c.bootMargin }
func (c fakeConfig) GetDefaultRoute() string                { return "/" }
func (c fakeConfig) GetLoginRoute() string                  { return "/login" }
func (c fakeConfig) GetStorageKey() string                  { return "test:session-metadata" }

type fakeNav struct {
	mu      sync.Mutex
	current string
	visited []string
}

func (n *fakeNav) Navigate(route string, replace bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = route
	n.visited = append(n.visited, route)
}

func (n *fakeNav) CurrentRoute() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}
