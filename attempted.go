package session

import "sync"

// DestinationCache remembers the single route a visitor wanted before being
// challenged. At most one outstanding value exists at a time; it is consumed
// (read then cleared) exactly once by whichever controller performs the
// post-authentication redirect.
type DestinationCache struct {
	mu    sync.Mutex
	route string
}

// NewDestinationCache returns an empty cache.
func NewDestinationCache() *DestinationCache {
	return &DestinationCache{}
}

// Set records the attempted route, replacing any outstanding value.
func (c *DestinationCache) Set(route string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.route = route
}

// Peek returns the outstanding route without clearing it.
func (c *DestinationCache) Peek() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.route
}

// Consume returns the outstanding route and clears it in the same step.
func (c *DestinationCache) Consume() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	route := c.route
	c.route = ""
	return route
}
