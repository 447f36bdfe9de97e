package session

import (
	"testing"
	"time"

	"github.com/goliatone/go-logger/glog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The components accept any Logger; glog loggers satisfy the interface
// structurally, so hosts can hand named loggers straight in.
func TestGlogSatisfiesLogger(t *testing.T) {
	base := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("session"),
	)

	var logger Logger = base.GetLogger("bus")
	require.NotNil(t, logger)

	bus := NewBus(WithBusLogger(logger))
	store := NewStore(newFakeKV(), WithStoreLogger(logger))
	detector := NewIdleDetector(fakeConfig{idleMinutes: 15}, bus, store, WithIdleLogger(logger))

	assert.NotNil(t, bus)
	assert.NotNil(t, detector)
}

func TestEngineAcceptsGlogLogger(t *testing.T) {
	base := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("session"),
	)

	engine := New(fakeConfig{idleMinutes: 15, interval: 30 * time.Second, margin: 2 * time.Minute},
		nil, newFakeKV(), &fakeNav{}, nil,
		WithLogger(base.GetLogger("engine")))
	defer engine.Stop()

	assert.NotNil(t, engine.Bus())
}
