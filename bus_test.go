package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	session "github.com/goliatone/go-session"
)

func TestBusDeliversInSubscriptionOrder(t *testing.T) {
	bus := session.NewBus()

	var order []string
	bus.Subscribe(session.EventIdleDetected, func(session.Event) {
		order = append(order, "first")
	})
	bus.Subscribe(session.EventIdleDetected, func(session.Event) {
		order = append(order, "second")
	})
	bus.Subscribe(session.EventIdleDetected, func(session.Event) {
		order = append(order, "third")
	})

	bus.Publish(session.IdleDetected{})

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestBusIsolatesPanickingHandler(t *testing.T) {
	bus := session.NewBus()

	delivered := false
	bus.Subscribe(session.EventLogout, func(session.Event) {
		panic("handler blew up")
	})
	bus.Subscribe(session.EventLogout, func(session.Event) {
		delivered = true
	})

	assert.NotPanics(t, func() {
		bus.Publish(session.Logout{Reason: session.LogoutUserAction})
	})
	assert.True(t, delivered, "handlers after a panicking one must still run")
}

func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	bus := session.NewBus()

	count := 0
	off := bus.Subscribe(session.EventIdleDetected, func(session.Event) {
		count++
	})

	bus.Publish(session.IdleDetected{})
	off()
	bus.Publish(session.IdleDetected{})

	assert.Equal(t, 1, count)
}

func TestBusNoReplayForLateSubscribers(t *testing.T) {
	bus := session.NewBus()

	bus.Publish(session.IdleDetected{})

	seen := false
	bus.Subscribe(session.EventIdleDetected, func(session.Event) {
		seen = true
	})

	assert.False(t, seen, "a subscriber registered after publication never sees the event")
}

func TestBusOnlyMatchingNameDelivered(t *testing.T) {
	bus := session.NewBus()

	var got []string
	bus.Subscribe(session.EventLogout, func(e session.Event) {
		got = append(got, e.EventName())
	})

	bus.Publish(session.IdleDetected{})
	bus.Publish(session.Logout{Reason: session.LogoutIdleTimeout})

	assert.Equal(t, []string{session.EventLogout}, got)
}

func TestBusSubscribeEventsCoversSeveralNames(t *testing.T) {
	bus := session.NewBus()

	var got []string
	off := bus.SubscribeEvents(func(e session.Event) {
		got = append(got, e.EventName())
	}, session.EventLogout, session.EventIdleDetected)

	bus.Publish(session.IdleDetected{})
	bus.Publish(session.Logout{Reason: session.LogoutUserAction})
	off()
	bus.Publish(session.IdleDetected{})

	assert.Equal(t, []string{session.EventIdleDetected, session.EventLogout}, got)
}
