package stream

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"go.uber.org/goleak"
)

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case msg := <-c.Send:
		var ev Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		return ev
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for event")
	}
	return Event{}
}

func TestHubPublishLocal(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	hub := NewHub(nil)
	client := hub.Register("user-1")
	defer hub.Unregister(client)
	other := hub.Register("user-2")
	defer hub.Unregister(other)

	hub.Notify(context.Background(), "user-1", EventPreferencesUpdated)

	ev := receive(t, client)
	if ev.Type != EventPreferencesUpdated || ev.UserID != "user-1" || ev.At.IsZero() {
		t.Fatalf("unexpected event %+v", ev)
	}
	select {
	case <-other.Send:
		t.Fatalf("event leaked to another user")
	default:
	}
}

func TestUnregisterClosesOnce(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("user-1")
	if hub.Connected("user-1") != 1 {
		t.Fatalf("expected one client")
	}
	hub.Unregister(client)
	hub.Unregister(client)
	if _, ok := <-client.Send; ok {
		t.Fatalf("expected channel closed")
	}
	if hub.Connected("user-1") != 0 {
		t.Fatalf("expected no clients")
	}
}

func TestChannelHelpers(t *testing.T) {
	ch := redisChannel("abc")
	if ch != "prefs:abc:events" {
		t.Fatalf("unexpected channel %q", ch)
	}
	if userIDFromChannel(ch) != "abc" {
		t.Fatalf("unexpected user id")
	}
	for _, bad := range []string{"bad", "prefs::events", "tracking:abc:events"} {
		if userIDFromChannel(bad) != "" {
			t.Fatalf("expected empty user id for %q", bad)
		}
	}
}

func TestHubFanOutAcrossInstances(t *testing.T) {
	s := miniredis.RunT(t)
	rdbA := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer rdbA.Close()
	rdbB := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer rdbB.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hubA := NewHub(rdbA)
	hubB := NewHub(rdbB)
	go hubA.Run(ctx)
	go hubB.Run(ctx)

	local := hubA.Register("user-1")
	defer hubA.Unregister(local)
	remote := hubB.Register("user-1")
	defer hubB.Unregister(remote)

	deadline := time.Now().Add(time.Second)
	for s.PubSubNumPat() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	hubA.Publish(ctx, Event{Type: EventGoalUpdated, UserID: "user-1"})

	if ev := receive(t, local); ev.Type != EventGoalUpdated {
		t.Fatalf("unexpected local event %+v", ev)
	}
	if ev := receive(t, remote); ev.Type != EventGoalUpdated {
		t.Fatalf("unexpected remote event %+v", ev)
	}
	select {
	case <-local.Send:
		t.Fatalf("origin hub delivered its own publication twice")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestForwardDropsMalformed(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("user-1")
	defer hub.Unregister(client)

	hub.forward(&redis.Message{Channel: redisChannel("user-1"), Payload: "{not json"})
	select {
	case <-client.Send:
		t.Fatalf("malformed payload should be dropped")
	default:
	}
}

func TestRunWithoutRedisReturns(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	done := make(chan struct{})
	go func() {
		NewHub(nil).Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run should return immediately without redis")
	}
}
