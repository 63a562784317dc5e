package taskhub

import (
	"testing"
	"time"
)

func TestSubscribeReceivesChanges(t *testing.T) {
	hub := New(nil)
	sub := hub.Subscribe()
	defer sub.Cancel()

	hub.NotifyTaskChange("a@x.com")

	select {
	case change := <-sub.C:
		if change.Owner != "a@x.com" || change.Seq != 1 {
			t.Fatalf("unexpected change: %+v", change)
		}
	case <-time.After(time.Second):
		t.Fatal("no change delivered")
	}
}

func TestSlowSubscriberSkipsToFreshest(t *testing.T) {
	hub := New(nil)
	sub := hub.Subscribe()
	defer sub.Cancel()

	hub.NotifyTaskChange("a@x.com")
	hub.NotifyTaskChange("b@x.com")
	hub.NotifyTaskChange("c@x.com")

	change := <-sub.C
	if change.Seq != 3 || change.Owner != "c@x.com" {
		t.Fatalf("expected only the freshest change, got %+v", change)
	}
	select {
	case extra, ok := <-sub.C:
		if ok {
			t.Fatalf("stale change still queued: %+v", extra)
		}
	default:
	}
}

func TestCancelReleasesSubscription(t *testing.T) {
	hub := New(nil)
	sub := hub.Subscribe()
	sub.Cancel()
	sub.Cancel() // idempotent

	if _, ok := <-sub.C; ok {
		t.Fatal("channel should be closed after cancel")
	}

	// Publishing after cancel must not panic or deliver.
	hub.NotifyTaskChange("a@x.com")
}

func TestCloseCancelsEverything(t *testing.T) {
	hub := New(nil)
	first := hub.Subscribe()
	second := hub.Subscribe()

	hub.Close()

	if _, ok := <-first.C; ok {
		t.Fatal("first channel still open after Close")
	}
	if _, ok := <-second.C; ok {
		t.Fatal("second channel still open after Close")
	}

	// Subscriptions after close come back pre-cancelled.
	late := hub.Subscribe()
	if _, ok := <-late.C; ok {
		t.Fatal("late subscription should be closed")
	}
}
