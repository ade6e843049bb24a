package service

import (
	"context"
	"testing"
	"time"
)

func TestStore_SubscribeReceivesCurrentValueFirst(t *testing.T) {
	store := NewStore("test", 7)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := store.Subscribe(ctx)
	select {
	case v := <-ch:
		if v != 7 {
			t.Fatalf("expected current value 7, got %d", v)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected initial value")
	}
}

func TestStore_SlowSubscriberSeesLatest(t *testing.T) {
	store := NewStore("test", 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := store.Subscribe(ctx)
	for i := 1; i <= 100; i++ {
		store.Set(i)
	}
	select {
	case v := <-ch:
		if v != 100 {
			t.Fatalf("expected coalesced latest value 100, got %d", v)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected a value")
	}
	select {
	case v := <-ch:
		t.Fatalf("expected no pending values, got %d", v)
	default:
	}
}

func TestStore_UpdateAndLastWriteWins(t *testing.T) {
	store := NewStore("test", []string{"a"})
	got := store.Update(func(v []string) []string { return append(append([]string(nil), v...), "b") })
	if len(got) != 2 || store.Get()[1] != "b" {
		t.Fatalf("unexpected value after update: %v", store.Get())
	}
	store.Set([]string{"z"})
	if v := store.Get(); len(v) != 1 || v[0] != "z" {
		t.Fatalf("expected last write to win, got %v", v)
	}
}

func TestStore_SubscriptionEndsWithContext(t *testing.T) {
	store := NewStore("test", "x")
	ctx, cancel := context.WithCancel(context.Background())
	ch := store.Subscribe(ctx)
	<-ch
	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, open := <-ch:
			if !open {
				if store.SubscriberCount() != 0 {
					t.Fatalf("expected subscriber removed")
				}
				store.Set("after close")
				return
			}
		case <-deadline:
			t.Fatalf("expected channel to close after cancel")
		}
	}
}
