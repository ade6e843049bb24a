package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestIdentityRepository_DefaultsAndPersistsGeneratedUser(t *testing.T) {
	store, _ := NewFileStore(t.TempDir())
	repo := &kvIdentityRepository{
		store: store,
		now:   func() time.Time { return time.UnixMilli(1700000000000) },
	}

	identity, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if identity.CompanyNumber != DefaultCompanyNumber {
		t.Fatalf("expected default company, got %q", identity.CompanyNumber)
	}
	if identity.UserID != "user_1700000000000" {
		t.Fatalf("unexpected generated user id %q", identity.UserID)
	}

	repo.now = func() time.Time { return time.UnixMilli(1800000000000) }
	again, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.UserID != identity.UserID {
		t.Fatalf("expected generated id to be stable, got %q vs %q", again.UserID, identity.UserID)
	}
}

func TestIdentityRepository_SaveSkipsBlankValues(t *testing.T) {
	store, _ := NewFileStore(t.TempDir())
	repo := NewIdentityRepository(store)
	ctx := context.Background()

	if err := repo.Save(ctx, Identity{CompanyNumber: " CN102269887 ", UserID: "1166505"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(ctx, Identity{CompanyNumber: "", UserID: "  "}); err != nil {
		t.Fatalf("save blanks: %v", err)
	}

	identity, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if identity.CompanyNumber != "CN102269887" || identity.UserID != "1166505" {
		t.Fatalf("unexpected identity %+v", identity)
	}
}

func TestIdentityRepository_ConcurrentLoadsShareGeneratedUser(t *testing.T) {
	store, _ := NewFileStore(t.TempDir())
	var tick atomic.Int64
	repo := &kvIdentityRepository{
		store: store,
		now:   func() time.Time { return time.UnixMilli(1700000000000 + tick.Add(1)) },
	}

	const callers = 8
	ids := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			identity, err := repo.Load(context.Background())
			if err != nil {
				t.Errorf("load: %v", err)
				return
			}
			ids[i] = identity.UserID
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("expected one generated user id, got %v", ids)
		}
	}
	if tick.Load() != 1 {
		t.Fatalf("expected a single generation, got %d", tick.Load())
	}
}

func TestIdentityRepository_WatchEmitsOnIdentityChanges(t *testing.T) {
	store, _ := NewFileStore(t.TempDir())
	repo := NewIdentityRepository(store)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := repo.Save(ctx, Identity{CompanyNumber: "CN1", UserID: "u1"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	updates := repo.Watch(ctx)
	if err := store.SetItem(ctx, "unrelated", 1); err != nil {
		t.Fatalf("set unrelated: %v", err)
	}
	if err := repo.Save(ctx, Identity{CompanyNumber: "CN2"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	select {
	case identity := <-updates:
		if identity.CompanyNumber != "CN2" || identity.UserID != "u1" {
			t.Fatalf("unexpected identity %+v", identity)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected identity update")
	}

	cancel()
	deadline := time.After(time.Second)
	for {
		select {
		case _, open := <-updates:
			if !open {
				return
			}
		case <-deadline:
			t.Fatalf("expected watch channel to close")
		}
	}
}
