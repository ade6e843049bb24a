package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type mockRedisKV struct {
	data    map[string]string
	lastDel []string
	getErr  error
	setErr  error
}

func newMockRedisKV() *mockRedisKV {
	return &mockRedisKV{data: map[string]string{}}
}

func (m *mockRedisKV) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if m.setErr != nil {
		cmd.SetErr(m.setErr)
		return cmd
	}
	m.data[key] = value.(string)
	cmd.SetVal("OK")
	return cmd
}

func (m *mockRedisKV) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if m.getErr != nil {
		cmd.SetErr(m.getErr)
		return cmd
	}
	v, ok := m.data[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(v)
	return cmd
}

func (m *mockRedisKV) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	m.lastDel = keys
	for _, k := range keys {
		delete(m.data, k)
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(int64(len(keys)))
	return cmd
}

func (m *mockRedisKV) Keys(ctx context.Context, _ string) *redis.StringSliceCmd {
	cmd := redis.NewStringSliceCmd(ctx)
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	cmd.SetVal(keys)
	return cmd
}

func TestRedisStore_NilClient(t *testing.T) {
	if NewRedisStore(nil) != nil {
		t.Fatalf("expected nil store for nil client")
	}
}

func TestRedisStore_RoundTripWithPrefix(t *testing.T) {
	mock := newMockRedisKV()
	store := newRedisStore(mock)
	ctx := context.Background()

	if err := store.SetItem(ctx, "company_number", "CN1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if mock.data["riskadvisor:storage:company_number"] != `"CN1"` {
		t.Fatalf("expected JSON value under prefixed key, got %+v", mock.data)
	}

	var got string
	ok, err := store.GetItem(ctx, "company_number", &got)
	if err != nil || !ok || got != "CN1" {
		t.Fatalf("unexpected get result %q ok=%v err=%v", got, ok, err)
	}
}

func TestRedisStore_MissingKey(t *testing.T) {
	store := newRedisStore(newMockRedisKV())
	var got string
	ok, err := store.GetItem(context.Background(), "user_id", &got)
	if err != nil || ok {
		t.Fatalf("expected missing key without error, ok=%v err=%v", ok, err)
	}
}

func TestRedisStore_PropagatesErrors(t *testing.T) {
	mock := newMockRedisKV()
	mock.getErr = errors.New("boom")
	mock.setErr = errors.New("boom")
	store := newRedisStore(mock)

	var got string
	if _, err := store.GetItem(context.Background(), "user_id", &got); err == nil {
		t.Fatalf("expected get error")
	}
	if err := store.SetItem(context.Background(), "user_id", "u1"); err == nil {
		t.Fatalf("expected set error")
	}
}

func TestRedisStore_ClearDeletesPrefixedKeys(t *testing.T) {
	mock := newMockRedisKV()
	store := newRedisStore(mock)
	ctx := context.Background()
	_ = store.SetItem(ctx, "a", 1)
	_ = store.SetItem(ctx, "b", 2)

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(mock.data) != 0 || len(mock.lastDel) != 2 {
		t.Fatalf("expected both keys deleted, data=%+v del=%+v", mock.data, mock.lastDel)
	}
}
