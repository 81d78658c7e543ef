package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

type mapKV struct {
	data     map[string]string
	counters map[string]int64
	lastTTL  time.Duration
}

func newMapKV() *mapKV {
	return &mapKV{data: map[string]string{}, counters: map[string]int64{}}
}

var errMiss = errors.New("redis: nil")

func (m *mapKV) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.data[key] = value.(string)
	m.lastTTL = ttl
	return nil
}

func (m *mapKV) Get(ctx context.Context, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", errMiss
	}
	return v, nil
}

func (m *mapKV) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mapKV) SessionKey(sessionID string) string {
	return "evride:session:" + sessionID
}

func (m *mapKV) IncrCounter(ctx context.Context, name string, window time.Duration) (int64, error) {
	m.counters[name]++
	m.lastTTL = window
	return m.counters[name], nil
}

func TestStoreSaveLoadDelete(t *testing.T) {
	t.Parallel()

	kv := newMapKV()
	store := &Store{kv: kv, ttl: time.Hour}
	ctx := context.Background()

	record := Session{Token: "tok", UserID: "u-1", Email: "ev@example.com"}
	if err := store.Save(ctx, "sess-1", record); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if kv.lastTTL != time.Hour {
		t.Fatalf("expected ttl to be applied, got %v", kv.lastTTL)
	}

	loaded, err := store.Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded != record {
		t.Fatalf("loaded %+v, want %+v", loaded, record)
	}

	if err := store.Delete(ctx, "sess-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
}

func TestRecordLoginFailureCountsPerIdentity(t *testing.T) {
	t.Parallel()

	kv := newMapKV()
	store := &Store{kv: kv, ttl: time.Hour}
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := store.RecordLoginFailure(ctx, "juan@example.com")
		if err != nil {
			t.Fatalf("record failure: %v", err)
		}
		if got != want {
			t.Fatalf("want count %d, got %d", want, got)
		}
	}
	if got, _ := store.RecordLoginFailure(ctx, "other@example.com"); got != 1 {
		t.Fatalf("counters must be per identity, got %d", got)
	}
	if kv.lastTTL != loginFailureWindow {
		t.Fatalf("window not applied, got %v", kv.lastTTL)
	}
}

func TestStoreLoadMissIsGuest(t *testing.T) {
	t.Parallel()

	// The store treats an absent record as guest, but only for the real
	// cache-miss sentinel; other failures must surface.
	kv := newMapKV()
	store := &Store{kv: kv, ttl: time.Hour}

	_, err := store.Load(context.Background(), "missing")
	if err == nil {
		t.Fatal("mapKV miss is not redis.Nil, expected a surfaced error")
	}
}
