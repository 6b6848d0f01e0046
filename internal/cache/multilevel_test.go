package cache

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeStore is an in-memory Store double with call counters and a
// switchable failure mode, standing in for the remote tier.
type fakeStore struct {
	mu   sync.Mutex
	data map[string][]byte

	gets, sets, deletes int
	fail                bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string][]byte{}}
}

var errFake = errors.New("fake store down")

func (f *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.fail {
		return nil, errFake
	}
	v, ok := f.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if f.fail {
		return errFake
	}
	f.data[key] = value
	return nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.fail {
		return errFake
	}
	delete(f.data, key)
	return nil
}

func (f *fakeStore) Exists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return false, errFake
	}
	_, ok := f.data[key]
	return ok, nil
}

func (f *fakeStore) Ping(context.Context) error {
	if f.fail {
		return errFake
	}
	return nil
}

func (f *fakeStore) Close() error { return nil }

var _ Store = (*fakeStore)(nil)

func newTestMulti(l2 Store, strategy Strategy) *MultiLevel {
	return NewMultiLevel(newTestMemory(100), l2, MultiLevelConfig{
		Strategy: strategy,
	})
}

func TestMultiLevel_BackfillOnRemoteHit(t *testing.T) {
	remote := newFakeStore()
	remote.data["k"] = []byte("v")

	ml := newTestMulti(remote, StrategyMemoryFirst)
	defer ml.Close()
	ctx := context.Background()

	v, err := ml.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(v, []byte("v")) {
		t.Fatalf("got %q", v)
	}

	// Second read must be served by Tier 1: the remote is not touched.
	before := remote.gets
	if _, err := ml.Get(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if remote.gets != before {
		t.Fatalf("second get hit the remote (%d -> %d gets)", before, remote.gets)
	}

	s := ml.Stats()
	if s.RemoteHits != 1 || s.Memory.Hits != 1 {
		t.Fatalf("stats = %+v", s)
	}
}

func TestMultiLevel_MissInBothTiers(t *testing.T) {
	ml := newTestMulti(newFakeStore(), StrategyMemoryFirst)
	defer ml.Close()

	if _, err := ml.Get(context.Background(), "nope"); !IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if s := ml.Stats(); s.RemoteMisses != 1 {
		t.Fatalf("stats = %+v", s)
	}
}

func TestMultiLevel_RemoteFailureDegradesToMiss(t *testing.T) {
	remote := newFakeStore()
	remote.fail = true

	ml := newTestMulti(remote, StrategyMemoryFirst)
	defer ml.Close()
	ctx := context.Background()

	// A down remote never surfaces as an error on reads.
	if _, err := ml.Get(ctx, "k"); !IsNotFound(err) {
		t.Fatalf("expected miss, got %v", err)
	}

	// Writes still land in Tier 1 and keep serving.
	if err := ml.Set(ctx, "k", []byte("v"), nil); err != nil {
		t.Fatal(err)
	}
	if v, err := ml.Get(ctx, "k"); err != nil || !bytes.Equal(v, []byte("v")) {
		t.Fatalf("tier 1 should serve: %q, %v", v, err)
	}

	if s := ml.Stats(); s.RemoteErrors < 2 {
		t.Fatalf("remote errors not counted: %+v", s)
	}
}

func TestMultiLevel_NoRemote(t *testing.T) {
	ml := newTestMulti(nil, StrategyMemoryFirst)
	defer ml.Close()
	ctx := context.Background()

	if err := ml.Set(ctx, "k", []byte("v"), nil); err != nil {
		t.Fatal(err)
	}
	if v, err := ml.Get(ctx, "k"); err != nil || !bytes.Equal(v, []byte("v")) {
		t.Fatalf("got %q, %v", v, err)
	}
	if _, err := ml.Get(ctx, "other"); !IsNotFound(err) {
		t.Fatalf("expected miss, got %v", err)
	}
	if err := ml.Ping(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestMultiLevel_SetWritesBothTiers(t *testing.T) {
	for _, strategy := range []Strategy{StrategyMemoryFirst, StrategyRemoteFirst, StrategyWriteThrough} {
		t.Run(string(strategy), func(t *testing.T) {
			remote := newFakeStore()
			ml := newTestMulti(remote, strategy)
			defer ml.Close()
			ctx := context.Background()

			if err := ml.Set(ctx, "k", []byte("v"), nil); err != nil {
				t.Fatal(err)
			}
			if remote.sets != 1 {
				t.Fatalf("remote sets = %d", remote.sets)
			}
			if !bytes.Equal(remote.data["k"], []byte("v")) {
				t.Fatal("remote missing value")
			}
			if v, _ := ml.l1.Get(ctx, "k"); !bytes.Equal(v, []byte("v")) {
				t.Fatal("tier 1 missing value")
			}
		})
	}
}

func TestMultiLevel_OptionsOverrideStrategy(t *testing.T) {
	remote := newFakeStore()
	remote.fail = true

	ml := newTestMulti(remote, StrategyMemoryFirst)
	defer ml.Close()

	// remote-first with a failing remote still succeeds via Tier 1.
	err := ml.Set(context.Background(), "k", []byte("v"), &Options{
		Strategy: StrategyRemoteFirst,
	})
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := ml.l1.Get(context.Background(), "k"); !bytes.Equal(v, []byte("v")) {
		t.Fatal("tier 1 missing value")
	}
}

func TestMultiLevel_DeleteBothTiers(t *testing.T) {
	remote := newFakeStore()
	ml := newTestMulti(remote, StrategyMemoryFirst)
	defer ml.Close()
	ctx := context.Background()

	_ = ml.Set(ctx, "k", []byte("v"), nil)
	if err := ml.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}

	if _, err := ml.Get(ctx, "k"); !IsNotFound(err) {
		t.Fatal("expected miss after delete")
	}
	if _, ok := remote.data["k"]; ok {
		t.Fatal("remote copy should be gone")
	}
}

func TestMultiLevel_ClearIsTierOneOnly(t *testing.T) {
	remote := newFakeStore()
	ml := newTestMulti(remote, StrategyMemoryFirst)
	defer ml.Close()
	ctx := context.Background()

	_ = ml.Set(ctx, "a", []byte("1"), nil)
	_ = ml.Set(ctx, "b", []byte("2"), nil)

	if n := ml.Clear(""); n != 2 {
		t.Fatalf("cleared %d, want 2", n)
	}
	// Remote copies survive a clear and flow back via backfill.
	if v, err := ml.Get(ctx, "a"); err != nil || !bytes.Equal(v, []byte("1")) {
		t.Fatalf("expected backfill from remote: %q, %v", v, err)
	}
}

func TestMultiLevel_InvalidateByPattern(t *testing.T) {
	ml := newTestMulti(nil, StrategyMemoryFirst)
	defer ml.Close()
	ctx := context.Background()

	_ = ml.Set(ctx, "cache:tenant:a:x", []byte("1"), nil)
	_ = ml.Set(ctx, "cache:tenant:a:y", []byte("2"), nil)
	_ = ml.Set(ctx, "cache:tenant:b:x", []byte("3"), nil)

	if n := ml.InvalidateByPattern("cache:*tenant:a:*"); n != 2 {
		t.Fatalf("invalidated %d, want 2", n)
	}
	if _, err := ml.Get(ctx, "cache:tenant:b:x"); err != nil {
		t.Fatal("other tenant must be untouched")
	}
}

func TestMultiLevel_WarmUp(t *testing.T) {
	remote := newFakeStore()
	remote.data["a"] = []byte("1")
	remote.data["b"] = []byte("2")

	ml := newTestMulti(remote, StrategyMemoryFirst)
	defer ml.Close()
	ctx := context.Background()

	n := ml.WarmUp(ctx, []string{"a", "b", "missing"})
	if n != 2 {
		t.Fatalf("warmed %d, want 2", n)
	}

	// Warmed keys serve from Tier 1 with no further remote reads.
	before := remote.gets
	for _, k := range []string{"a", "b"} {
		if _, err := ml.Get(ctx, k); err != nil {
			t.Fatalf("get %q: %v", k, err)
		}
	}
	if remote.gets != before {
		t.Fatal("warmed keys should not hit the remote")
	}
}

func TestMultiLevel_StatsHitRate(t *testing.T) {
	remote := newFakeStore()
	remote.data["remote-only"] = []byte("r")

	ml := newTestMulti(remote, StrategyMemoryFirst)
	defer ml.Close()
	ctx := context.Background()

	_ = ml.Set(ctx, "local", []byte("l"), nil)
	_, _ = ml.Get(ctx, "local")       // tier 1 hit
	_, _ = ml.Get(ctx, "remote-only") // tier 2 hit + backfill
	_, _ = ml.Get(ctx, "nope")        // full miss

	s := ml.Stats()
	if s.TotalRequests != 3 {
		t.Fatalf("total = %d", s.TotalRequests)
	}
	if want := 2.0 / 3.0; s.HitRate != want {
		t.Fatalf("hit rate = %v, want %v", s.HitRate, want)
	}
	if s.HitRate < 0 || s.HitRate > 1 {
		t.Fatalf("hit rate out of range: %v", s.HitRate)
	}
}
