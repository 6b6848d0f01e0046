package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/tenantcache/internal/reqctx"
)

func newTestLayer(t *testing.T) *Layer {
	t.Helper()
	return NewLayer(newTestTenantCache(t, TenantCacheConfig{}), nil)
}

type report struct {
	Rows int `json:"rows"`
}

func TestCached_MissThenHit(t *testing.T) {
	l := newTestLayer(t)
	ctx := scopedCtx("acme", "", "")

	var calls atomic.Int32
	listReports := Cached(l, Spec{
		Op:           "reports.list",
		TTL:          time.Minute,
		TenantScoped: true,
	}, func(context.Context) (report, error) {
		calls.Add(1)
		return report{Rows: 7}, nil
	})

	out, err := listReports(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, out.Rows)

	out, err = listReports(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, out.Rows)

	assert.EqualValues(t, 1, calls.Load(), "hit must not run the operation")
}

func TestCached_Skip(t *testing.T) {
	l := newTestLayer(t)
	ctx := scopedCtx("acme", "", "")

	var calls atomic.Int32
	op := Cached(l, Spec{
		Op:   "reports.list",
		Skip: true,
	}, func(context.Context) (report, error) {
		calls.Add(1)
		return report{Rows: int(calls.Load())}, nil
	})

	for i := 1; i <= 3; i++ {
		out, err := op(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, out.Rows, "skip must run the operation every time")
	}
}

func TestCached_ErrorNotCached(t *testing.T) {
	l := newTestLayer(t)
	ctx := scopedCtx("acme", "", "")

	wantErr := errors.New("db down")
	var calls atomic.Int32
	op := Cached(l, Spec{Op: "reports.list"}, func(context.Context) (report, error) {
		calls.Add(1)
		if calls.Load() == 1 {
			return report{}, wantErr
		}
		return report{Rows: 1}, nil
	})

	_, err := op(ctx)
	require.ErrorIs(t, err, wantErr)

	// The failure was not cached: the retry runs and its result is.
	out, err := op(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Rows)
	assert.EqualValues(t, 2, calls.Load())
}

func TestCached_TenantScopedKeysAreIsolated(t *testing.T) {
	l := newTestLayer(t)

	op := Cached(l, Spec{
		Op:           "reports.list",
		TenantScoped: true,
	}, func(ctx context.Context) (report, error) {
		if reqctx.TenantID(ctx) == "tenant-a" {
			return report{Rows: 1}, nil
		}
		return report{Rows: 2}, nil
	})

	outA, err := op(scopedCtx("tenant-a", "", ""))
	require.NoError(t, err)
	outB, err := op(scopedCtx("tenant-b", "", ""))
	require.NoError(t, err)

	assert.Equal(t, 1, outA.Rows)
	assert.Equal(t, 2, outB.Rows, "tenant-b must not be served tenant-a's entry")
}

func TestCached_ExplicitKeyWinsOverOp(t *testing.T) {
	l := newTestLayer(t)
	ctx := scopedCtx("acme", "", "")

	op := Cached(l, Spec{
		Op:  "reports.list",
		Key: "reports:all",
	}, func(context.Context) (report, error) {
		return report{Rows: 9}, nil
	})
	_, err := op(ctx)
	require.NoError(t, err)

	// The entry lives under the explicit key, not the derived op key.
	_, err = l.tc.Multi().Get(ctx, "cache:reports:all")
	assert.NoError(t, err)
	_, err = l.tc.Multi().Get(ctx, "cache:op:reports.list")
	assert.True(t, IsNotFound(err))
}

func TestInvalidating_OnSuccess(t *testing.T) {
	l := newTestLayer(t)
	ctx := scopedCtx("acme", "", "")

	var listCalls atomic.Int32
	list := Cached(l, Spec{
		Key:          "reports",
		TenantScoped: true,
	}, func(context.Context) (report, error) {
		listCalls.Add(1)
		return report{Rows: int(listCalls.Load())}, nil
	})

	create := Invalidating(l, Spec{
		Op:                "reports.create",
		TenantScoped:      true,
		InvalidatePattern: "reports*",
	}, func(context.Context) (struct{}, error) {
		return struct{}{}, nil
	})

	out, err := list(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Rows)

	_, err = create(ctx)
	require.NoError(t, err)

	// The cached listing was dropped by the mutation.
	out, err = list(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Rows)
}

func TestInvalidating_FailedMutationKeepsCache(t *testing.T) {
	l := newTestLayer(t)
	ctx := scopedCtx("acme", "", "")

	var listCalls atomic.Int32
	list := Cached(l, Spec{
		Key:          "reports",
		TenantScoped: true,
	}, func(context.Context) (report, error) {
		listCalls.Add(1)
		return report{Rows: 5}, nil
	})

	wantErr := errors.New("validation failed")
	create := Invalidating(l, Spec{
		Op:                "reports.create",
		TenantScoped:      true,
		InvalidatePattern: "reports*",
	}, func(context.Context) (struct{}, error) {
		return struct{}{}, wantErr
	})

	_, err := list(ctx)
	require.NoError(t, err)

	_, err = create(ctx)
	require.ErrorIs(t, err, wantErr)

	// Nothing changed, so nothing was invalidated.
	_, err = list(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, listCalls.Load())
}
