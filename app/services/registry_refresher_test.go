package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/corp-resolver/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegistryRefresher_RefreshOnce_SwapsServingVersion(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{entries: testEntries}
	admin, _, resolves := newTestAdmin(t, src)
	refresher := NewRegistryRefresher(admin, time.Hour, zap.NewNop())

	before := resolves.Resolve(ctx, "기아", true)
	require.True(t, before.Result.Found())
	oldVersion := before.Result.SnapshotVersion
	require.NotEmpty(t, oldVersion)

	src.mu.Lock()
	src.entries = append([]registry.Entry{}, testEntries...)
	src.entries = append(src.entries, registry.Entry{Code: "00401731", Name: "LG전자", StockCode: "066570", ModifyDate: "20250101"})
	src.mu.Unlock()

	result, err := refresher.RefreshOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, oldVersion, result.OldVersion)
	assert.NotEqual(t, oldVersion, result.NewVersion)

	after := resolves.Resolve(ctx, "기아", true)
	require.True(t, after.Result.Found())
	assert.False(t, after.CacheHit)
	assert.Equal(t, result.NewVersion, after.Result.SnapshotVersion)

	added := resolves.Resolve(ctx, "LG전자", true)
	require.True(t, added.Result.Found())
	assert.Equal(t, "00401731", added.Result.CodeValue())
}

func TestRegistryRefresher_RefreshOnce_KeepsTableOnError(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{entries: testEntries}
	admin, _, resolves := newTestAdmin(t, src)
	refresher := NewRegistryRefresher(admin, time.Hour, zap.NewNop())

	before := resolves.Resolve(ctx, "삼성전자", false)
	require.True(t, before.Result.Found())

	src.mu.Lock()
	src.err = errors.New("dart unavailable")
	src.mu.Unlock()

	_, err := refresher.RefreshOnce(ctx)
	require.Error(t, err)

	after := resolves.Resolve(ctx, "삼성전자", false)
	require.True(t, after.Result.Found())
	assert.Equal(t, before.Result.SnapshotVersion, after.Result.SnapshotVersion)
}

type countingReloader struct {
	calls atomic.Int32
}

func (c *countingReloader) ReloadRegistry(ctx context.Context) (*ReloadResult, error) {
	c.calls.Add(1)
	return &ReloadResult{OldVersion: "v1", NewVersion: "v1"}, nil
}

func TestRegistryRefresher_Run(t *testing.T) {
	reloader := &countingReloader{}
	refresher := NewRegistryRefresher(reloader, 5*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		refresher.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return reloader.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRegistryRefresher_Run_Disabled(t *testing.T) {
	reloader := &countingReloader{}
	refresher := NewRegistryRefresher(reloader, 0, zap.NewNop())

	refresher.Run(context.Background())
	assert.Equal(t, int32(0), reloader.calls.Load())
}
