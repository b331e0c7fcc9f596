package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/corp-resolver/internal/errs"
	"github.com/corp-resolver/internal/normalizer"
	"github.com/corp-resolver/internal/registry"
	"github.com/corp-resolver/internal/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestAdmin(t *testing.T, src *fakeSource) (*AdminService, *CacheService, *ResolveService) {
	t.Helper()
	store := registry.NewStore(src, zap.NewNop())
	cache := NewCacheService(100, time.Minute)
	r := resolver.New(store, nil, nil, nil, zap.NewNop())
	resolves := NewResolveService(r, store, cache, nil, 2, zap.NewNop())

	admin := NewAdminService(AdminDeps{
		Store:    store,
		Resolves: resolves,
		Cache:    cache,
		Synonyms: normalizer.NewSynonyms(map[string][]string{"삼성전자": {"삼전"}}),
	}, zap.NewNop())
	return admin, cache, resolves
}

func TestAdminService_ReloadRegistry(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{entries: testEntries}
	admin, cache, resolves := newTestAdmin(t, src)

	resolves.Resolve(ctx, "삼성전자", true)
	require.Equal(t, 1, cache.Size())

	src.mu.Lock()
	src.entries = append([]registry.Entry{}, testEntries...)
	src.entries[0].ModifyDate = "20250101"
	src.mu.Unlock()

	result, err := admin.ReloadRegistry(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, result.OldVersion, result.NewVersion)
	assert.Equal(t, 3, result.Entries)
	assert.Equal(t, 3, result.Listed)
	assert.True(t, result.CacheInvalidated)
	assert.Equal(t, 0, result.IndexedDocs)
	assert.Equal(t, 0, cache.Size())

	out := resolves.Resolve(ctx, "삼성전자", true)
	assert.Equal(t, result.NewVersion, out.Result.SnapshotVersion)
}

func TestAdminService_ReloadFailureKeepsTable(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{entries: testEntries}
	admin, _, resolves := newTestAdmin(t, src)

	before := resolves.Resolve(ctx, "기아", true)
	require.True(t, before.Result.Found())

	src.mu.Lock()
	src.err = errs.Upstream("fetch corpCode.xml", errors.New("timeout"))
	src.mu.Unlock()

	_, err := admin.ReloadRegistry(ctx)
	require.Error(t, err)
	assert.True(t, errs.IsUpstream(err))

	after := resolves.Resolve(ctx, "기아", false)
	assert.Equal(t, before.Result.SnapshotVersion, after.Result.SnapshotVersion)
}

func TestAdminService_Disabled(t *testing.T) {
	ctx := context.Background()
	admin, _, _ := newTestAdmin(t, &fakeSource{entries: testEntries})

	assert.ErrorIs(t, admin.BuildIndexes(ctx), ErrSearchDisabled)
	_, err := admin.SeedIndex(ctx)
	assert.ErrorIs(t, err, ErrSearchDisabled)

	_, _, err = admin.ListReviews(ctx, "", 10)
	assert.ErrorIs(t, err, ErrReviewsDisabled)
	_, err = admin.ApproveReview(ctx, "id", "00126380", "u1")
	assert.ErrorIs(t, err, ErrReviewsDisabled)
	assert.ErrorIs(t, admin.RejectReview(ctx, "id", "u1"), ErrReviewsDisabled)
	_, err = admin.AddAlias(ctx, "삼전", "00126380")
	assert.ErrorIs(t, err, ErrReviewsDisabled)
}

func TestAdminService_InvalidateCache(t *testing.T) {
	ctx := context.Background()
	admin, cache, _ := newTestAdmin(t, &fakeSource{entries: testEntries})

	require.NoError(t, cache.Set(ctx, CacheKey("stale", "기아"), codeResult("기아", "00106641")))
	require.NoError(t, cache.Set(ctx, CacheKey(registry.NewTable(testEntries).Version(), "기아"), codeResult("기아", "00106641")))

	require.NoError(t, admin.InvalidateCache(ctx, false))
	assert.Equal(t, 1, cache.Size())

	require.NoError(t, admin.InvalidateCache(ctx, true))
	assert.Equal(t, 0, cache.Size())
}

func TestAdminService_GetSystemStats(t *testing.T) {
	ctx := context.Background()
	admin, _, resolves := newTestAdmin(t, &fakeSource{entries: testEntries})
	resolves.Resolve(ctx, "삼성전자", true)

	stats, err := admin.GetSystemStats(ctx)
	require.NoError(t, err)
	assert.True(t, stats.Registry.Loaded)
	assert.Equal(t, 3, stats.Registry.Entries)
	assert.Equal(t, int64(1), stats.Service.Requests)
	assert.Equal(t, 1, stats.Synonyms)
	assert.False(t, stats.SearchEnabled)
	assert.False(t, stats.LLM.Enabled)
	require.NotNil(t, stats.Cache)
	assert.Equal(t, int64(1), stats.Cache.TotalItems)
	assert.Contains(t, stats.MemoryUsage, "alloc_mb")
}

func TestAdminService_ExportRegistry(t *testing.T) {
	ctx := context.Background()
	admin, _, _ := newTestAdmin(t, &fakeSource{entries: testEntries})

	var buf bytes.Buffer
	require.NoError(t, admin.ExportRegistry(ctx, &buf, "csv"))
	assert.True(t, strings.HasPrefix(buf.String(), "corp_code,corp_name,stock_code,modify_date\n"))
	assert.Contains(t, buf.String(), "00126380,삼성전자,005930,20240101")

	buf.Reset()
	require.NoError(t, admin.ExportRegistry(ctx, &buf, "json"))
	assert.Contains(t, buf.String(), `"corp_code":"00106641"`)

	assert.Error(t, admin.ExportRegistry(ctx, &buf, "xml"))
}
