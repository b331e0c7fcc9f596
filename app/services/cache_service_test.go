package services

import (
	"context"
	"testing"
	"time"

	"github.com/corp-resolver/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codeResult(query, code string) *models.ResolutionResult {
	r := models.NewNotFound(query)
	r.Code = &code
	r.Name = query
	r.Score = 100
	r.Strategy = models.StrategyConfident
	return r
}

func TestCacheKey(t *testing.T) {
	key := CacheKey("abc123", "삼성전자")
	assert.Equal(t, "abc123:삼성전자", key)
	assert.Equal(t, "abc123", keyVersion(key))
	assert.Equal(t, "", keyVersion("nokey"))
}

func TestCacheService_GetSet(t *testing.T) {
	ctx := context.Background()
	cs := NewCacheService(10, time.Minute)

	_, found, err := cs.Get(ctx, "v1:삼성전자")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cs.Set(ctx, "v1:삼성전자", codeResult("삼성전자", "00126380")))
	got, found, err := cs.Get(ctx, "v1:삼성전자")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "00126380", got.CodeValue())

	exists, _ := cs.Exists(ctx, "v1:삼성전자")
	assert.True(t, exists)

	ttl, _ := cs.GetTTL(ctx, "v1:삼성전자")
	assert.Greater(t, ttl, 50*time.Second)

	stats, err := cs.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalHits)
	assert.Equal(t, int64(1), stats.TotalMiss)
	assert.InDelta(t, 0.5, stats.HitRate, 1e-9)

	require.NoError(t, cs.Delete(ctx, "v1:삼성전자"))
	assert.Equal(t, 0, cs.Size())
}

func TestCacheService_InvalidateBySnapshotVersion(t *testing.T) {
	ctx := context.Background()
	cs := NewCacheService(10, 0)

	require.NoError(t, cs.Set(ctx, CacheKey("old", "기아"), codeResult("기아", "00106641")))
	require.NoError(t, cs.Set(ctx, CacheKey("new", "기아"), codeResult("기아", "00106641")))
	require.NoError(t, cs.Set(ctx, CacheKey("new", "삼성전자"), codeResult("삼성전자", "00126380")))

	require.NoError(t, cs.InvalidateBySnapshotVersion(ctx, "new"))
	assert.Equal(t, 2, cs.Size())

	exists, _ := cs.Exists(ctx, CacheKey("old", "기아"))
	assert.False(t, exists)

	require.NoError(t, cs.Clear(ctx))
	assert.Equal(t, 0, cs.Size())
}

func TestCacheService_Eviction(t *testing.T) {
	ctx := context.Background()
	cs := NewCacheService(2, 0)

	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, cs.Set(ctx, CacheKey("v", name), codeResult(name, "00000001")))
	}
	assert.Equal(t, 2, cs.Size())

	exists, _ := cs.Exists(ctx, CacheKey("v", "a"))
	assert.False(t, exists)
}
