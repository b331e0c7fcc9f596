package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/corp-resolver/app/models"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultMemoryCacheSize số entry tối đa của cache in-memory
const DefaultMemoryCacheSize = 10000

// CacheService service quản lý cache in-memory (LRU có TTL)
type CacheService struct {
	cache *expirable.LRU[string, *models.ResolutionResult]
	ttl   time.Duration

	mu      sync.RWMutex
	addedAt map[string]time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCacheService tạo mới CacheService
func NewCacheService(size int, ttl time.Duration) *CacheService {
	if size <= 0 {
		size = DefaultMemoryCacheSize
	}
	cs := &CacheService{
		ttl:     ttl,
		addedAt: make(map[string]time.Time),
	}
	cs.cache = expirable.NewLRU[string, *models.ResolutionResult](size, cs.onEvict, ttl)
	return cs
}

func (cs *CacheService) onEvict(key string, _ *models.ResolutionResult) {
	cs.mu.Lock()
	delete(cs.addedAt, key)
	cs.mu.Unlock()
}

// Get lấy kết quả từ cache
func (cs *CacheService) Get(ctx context.Context, key string) (*models.ResolutionResult, bool, error) {
	if result, ok := cs.cache.Get(key); ok {
		cs.hits.Add(1)
		return result, true, nil
	}
	cs.misses.Add(1)
	return nil, false, nil
}

// Set lưu kết quả vào cache
func (cs *CacheService) Set(ctx context.Context, key string, result *models.ResolutionResult) error {
	cs.cache.Add(key, result)
	cs.mu.Lock()
	cs.addedAt[key] = time.Now()
	cs.mu.Unlock()
	return nil
}

// Delete xóa item khỏi cache
func (cs *CacheService) Delete(ctx context.Context, key string) error {
	cs.cache.Remove(key)
	return nil
}

// Clear xóa toàn bộ cache
func (cs *CacheService) Clear(ctx context.Context) error {
	cs.cache.Purge()
	cs.mu.Lock()
	cs.addedAt = make(map[string]time.Time)
	cs.mu.Unlock()
	return nil
}

// InvalidateBySnapshotVersion xóa các key thuộc phiên bản registry cũ
func (cs *CacheService) InvalidateBySnapshotVersion(ctx context.Context, currentVersion string) error {
	for _, key := range cs.cache.Keys() {
		if keyVersion(key) != currentVersion {
			cs.cache.Remove(key)
		}
	}
	return nil
}

// Size lấy kích thước cache
func (cs *CacheService) Size() int {
	return cs.cache.Len()
}

// GetStats lấy thống kê cache
func (cs *CacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	hits, misses := cs.hits.Load(), cs.misses.Load()
	return &CacheStats{
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: int64(cs.cache.Len()),
	}, nil
}

// Exists kiểm tra key có tồn tại không
func (cs *CacheService) Exists(ctx context.Context, key string) (bool, error) {
	return cs.cache.Contains(key), nil
}

// GetTTL lấy TTL còn lại của key
func (cs *CacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	if !cs.cache.Contains(key) || cs.ttl <= 0 {
		return 0, nil
	}

	cs.mu.RLock()
	added, ok := cs.addedAt[key]
	cs.mu.RUnlock()
	if !ok {
		return 0, nil
	}

	remaining := cs.ttl - time.Since(added)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// Close đóng kết nối (không cần thiết cho in-memory cache)
func (cs *CacheService) Close() error {
	return nil
}
