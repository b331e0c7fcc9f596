package services

import (
	"context"
	"strings"
	"time"

	"github.com/corp-resolver/app/models"
)

// CacheStats thống kê cache
type CacheStats struct {
	HitRate    float64 `json:"hit_rate"`
	TotalHits  int64   `json:"total_hits"`
	TotalMiss  int64   `json:"total_miss"`
	TotalItems int64   `json:"total_items"`
}

// ICacheService interface định nghĩa các method cần thiết cho cache kết quả resolve
type ICacheService interface {
	// Get lấy kết quả từ cache
	Get(ctx context.Context, key string) (*models.ResolutionResult, bool, error)

	// Set lưu kết quả vào cache
	Set(ctx context.Context, key string, result *models.ResolutionResult) error

	// Delete xóa kết quả khỏi cache
	Delete(ctx context.Context, key string) error

	// Clear xóa tất cả cache
	Clear(ctx context.Context) error

	// InvalidateBySnapshotVersion xóa mọi entry không thuộc phiên bản registry hiện tại
	InvalidateBySnapshotVersion(ctx context.Context, currentVersion string) error

	// GetStats lấy thống kê cache
	GetStats(ctx context.Context) (*CacheStats, error)

	// Exists kiểm tra key có tồn tại không
	Exists(ctx context.Context, key string) (bool, error)

	// GetTTL lấy TTL còn lại của key
	GetTTL(ctx context.Context, key string) (time.Duration, error)

	// Close đóng kết nối (nếu cần)
	Close() error
}

// CacheKey key cache = phiên bản registry + tên đã chuẩn hóa
func CacheKey(snapshotVersion, normalized string) string {
	return snapshotVersion + ":" + normalized
}

// keyVersion phần phiên bản của key
func keyVersion(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return ""
}

func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
