package services

import (
	"context"
	"errors"
	"time"

	"github.com/corp-resolver/app/models"
	"go.uber.org/zap"
)

// HybridCacheService cache 2 tầng: L1 nhanh (Redis hoặc in-memory) + L2 persistent (MongoDB)
type HybridCacheService struct {
	l1     ICacheService
	l2     ICacheService
	logger *zap.Logger
}

// NewHybridCacheService tạo mới hybrid cache service
func NewHybridCacheService(l1, l2 ICacheService, logger *zap.Logger) *HybridCacheService {
	return &HybridCacheService{
		l1:     l1,
		l2:     l2,
		logger: logger,
	}
}

// Get lấy kết quả từ cache (L1 trước, L2 sau)
func (hcs *HybridCacheService) Get(ctx context.Context, key string) (*models.ResolutionResult, bool, error) {
	result, found, err := hcs.l1.Get(ctx, key)
	if err != nil {
		hcs.logger.Warn("Lỗi L1 cache, fallback L2", zap.Error(err))
	} else if found {
		return result, true, nil
	}

	result, found, err = hcs.l2.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !found {
		hcs.logger.Debug("Cache miss (L1 & L2)", zap.String("key", key))
		return nil, false, nil
	}

	// Đồng bộ ngược lên L1
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := hcs.l1.Set(bgCtx, key, result); err != nil {
			hcs.logger.Warn("Lỗi sync L2->L1", zap.Error(err), zap.String("key", key))
		}
	}()

	hcs.logger.Debug("L2 cache hit", zap.String("key", key))
	return result, true, nil
}

// Set lưu kết quả vào cả 2 tầng song song
func (hcs *HybridCacheService) Set(ctx context.Context, key string, result *models.ResolutionResult) error {
	return hcs.both(
		func() error { return hcs.l1.Set(ctx, key, result) },
		func() error { return hcs.l2.Set(ctx, key, result) },
	)
}

// Delete xóa key khỏi cả 2 tầng
func (hcs *HybridCacheService) Delete(ctx context.Context, key string) error {
	return hcs.both(
		func() error { return hcs.l1.Delete(ctx, key) },
		func() error { return hcs.l2.Delete(ctx, key) },
	)
}

// Clear xóa toàn bộ cache cả 2 tầng
func (hcs *HybridCacheService) Clear(ctx context.Context) error {
	if err := hcs.both(
		func() error { return hcs.l1.Clear(ctx) },
		func() error { return hcs.l2.Clear(ctx) },
	); err != nil {
		return err
	}

	hcs.logger.Info("Cleared hybrid cache")
	return nil
}

// InvalidateBySnapshotVersion invalidate cả 2 tầng
func (hcs *HybridCacheService) InvalidateBySnapshotVersion(ctx context.Context, currentVersion string) error {
	if err := hcs.both(
		func() error { return hcs.l1.InvalidateBySnapshotVersion(ctx, currentVersion) },
		func() error { return hcs.l2.InvalidateBySnapshotVersion(ctx, currentVersion) },
	); err != nil {
		return err
	}

	hcs.logger.Info("Invalidated hybrid cache", zap.String("snapshot_version", currentVersion))
	return nil
}

// GetStats thống kê kết hợp từ cả 2 tầng
func (hcs *HybridCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	l1Stats, l1Err := hcs.l1.GetStats(ctx)
	l2Stats, l2Err := hcs.l2.GetStats(ctx)

	switch {
	case l1Err != nil && l2Err != nil:
		return nil, errors.Join(l1Err, l2Err)
	case l1Err != nil:
		return l2Stats, nil
	case l2Err != nil:
		return l1Stats, nil
	}

	// Miss ở L1 có thể hit ở L2 nên chỉ tính miss của L2
	hits := l1Stats.TotalHits + l2Stats.TotalHits
	return &CacheStats{
		HitRate:    hitRate(hits, l2Stats.TotalMiss),
		TotalHits:  hits,
		TotalMiss:  l2Stats.TotalMiss,
		TotalItems: l2Stats.TotalItems,
	}, nil
}

// Exists kiểm tra key có tồn tại không (L1 trước, L2 sau)
func (hcs *HybridCacheService) Exists(ctx context.Context, key string) (bool, error) {
	exists, err := hcs.l1.Exists(ctx, key)
	if err != nil {
		hcs.logger.Warn("Lỗi check L1 exists, fallback L2", zap.Error(err))
	} else if exists {
		return true, nil
	}
	return hcs.l2.Exists(ctx, key)
}

// GetTTL lấy TTL của key (từ L1)
func (hcs *HybridCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	return hcs.l1.GetTTL(ctx, key)
}

// Close đóng kết nối cả 2 tầng
func (hcs *HybridCacheService) Close() error {
	return errors.Join(hcs.l1.Close(), hcs.l2.Close())
}

// both chạy 2 thao tác song song, gộp lỗi
func (hcs *HybridCacheService) both(first, second func() error) error {
	errCh := make(chan error, 2)
	go func() { errCh <- first() }()
	go func() { errCh <- second() }()

	var errs []error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil {
			hcs.logger.Warn("Lỗi thao tác cache", zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
