package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RegistryReloader reload registry và dọn state theo phiên bản cũ
type RegistryReloader interface {
	ReloadRegistry(ctx context.Context) (*ReloadResult, error)
}

// RegistryRefresher reload registry định kỳ trong chính process đang phục vụ
// request, để Store được swap cũng là Store mà ResolveService đọc.
type RegistryRefresher struct {
	reloader RegistryReloader
	interval time.Duration
	logger   *zap.Logger
}

// NewRegistryRefresher tạo refresher; interval <= 0 thì Run trả về ngay
func NewRegistryRefresher(reloader RegistryReloader, interval time.Duration, logger *zap.Logger) *RegistryRefresher {
	return &RegistryRefresher{
		reloader: reloader,
		interval: interval,
		logger:   logger,
	}
}

// Run chạy đến khi ctx bị hủy
func (r *RegistryRefresher) Run(ctx context.Context) {
	if r.interval <= 0 {
		return
	}

	r.logger.Info("Starting registry refresh loop", zap.Duration("interval", r.interval))
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Registry refresh loop stopped")
			return
		case <-ticker.C:
			_, _ = r.RefreshOnce(ctx)
		}
	}
}

// RefreshOnce reload một lần. Lỗi thì bảng cũ vẫn được giữ.
func (r *RegistryRefresher) RefreshOnce(ctx context.Context) (*ReloadResult, error) {
	result, err := r.reloader.ReloadRegistry(ctx)
	if err != nil {
		r.logger.Error("Reload registry thất bại", zap.Error(err))
		return nil, err
	}
	if result.OldVersion == result.NewVersion {
		r.logger.Info("Registry không đổi", zap.String("version", result.NewVersion))
	}
	return result, nil
}
