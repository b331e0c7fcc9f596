package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/corp-resolver/app/models"
	"github.com/corp-resolver/internal/disambiguator"
	"github.com/corp-resolver/internal/normalizer"
	"github.com/corp-resolver/internal/registry"
	"github.com/corp-resolver/internal/search"
	"go.uber.org/zap"
)

// Lỗi khi thành phần tùy chọn không được cấu hình
var (
	ErrSearchDisabled  = errors.New("meilisearch chưa được cấu hình")
	ErrReviewsDisabled = errors.New("review queue cần MongoDB")
)

// AdminDeps các thành phần AdminService dùng. Searcher, Cache, Reviews, LLM có thể nil.
type AdminDeps struct {
	Store    *registry.Store
	Resolves *ResolveService
	Cache    ICacheService
	Searcher *search.RegistrySearcher
	Synonyms *normalizer.Synonyms
	Reviews  *ReviewService
	LLM      *disambiguator.Disambiguator
}

// AdminService service quản lý admin functions
type AdminService struct {
	deps   AdminDeps
	logger *zap.Logger
}

// ReloadResult kết quả reload registry
type ReloadResult struct {
	OldVersion       string `json:"old_version"`
	NewVersion       string `json:"new_version"`
	Entries          int    `json:"entries"`
	Listed           int    `json:"listed"`
	IndexedDocs      int    `json:"indexed_docs"`
	CacheInvalidated bool   `json:"cache_invalidated"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
}

// SystemStats thống kê hệ thống
type SystemStats struct {
	Uptime          string                 `json:"uptime"`
	Registry        registry.StoreStats    `json:"registry"`
	Service         ResolveStats           `json:"service"`
	LLM             disambiguator.Stats    `json:"llm"`
	Cache           *CacheStats            `json:"cache,omitempty"`
	ReviewQueueSize int64                  `json:"review_queue_size"`
	LearnedAliases  int                    `json:"learned_aliases"`
	Synonyms        int                    `json:"synonyms"`
	SearchEnabled   bool                   `json:"search_enabled"`
	MemoryUsage     map[string]interface{} `json:"memory_usage"`
}

// NewAdminService tạo mới AdminService
func NewAdminService(deps AdminDeps, logger *zap.Logger) *AdminService {
	return &AdminService{
		deps:   deps,
		logger: logger,
	}
}

// ReloadRegistry tải lại registry từ DART, invalidate cache cũ và seed lại index tìm kiếm
func (as *AdminService) ReloadRegistry(ctx context.Context) (*ReloadResult, error) {
	start := time.Now()
	old := as.deps.Store.Current()

	table, err := as.deps.Store.Reload(ctx)
	if err != nil {
		return nil, fmt.Errorf("lỗi reload registry: %w", err)
	}

	result := &ReloadResult{
		OldVersion: old.Version(),
		NewVersion: table.Version(),
		Entries:    table.Len(),
		Listed:     table.ListedCount(),
	}

	if as.deps.Cache != nil {
		if err := as.deps.Cache.InvalidateBySnapshotVersion(ctx, table.Version()); err != nil {
			as.logger.Warn("Lỗi invalidate cache sau reload", zap.Error(err))
		} else {
			result.CacheInvalidated = true
		}
	}

	if as.deps.Searcher != nil {
		n, err := as.deps.Searcher.SeedEntries(table)
		if err != nil {
			as.logger.Warn("Lỗi seed Meilisearch sau reload", zap.Error(err))
		}
		result.IndexedDocs = n
	}

	result.ProcessingTimeMs = time.Since(start).Milliseconds()
	as.logger.Info("Registry reload completed",
		zap.String("old_version", result.OldVersion),
		zap.String("new_version", result.NewVersion),
		zap.Int("entries", result.Entries),
		zap.Int("indexed_docs", result.IndexedDocs),
		zap.Int64("processing_time_ms", result.ProcessingTimeMs))
	return result, nil
}

// BuildIndexes cập nhật settings index Meilisearch, kèm nhóm synonym
func (as *AdminService) BuildIndexes(ctx context.Context) error {
	if as.deps.Searcher == nil {
		return ErrSearchDisabled
	}
	if err := as.deps.Searcher.BuildIndexes(as.deps.Synonyms.Groups()); err != nil {
		return fmt.Errorf("lỗi build Meilisearch indexes: %w", err)
	}

	as.logger.Info("All indexes built successfully")
	return nil
}

// SeedIndex đẩy bảng registry hiện tại lên Meilisearch
func (as *AdminService) SeedIndex(ctx context.Context) (int, error) {
	if as.deps.Searcher == nil {
		return 0, ErrSearchDisabled
	}
	table, err := as.deps.Store.Table(ctx)
	if err != nil {
		return 0, err
	}
	return as.deps.Searcher.SeedEntries(table)
}

// InvalidateCache xóa toàn bộ cache, hoặc chỉ entry của phiên bản cũ
func (as *AdminService) InvalidateCache(ctx context.Context, all bool) error {
	if as.deps.Cache == nil {
		return nil
	}
	if all {
		return as.deps.Cache.Clear(ctx)
	}
	table, err := as.deps.Store.Table(ctx)
	if err != nil {
		return err
	}
	return as.deps.Cache.InvalidateBySnapshotVersion(ctx, table.Version())
}

// ListReviews danh sách review
func (as *AdminService) ListReviews(ctx context.Context, status string, limit int) ([]models.ResolutionReview, int64, error) {
	if as.deps.Reviews == nil {
		return nil, 0, ErrReviewsDisabled
	}
	reviews, err := as.deps.Reviews.List(ctx, status, limit)
	if err != nil {
		return nil, 0, err
	}
	pending, err := as.deps.Reviews.PendingCount(ctx)
	if err != nil {
		as.logger.Warn("Lỗi đếm review pending", zap.Error(err))
	}
	return reviews, pending, nil
}

// ApproveReview duyệt review, tạo alias và bỏ cache cũ của tên đó
func (as *AdminService) ApproveReview(ctx context.Context, id, code, reviewerID string) (*models.LearnedAlias, error) {
	if as.deps.Reviews == nil {
		return nil, ErrReviewsDisabled
	}
	alias, err := as.deps.Reviews.Approve(ctx, id, code, reviewerID)
	if err != nil {
		return nil, err
	}
	as.forget(ctx, alias.NormalizedQuery)
	return alias, nil
}

// RejectReview từ chối review
func (as *AdminService) RejectReview(ctx context.Context, id, reviewerID string) error {
	if as.deps.Reviews == nil {
		return ErrReviewsDisabled
	}
	return as.deps.Reviews.Reject(ctx, id, reviewerID)
}

// AddAlias thêm alias thủ công
func (as *AdminService) AddAlias(ctx context.Context, name, code string) (*models.LearnedAlias, error) {
	if as.deps.Reviews == nil {
		return nil, ErrReviewsDisabled
	}
	alias, err := as.deps.Reviews.AddAlias(ctx, name, code, models.AliasSourceManual)
	if err != nil {
		return nil, err
	}
	as.forget(ctx, alias.NormalizedQuery)
	return alias, nil
}

func (as *AdminService) forget(ctx context.Context, normalized string) {
	if as.deps.Resolves == nil {
		return
	}
	if err := as.deps.Resolves.Forget(ctx, normalized); err != nil {
		as.logger.Warn("Lỗi xóa cache của alias", zap.String("query", normalized), zap.Error(err))
	}
}

// GetSystemStats lấy thống kê hệ thống
func (as *AdminService) GetSystemStats(ctx context.Context) (*SystemStats, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := &SystemStats{
		Registry:      as.deps.Store.Stats(),
		LLM:           as.deps.LLM.Stats(),
		Synonyms:      as.deps.Synonyms.Len(),
		SearchEnabled: as.deps.Searcher != nil,
		MemoryUsage: map[string]interface{}{
			"alloc_mb":       bToMb(m.Alloc),
			"total_alloc_mb": bToMb(m.TotalAlloc),
			"sys_mb":         bToMb(m.Sys),
			"num_gc":         m.NumGC,
			"goroutines":     runtime.NumGoroutine(),
		},
	}

	if as.deps.Resolves != nil {
		stats.Service = as.deps.Resolves.GetStats()
		stats.Uptime = time.Since(as.deps.Resolves.GetStartTime()).Round(time.Second).String()
	}

	if as.deps.Cache != nil {
		cacheStats, err := as.deps.Cache.GetStats(ctx)
		if err != nil {
			as.logger.Warn("Lỗi lấy cache stats", zap.Error(err))
		}
		stats.Cache = cacheStats
	}

	if as.deps.Reviews != nil {
		pending, err := as.deps.Reviews.PendingCount(ctx)
		if err != nil {
			return nil, fmt.Errorf("lỗi lấy review stats: %w", err)
		}
		stats.ReviewQueueSize = pending
		stats.LearnedAliases = as.deps.Reviews.AliasCount()
	}

	return stats, nil
}

// ExportRegistry ghi bảng registry hiện tại ra w theo format csv hoặc json
func (as *AdminService) ExportRegistry(ctx context.Context, w io.Writer, format string) error {
	table, err := as.deps.Store.Table(ctx)
	if err != nil {
		return err
	}

	switch format {
	case "csv":
		return registry.EncodeSnapshot(w, table.Entries())
	case "json":
		return json.NewEncoder(w).Encode(search.Documents(table))
	default:
		return fmt.Errorf("không hỗ trợ format %q", format)
	}
}

// Helper functions
func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
