package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/corp-resolver/app/models"
	"github.com/corp-resolver/app/responses"
	"github.com/corp-resolver/helpers/utils"
	"github.com/corp-resolver/internal/errs"
	"github.com/corp-resolver/internal/normalizer"
	"github.com/corp-resolver/internal/resolver"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Giới hạn job
const (
	DefaultBatchConcurrency = 8
	DefaultJobRetention     = time.Hour
	MaxRetainedJobs         = 256
)

// ReviewRecorder ghi kết quả cần review (ReviewService)
type ReviewRecorder interface {
	Record(ctx context.Context, normalized string, result *models.ResolutionResult) error
}

// RegistryCodes tra corp_code trong bảng registry hiện tại
type RegistryCodes struct {
	Store resolver.TableSource
}

// LookupCode trả về tên chính thức của corp_code
func (rc RegistryCodes) LookupCode(ctx context.Context, code string) (string, bool) {
	table, err := rc.Store.Table(ctx)
	if err != nil {
		return "", false
	}
	e, ok := table.ByCode(code)
	if !ok {
		return "", false
	}
	return e.Name, true
}

// JobStatus trạng thái của job
type JobStatus struct {
	JobID              string
	Status             string
	Progress           float64
	Processed          int
	Total              int
	Resolved           int
	EstimatedRemaining int
	Message            string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type batchJob struct {
	mu      sync.RWMutex
	status  JobStatus
	results []*models.ResolutionResult
}

func (j *batchJob) snapshot() JobStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.status
}

// ResolveOutcome kết quả resolve kèm thông tin cache
type ResolveOutcome struct {
	Result   *models.ResolutionResult
	CacheHit bool
	Duration time.Duration
}

// ResolveService service resolve tên công ty: cache, review queue và batch job
type ResolveService struct {
	resolver    *resolver.Resolver
	tables      resolver.TableSource
	cache       ICacheService
	reviews     ReviewRecorder
	logger      *zap.Logger
	startTime   time.Time
	concurrency int

	jobs *expirable.LRU[string, *batchJob]

	requests  atomic.Int64
	cacheHits atomic.Int64
	totalNs   atomic.Int64
}

// NewResolveService tạo mới ResolveService. cache và reviews có thể nil.
func NewResolveService(r *resolver.Resolver, tables resolver.TableSource, cache ICacheService, reviews ReviewRecorder, concurrency int, logger *zap.Logger) *ResolveService {
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}
	return &ResolveService{
		resolver:    r,
		tables:      tables,
		cache:       cache,
		reviews:     reviews,
		logger:      logger,
		startTime:   time.Now(),
		concurrency: concurrency,
		jobs:        expirable.NewLRU[string, *batchJob](MaxRetainedJobs, nil, DefaultJobRetention),
	}
}

// Resolve resolve một tên, dùng cache nếu được bật
func (rs *ResolveService) Resolve(ctx context.Context, name string, useCache bool) *ResolveOutcome {
	start := time.Now()
	rs.requests.Add(1)
	defer func() { rs.totalNs.Add(int64(time.Since(start))) }()

	normalized := normalizer.Normalize(name)
	key := rs.cacheKey(ctx, normalized)
	useCache = useCache && rs.cache != nil && key != ""

	if useCache {
		cached, found, err := rs.cache.Get(ctx, key)
		if err != nil {
			rs.logger.Warn("Lỗi đọc cache", zap.String("key", key), zap.Error(err))
		} else if found {
			rs.cacheHits.Add(1)
			hit := *cached
			hit.Query = name
			return &ResolveOutcome{Result: &hit, CacheHit: true, Duration: time.Since(start)}
		}
	}

	result := rs.resolver.Resolve(ctx, name)

	if useCache && result.Found() {
		if err := rs.cache.Set(ctx, key, result); err != nil {
			rs.logger.Warn("Lỗi ghi cache", zap.String("key", key), zap.Error(err))
		}
	}
	if result.NeedsReview() {
		rs.recordReview(normalized, result)
	}

	return &ResolveOutcome{Result: result, Duration: time.Since(start)}
}

// cacheKey rỗng khi tên rỗng hoặc chưa có bảng registry
func (rs *ResolveService) cacheKey(ctx context.Context, normalized string) string {
	if normalized == "" {
		return ""
	}
	table, err := rs.tables.Table(ctx)
	if err != nil || table.Len() == 0 {
		return ""
	}
	return CacheKey(table.Version(), normalized)
}

func (rs *ResolveService) recordReview(normalized string, result *models.ResolutionResult) {
	if rs.reviews == nil || normalized == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rs.reviews.Record(ctx, normalized, result); err != nil {
			rs.logger.Warn("Không ghi được review", zap.String("query", result.Query), zap.Error(err))
		}
	}()
}

// Forget xóa cache của một tên trong phiên bản hiện tại
func (rs *ResolveService) Forget(ctx context.Context, name string) error {
	if rs.cache == nil {
		return nil
	}
	key := rs.cacheKey(ctx, normalizer.Normalize(name))
	if key == "" {
		return nil
	}
	return rs.cache.Delete(ctx, key)
}

// EstimateBatchProcessingTime ước tính thời gian xử lý batch (giây)
func (rs *ResolveService) EstimateBatchProcessingTime(count int) int {
	// Khoảng 20ms mỗi tên khi không gọi LLM
	perName := 20 * time.Millisecond
	if n := rs.requests.Load(); n > 0 {
		perName = time.Duration(rs.totalNs.Load() / n)
	}
	total := time.Duration(count) * perName / time.Duration(rs.concurrency)
	return int(total.Seconds())
}

// StartBatchJob tạo job và chạy nền, trả về job ID
func (rs *ResolveService) StartBatchJob(names []string, useCache bool) string {
	jobID := utils.GenerateUUID()
	now := time.Now()
	job := &batchJob{
		status: JobStatus{
			JobID:     jobID,
			Status:    responses.JobStatusPending,
			Total:     len(names),
			Message:   "Đang chờ xử lý...",
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	rs.jobs.Add(jobID, job)

	go rs.processBatchJob(context.Background(), job, names, useCache)
	return jobID
}

// processBatchJob xử lý job batch, giữ thứ tự kết quả theo input
func (rs *ResolveService) processBatchJob(ctx context.Context, job *batchJob, names []string, useCache bool) {
	start := time.Now()
	job.mu.Lock()
	job.status.Status = responses.JobStatusRunning
	job.status.Message = "Đang xử lý..."
	job.status.UpdatedAt = start
	job.mu.Unlock()

	results := make([]*models.ResolutionResult, len(names))
	var processed, resolved atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rs.concurrency)
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out := rs.Resolve(gctx, name, useCache)
			results[i] = out.Result
			if out.Result.Found() {
				resolved.Add(1)
			}
			done := int(processed.Add(1))

			job.mu.Lock()
			job.status.Processed = done
			job.status.Resolved = int(resolved.Load())
			job.status.Progress = float64(done) / float64(len(names))
			elapsed := time.Since(start)
			job.status.EstimatedRemaining = int((elapsed / time.Duration(done) * time.Duration(len(names)-done)).Seconds())
			job.status.UpdatedAt = time.Now()
			job.mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	for i, r := range results {
		if r == nil {
			results[i] = models.NewNotFound(names[i])
		}
	}

	job.mu.Lock()
	job.results = results
	job.status.UpdatedAt = time.Now()
	job.status.EstimatedRemaining = 0
	if err != nil {
		job.status.Status = responses.JobStatusFailed
		job.status.Message = fmt.Sprintf("Job bị dừng: %v", err)
	} else {
		job.status.Status = responses.JobStatusDone
		job.status.Progress = 1
		job.status.Message = "Hoàn thành xử lý"
	}
	job.mu.Unlock()

	rs.logger.Info("Batch job completed",
		zap.String("job_id", job.status.JobID),
		zap.Int("total_names", len(names)),
		zap.Int64("resolved", resolved.Load()),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err))
}

// GetJobStatus lấy trạng thái job
func (rs *ResolveService) GetJobStatus(jobID string) (*JobStatus, error) {
	job, ok := rs.jobs.Get(jobID)
	if !ok {
		return nil, fmt.Errorf("job %s: %w", jobID, errs.ErrNotFound)
	}
	st := job.snapshot()
	return &st, nil
}

// ErrJobNotDone job chưa chạy xong
var ErrJobNotDone = errors.New("job chưa hoàn thành")

// GetJobResults lấy kết quả job
func (rs *ResolveService) GetJobResults(jobID string) ([]*models.ResolutionResult, error) {
	job, ok := rs.jobs.Get(jobID)
	if !ok {
		return nil, fmt.Errorf("job %s: %w", jobID, errs.ErrNotFound)
	}

	job.mu.RLock()
	defer job.mu.RUnlock()
	if job.results == nil {
		return nil, ErrJobNotDone
	}
	return job.results, nil
}

// GetJobResultsStream lấy kết quả job dưới dạng channel để stream
func (rs *ResolveService) GetJobResultsStream(ctx context.Context, jobID string) (<-chan *models.ResolutionResult, error) {
	results, err := rs.GetJobResults(jobID)
	if err != nil {
		return nil, err
	}

	resultChannel := make(chan *models.ResolutionResult, 100)
	go func() {
		defer close(resultChannel)
		for _, result := range results {
			select {
			case resultChannel <- result:
			case <-ctx.Done():
				return
			}
		}
	}()
	return resultChannel, nil
}

// ResolveStats thống kê service
type ResolveStats struct {
	UptimeSeconds   int64          `json:"uptime_seconds"`
	StartTime       string         `json:"start_time"`
	Requests        int64          `json:"requests"`
	CacheHits       int64          `json:"cache_hits"`
	AvgProcessingMs float64        `json:"avg_processing_ms"`
	ActiveJobs      int            `json:"active_jobs"`
	Resolver        resolver.Stats `json:"resolver"`
}

// GetStartTime lấy thời gian khởi động service
func (rs *ResolveService) GetStartTime() time.Time {
	return rs.startTime
}

// GetStats lấy thống kê service
func (rs *ResolveService) GetStats() ResolveStats {
	st := ResolveStats{
		UptimeSeconds: int64(time.Since(rs.startTime).Seconds()),
		StartTime:     rs.startTime.Format(time.RFC3339),
		Requests:      rs.requests.Load(),
		CacheHits:     rs.cacheHits.Load(),
		Resolver:      rs.resolver.Stats(),
	}
	if st.Requests > 0 {
		st.AvgProcessingMs = float64(rs.totalNs.Load()) / float64(st.Requests) / float64(time.Millisecond)
	}
	for _, job := range rs.jobs.Values() {
		s := job.snapshot().Status
		if s == responses.JobStatusPending || s == responses.JobStatusRunning {
			st.ActiveJobs++
		}
	}
	return st
}
