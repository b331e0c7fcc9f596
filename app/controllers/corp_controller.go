package controllers

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/corp-resolver/app/models"
	"github.com/corp-resolver/app/requests"
	"github.com/corp-resolver/app/responses"
	"github.com/corp-resolver/app/services"
	"github.com/corp-resolver/helpers/utils"
	"github.com/corp-resolver/internal/errs"
	"github.com/corp-resolver/internal/resolver"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Searcher tìm kiếm registry qua search index (search.RegistrySearcher)
type Searcher interface {
	Search(ctx context.Context, query string, limit int, listedOnly bool) ([]models.CorpHit, error)
}

// CorpController controller xử lý các request resolve tên công ty
type CorpController struct {
	resolveService *services.ResolveService
	tables         resolver.TableSource
	searcher       Searcher
	version        string
	logger         *zap.Logger
}

// NewCorpController tạo mới CorpController. searcher có thể nil.
func NewCorpController(resolveService *services.ResolveService, tables resolver.TableSource, searcher Searcher, version string, logger *zap.Logger) *CorpController {
	return &CorpController{
		resolveService: resolveService,
		tables:         tables,
		searcher:       searcher,
		version:        version,
		logger:         logger,
	}
}

// Resolve resolve một tên công ty
func (cc *CorpController) Resolve(c *gin.Context) {
	var req requests.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Request không hợp lệ: "+err.Error(), nil)
		return
	}

	out := cc.resolveService.Resolve(c.Request.Context(), req.Name, req.Options.CacheEnabled())

	c.JSON(http.StatusOK, responses.ResolveResponse{
		Result:           out.Result,
		SnapshotVersion:  out.Result.SnapshotVersion,
		ProcessingTimeMs: out.Duration.Milliseconds(),
		CacheHit:         out.CacheHit,
	})
}

// BatchResolve tạo job resolve hàng loạt
func (cc *CorpController) BatchResolve(c *gin.Context) {
	var req requests.BatchResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Request không hợp lệ: "+err.Error(), nil)
		return
	}

	estimatedTime := cc.resolveService.EstimateBatchProcessingTime(len(req.Names))
	jobID := cc.resolveService.StartBatchJob(req.Names, req.Options.CacheEnabled())

	c.JSON(http.StatusAccepted, responses.BatchResolveResponse{
		JobID:            jobID,
		EstimatedSeconds: estimatedTime,
		TotalNames:       len(req.Names),
		Message:          "Job đã được tạo và đang xử lý",
	})
}

// GetJobStatus lấy trạng thái job
func (cc *CorpController) GetJobStatus(c *gin.Context) {
	jobID := c.Param("jobID")
	if !utils.IsUUID(jobID) {
		respondError(c, http.StatusNotFound, "JOB_NOT_FOUND", "Job ID không hợp lệ: "+jobID, nil)
		return
	}

	status, err := cc.resolveService.GetJobStatus(jobID)
	if err != nil {
		respondError(c, http.StatusNotFound, "JOB_NOT_FOUND", "Không tìm thấy job: "+err.Error(), nil)
		return
	}

	c.JSON(http.StatusOK, responses.JobStatusResponse{
		JobID:              status.JobID,
		Status:             status.Status,
		Progress:           status.Progress,
		Processed:          status.Processed,
		Total:              status.Total,
		Resolved:           status.Resolved,
		EstimatedRemaining: status.EstimatedRemaining,
		Message:            status.Message,
	})
}

// GetJobResults lấy kết quả job, hỗ trợ NDJSON + gzip streaming
func (cc *CorpController) GetJobResults(c *gin.Context) {
	jobID := c.Param("jobID")

	if c.Query("format") == "ndjson" {
		cc.streamNDJSONResults(c, jobID, c.Query("gzip") == "1")
		return
	}

	results, err := cc.resolveService.GetJobResults(jobID)
	if err != nil {
		cc.jobError(c, err)
		return
	}

	respondSuccess(c, "Lấy kết quả thành công", results)
}

func (cc *CorpController) jobError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrJobNotDone) {
		respondError(c, http.StatusConflict, "JOB_NOT_DONE", err.Error(), nil)
		return
	}
	respondError(c, http.StatusNotFound, "JOB_NOT_FOUND", "Không tìm thấy job: "+err.Error(), nil)
}

// streamNDJSONResults stream kết quả theo format NDJSON với hỗ trợ gzip
func (cc *CorpController) streamNDJSONResults(c *gin.Context, jobID string, gzipEnabled bool) {
	resultChannel, err := cc.resolveService.GetJobResultsStream(c.Request.Context(), jobID)
	if err != nil {
		cc.jobError(c, err)
		return
	}

	c.Header("Content-Type", "application/x-ndjson")
	var writer gin.ResponseWriter = c.Writer
	if gzipEnabled {
		c.Header("Content-Encoding", "gzip")
		gzWriter := gzip.NewWriter(c.Writer)
		defer gzWriter.Close()
		writer = &gzipResponseWriter{
			ResponseWriter: c.Writer,
			gzWriter:       gzWriter,
		}
	}
	c.Status(http.StatusOK)

	encoder := json.NewEncoder(writer)
	for result := range resultChannel {
		if err := encoder.Encode(result); err != nil {
			cc.logger.Error("Lỗi encode NDJSON", zap.Error(err))
			break
		}
		writer.Flush()
	}
}

// Search tìm kiếm registry qua Meilisearch
func (cc *CorpController) Search(c *gin.Context) {
	if cc.searcher == nil {
		respondError(c, http.StatusServiceUnavailable, "SEARCH_DISABLED", services.ErrSearchDisabled.Error(), nil)
		return
	}

	var req requests.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Request không hợp lệ: "+err.Error(), nil)
		return
	}

	hits, err := cc.searcher.Search(c.Request.Context(), req.Query, req.Limit, req.Listed)
	if err != nil {
		cc.logger.Error("Lỗi tìm kiếm registry", zap.String("query", req.Query), zap.Error(err))
		respondError(c, http.StatusBadGateway, "SEARCH_ERROR", "Lỗi tìm kiếm: "+err.Error(), nil)
		return
	}

	c.JSON(http.StatusOK, responses.SearchResponse{
		Query: req.Query,
		Hits:  hits,
		Total: len(hits),
	})
}

// GetCorp lấy entry registry theo corp_code
func (cc *CorpController) GetCorp(c *gin.Context) {
	code := c.Param("code")
	if !resolver.IsWellFormedCode(code) {
		respondError(c, http.StatusBadRequest, "INVALID_CODE", "corp_code phải gồm 6-8 chữ số", nil)
		return
	}

	table, err := cc.tables.Table(c.Request.Context())
	if err != nil {
		status := http.StatusServiceUnavailable
		if errs.IsConfig(err) {
			status = http.StatusInternalServerError
		}
		respondError(c, status, "REGISTRY_UNAVAILABLE", "Không load được registry: "+err.Error(), nil)
		return
	}

	e, ok := table.ByCode(code)
	if !ok {
		respondError(c, http.StatusNotFound, "CORP_NOT_FOUND", "Không tìm thấy corp_code "+code, nil)
		return
	}

	c.JSON(http.StatusOK, responses.CorpResponse{
		CorpCode:        e.Code,
		CorpName:        e.Name,
		StockCode:       e.StockCode,
		Listed:          e.Listed(),
		ModifyDate:      e.ModifyDate,
		SnapshotVersion: table.Version(),
	})
}

// HealthCheck kiểm tra sức khỏe service
func (cc *CorpController) HealthCheck(c *gin.Context) {
	uptime := time.Since(cc.resolveService.GetStartTime())

	registryStatus := "healthy"
	if table, err := cc.tables.Table(c.Request.Context()); err != nil || table.Len() == 0 {
		registryStatus = "unavailable"
	}
	searchStatus := "disabled"
	if cc.searcher != nil {
		searchStatus = "healthy"
	}

	status := "healthy"
	if registryStatus != "healthy" {
		status = "degraded"
	}

	c.JSON(http.StatusOK, responses.HealthCheckResponse{
		Status:    status,
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    uptime.Round(time.Second).String(),
		Version:   cc.version,
		Services: map[string]string{
			"resolver": "healthy",
			"registry": registryStatus,
			"search":   searchStatus,
		},
	})
}
