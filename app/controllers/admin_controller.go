package controllers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/corp-resolver/app/models"
	"github.com/corp-resolver/app/requests"
	"github.com/corp-resolver/app/responses"
	"github.com/corp-resolver/app/services"
	"github.com/corp-resolver/internal/errs"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminController controller xử lý các request admin
type AdminController struct {
	adminService *services.AdminService
	logger       *zap.Logger
}

// NewAdminController tạo mới AdminController
func NewAdminController(adminService *services.AdminService, logger *zap.Logger) *AdminController {
	return &AdminController{
		adminService: adminService,
		logger:       logger,
	}
}

// adminError map lỗi service sang HTTP status
func (ac *AdminController) adminError(c *gin.Context, code, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrSearchDisabled), errors.Is(err, services.ErrReviewsDisabled):
		status = http.StatusServiceUnavailable
	case errs.IsUpstream(err):
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		ac.logger.Error(message, zap.Error(err))
	}
	respondError(c, status, code, message+": "+err.Error(), nil)
}

// ReloadRegistry tải lại registry từ DART
func (ac *AdminController) ReloadRegistry(c *gin.Context) {
	result, err := ac.adminService.ReloadRegistry(c.Request.Context())
	if err != nil {
		ac.adminError(c, "RELOAD_ERROR", "Lỗi reload registry", err)
		return
	}

	respondSuccess(c, "Reload registry thành công", result)
}

// BuildIndexes build lại settings index
func (ac *AdminController) BuildIndexes(c *gin.Context) {
	startTime := time.Now()

	if err := ac.adminService.BuildIndexes(c.Request.Context()); err != nil {
		ac.adminError(c, "BUILD_ERROR", "Lỗi build indexes", err)
		return
	}

	processingTime := time.Since(startTime)
	ac.logger.Info("Build indexes thành công", zap.Duration("duration", processingTime))

	respondSuccess(c, "Build indexes thành công", map[string]interface{}{
		"processing_time_ms": processingTime.Milliseconds(),
	})
}

// SeedIndex đẩy registry lên Meilisearch
func (ac *AdminController) SeedIndex(c *gin.Context) {
	startTime := time.Now()

	n, err := ac.adminService.SeedIndex(c.Request.Context())
	if err != nil {
		ac.adminError(c, "SEED_ERROR", "Lỗi seed index", err)
		return
	}

	respondSuccess(c, "Seed index thành công", map[string]interface{}{
		"documents":          n,
		"processing_time_ms": time.Since(startTime).Milliseconds(),
	})
}

// InvalidateCache invalidate cache
func (ac *AdminController) InvalidateCache(c *gin.Context) {
	var req requests.InvalidateCacheRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Request không hợp lệ: "+err.Error(), nil)
			return
		}
	}

	startTime := time.Now()
	if err := ac.adminService.InvalidateCache(c.Request.Context(), req.All); err != nil {
		ac.adminError(c, "INVALIDATE_ERROR", "Lỗi invalidate cache", err)
		return
	}

	processingTime := time.Since(startTime)
	ac.logger.Info("Invalidate cache thành công",
		zap.Bool("all", req.All),
		zap.Duration("duration", processingTime))

	respondSuccess(c, "Invalidate cache thành công", map[string]interface{}{
		"all":                req.All,
		"processing_time_ms": processingTime.Milliseconds(),
	})
}

// GetStats lấy thống kê hệ thống
func (ac *AdminController) GetStats(c *gin.Context) {
	stats, err := ac.adminService.GetSystemStats(c.Request.Context())
	if err != nil {
		ac.adminError(c, "STATS_ERROR", "Lỗi lấy stats", err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ListReviews danh sách review theo trạng thái
func (ac *AdminController) ListReviews(c *gin.Context) {
	status := c.DefaultQuery("status", models.ReviewStatusPending)
	if status == "all" {
		status = ""
	}
	limit := 100
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 {
		limit = l
	}

	reviews, pending, err := ac.adminService.ListReviews(c.Request.Context(), status, limit)
	if err != nil {
		ac.adminError(c, "REVIEW_ERROR", "Lỗi lấy danh sách review", err)
		return
	}

	c.JSON(http.StatusOK, responses.ReviewListResponse{
		Reviews: reviews,
		Total:   len(reviews),
		Pending: pending,
		Status:  status,
		Limit:   limit,
	})
}

// ApproveReview duyệt review và học alias
func (ac *AdminController) ApproveReview(c *gin.Context) {
	var req requests.ReviewApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Request không hợp lệ: "+err.Error(), nil)
		return
	}

	id := c.Param("id")
	alias, err := ac.adminService.ApproveReview(c.Request.Context(), id, req.CorpCode, req.ReviewerID)
	if err != nil {
		ac.adminError(c, "REVIEW_ERROR", "Lỗi duyệt review", err)
		return
	}

	c.JSON(http.StatusOK, responses.ReviewActionResponse{
		Success:   true,
		ReviewID:  id,
		Action:    "approve",
		Alias:     alias,
		Message:   "Đã duyệt review",
		UpdatedAt: time.Now().Format(time.RFC3339),
	})
}

// RejectReview từ chối review
func (ac *AdminController) RejectReview(c *gin.Context) {
	var req requests.ReviewRejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Request không hợp lệ: "+err.Error(), nil)
		return
	}

	id := c.Param("id")
	if err := ac.adminService.RejectReview(c.Request.Context(), id, req.ReviewerID); err != nil {
		ac.adminError(c, "REVIEW_ERROR", "Lỗi từ chối review", err)
		return
	}

	c.JSON(http.StatusOK, responses.ReviewActionResponse{
		Success:   true,
		ReviewID:  id,
		Action:    "reject",
		Message:   "Đã từ chối review",
		UpdatedAt: time.Now().Format(time.RFC3339),
	})
}

// AddAlias thêm alias thủ công
func (ac *AdminController) AddAlias(c *gin.Context) {
	var req requests.AddAliasRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Request không hợp lệ: "+err.Error(), nil)
		return
	}

	alias, err := ac.adminService.AddAlias(c.Request.Context(), req.Name, req.CorpCode)
	if err != nil {
		ac.adminError(c, "ALIAS_ERROR", "Lỗi thêm alias", err)
		return
	}

	c.JSON(http.StatusCreated, alias)
}

// ExportRegistry export bảng registry hiện tại (csv hoặc json)
func (ac *AdminController) ExportRegistry(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	contentType := "text/csv; charset=utf-8"
	switch format {
	case "csv":
	case "json":
		contentType = "application/json"
	default:
		respondError(c, http.StatusBadRequest, "INVALID_FORMAT", "Không hỗ trợ format "+format, nil)
		return
	}

	var buf bytes.Buffer
	if err := ac.adminService.ExportRegistry(c.Request.Context(), &buf, format); err != nil {
		ac.adminError(c, "EXPORT_ERROR", "Lỗi export registry", err)
		return
	}

	filename := fmt.Sprintf("registry_export_%s.%s", time.Now().Format("20060102_150405"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
