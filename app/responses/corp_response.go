package responses

import (
	"github.com/corp-resolver/app/models"
)

// ResolveResponse response resolve một tên
type ResolveResponse struct {
	Result           *models.ResolutionResult `json:"result"`             // Kết quả resolve
	SnapshotVersion  string                   `json:"snapshot_version"`   // Phiên bản registry
	ProcessingTimeMs int64                    `json:"processing_time_ms"` // Thời gian xử lý (ms)
	CacheHit         bool                     `json:"cache_hit"`          // Có hit cache không
}

// BatchResolveResponse response tạo job resolve hàng loạt
type BatchResolveResponse struct {
	JobID            string `json:"job_id"`            // ID của job
	EstimatedSeconds int    `json:"estimated_seconds"` // Thời gian ước tính (giây)
	TotalNames       int    `json:"total_names"`       // Tổng số tên
	Message          string `json:"message"`           // Thông báo
}

// JobStatusResponse response trạng thái job
type JobStatusResponse struct {
	JobID              string  `json:"job_id"`              // ID của job
	Status             string  `json:"status"`              // Trạng thái job
	Progress           float64 `json:"progress"`            // Tiến độ (0.0 - 1.0)
	Processed          int     `json:"processed"`           // Số tên đã xử lý
	Total              int     `json:"total"`               // Tổng số tên
	Resolved           int     `json:"resolved"`            // Số tên có code
	EstimatedRemaining int     `json:"estimated_remaining"` // Thời gian còn lại ước tính (giây)
	Message            string  `json:"message"`             // Thông báo
}

// JobStatus constants
const (
	JobStatusPending = "pending"
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
)

// SearchResponse response tìm kiếm registry
type SearchResponse struct {
	Query string           `json:"query"` // Từ khóa
	Hits  []models.CorpHit `json:"hits"`  // Kết quả
	Total int              `json:"total"` // Số kết quả
}

// CorpResponse response một entry registry
type CorpResponse struct {
	CorpCode        string `json:"corp_code"`        // Mã DART
	CorpName        string `json:"corp_name"`        // Tên chính thức
	StockCode       string `json:"stock_code"`       // Mã chứng khoán
	Listed          bool   `json:"listed"`           // Đã niêm yết
	ModifyDate      string `json:"modify_date"`      // YYYYMMDD
	SnapshotVersion string `json:"snapshot_version"` // Phiên bản registry
}

// ErrorResponse response lỗi
type ErrorResponse struct {
	Error     string      `json:"error"`                // Mã lỗi
	Message   string      `json:"message"`              // Thông báo lỗi
	Details   interface{} `json:"details,omitempty"`    // Chi tiết lỗi
	Timestamp string      `json:"timestamp"`            // Thời gian xảy ra lỗi
	RequestID string      `json:"request_id,omitempty"` // ID của request
}

// SuccessResponse response thành công
type SuccessResponse struct {
	Success   bool        `json:"success"`        // Có thành công không
	Message   string      `json:"message"`        // Thông báo
	Data      interface{} `json:"data,omitempty"` // Dữ liệu
	Timestamp string      `json:"timestamp"`      // Thời gian
}

// HealthCheckResponse response kiểm tra sức khỏe
type HealthCheckResponse struct {
	Status    string            `json:"status"`    // Trạng thái sức khỏe
	Timestamp string            `json:"timestamp"` // Thời gian kiểm tra
	Uptime    string            `json:"uptime"`    // Thời gian hoạt động
	Version   string            `json:"version"`   // Phiên bản
	Services  map[string]string `json:"services"`  // Trạng thái các service
}
