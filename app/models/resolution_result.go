package models

// ResolutionResult kết quả resolve một tên công ty
type ResolutionResult struct {
	Query           string   `bson:"query" json:"query"`                                           // Tên gốc người dùng nhập
	Code            *string  `bson:"code" json:"code"`                                             // corp_code, nil nếu không tìm thấy
	Name            string   `bson:"name,omitempty" json:"name,omitempty"`                         // Tên chính thức
	StockCode       string   `bson:"stock_code,omitempty" json:"stock_code,omitempty"`             // Mã chứng khoán
	Score           int      `bson:"score" json:"score"`                                           // Điểm fuzzy 0-100
	Strategy        string   `bson:"strategy" json:"strategy"`                                     // Chiến lược resolve
	Candidates      []string `bson:"candidates" json:"candidates"`                                 // Ứng viên khi không đủ tin cậy
	FallbackChoice  *string  `bson:"fallback_choice" json:"fallback_choice"`                       // Tên do LLM chọn
	SnapshotVersion string   `bson:"snapshot_version,omitempty" json:"snapshot_version,omitempty"` // Phiên bản registry
}

// Strategy constants
const (
	StrategyConfident = "confident"
	StrategySynonym   = "synonym"
	StrategyAlias     = "alias"
	StrategyFallback  = "fallback"
	StrategyNotFound  = "not_found"
)

// NewNotFound kết quả rỗng, candidates luôn là slice rỗng chứ không nil
func NewNotFound(query string) *ResolutionResult {
	return &ResolutionResult{
		Query:      query,
		Strategy:   StrategyNotFound,
		Candidates: []string{},
	}
}

// Found có code hay không
func (r *ResolutionResult) Found() bool {
	return r != nil && r.Code != nil
}

// CodeValue code hoặc chuỗi rỗng
func (r *ResolutionResult) CodeValue() string {
	if !r.Found() {
		return ""
	}
	return *r.Code
}

// NeedsReview không có code nhưng có ứng viên hoặc lựa chọn của LLM để người dùng xem
func (r *ResolutionResult) NeedsReview() bool {
	return !r.Found() && (len(r.Candidates) > 0 || r.FallbackChoice != nil)
}

// IsValidStrategy kiểm tra strategy có hợp lệ không
func (r *ResolutionResult) IsValidStrategy() bool {
	switch r.Strategy {
	case StrategyConfident, StrategySynonym, StrategyAlias, StrategyFallback, StrategyNotFound:
		return true
	}
	return false
}
