package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ResolutionReview tên không resolve được, chờ người review
type ResolutionReview struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Query           string             `bson:"query" json:"query"`                                 // Tên gốc
	NormalizedQuery string             `bson:"normalized_query" json:"normalized_query"`           // Tên đã chuẩn hóa
	AutoResult      ResolutionResult   `bson:"auto_result" json:"auto_result"`                     // Kết quả tự động
	Status          string             `bson:"status" json:"status"`                               // Trạng thái review
	ManualCode      *string            `bson:"manual_code,omitempty" json:"manual_code,omitempty"` // corp_code do người review chọn
	ReviewerID      *string            `bson:"reviewer_id,omitempty" json:"reviewer_id,omitempty"` // ID người review
	ReviewedAt      *time.Time         `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"` // Thời gian review
	Occurrences     int                `bson:"occurrences" json:"occurrences"`                     // Số lần gặp lại
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`                       // Thời gian tạo
}

// Status constants
const (
	ReviewStatusPending  = "pending"
	ReviewStatusApproved = "approved"
	ReviewStatusRejected = "rejected"
)

// NewResolutionReview tạo mới một ResolutionReview
func NewResolutionReview(normalized string, result ResolutionResult) *ResolutionReview {
	return &ResolutionReview{
		Query:           result.Query,
		NormalizedQuery: normalized,
		AutoResult:      result,
		Status:          ReviewStatusPending,
		Occurrences:     1,
		CreatedAt:       time.Now(),
	}
}

// IsValidStatus kiểm tra status có hợp lệ không
func (rr *ResolutionReview) IsValidStatus() bool {
	switch rr.Status {
	case ReviewStatusPending, ReviewStatusApproved, ReviewStatusRejected:
		return true
	}
	return false
}

// Approve phê duyệt với corp_code do người review chọn
func (rr *ResolutionReview) Approve(code, reviewerID string) {
	rr.Status = ReviewStatusApproved
	rr.ManualCode = &code
	rr.ReviewerID = &reviewerID
	now := time.Now()
	rr.ReviewedAt = &now
}

// Reject từ chối, không tạo alias
func (rr *ResolutionReview) Reject(reviewerID string) {
	rr.Status = ReviewStatusRejected
	rr.ReviewerID = &reviewerID
	now := time.Now()
	rr.ReviewedAt = &now
}

// IsPending kiểm tra có đang chờ review không
func (rr *ResolutionReview) IsPending() bool {
	return rr.Status == ReviewStatusPending
}
