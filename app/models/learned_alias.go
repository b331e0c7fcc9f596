package models

import (
	"time"
)

// LearnedAlias tên đã chuẩn hóa được gắn thẳng vào một corp_code
type LearnedAlias struct {
	NormalizedQuery string    `bson:"normalized_query" json:"normalized_query"` // Tên đã chuẩn hóa
	CorpCode        string    `bson:"corp_code" json:"corp_code"`               // corp_code đích
	CorpName        string    `bson:"corp_name" json:"corp_name"`               // Tên chính thức lúc học
	Source          string    `bson:"source" json:"source"`                     // manual/review
	UsageCount      int       `bson:"usage_count" json:"usage_count"`           // Số lần sử dụng
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`             // Thời gian tạo
	LastUsed        time.Time `bson:"last_used" json:"last_used"`               // Lần sử dụng cuối
}

// Source constants
const (
	AliasSourceManual = "manual"
	AliasSourceReview = "review"
)

// NewLearnedAlias tạo mới một LearnedAlias
func NewLearnedAlias(normalized, code, name, source string) *LearnedAlias {
	now := time.Now()
	return &LearnedAlias{
		NormalizedQuery: normalized,
		CorpCode:        code,
		CorpName:        name,
		Source:          source,
		UsageCount:      0,
		CreatedAt:       now,
		LastUsed:        now,
	}
}

// IsValidSource kiểm tra source có hợp lệ không
func (la *LearnedAlias) IsValidSource() bool {
	return la.Source == AliasSourceManual || la.Source == AliasSourceReview
}
