package models

import "strings"

// CorpDocument document registry được index trong Meilisearch
type CorpDocument struct {
	ID              string `json:"id"`               // = corp_code
	CorpCode        string `json:"corp_code"`        // Mã DART
	CorpName        string `json:"corp_name"`        // Tên chính thức
	NormalizedName  string `json:"normalized_name"`  // Tên đã chuẩn hóa
	ASCIIName       string `json:"ascii_name"`       // Tên phiên âm ASCII
	StockCode       string `json:"stock_code"`       // Mã chứng khoán, rỗng nếu chưa niêm yết
	Listed          bool   `json:"listed"`           // Đã niêm yết
	ModifyDate      string `json:"modify_date"`      // YYYYMMDD
	SnapshotVersion string `json:"snapshot_version"` // Phiên bản registry
}

// IsValid có đủ id và tên
func (d *CorpDocument) IsValid() bool {
	return strings.TrimSpace(d.ID) != "" && strings.TrimSpace(d.CorpName) != ""
}

// CorpHit một kết quả search
type CorpHit struct {
	CorpDocument
	Score float64 `json:"score,omitempty"`
}
