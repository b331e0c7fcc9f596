package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ResolutionCache document cache kết quả resolve trong MongoDB
type ResolutionCache struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Key             string             `bson:"key" json:"key"`                           // phiên bản registry + tên đã chuẩn hóa
	Fingerprint     string             `bson:"fingerprint" json:"fingerprint"`           // sha256 của key
	Query           string             `bson:"query" json:"query"`                       // Tên gốc lần đầu
	Result          ResolutionResult   `bson:"result" json:"result"`                     // Kết quả resolve
	Strategy        string             `bson:"strategy" json:"strategy"`                 // Chiến lược resolve
	SnapshotVersion string             `bson:"snapshot_version" json:"snapshot_version"` // Phiên bản registry
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	LastAccessed    time.Time          `bson:"last_accessed" json:"last_accessed"`
	AccessCount     int                `bson:"access_count" json:"access_count"`
}

// NewResolutionCache tạo mới một ResolutionCache
func NewResolutionCache(key, fingerprint, snapshotVersion string, result ResolutionResult) *ResolutionCache {
	now := time.Now()
	return &ResolutionCache{
		Key:             key,
		Fingerprint:     fingerprint,
		Query:           result.Query,
		Result:          result,
		Strategy:        result.Strategy,
		SnapshotVersion: snapshotVersion,
		CreatedAt:       now,
		LastAccessed:    now,
		AccessCount:     1,
	}
}

// UpdateAccess cập nhật thông tin truy cập
func (rc *ResolutionCache) UpdateAccess() {
	rc.LastAccessed = time.Now()
	rc.AccessCount++
}

// IsExpired kiểm tra cache có hết hạn không (dựa trên thời gian tạo)
func (rc *ResolutionCache) IsExpired(ttl time.Duration) bool {
	return ttl > 0 && time.Since(rc.CreatedAt) > ttl
}

// IsValidSnapshotVersion kiểm tra phiên bản registry có khớp không
func (rc *ResolutionCache) IsValidSnapshotVersion(currentVersion string) bool {
	return rc.SnapshotVersion == currentVersion
}
