// Package search index và tìm kiếm registry công ty trên Meilisearch
package search

import (
	"fmt"
	"strings"

	ms "github.com/meilisearch/meilisearch-go"
)

// newClient tạo Meilisearch client, key rỗng thì không gửi Authorization
func newClient(host, key string) ms.ServiceManager {
	if key == "" {
		return ms.New(host)
	}
	return ms.New(host, ms.WithAPIKey(key))
}

// FilterListed filter theo trạng thái niêm yết
func FilterListed(listed bool) string {
	return fmt.Sprintf("listed = %t", listed)
}

// FilterStaleSnapshot filter document không thuộc phiên bản hiện tại
func FilterStaleSnapshot(version string) string {
	return fmt.Sprintf("snapshot_version != %q", version)
}

// FilterCode filter theo corp_code
func FilterCode(code string) string {
	return fmt.Sprintf("corp_code = %q", code)
}

// And nối các filter không rỗng
func And(filters ...string) string {
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		if f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " AND ")
}
