package requests

// ResolveRequest request resolve một tên công ty
type ResolveRequest struct {
	Name    string         `json:"name" binding:"required,max=512"` // Tên cần resolve
	Options ResolveOptions `json:"options,omitempty"`               // Tùy chọn resolve
}

// ResolveOptions tùy chọn resolve
type ResolveOptions struct {
	UseCache *bool `json:"use_cache,omitempty"` // Có sử dụng cache không, mặc định có
}

// CacheEnabled mặc định dùng cache khi không truyền
func (o ResolveOptions) CacheEnabled() bool {
	return o.UseCache == nil || *o.UseCache
}

// BatchResolveRequest request resolve hàng loạt (tối đa 20k tên)
type BatchResolveRequest struct {
	Names   []string       `json:"names" binding:"required,min=1,max=20000"` // Danh sách tên
	Options ResolveOptions `json:"options,omitempty"`                        // Tùy chọn resolve
}

// SearchRequest query tìm kiếm registry
type SearchRequest struct {
	Query  string `form:"q" binding:"required"`            // Từ khóa
	Limit  int    `form:"limit" binding:"omitempty,min=1"` // Số kết quả tối đa
	Listed bool   `form:"listed"`                          // Chỉ công ty niêm yết
}
