package requests

// ReviewApproveRequest request phê duyệt review
type ReviewApproveRequest struct {
	CorpCode   string `json:"corp_code" binding:"required,numeric,min=6,max=8"` // corp_code đúng
	ReviewerID string `json:"reviewer_id" binding:"required"`                   // ID người review
}

// ReviewRejectRequest request từ chối review
type ReviewRejectRequest struct {
	ReviewerID string `json:"reviewer_id" binding:"required"` // ID người review
}

// AddAliasRequest request thêm alias thủ công
type AddAliasRequest struct {
	Name     string `json:"name" binding:"required"`                          // Tên/biệt danh
	CorpCode string `json:"corp_code" binding:"required,numeric,min=6,max=8"` // corp_code đích
}

// InvalidateCacheRequest request invalidate cache
type InvalidateCacheRequest struct {
	All bool `json:"all,omitempty"` // true: xóa toàn bộ; false: chỉ phiên bản cũ
}
