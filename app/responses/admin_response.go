package responses

import (
	"github.com/corp-resolver/app/models"
)

// ReviewListResponse response danh sách review
type ReviewListResponse struct {
	Reviews []models.ResolutionReview `json:"reviews"` // Danh sách review
	Total   int                       `json:"total"`   // Số review trả về
	Pending int64                     `json:"pending"` // Số review đang chờ
	Status  string                    `json:"status"`  // Filter trạng thái
	Limit   int                       `json:"limit"`   // Giới hạn số lượng
}

// ReviewActionResponse response thao tác review
type ReviewActionResponse struct {
	Success   bool                 `json:"success"`         // Thao tác có thành công không
	ReviewID  string               `json:"review_id"`       // ID của review
	Action    string               `json:"action"`          // Hành động thực hiện
	Alias     *models.LearnedAlias `json:"alias,omitempty"` // Alias được tạo
	Message   string               `json:"message"`         // Thông báo
	UpdatedAt string               `json:"updated_at"`      // Thời gian cập nhật
}
