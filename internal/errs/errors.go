// Package errs định nghĩa các loại lỗi dùng chung của resolver
package errs

import (
	"errors"
	"fmt"
)

// ErrNotFound không tìm thấy bản ghi (không phải lỗi nghiêm trọng)
var ErrNotFound = errors.New("not found")

// ConfigError thiếu cấu hình bắt buộc, fatal khi khởi động
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "config error: " + e.Message
	}
	return fmt.Sprintf("config error: %s: %s", e.Field, e.Message)
}

// UpstreamError lỗi khi tải hoặc parse registry từ upstream, không tự retry
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// NewConfigError tạo ConfigError
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// Upstream bọc err thành UpstreamError
func Upstream(op string, err error) *UpstreamError {
	return &UpstreamError{Op: op, Err: err}
}

// IsConfig kiểm tra err có phải ConfigError không
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsUpstream kiểm tra err có phải UpstreamError không
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
