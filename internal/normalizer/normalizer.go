// Package normalizer chuẩn hóa tên doanh nghiệp thành khóa so sánh
package normalizer

import (
	"regexp"
	"strings"
)

var reParenthesized = regexp.MustCompile(`\(.*?\)`)

// legalSuffixes hậu tố pháp lý bị xóa nguyên văn, phân biệt hoa thường.
// Chuỗi dài đứng trước chuỗi là tiền tố của nó (CORPORATION trước CORP).
var legalSuffixes = []string{
	"주식회사",
	"㈜",
	"Co., Ltd.",
	"코퍼레이션",
	"유한회사",
	"CORPORATION",
	"COMPANY",
	"LIMITED",
	"CORP",
	"INC.",
	"INC",
	"CO.",
	"CO",
}

// LegalSuffixes trả về bản sao danh sách hậu tố pháp lý
func LegalSuffixes() []string {
	out := make([]string, len(legalSuffixes))
	copy(out, legalSuffixes)
	return out
}

// Normalize tạo khóa so sánh từ tên thô.
// Không bao giờ lỗi; chuỗi rỗng cho ra chuỗi rỗng.
func Normalize(raw string) string {
	// Sau lượt đầu, mỗi lượt có thay đổi chỉ xóa bớt ký tự nên vòng lặp luôn dừng
	s := raw
	for {
		next := pass(s)
		if next == s {
			return s
		}
		s = next
	}
}

// pass một lượt chuẩn hóa. Lặp lại tới khi ổn định vì việc xóa hậu tố
// có thể làm lộ ra hậu tố mới ("주식주식회사회사").
func pass(s string) string {
	s = FoldWidth(s)
	s = reParenthesized.ReplaceAllString(s, "")
	for _, suffix := range legalSuffixes {
		s = strings.ReplaceAll(s, suffix, "")
	}
	return strings.ToLower(strings.TrimSpace(s))
}
