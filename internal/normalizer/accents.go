package normalizer

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldWidth gộp ký tự full-width và ký tự bao (㈜ → (주)) về dạng NFKC
func FoldWidth(s string) string {
	return norm.NFKC.String(s)
}

// StripMarks loại bỏ combining mark (é → e) nhưng giữ nguyên Hangul
func StripMarks(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	out, _, _ := transform.String(t, s)
	return out
}

func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}

// ASCIIFold phiên âm tên sang ASCII thường, gộp khoảng trắng
func ASCIIFold(s string) string {
	s = unidecode.Unidecode(StripMarks(s))
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
