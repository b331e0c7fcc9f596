package matcher

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/corp-resolver/internal/normalizer"
	"github.com/xrash/smetrics"
)

// Scorer tính độ tương đồng 0..100, tất định
type Scorer interface {
	Score(a, b string) int
}

// ScorerFunc adapter cho hàm thường
type ScorerFunc func(a, b string) int

func (f ScorerFunc) Score(a, b string) int { return f(a, b) }

const (
	ScorerWeighted    = "weighted_ratio"
	ScorerJaroWinkler = "jaro_winkler"
)

// partial match chỉ dùng khi chênh lệch độ dài từ 1.5 lần
const (
	partialLenRatio  = 1.5
	partialScale     = 0.85
	longPartialRatio = 8.0
	longPartialScale = 0.6
	tokenScale       = 0.95
)

// NewScorer chọn scorer theo tên cấu hình
func NewScorer(name string) (Scorer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ScorerWeighted, "partial_ratio", "wratio":
		return ScorerFunc(WeightedRatio), nil
	case ScorerJaroWinkler, "jw":
		return ScorerFunc(JaroWinkler), nil
	default:
		return nil, fmt.Errorf("scorer không hỗ trợ: %q", name)
	}
}

// WeightedRatio kết hợp edit-distance ratio, token sort/set ratio và partial ratio.
// Partial ratio bị nhân 0.85 nên một chuỗi con đơn thuần không đạt ngưỡng 90.
func WeightedRatio(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}

	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	lenRatio := float64(max(la, lb)) / float64(min(la, lb))

	best := ratio(a, b)
	if lenRatio < partialLenRatio {
		best = math.Max(best, tokenSortRatio(a, b)*tokenScale)
		best = math.Max(best, tokenSetRatio(a, b)*tokenScale)
	} else {
		scale := partialScale
		if lenRatio >= longPartialRatio {
			scale = longPartialScale
		}
		best = math.Max(best, partialRatio(a, b)*scale)
		best = math.Max(best, partialRatio(sortedTokens(a), sortedTokens(b))*scale*tokenScale)
	}

	return toPercent(best)
}

// JaroWinkler độ tương đồng Jaro-Winkler trên dạng phiên âm ASCII
func JaroWinkler(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}
	fa, fb := normalizer.ASCIIFold(a), normalizer.ASCIIFold(b)
	if fa == "" || fb == "" {
		return 0
	}
	return toPercent(smetrics.JaroWinkler(fa, fb, 0.7, 4))
}

// ratio 1 - levenshtein/maxLen, tính theo rune
func ratio(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la == 0 || lb == 0 {
		return 0
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(max(la, lb))
}

// partialRatio ratio tốt nhất giữa chuỗi ngắn và mọi cửa sổ cùng độ dài của chuỗi dài
func partialRatio(a, b string) float64 {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}

	s := string(short)
	best := 0.0
	for i := 0; i+len(short) <= len(long); i++ {
		r := ratio(s, string(long[i:i+len(short)]))
		if r > best {
			best = r
			if best == 1 {
				break
			}
		}
	}
	return best
}

func tokenSortRatio(a, b string) float64 {
	return ratio(sortedTokens(a), sortedTokens(b))
}

// tokenSetRatio so sánh phần giao token với phần giao + phần dư của mỗi bên
func tokenSetRatio(a, b string) float64 {
	ta, tb := tokenSet(a), tokenSet(b)

	var inter, onlyA, onlyB []string
	for t := range ta {
		if tb[t] {
			inter = append(inter, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range tb {
		if !ta[t] {
			onlyB = append(onlyB, t)
		}
	}
	sort.Strings(inter)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	t0 := strings.Join(inter, " ")
	t1 := strings.TrimSpace(t0 + " " + strings.Join(onlyA, " "))
	t2 := strings.TrimSpace(t0 + " " + strings.Join(onlyB, " "))

	return math.Max(ratio(t0, t1), math.Max(ratio(t0, t2), ratio(t1, t2)))
}

func sortedTokens(s string) string {
	fields := strings.Fields(s)
	sort.Strings(fields)
	return strings.Join(fields, " ")
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, f := range strings.Fields(s) {
		set[f] = true
	}
	return set
}

func toPercent(v float64) int {
	p := int(math.Round(v * 100))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
