package matcher

import (
	"fmt"
	"testing"

	"github.com/corp-resolver/internal/normalizer"
	"github.com/corp-resolver/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightedRatio(t *testing.T) {
	testCases := []struct {
		name string
		a, b string
		min  int
		max  int
	}{
		{name: "Exact", a: "삼성전자", b: "삼성전자", min: 100, max: 100},
		{name: "Empty", a: "", b: "삼성전자", min: 0, max: 0},
		{name: "Substring_Below_Threshold", a: "기아차", b: "기아", min: 80, max: 89},
		{name: "Prefix_Below_Threshold", a: "삼성전자", b: "삼성전자약품", min: 80, max: 89},
		{name: "Token_Order", a: "lg 화학", b: "화학 lg", min: 90, max: 95},
		{name: "One_Typo", a: "sk하이닉스", b: "sk하이닉수", min: 80, max: 89},
		{name: "Unrelated", a: "카카오", b: "현대모비스", min: 0, max: 30},
		{name: "Very_Long_Partial", a: "lg", b: "lg에너지솔루션홀딩스글로벌투자", min: 1, max: 60},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := WeightedRatio(tc.a, tc.b)
			assert.GreaterOrEqual(t, got, tc.min)
			assert.LessOrEqual(t, got, tc.max)
			assert.Equal(t, got, WeightedRatio(tc.b, tc.a), "đối xứng")
		})
	}
}

func TestJaroWinkler(t *testing.T) {
	assert.Equal(t, 100, JaroWinkler("naver", "naver"))
	assert.Equal(t, 0, JaroWinkler("", "naver"))
	assert.Greater(t, JaroWinkler("samsung", "samsong"), 90)
	assert.Less(t, JaroWinkler("kakao", "hyundai"), 70)
}

func TestNewScorer(t *testing.T) {
	for _, name := range []string{"", "weighted_ratio", "partial_ratio", "jaro_winkler", "JW"} {
		s, err := NewScorer(name)
		require.NoError(t, err, name)
		assert.Equal(t, 100, s.Score("기아", "기아"))
	}

	_, err := NewScorer("soundex")
	assert.Error(t, err)
}

func newTable(entries ...registry.Entry) *registry.Table {
	return registry.NewTable(entries)
}

func TestBestMatch(t *testing.T) {
	m := New(nil, Options{})

	table := newTable(
		registry.Entry{Code: "000020", Name: "삼성전자약품"},
		registry.Entry{Code: "005930", Name: "삼성전자", StockCode: "005930"},
	)
	best, ok := m.BestMatch(normalizer.Normalize("삼성전자"), table)
	require.True(t, ok)
	assert.Equal(t, "005930", best.Entry.Code)
	assert.Equal(t, 100, best.Score)
	assert.True(t, m.Confident(best.Score))

	_, ok = m.BestMatch("삼성전자", newTable())
	assert.False(t, ok)
}

func TestBestMatch_TieFirstOccurrence(t *testing.T) {
	tie := ScorerFunc(func(a, b string) int { return 70 })
	m := New(tie, Options{})

	table := newTable(
		registry.Entry{Code: "A", Name: "가"},
		registry.Entry{Code: "B", Name: "나", StockCode: "111111"},
	)
	best, ok := m.BestMatch("x", table)
	require.True(t, ok)
	assert.Equal(t, "A", best.Entry.Code)
	assert.Equal(t, 0, best.Index)
}

func TestPreferListed(t *testing.T) {
	m := New(nil, Options{})
	table := newTable(
		registry.Entry{Code: "U1", Name: "카카오주식회사"},
		registry.Entry{Code: "L1", Name: "카카오", StockCode: "035720"},
		registry.Entry{Code: "L2", Name: "(주)카카오", StockCode: "035721"},
		registry.Entry{Code: "U2", Name: "두나무"},
	)

	assert.Equal(t, 1, m.PreferListed(table, 0))
	assert.Equal(t, 1, m.PreferListed(table, 2))
	assert.Equal(t, 3, m.PreferListed(table, 3))
}

func TestTopK(t *testing.T) {
	m := New(nil, Options{})
	table := newTable(
		registry.Entry{Code: "1", Name: "기아"},
		registry.Entry{Code: "2", Name: "기아", StockCode: "000270"},
		registry.Entry{Code: "3", Name: "기아산업"},
		registry.Entry{Code: "4", Name: "기아차판매"},
		registry.Entry{Code: "5", Name: "현대차"},
	)

	got := m.TopK("기아차", table, 3)
	require.Len(t, got, 3)

	names := map[string]bool{}
	for i, c := range got {
		assert.False(t, names[c.Entry.Normalized], "trùng tên %s", c.Entry.Normalized)
		names[c.Entry.Normalized] = true
		if i > 0 {
			assert.GreaterOrEqual(t, got[i-1].Score, c.Score)
		}
	}

	// nhóm "기아" đại diện bằng entry niêm yết
	for _, c := range got {
		if c.Entry.Normalized == "기아" {
			assert.Equal(t, "2", c.Entry.Code)
		}
	}

	assert.Empty(t, m.TopK("기아차", table, 0))
	assert.Len(t, m.TopK("기아차", table, 100), 4)
}

func TestCandidates_ListedFirstAndLimit(t *testing.T) {
	m := New(nil, Options{})

	var entries []registry.Entry
	for i := 0; i < 12; i++ {
		e := registry.Entry{Code: fmt.Sprintf("%08d", i), Name: fmt.Sprintf("한빛테크%d", i)}
		if i%4 == 3 {
			e.StockCode = fmt.Sprintf("%06d", i)
		}
		entries = append(entries, e)
	}
	table := newTable(entries...)

	got := m.Candidates("한빛텍", table)
	require.Len(t, got, DefaultCandidateLimit)

	seenUnlisted := false
	for _, c := range got {
		if !c.Entry.Listed() {
			seenUnlisted = true
			continue
		}
		assert.False(t, seenUnlisted, "entry niêm yết phải đứng trước")
	}
}

func TestMatch(t *testing.T) {
	m := New(nil, Options{})
	table := newTable(
		registry.Entry{Code: "00106641", Name: "기아", StockCode: "000270"},
		registry.Entry{Code: "00164742", Name: "현대자동차", StockCode: "005380"},
		registry.Entry{Code: "00000001", Name: "기아오토랜드"},
	)

	out := m.Match("기아차", table)
	require.True(t, out.Found)
	assert.False(t, out.Confident)
	assert.LessOrEqual(t, len(out.Candidates), DefaultCandidateLimit)
	require.NotEmpty(t, out.Candidates)
	assert.Equal(t, "기아", out.Candidates[0].Entry.Name)

	out = m.Match("기아", table)
	assert.True(t, out.Confident)
	assert.Equal(t, "00106641", out.Best.Entry.Code)
	assert.Empty(t, out.Candidates)

	out = m.Match("기아", newTable())
	assert.False(t, out.Found)
	assert.Empty(t, out.Candidates)
}

func TestOptionsDefaults(t *testing.T) {
	m := New(nil, Options{Threshold: -1})
	assert.Equal(t, DefaultThreshold, m.Threshold())

	m = New(nil, Options{Threshold: 80})
	assert.True(t, m.Confident(85))
}
