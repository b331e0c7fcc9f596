// Package matcher fuzzy match tên đã chuẩn hóa với bảng registry
package matcher

import (
	"sort"

	"github.com/corp-resolver/internal/registry"
)

// Giá trị mặc định
const (
	DefaultThreshold      = 90
	DefaultTopK           = 10
	DefaultCandidateLimit = 5
)

// Candidate một ứng viên kèm điểm, chỉ sống trong một lần resolve
type Candidate struct {
	Index int            `json:"-"`
	Entry registry.Entry `json:"entry"`
	Score int            `json:"score"`
}

// Options cấu hình Matcher
type Options struct {
	Threshold      int
	TopK           int
	CandidateLimit int
}

// Matcher tính điểm query với toàn bộ bảng
type Matcher struct {
	scorer Scorer
	opts   Options
}

// Outcome kết quả một lần match: best, có tin cậy không, và danh sách ứng viên
type Outcome struct {
	Best       Candidate
	Found      bool
	Confident  bool
	Candidates []Candidate
}

// New tạo Matcher; giá trị <= 0 dùng mặc định
func New(scorer Scorer, opts Options) *Matcher {
	if scorer == nil {
		scorer = ScorerFunc(WeightedRatio)
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.CandidateLimit <= 0 {
		opts.CandidateLimit = DefaultCandidateLimit
	}
	return &Matcher{scorer: scorer, opts: opts}
}

// Threshold ngưỡng tin cậy
func (m *Matcher) Threshold() int { return m.opts.Threshold }

// Confident điểm đạt ngưỡng
func (m *Matcher) Confident(score int) bool { return score >= m.opts.Threshold }

// scores điểm cho từng entry. Các entry cùng tên chuẩn hóa chỉ tính một lần.
func (m *Matcher) scores(query string, table *registry.Table) []int {
	out := make([]int, table.Len())
	memo := make(map[string]int)
	for i, e := range table.Entries() {
		s, ok := memo[e.Normalized]
		if !ok {
			s = m.scorer.Score(query, e.Normalized)
			memo[e.Normalized] = s
		}
		out[i] = s
	}
	return out
}

// BestMatch entry điểm cao nhất; hòa điểm thì lấy entry xuất hiện trước
func (m *Matcher) BestMatch(query string, table *registry.Table) (Candidate, bool) {
	return bestOf(m.scores(query, table), table)
}

// TopK k entry điểm cao nhất, không trùng tên chuẩn hóa, giảm dần theo điểm
func (m *Matcher) TopK(query string, table *registry.Table, k int) []Candidate {
	return topKOf(m.scores(query, table), table, k)
}

// Candidates lấy TopK, xếp lại (niêm yết trước, rồi điểm giảm dần) và cắt theo CandidateLimit
func (m *Matcher) Candidates(query string, table *registry.Table) []Candidate {
	return m.rankCandidates(topKOf(m.scores(query, table), table, m.opts.TopK))
}

// PreferListed entry niêm yết đầu tiên cùng tên chuẩn hóa với idx, nếu không có thì idx
func (m *Matcher) PreferListed(table *registry.Table, idx int) int {
	if i, ok := table.PreferListed(table.At(idx).Normalized); ok && table.At(i).Listed() {
		return i
	}
	return idx
}

// Match chạy cả BestMatch và Candidates trên cùng một vector điểm
func (m *Matcher) Match(query string, table *registry.Table) Outcome {
	scores := m.scores(query, table)

	best, found := bestOf(scores, table)
	out := Outcome{Best: best, Found: found}
	if found && m.Confident(best.Score) {
		out.Confident = true
		return out
	}

	out.Candidates = m.rankCandidates(topKOf(scores, table, m.opts.TopK))
	return out
}

func (m *Matcher) rankCandidates(pool []Candidate) []Candidate {
	sort.SliceStable(pool, func(i, j int) bool {
		li, lj := pool[i].Entry.Listed(), pool[j].Entry.Listed()
		if li != lj {
			return li
		}
		return pool[i].Score > pool[j].Score
	})
	if len(pool) > m.opts.CandidateLimit {
		pool = pool[:m.opts.CandidateLimit]
	}
	return pool
}

func bestOf(scores []int, table *registry.Table) (Candidate, bool) {
	best := -1
	for i, s := range scores {
		if best < 0 || s > scores[best] {
			best = i
		}
	}
	if best < 0 {
		return Candidate{}, false
	}
	return Candidate{Index: best, Entry: table.At(best), Score: scores[best]}, true
}

// topKOf gom nhóm theo tên chuẩn hóa; đại diện nhóm là entry niêm yết đầu tiên,
// nếu không có thì entry đầu tiên. Hòa điểm giữ thứ tự registry.
func topKOf(scores []int, table *registry.Table, k int) []Candidate {
	if k <= 0 || len(scores) == 0 {
		return []Candidate{}
	}

	seen := make(map[string]bool)
	groups := make([]Candidate, 0)
	for i, e := range table.Entries() {
		if seen[e.Normalized] {
			continue
		}
		seen[e.Normalized] = true

		rep := i
		if j, ok := table.PreferListed(e.Normalized); ok {
			rep = j
		}
		groups = append(groups, Candidate{Index: rep, Entry: table.At(rep), Score: scores[i]})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Score > groups[j].Score
	})
	if len(groups) > k {
		groups = groups[:k]
	}
	return groups
}
