// Package registry load và giữ bảng doanh nghiệp DART trong bộ nhớ
package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/corp-resolver/internal/normalizer"
)

// Entry một doanh nghiệp trong registry
type Entry struct {
	Code       string `json:"corp_code"`
	Name       string `json:"corp_name"`
	StockCode  string `json:"stock_code"`  // rỗng nếu chưa niêm yết
	ModifyDate string `json:"modify_date"` // YYYYMMDD
	Normalized string `json:"normalized_name,omitempty"`
}

// Listed doanh nghiệp đã niêm yết (có mã chứng khoán)
func (e Entry) Listed() bool {
	return strings.TrimSpace(e.StockCode) != ""
}

// ModifiedAt parse ngày cập nhật cuối
func (e Entry) ModifiedAt() (time.Time, error) {
	return time.Parse("20060102", e.ModifyDate)
}

// Table bảng registry bất biến sau khi tạo, đọc đồng thời an toàn
type Table struct {
	entries []Entry
	byName  map[string][]int
	byCode  map[string]int
	listed  int
	version string
}

// NewTable tạo Table, tính sẵn tên chuẩn hóa cho từng entry
func NewTable(entries []Entry) *Table {
	t := &Table{
		entries: make([]Entry, len(entries)),
		byName:  make(map[string][]int, len(entries)),
		byCode:  make(map[string]int, len(entries)),
	}

	h := sha256.New()
	for i, e := range entries {
		e.StockCode = strings.TrimSpace(e.StockCode)
		e.Normalized = normalizer.Normalize(e.Name)
		t.entries[i] = e

		t.byName[e.Normalized] = append(t.byName[e.Normalized], i)
		if _, dup := t.byCode[e.Code]; !dup {
			t.byCode[e.Code] = i
		}
		if e.Listed() {
			t.listed++
		}

		h.Write([]byte(e.Code + "\x1f" + e.Name + "\x1f" + e.StockCode + "\x1f" + e.ModifyDate + "\x1e"))
	}
	t.version = hex.EncodeToString(h.Sum(nil))[:12]

	return t
}

// Len số entry
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// At entry theo index
func (t *Table) At(i int) Entry {
	return t.entries[i]
}

// Entries trả về slice nội bộ, caller không được sửa
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	return t.entries
}

// Lookup các index có tên chuẩn hóa bằng normalized, theo thứ tự registry
func (t *Table) Lookup(normalized string) []int {
	if t == nil {
		return nil
	}
	return t.byName[normalized]
}

// PreferListed index entry niêm yết đầu tiên cùng tên chuẩn hóa, nếu không có thì index đầu tiên
func (t *Table) PreferListed(normalized string) (int, bool) {
	group := t.Lookup(normalized)
	if len(group) == 0 {
		return -1, false
	}
	for _, i := range group {
		if t.entries[i].Listed() {
			return i, true
		}
	}
	return group[0], true
}

// ByCode tìm entry theo corp_code
func (t *Table) ByCode(code string) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	i, ok := t.byCode[code]
	if !ok {
		return Entry{}, false
	}
	return t.entries[i], true
}

// ListedCount số entry đã niêm yết
func (t *Table) ListedCount() int {
	if t == nil {
		return 0
	}
	return t.listed
}

// Version mã phiên bản snapshot (sha256 rút gọn của nội dung)
func (t *Table) Version() string {
	if t == nil {
		return ""
	}
	return t.version
}
