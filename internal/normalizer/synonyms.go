package normalizer

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// SynonymsConfig cấu trúc file YAML: tên chuẩn → danh sách biệt danh
type SynonymsConfig struct {
	Synonyms map[string][]string `yaml:"synonyms"`
}

// Synonyms bảng override biệt danh → tên chuẩn, khóa đã chuẩn hóa.
// Bảng không đổi sau khi tạo nên đọc đồng thời an toàn.
type Synonyms struct {
	canonical map[string]string
}

// NewSynonyms tạo bảng từ map tên chuẩn → biệt danh
func NewSynonyms(groups map[string][]string) *Synonyms {
	s := &Synonyms{canonical: make(map[string]string)}
	for canonical, aliases := range groups {
		target := Normalize(canonical)
		if target == "" {
			continue
		}
		for _, alias := range aliases {
			key := Normalize(alias)
			if key == "" || key == target {
				continue
			}
			s.canonical[key] = target
		}
	}
	return s
}

// LoadSynonyms load bảng override từ file YAML ngoài
func LoadSynonyms(path string) (*Synonyms, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("đọc file synonyms: %w", err)
	}

	var cfg SynonymsConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse file synonyms %s: %w", path, err)
	}

	return NewSynonyms(cfg.Synonyms), nil
}

// Lookup trả về tên chuẩn đã chuẩn hóa cho khóa normalized
func (s *Synonyms) Lookup(normalized string) (string, bool) {
	if s == nil {
		return "", false
	}
	v, ok := s.canonical[normalized]
	return v, ok
}

// Len số biệt danh
func (s *Synonyms) Len() int {
	if s == nil {
		return 0
	}
	return len(s.canonical)
}

// Groups tên chuẩn → danh sách biệt danh (đều đã chuẩn hóa), dùng cho synonyms của search index
func (s *Synonyms) Groups() map[string][]string {
	out := make(map[string][]string)
	if s == nil {
		return out
	}
	for alias, canonical := range s.canonical {
		out[canonical] = append(out[canonical], alias)
	}
	for k := range out {
		sort.Strings(out[k])
	}
	return out
}
