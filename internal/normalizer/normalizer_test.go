package normalizer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Plain", input: "삼성전자", expected: "삼성전자"},
		{name: "Trailing_Suffix", input: "삼성전자주식회사", expected: "삼성전자"},
		{name: "Leading_Suffix", input: "주식회사 카카오", expected: "카카오"},
		{name: "Paren_Suffix", input: "삼성전자(주)", expected: "삼성전자"},
		{name: "Enclosed_Suffix", input: "㈜LG화학", expected: "lg화학"},
		{name: "English_Suffix", input: "SAMSUNG ELECTRONICS CO., LTD.", expected: "samsung electronics , ltd."},
		{name: "Mixed_Case_Suffix", input: "Hyundai Motor Co., Ltd.", expected: "hyundai motor"},
		{name: "Corporation_Mid_Word", input: "POSCO CORPORATION", expected: "pos"},
		{name: "Inc_With_Dot", input: "NAVER INC.", expected: "naver"},
		{name: "Full_Width", input: "ＳＫ하이닉스", expected: "sk하이닉스"},
		{name: "Paren_Segment", input: "에스케이(SK)하이닉스", expected: "에스케이하이닉스"},
		{name: "Whitespace", input: "   기아   ", expected: "기아"},
		{name: "Only_Suffix", input: "주식회사", expected: ""},
		{name: "Empty", input: "", expected: ""},
		{name: "Nested_Suffix", input: "주식주식회사회사", expected: ""},
		{name: "Deep_Nested_Suffix", input: strings.Repeat("주식", 10) + strings.Repeat("회사", 10), expected: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Normalize(tc.input))
		})
	}
}

func TestNormalize_SuffixPositionIndependent(t *testing.T) {
	base := Normalize("삼성전자")
	for _, variant := range []string{"삼성전자주식회사", "주식회사삼성전자", "삼성전자 주식회사", "(주)삼성전자", "삼성전자㈜"} {
		assert.Equal(t, base, Normalize(variant), variant)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	faker := gofakeit.New(42)

	inputs := []string{"주식주식회사회사", "CCOO", "INCINC.", "(a(b)c)", "CORPORATIONCORP", "Co., Co., Ltd.Ltd."}
	for _, depth := range []int{9, 10, 32} {
		inputs = append(inputs,
			strings.Repeat("주식", depth)+strings.Repeat("회사", depth),
			strings.Repeat("C", depth)+strings.Repeat("O", depth),
		)
	}
	for i := 0; i < 500; i++ {
		inputs = append(inputs,
			faker.Company()+" "+faker.CompanySuffix(),
			faker.Sentence(4),
			faker.LetterN(12)+"주식회사"+faker.LetterN(3),
			"("+faker.Word()+")"+faker.Word()+" CO.",
		)
	}

	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestASCIIFold(t *testing.T) {
	assert.Equal(t, "cafe", ASCIIFold("Café"))
	assert.Equal(t, "naver", ASCIIFold("  NAVER "))
	assert.NotEmpty(t, ASCIIFold("카카오"))
}

func TestSynonyms(t *testing.T) {
	s := NewSynonyms(map[string][]string{
		"기아":     {"기아차", "기아자동차", "KIA"},
		"삼성전자":   {"삼성전자주식회사", "samsung"},
		"주식회사":   {"ignored"},
		"SK하이닉스": {"SK하이닉스(주)"},
	})

	got, ok := s.Lookup(Normalize("KIA"))
	require.True(t, ok)
	assert.Equal(t, "기아", got)

	got, ok = s.Lookup("samsung")
	require.True(t, ok)
	assert.Equal(t, "삼성전자", got)

	// biệt danh chuẩn hóa trùng tên chuẩn thì bỏ qua
	_, ok = s.Lookup("삼성전자")
	assert.False(t, ok)
	_, ok = s.Lookup("sk하이닉스")
	assert.False(t, ok)

	_, ok = s.Lookup("ignored")
	assert.False(t, ok)

	assert.Equal(t, []string{"kia", "기아자동차", "기아차"}, s.Groups()["기아"])

	var empty *Synonyms
	assert.Empty(t, empty.Groups())
	_, ok = empty.Lookup("기아차")
	assert.False(t, ok)
	assert.Equal(t, 0, empty.Len())
}

func TestLoadSynonyms(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "synonyms.yaml")
	content := "synonyms:\n  현대차:\n    - 현대자동차\n    - hyundai\n  NAVER:\n    - 네이버\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := LoadSynonyms(path)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())

	got, ok := s.Lookup("네이버")
	require.True(t, ok)
	assert.Equal(t, "naver", got)

	_, err = LoadSynonyms(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("synonyms: [unclosed"), 0o644))
	_, err = LoadSynonyms(bad)
	assert.Error(t, err)
}
