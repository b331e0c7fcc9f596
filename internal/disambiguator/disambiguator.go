// Package disambiguator hỏi LLM chọn tên chuẩn trong danh sách ứng viên
// khi fuzzy match không đủ tin cậy. Mọi lỗi đều bị nuốt thành "không có kết quả".
package disambiguator

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/corp-resolver/internal/external"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultTimeout thời gian tối đa cho một lần hỏi
const DefaultTimeout = 10 * time.Second

// SystemPrompt persona cố định của trợ lý
const SystemPrompt = "기업명 매핑 어시스턴트입니다."

// Options cấu hình Disambiguator
type Options struct {
	Timeout time.Duration
	// RatePerSecond <= 0 thì không giới hạn
	RatePerSecond float64
	Burst         int
}

// Stats đếm số lần gọi
type Stats struct {
	Enabled  bool  `json:"enabled"`
	Calls    int64 `json:"calls"`
	Answered int64 `json:"answered"`
	Failed   int64 `json:"failed"`
	Skipped  int64 `json:"skipped"`
}

// Disambiguator gọi LLM tối đa một lần cho mỗi lần resolve, không retry
type Disambiguator struct {
	client  external.ChatClient
	limiter *rate.Limiter
	timeout time.Duration
	logger  *zap.Logger

	calls    atomic.Int64
	answered atomic.Int64
	failed   atomic.Int64
	skipped  atomic.Int64
}

// New tạo mới Disambiguator. client nil nghĩa là không có credential.
func New(client external.ChatClient, opts Options, logger *zap.Logger) *Disambiguator {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	d := &Disambiguator{
		client:  client,
		timeout: opts.Timeout,
		logger:  logger,
	}
	if opts.RatePerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		d.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}
	return d
}

// Enabled có client LLM hay không
func (d *Disambiguator) Enabled() bool {
	return d != nil && d.client != nil
}

// Ask hỏi LLM chọn đúng một ứng viên. Trả về false khi không có client,
// không có ứng viên, vượt rate limit, hết thời gian hoặc bất kỳ lỗi nào.
func (d *Disambiguator) Ask(ctx context.Context, raw string, candidates []string) (string, bool) {
	if !d.Enabled() || len(candidates) == 0 {
		return "", false
	}
	if d.limiter != nil && !d.limiter.Allow() {
		d.skipped.Add(1)
		d.logger.Warn("Vượt rate limit LLM, bỏ qua fallback", zap.String("query", raw))
		return "", false
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	d.calls.Add(1)
	start := time.Now()
	answer, err := d.client.Complete(ctx, SystemPrompt, BuildPrompt(raw, candidates))
	if err != nil {
		d.failed.Add(1)
		d.logger.Warn("LLM fallback lỗi",
			zap.String("query", raw),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return "", false
	}

	choice := CleanAnswer(answer)
	if choice == "" {
		d.failed.Add(1)
		d.logger.Warn("LLM trả về rỗng", zap.String("query", raw))
		return "", false
	}

	d.answered.Add(1)
	d.logger.Info("LLM đã chọn ứng viên",
		zap.String("query", raw),
		zap.String("choice", choice),
		zap.Duration("duration", time.Since(start)))
	return choice, true
}

// Stats thống kê
func (d *Disambiguator) Stats() Stats {
	if d == nil {
		return Stats{}
	}
	return Stats{
		Enabled:  d.Enabled(),
		Calls:    d.calls.Load(),
		Answered: d.answered.Load(),
		Failed:   d.failed.Load(),
		Skipped:  d.skipped.Load(),
	}
}

// BuildPrompt prompt tiếng Hàn: input thô và danh sách ứng viên, yêu cầu trả đúng một ứng viên
func BuildPrompt(raw string, candidates []string) string {
	quoted := make([]string, len(candidates))
	for i, c := range candidates {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	var b strings.Builder
	b.WriteString("다음 입력에서 '공식 기업명(corp_name)'을 아래 후보 중 하나로 골라주세요.\n")
	fmt.Fprintf(&b, "입력: %q\n", raw)
	fmt.Fprintf(&b, "후보: [%s]\n", strings.Join(quoted, ", "))
	b.WriteString("출력: 후보 문자열 하나만 그대로 출력하세요. 설명은 쓰지 마세요.")
	return b.String()
}

// CleanAnswer trim khoảng trắng và dấu nháy bao quanh
func CleanAnswer(s string) string {
	s = strings.TrimSpace(s)
	for len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'' || first == '`') && first == last {
			s = strings.TrimSpace(s[1 : len(s)-1])
			continue
		}
		break
	}
	return s
}
