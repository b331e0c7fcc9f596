// Package resolver ghép normalizer, matcher và LLM fallback thành một lần resolve
// tên công ty thành corp_code.
package resolver

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/corp-resolver/app/models"
	"github.com/corp-resolver/internal/matcher"
	"github.com/corp-resolver/internal/normalizer"
	"github.com/corp-resolver/internal/registry"
	"go.uber.org/zap"
)

// TableSource nguồn bảng registry (registry.Store)
type TableSource interface {
	Table(ctx context.Context) (*registry.Table, error)
}

// Fallback hỏi LLM chọn một ứng viên (disambiguator.Disambiguator)
type Fallback interface {
	Ask(ctx context.Context, raw string, candidates []string) (string, bool)
}

// AliasLookup alias đã học: tên chuẩn hóa → corp_code
type AliasLookup interface {
	LookupAlias(ctx context.Context, normalized string) (string, bool)
}

// Stats đếm kết quả theo strategy
type Stats struct {
	Total     int64 `json:"total"`
	Confident int64 `json:"confident"`
	Synonym   int64 `json:"synonym"`
	Alias     int64 `json:"alias"`
	Fallback  int64 `json:"fallback"`
	NotFound  int64 `json:"not_found"`
	Errors    int64 `json:"errors"`
}

// Resolver không giữ state ngoài bảng registry dùng chung và bộ đếm
type Resolver struct {
	tables   TableSource
	matcher  *matcher.Matcher
	fallback Fallback
	synonyms *normalizer.Synonyms
	aliases  AliasLookup
	logger   *zap.Logger

	total     atomic.Int64
	confident atomic.Int64
	synonym   atomic.Int64
	alias     atomic.Int64
	fallbacks atomic.Int64
	notFound  atomic.Int64
	errors    atomic.Int64
}

// New tạo mới Resolver. fallback, synonyms có thể nil.
func New(tables TableSource, m *matcher.Matcher, fallback Fallback, synonyms *normalizer.Synonyms, logger *zap.Logger) *Resolver {
	if m == nil {
		m = matcher.New(nil, matcher.Options{})
	}
	return &Resolver{
		tables:   tables,
		matcher:  m,
		fallback: fallback,
		synonyms: synonyms,
		logger:   logger,
	}
}

// SetAliases gắn nguồn alias đã học, gọi trước khi phục vụ request
func (r *Resolver) SetAliases(aliases AliasLookup) {
	r.aliases = aliases
}

// Resolve resolve tên thô. Không trả lỗi: mọi lỗi thành kết quả không có code.
func (r *Resolver) Resolve(ctx context.Context, raw string) *models.ResolutionResult {
	start := time.Now()
	result := r.resolve(ctx, raw)
	r.count(result)

	r.logger.Debug("Resolve xong",
		zap.String("query", raw),
		zap.String("code", result.CodeValue()),
		zap.String("strategy", result.Strategy),
		zap.Int("score", result.Score),
		zap.Int("candidates", len(result.Candidates)),
		zap.Duration("duration", time.Since(start)))
	return result
}

func (r *Resolver) resolve(ctx context.Context, raw string) *models.ResolutionResult {
	result := models.NewNotFound(raw)

	query := normalizer.Normalize(raw)
	if query == "" {
		return result
	}

	table, err := r.tables.Table(ctx)
	if err != nil {
		r.errors.Add(1)
		r.logger.Error("Không load được bảng registry", zap.String("query", raw), zap.Error(err))
		return result
	}
	result.SnapshotVersion = table.Version()
	if table.Len() == 0 {
		return result
	}

	if r.aliases != nil {
		if code, ok := r.aliases.LookupAlias(ctx, query); ok {
			if e, ok := table.ByCode(code); ok {
				fill(result, e, 100, models.StrategyAlias)
				return result
			}
			r.logger.Warn("Alias trỏ tới corp_code không còn trong registry",
				zap.String("query", query), zap.String("code", code))
		}
	}

	strategy := models.StrategyConfident
	if canonical, ok := r.synonyms.Lookup(query); ok {
		query = canonical
		strategy = models.StrategySynonym
	}

	// MATCH
	outcome := r.matcher.Match(query, table)
	if !outcome.Found {
		return result
	}
	result.Score = outcome.Best.Score

	if outcome.Confident {
		idx := r.matcher.PreferListed(table, outcome.Best.Index)
		fill(result, table.At(idx), outcome.Best.Score, strategy)
		return result
	}

	// FALLBACK
	names := make([]string, 0, len(outcome.Candidates))
	scoreByName := make(map[string]int, len(outcome.Candidates))
	for _, c := range outcome.Candidates {
		names = append(names, c.Entry.Name)
		scoreByName[c.Entry.Normalized] = c.Score
	}
	result.Candidates = names

	if r.fallback == nil {
		return result
	}
	choice, ok := r.fallback.Ask(ctx, raw, names)
	if !ok {
		return result
	}
	result.FallbackChoice = &choice

	// RESOLVE_FALLBACK
	chosen := normalizer.Normalize(choice)
	idx, ok := table.PreferListed(chosen)
	if !ok {
		r.logger.Info("Lựa chọn của LLM không khớp entry nào",
			zap.String("query", raw), zap.String("choice", choice))
		return result
	}
	score, inCandidates := scoreByName[chosen]
	if !inCandidates {
		r.logger.Warn("LLM chọn tên ngoài danh sách ứng viên",
			zap.String("query", raw), zap.String("choice", choice), zap.Strings("candidates", names))
	}
	fill(result, table.At(idx), score, models.StrategyFallback)
	return result
}

// Stats thống kê số lần resolve theo strategy
func (r *Resolver) Stats() Stats {
	return Stats{
		Total:     r.total.Load(),
		Confident: r.confident.Load(),
		Synonym:   r.synonym.Load(),
		Alias:     r.alias.Load(),
		Fallback:  r.fallbacks.Load(),
		NotFound:  r.notFound.Load(),
		Errors:    r.errors.Load(),
	}
}

func (r *Resolver) count(result *models.ResolutionResult) {
	r.total.Add(1)
	switch result.Strategy {
	case models.StrategyConfident:
		r.confident.Add(1)
	case models.StrategySynonym:
		r.synonym.Add(1)
	case models.StrategyAlias:
		r.alias.Add(1)
	case models.StrategyFallback:
		r.fallbacks.Add(1)
	default:
		r.notFound.Add(1)
	}
}

func fill(result *models.ResolutionResult, e registry.Entry, score int, strategy string) {
	code := e.Code
	result.Code = &code
	result.Name = e.Name
	result.StockCode = e.StockCode
	result.Score = score
	result.Strategy = strategy
}

// IsWellFormedCode corp_code hợp lệ: 6 đến 8 chữ số ASCII
func IsWellFormedCode(code string) bool {
	if len(code) < 6 || len(code) > 8 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
