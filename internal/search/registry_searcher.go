package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/corp-resolver/app/models"
	"github.com/corp-resolver/internal/normalizer"
	"github.com/corp-resolver/internal/registry"
	"github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"
)

// Giá trị mặc định
const (
	DefaultIndexName = "corps"
	DefaultLimit     = 20
	MaxLimit         = 100
	seedBatchSize    = 1000
)

// SearchConfig cấu hình cho Meilisearch
type SearchConfig struct {
	Host      string
	APIKey    string
	IndexName string
	Timeout   time.Duration
}

// RegistrySearcher tìm kiếm registry công ty trên Meilisearch
type RegistrySearcher struct {
	client    meilisearch.ServiceManager
	logger    *zap.Logger
	indexName string
	timeout   time.Duration
}

// NewRegistrySearcher tạo mới RegistrySearcher và kiểm tra kết nối
func NewRegistrySearcher(config SearchConfig, logger *zap.Logger) (*RegistrySearcher, error) {
	if config.Host == "" {
		return nil, errors.New("thiếu Meilisearch host")
	}
	if config.IndexName == "" {
		config.IndexName = DefaultIndexName
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}

	client := newClient(config.Host, config.APIKey)
	if _, err := client.Health(); err != nil {
		return nil, fmt.Errorf("không thể kết nối Meilisearch: %w", err)
	}

	return &RegistrySearcher{
		client:    client,
		logger:    logger,
		indexName: config.IndexName,
		timeout:   config.Timeout,
	}, nil
}

// IndexName tên index
func (rs *RegistrySearcher) IndexName() string {
	return rs.indexName
}

// BuildIndexes cấu hình index: trường tìm kiếm, filter, typo tolerance và synonyms
func (rs *RegistrySearcher) BuildIndexes(synonyms map[string][]string) error {
	index := rs.client.Index(rs.indexName)

	task, err := index.UpdateSettings(&meilisearch.Settings{
		SearchableAttributes: []string{"corp_name", "normalized_name", "ascii_name", "stock_code", "corp_code"},
		FilterableAttributes: []string{"corp_code", "stock_code", "listed", "snapshot_version"},
		SortableAttributes:   []string{"modify_date", "corp_name"},
		RankingRules:         []string{"words", "typo", "proximity", "attribute", "sort", "exactness"},
		Synonyms:             synonyms,
		TypoTolerance: &meilisearch.TypoTolerance{
			Enabled: true,
			MinWordSizeForTypos: meilisearch.MinWordSizeForTypos{
				OneTypo:  3,
				TwoTypos: 7,
			},
			DisableOnAttributes: []string{"corp_code", "stock_code"},
		},
	})
	if err != nil {
		return fmt.Errorf("lỗi cấu hình index: %w", err)
	}

	rs.logger.Info("Đã cấu hình index Meilisearch thành công",
		zap.String("index", rs.indexName),
		zap.Int("synonym_groups", len(synonyms)),
		zap.Int64("task_uid", task.TaskUID))
	return nil
}

// Documents chuyển bảng registry thành document để index
func Documents(table *registry.Table) []models.CorpDocument {
	docs := make([]models.CorpDocument, 0, table.Len())
	for _, e := range table.Entries() {
		doc := models.CorpDocument{
			ID:              e.Code,
			CorpCode:        e.Code,
			CorpName:        e.Name,
			NormalizedName:  e.Normalized,
			ASCIIName:       normalizer.ASCIIFold(e.Name),
			StockCode:       e.StockCode,
			Listed:          e.Listed(),
			ModifyDate:      e.ModifyDate,
			SnapshotVersion: table.Version(),
		}
		if doc.IsValid() {
			docs = append(docs, doc)
		}
	}
	return docs
}

// SeedEntries nạp toàn bộ registry vào Meilisearch theo batch rồi xóa document của phiên bản cũ
func (rs *RegistrySearcher) SeedEntries(table *registry.Table) (int, error) {
	docs := Documents(table)
	if len(docs) == 0 {
		return 0, errors.New("không có dữ liệu để seed")
	}

	index := rs.client.Index(rs.indexName)

	for i := 0; i < len(docs); i += seedBatchSize {
		end := i + seedBatchSize
		if end > len(docs) {
			end = len(docs)
		}

		task, err := index.AddDocuments(docs[i:end], "id")
		if err != nil {
			return i, fmt.Errorf("lỗi thêm documents batch %d-%d: %w", i, end, err)
		}

		rs.logger.Debug("Đã thêm batch documents",
			zap.Int("from", i),
			zap.Int("to", end),
			zap.Int64("task_uid", task.TaskUID))
	}

	if _, err := index.DeleteDocumentsByFilter(FilterStaleSnapshot(table.Version())); err != nil {
		rs.logger.Warn("Không xóa được document phiên bản cũ", zap.Error(err))
	}

	rs.logger.Info("Đã seed registry vào Meilisearch",
		zap.Int("total_documents", len(docs)),
		zap.String("snapshot_version", table.Version()))
	return len(docs), nil
}

// Search tìm công ty theo tên, mã DART hoặc mã chứng khoán
func (rs *RegistrySearcher) Search(ctx context.Context, query string, limit int, listedOnly bool) ([]models.CorpHit, error) {
	if query == "" {
		return nil, errors.New("query không được để trống")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	req := &meilisearch.SearchRequest{
		Limit:            int64(limit),
		ShowRankingScore: true,
	}
	if listedOnly {
		req.Filter = FilterListed(true)
	}

	result, err := rs.search(ctx, query, req)
	if err != nil {
		return nil, err
	}
	return decodeHits(result.Hits)
}

// GetByCode lấy document theo corp_code
func (rs *RegistrySearcher) GetByCode(ctx context.Context, code string) (*models.CorpHit, error) {
	result, err := rs.search(ctx, "", &meilisearch.SearchRequest{Filter: FilterCode(code), Limit: 1})
	if err != nil {
		return nil, err
	}

	hits, err := decodeHits(result.Hits)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, fmt.Errorf("corp_code %s: không tìm thấy", code)
	}
	return &hits[0], nil
}

// search chạy Search trong goroutine để tôn trọng timeout và ctx
func (rs *RegistrySearcher) search(ctx context.Context, query string, req *meilisearch.SearchRequest) (*meilisearch.SearchResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, rs.timeout)
	defer cancel()

	type searchResult struct {
		resp *meilisearch.SearchResponse
		err  error
	}
	done := make(chan searchResult, 1)
	go func() {
		resp, err := rs.client.Index(rs.indexName).Search(query, req)
		done <- searchResult{resp, err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("tìm kiếm Meilisearch: %w", ctx.Err())
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("lỗi tìm kiếm Meilisearch: %w", r.err)
		}
		return r.resp, nil
	}
}

// decodeHits chuyển hits của Meilisearch sang CorpHit qua JSON
func decodeHits(hits interface{}) ([]models.CorpHit, error) {
	b, err := json.Marshal(hits)
	if err != nil {
		return nil, fmt.Errorf("lỗi encode hits: %w", err)
	}

	var raw []struct {
		models.CorpDocument
		RankingScore float64 `json:"_rankingScore"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("lỗi decode hits: %w", err)
	}

	out := make([]models.CorpHit, 0, len(raw))
	for _, h := range raw {
		out = append(out, models.CorpHit{CorpDocument: h.CorpDocument, Score: h.RankingScore})
	}
	return out, nil
}
