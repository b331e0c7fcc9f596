package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/corp-resolver/app/models"
	"github.com/corp-resolver/internal/errs"
	"github.com/corp-resolver/internal/normalizer"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Tên collection
const (
	ReviewCollection = "resolution_reviews"
	AliasCollection  = "learned_aliases"
)

// CodeLookup tra entry theo corp_code trong registry hiện tại
type CodeLookup interface {
	LookupCode(ctx context.Context, code string) (name string, ok bool)
}

// ReviewService hàng đợi review cho tên không resolve được và alias đã học
type ReviewService struct {
	reviews *mongo.Collection
	aliases *mongo.Collection
	codes   CodeLookup
	logger  *zap.Logger

	mu       sync.RWMutex
	aliasMap map[string]string
}

// NewReviewService tạo mới ReviewService, tạo index và nạp alias vào bộ nhớ
func NewReviewService(ctx context.Context, db *mongo.Database, codes CodeLookup, logger *zap.Logger) (*ReviewService, error) {
	rs := &ReviewService{
		reviews:  db.Collection(ReviewCollection),
		aliases:  db.Collection(AliasCollection),
		codes:    codes,
		logger:   logger,
		aliasMap: make(map[string]string),
	}

	if _, err := rs.reviews.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "normalized_query", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "occurrences", Value: -1}}},
	}); err != nil {
		logger.Warn("Không thể tạo indexes cho resolution_reviews", zap.Error(err))
	}
	if _, err := rs.aliases.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "normalized_query", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		logger.Warn("Không thể tạo indexes cho learned_aliases", zap.Error(err))
	}

	if err := rs.ReloadAliases(ctx); err != nil {
		return nil, err
	}
	return rs, nil
}

// ReloadAliases đọc lại toàn bộ learned_aliases vào bộ nhớ
func (rs *ReviewService) ReloadAliases(ctx context.Context) error {
	cursor, err := rs.aliases.Find(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("lỗi lấy learned_aliases: %w", err)
	}
	defer cursor.Close(ctx)

	aliasMap := make(map[string]string)
	for cursor.Next(ctx) {
		var alias models.LearnedAlias
		if err := cursor.Decode(&alias); err != nil {
			rs.logger.Warn("Lỗi decode learned alias", zap.Error(err))
			continue
		}
		aliasMap[alias.NormalizedQuery] = alias.CorpCode
	}
	if err := cursor.Err(); err != nil {
		return fmt.Errorf("lỗi đọc learned_aliases: %w", err)
	}

	rs.setAliases(aliasMap)
	rs.logger.Info("Đã nạp learned aliases", zap.Int("count", len(aliasMap)))
	return nil
}

func (rs *ReviewService) setAliases(aliasMap map[string]string) {
	rs.mu.Lock()
	rs.aliasMap = aliasMap
	rs.mu.Unlock()
}

// LookupAlias tra alias trong bộ nhớ, không gọi MongoDB
func (rs *ReviewService) LookupAlias(ctx context.Context, normalized string) (string, bool) {
	rs.mu.RLock()
	code, ok := rs.aliasMap[normalized]
	rs.mu.RUnlock()
	return code, ok
}

// AliasCount số alias trong bộ nhớ
func (rs *ReviewService) AliasCount() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.aliasMap)
}

// Record ghi nhận một kết quả cần review; gặp lại thì tăng occurrences
func (rs *ReviewService) Record(ctx context.Context, normalized string, result *models.ResolutionResult) error {
	review := models.NewResolutionReview(normalized, *result)

	filter := bson.M{"normalized_query": normalized}
	update := bson.M{
		"$setOnInsert": bson.M{
			"query":            review.Query,
			"normalized_query": review.NormalizedQuery,
			"status":           review.Status,
			"created_at":       review.CreatedAt,
		},
		"$set": bson.M{"auto_result": review.AutoResult},
		"$inc": bson.M{"occurrences": 1},
	}

	if _, err := rs.reviews.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("lỗi ghi review: %w", err)
	}
	return nil
}

// List danh sách review theo trạng thái, gặp nhiều nhất trước
func (rs *ReviewService) List(ctx context.Context, status string, limit int) ([]models.ResolutionReview, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "occurrences", Value: -1}, {Key: "created_at", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := rs.reviews.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("lỗi query reviews: %w", err)
	}
	defer cursor.Close(ctx)

	out := make([]models.ResolutionReview, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("lỗi decode reviews: %w", err)
	}
	return out, nil
}

// Approve duyệt review với corp_code và tạo learned alias cho tên đó
func (rs *ReviewService) Approve(ctx context.Context, id, code, reviewerID string) (*models.LearnedAlias, error) {
	review, err := rs.get(ctx, id)
	if err != nil {
		return nil, err
	}

	alias, err := rs.AddAlias(ctx, review.NormalizedQuery, code, models.AliasSourceReview)
	if err != nil {
		return nil, err
	}

	review.Approve(code, reviewerID)
	if _, err := rs.reviews.ReplaceOne(ctx, bson.M{"_id": review.ID}, review); err != nil {
		return nil, fmt.Errorf("lỗi cập nhật review: %w", err)
	}

	rs.logger.Info("Review đã duyệt",
		zap.String("query", review.Query),
		zap.String("code", code),
		zap.String("reviewer_id", reviewerID))
	return alias, nil
}

// Reject từ chối review
func (rs *ReviewService) Reject(ctx context.Context, id, reviewerID string) error {
	review, err := rs.get(ctx, id)
	if err != nil {
		return err
	}

	review.Reject(reviewerID)
	if _, err := rs.reviews.ReplaceOne(ctx, bson.M{"_id": review.ID}, review); err != nil {
		return fmt.Errorf("lỗi cập nhật review: %w", err)
	}
	return nil
}

// AddAlias gắn tên (sẽ được chuẩn hóa) vào corp_code. corp_code phải có trong registry.
func (rs *ReviewService) AddAlias(ctx context.Context, name, code, source string) (*models.LearnedAlias, error) {
	normalized := normalizer.Normalize(name)
	if normalized == "" {
		return nil, errors.New("tên alias rỗng sau chuẩn hóa")
	}

	corpName, ok := rs.codes.LookupCode(ctx, code)
	if !ok {
		return nil, fmt.Errorf("corp_code %s: %w", code, errs.ErrNotFound)
	}

	alias := models.NewLearnedAlias(normalized, code, corpName, source)
	if !alias.IsValidSource() {
		return nil, fmt.Errorf("alias source không hợp lệ: %q", source)
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := rs.aliases.ReplaceOne(ctx, bson.M{"normalized_query": normalized}, alias, opts); err != nil {
		return nil, fmt.Errorf("lỗi lưu learned alias: %w", err)
	}

	rs.mu.Lock()
	rs.aliasMap[normalized] = code
	rs.mu.Unlock()
	return alias, nil
}

// PendingCount số review đang chờ
func (rs *ReviewService) PendingCount(ctx context.Context) (int64, error) {
	return rs.reviews.CountDocuments(ctx, bson.M{"status": models.ReviewStatusPending})
}

func (rs *ReviewService) get(ctx context.Context, id string) (*models.ResolutionReview, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("review id %q: %w", id, errs.ErrNotFound)
	}

	var review models.ResolutionReview
	if err := rs.reviews.FindOne(ctx, bson.M{"_id": oid}).Decode(&review); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("review %s: %w", id, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("lỗi đọc review: %w", err)
	}
	return &review, nil
}
