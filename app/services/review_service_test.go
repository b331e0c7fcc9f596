package services

import (
	"context"
	"testing"

	"github.com/corp-resolver/app/models"
	"github.com/corp-resolver/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"
)

type staticCodes map[string]string

func (s staticCodes) LookupCode(ctx context.Context, code string) (string, bool) {
	name, ok := s[code]
	return name, ok
}

var reviewCodes = staticCodes{"00106641": "기아", "00126380": "삼성전자"}

func newMockReviewService(mt *mtest.T, aliases ...bson.D) *ReviewService {
	mt.Helper()
	mt.AddMockResponses(
		mtest.CreateSuccessResponse(),
		mtest.CreateSuccessResponse(),
		mtest.CreateCursorResponse(0, "corp.learned_aliases", mtest.FirstBatch, aliases...),
	)
	rs, err := NewReviewService(context.Background(), mt.DB, reviewCodes, zap.NewNop())
	require.NoError(mt, err)
	return rs
}

func TestReviewService(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("LoadAliases", func(mt *mtest.T) {
		rs := newMockReviewService(mt,
			bson.D{{Key: "normalized_query", Value: "기아차"}, {Key: "corp_code", Value: "00106641"}},
			bson.D{{Key: "normalized_query", Value: "삼전"}, {Key: "corp_code", Value: "00126380"}},
		)

		assert.Equal(mt, 2, rs.AliasCount())
		code, ok := rs.LookupAlias(context.Background(), "기아차")
		assert.True(mt, ok)
		assert.Equal(mt, "00106641", code)
	})

	mt.Run("AddAlias", func(mt *mtest.T) {
		rs := newMockReviewService(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		alias, err := rs.AddAlias(context.Background(), "기아차㈜", "00106641", models.AliasSourceManual)
		require.NoError(mt, err)
		assert.Equal(mt, "기아차", alias.NormalizedQuery)
		assert.Equal(mt, "기아", alias.CorpName)

		code, ok := rs.LookupAlias(context.Background(), "기아차")
		assert.True(mt, ok)
		assert.Equal(mt, "00106641", code)
	})

	mt.Run("AddAlias_UnknownCode", func(mt *mtest.T) {
		rs := newMockReviewService(mt)

		_, err := rs.AddAlias(context.Background(), "유령회사", "99999999", models.AliasSourceManual)
		assert.ErrorIs(mt, err, errs.ErrNotFound)

		_, err = rs.AddAlias(context.Background(), "(주)", "00106641", models.AliasSourceManual)
		assert.Error(mt, err)
		assert.Equal(mt, 0, rs.AliasCount())
	})

	mt.Run("Record", func(mt *mtest.T) {
		rs := newMockReviewService(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		result := models.NewNotFound("기아차")
		result.Candidates = []string{"기아", "현대자동차"}
		require.NoError(mt, rs.Record(context.Background(), "기아차", result))
	})

	mt.Run("Approve_NotFound", func(mt *mtest.T) {
		rs := newMockReviewService(mt)

		_, err := rs.Approve(context.Background(), "not-an-id", "00106641", "u1")
		assert.ErrorIs(mt, err, errs.ErrNotFound)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, "corp.resolution_reviews", mtest.FirstBatch))
		_, err = rs.Approve(context.Background(), primitive.NewObjectID().Hex(), "00106641", "u1")
		assert.ErrorIs(mt, err, errs.ErrNotFound)
	})

	mt.Run("Approve", func(mt *mtest.T) {
		rs := newMockReviewService(mt)
		id := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "corp.resolution_reviews", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: id},
				{Key: "query", Value: "기아차"},
				{Key: "normalized_query", Value: "기아차"},
				{Key: "status", Value: models.ReviewStatusPending},
				{Key: "occurrences", Value: 3},
			}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)

		alias, err := rs.Approve(context.Background(), id.Hex(), "00106641", "reviewer-1")
		require.NoError(mt, err)
		assert.Equal(mt, models.AliasSourceReview, alias.Source)

		code, ok := rs.LookupAlias(context.Background(), "기아차")
		assert.True(mt, ok)
		assert.Equal(mt, "00106641", code)
	})
}
