package controllers

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/corp-resolver/app/models"
	"github.com/corp-resolver/app/responses"
	"github.com/corp-resolver/app/services"
	"github.com/corp-resolver/internal/registry"
	"github.com/corp-resolver/internal/resolver"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticSource struct{ entries []registry.Entry }

func (s staticSource) Load(ctx context.Context) (*registry.Table, error) {
	return registry.NewTable(s.entries), nil
}

func (s staticSource) Fetch(ctx context.Context) (*registry.Table, error) {
	return s.Load(ctx)
}

type fakeSearcher struct {
	hits []models.CorpHit
	err  error
}

func (f fakeSearcher) Search(ctx context.Context, query string, limit int, listedOnly bool) ([]models.CorpHit, error) {
	return f.hits, f.err
}

var testEntries = []registry.Entry{
	{Code: "00126380", Name: "삼성전자", StockCode: "005930", ModifyDate: "20240101"},
	{Code: "00106641", Name: "기아", StockCode: "000270", ModifyDate: "20240101"},
	{Code: "00164742", Name: "현대자동차", StockCode: "005380", ModifyDate: "20240101"},
}

type testServer struct {
	router   *gin.Engine
	resolves *services.ResolveService
	store    *registry.Store
}

func newTestServer(t *testing.T, searcher Searcher) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := registry.NewStore(staticSource{entries: testEntries}, zap.NewNop())
	cache := services.NewCacheService(100, time.Minute)
	r := resolver.New(store, nil, nil, nil, zap.NewNop())
	resolves := services.NewResolveService(r, store, cache, nil, 2, zap.NewNop())
	admin := services.NewAdminService(services.AdminDeps{Store: store, Resolves: resolves, Cache: cache}, zap.NewNop())

	cc := NewCorpController(resolves, store, searcher, "test", zap.NewNop())
	ac := NewAdminController(admin, zap.NewNop())

	router := gin.New()
	router.POST("/resolve", cc.Resolve)
	router.POST("/jobs", cc.BatchResolve)
	router.GET("/jobs/:jobID/status", cc.GetJobStatus)
	router.GET("/jobs/:jobID/results", cc.GetJobResults)
	router.GET("/search", cc.Search)
	router.GET("/corps/:code", cc.GetCorp)
	router.GET("/health", cc.HealthCheck)
	router.POST("/admin/registry/reload", ac.ReloadRegistry)
	router.POST("/admin/cache/invalidate", ac.InvalidateCache)
	router.GET("/admin/stats", ac.GetStats)
	router.GET("/admin/reviews", ac.ListReviews)
	router.POST("/admin/aliases", ac.AddAlias)
	router.POST("/admin/indexes/build", ac.BuildIndexes)
	router.GET("/admin/export/registry", ac.ExportRegistry)

	return &testServer{router: router, resolves: resolves, store: store}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func TestCorpController_Resolve(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodPost, "/resolve", map[string]interface{}{"name": "삼성전자"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp responses.ResolveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "00126380", resp.Result.CodeValue())
	assert.Equal(t, models.StrategyConfident, resp.Result.Strategy)
	assert.False(t, resp.CacheHit)
	assert.NotEmpty(t, resp.SnapshotVersion)

	w = ts.do(t, http.MethodPost, "/resolve", map[string]interface{}{"name": "삼성전자(주)"})
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.CacheHit)
	assert.Equal(t, "삼성전자(주)", resp.Result.Query)

	w = ts.do(t, http.MethodPost, "/resolve", map[string]interface{}{"name": "삼성전자", "options": map[string]bool{"use_cache": false}})
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.CacheHit)
}

func TestCorpController_Resolve_NotFoundShape(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodPost, "/resolve", map[string]interface{}{"name": "기아차"})
	require.Equal(t, http.StatusOK, w.Code)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(raw["result"], &result))
	assert.Nil(t, result["code"])
	assert.Nil(t, result["fallback_choice"])
	assert.Contains(t, result["candidates"], "기아")
}

func TestCorpController_Resolve_Invalid(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodPost, "/resolve", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp responses.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_REQUEST", resp.Error)
	assert.NotEmpty(t, resp.Timestamp)
}

func TestCorpController_BatchJob(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodPost, "/jobs", map[string]interface{}{"names": []string{"삼성전자", "기아", "없는회사"}})
	require.Equal(t, http.StatusAccepted, w.Code)

	var created responses.BatchResolveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.JobID)
	assert.Equal(t, 3, created.TotalNames)

	require.Eventually(t, func() bool {
		w := ts.do(t, http.MethodGet, "/jobs/"+created.JobID+"/status", nil)
		var st responses.JobStatusResponse
		_ = json.Unmarshal(w.Body.Bytes(), &st)
		return st.Status == responses.JobStatusDone
	}, 5*time.Second, 10*time.Millisecond)

	w = ts.do(t, http.MethodGet, "/jobs/"+created.JobID+"/results?format=ndjson", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/x-ndjson", w.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 3)

	var first models.ResolutionResult
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "00126380", first.CodeValue())

	w = ts.do(t, http.MethodGet, "/jobs/"+created.JobID+"/results?format=ndjson&gzip=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	gz, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	plain, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(plain)), "\n"), 3)

	w = ts.do(t, http.MethodGet, "/jobs/"+created.JobID+"/results", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ok responses.SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ok))
	assert.True(t, ok.Success)
}

func TestCorpController_JobNotFound(t *testing.T) {
	ts := newTestServer(t, nil)

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/jobs/nope/status", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/jobs/nope/results", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/jobs/nope/results?format=ndjson", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/jobs/0b0e2b0c-5c1f-4a55-9a4e-8f1d3a3f2c10/status", nil).Code)
}

func TestCorpController_Search(t *testing.T) {
	ts := newTestServer(t, nil)
	assert.Equal(t, http.StatusServiceUnavailable, ts.do(t, http.MethodGet, "/search?q=samsung", nil).Code)

	hits := []models.CorpHit{{CorpDocument: models.CorpDocument{CorpCode: "00126380", CorpName: "삼성전자"}, Score: 0.9}}
	ts = newTestServer(t, fakeSearcher{hits: hits})

	w := ts.do(t, http.MethodGet, "/search?q=samsung&limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp responses.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, "00126380", resp.Hits[0].CorpCode)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/search", nil).Code)

	ts = newTestServer(t, fakeSearcher{err: errors.New("meili down")})
	assert.Equal(t, http.StatusBadGateway, ts.do(t, http.MethodGet, "/search?q=x", nil).Code)
}

func TestCorpController_GetCorp(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodGet, "/corps/00106641", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp responses.CorpResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "기아", resp.CorpName)
	assert.True(t, resp.Listed)

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/corps/99999999", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/corps/abc", nil).Code)
}

func TestCorpController_HealthCheck(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp responses.HealthCheckResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "disabled", resp.Services["search"])
	assert.Equal(t, "test", resp.Version)
}
