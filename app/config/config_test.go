package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/corp-resolver/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 90, cfg.Matcher.Threshold)
	assert.Equal(t, 5, cfg.Matcher.CandidateLimit)
	assert.Equal(t, CacheMemory, cfg.Cache.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Registry.RefreshInterval)
	assert.Equal(t, "https://opendart.fss.or.kr/api", cfg.DART.BaseURL)
	assert.NoError(t, cfg.Validate())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  env: production
matcher:
  threshold: 85
  scorer: jaro_winkler
cache:
  backend: redis
  ttl: 1h
redis:
  url: redis://localhost:6379/0
`), 0o644))

	t.Setenv("DART_API_KEY", "dart-key")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("MATCHER_TOP_K", "20")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 85, cfg.Matcher.Threshold)
	assert.Equal(t, 20, cfg.Matcher.TopK)
	assert.Equal(t, "jaro_winkler", cfg.Matcher.Scorer)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "dart-key", cfg.DART.APIKey)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, "sk-test", cfg.ChatConfig().APIKey)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	defaults, err := Load("")
	require.NoError(t, err)

	testCases := []struct {
		name  string
		mut   func(c *Config)
		field string
	}{
		{"Threshold", func(c *Config) { c.Matcher.Threshold = 101 }, "matcher.threshold"},
		{"TopK", func(c *Config) { c.Matcher.TopK = 2 }, "matcher.top_k"},
		{"Scorer", func(c *Config) { c.Matcher.Scorer = "soundex" }, "matcher.scorer"},
		{"Provider", func(c *Config) { c.LLM.Provider = "claude" }, "llm.provider"},
		{"Redis", func(c *Config) { c.Cache.Backend = CacheRedis }, "redis.url"},
		{"Hybrid", func(c *Config) { c.Cache.Backend = CacheHybrid }, "mongo.url"},
		{"Backend", func(c *Config) { c.Cache.Backend = "memcached" }, "cache.backend"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := *defaults
			tc.mut(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var ce *errs.ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tc.field, ce.Field)
		})
	}
}
