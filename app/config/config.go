// Package config cấu hình ứng dụng: config/app.yaml + biến môi trường
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/corp-resolver/internal/errs"
	"github.com/corp-resolver/internal/external"
	"github.com/corp-resolver/internal/matcher"
	"github.com/spf13/viper"
)

// Cache backend
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheHybrid = "hybrid"
)

type AppConfig struct {
	Env             string        `mapstructure:"env"`
	Port            string        `mapstructure:"port"`
	Version         string        `mapstructure:"version"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DARTConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type RegistryConfig struct {
	SnapshotPath    string        `mapstructure:"snapshot_path"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

type LLMConfig struct {
	Provider      string        `mapstructure:"provider"`
	APIKey        string        `mapstructure:"api_key"`
	Model         string        `mapstructure:"model"`
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
}

type MatcherConfig struct {
	Threshold      int    `mapstructure:"threshold"`
	TopK           int    `mapstructure:"top_k"`
	CandidateLimit int    `mapstructure:"candidate_limit"`
	Scorer         string `mapstructure:"scorer"`
}

type SynonymsConfig struct {
	Path string `mapstructure:"path"`
}

type CacheConfig struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
	L1Size  int           `mapstructure:"l1_size"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type MongoConfig struct {
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
}

type MeiliConfig struct {
	URL       string        `mapstructure:"url"`
	MasterKey string        `mapstructure:"master_key"`
	Index     string        `mapstructure:"index"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type BatchConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// Config cấu hình đầy đủ
type Config struct {
	App         AppConfig      `mapstructure:"app"`
	DART        DARTConfig     `mapstructure:"dart"`
	Registry    RegistryConfig `mapstructure:"registry"`
	LLM         LLMConfig      `mapstructure:"llm"`
	Matcher     MatcherConfig  `mapstructure:"matcher"`
	Synonyms    SynonymsConfig `mapstructure:"synonyms"`
	Cache       CacheConfig    `mapstructure:"cache"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Mongo       MongoConfig    `mapstructure:"mongo"`
	Meilisearch MeiliConfig    `mapstructure:"meilisearch"`
	Batch       BatchConfig    `mapstructure:"batch"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.shutdown_timeout", 15*time.Second)

	v.SetDefault("dart.api_key", "")
	v.SetDefault("dart.base_url", "https://opendart.fss.or.kr/api")
	v.SetDefault("dart.timeout", 60*time.Second)

	v.SetDefault("registry.snapshot_path", "data/corpCode_cache.csv")
	v.SetDefault("registry.refresh_interval", 24*time.Hour)

	v.SetDefault("llm.provider", external.ProviderOpenAI)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout", 10*time.Second)
	v.SetDefault("llm.rate_per_second", 0.0)
	v.SetDefault("llm.burst", 1)

	v.SetDefault("matcher.threshold", matcher.DefaultThreshold)
	v.SetDefault("matcher.top_k", matcher.DefaultTopK)
	v.SetDefault("matcher.candidate_limit", matcher.DefaultCandidateLimit)
	v.SetDefault("matcher.scorer", matcher.ScorerWeighted)

	v.SetDefault("synonyms.path", "")

	v.SetDefault("cache.backend", CacheMemory)
	v.SetDefault("cache.ttl", 24*time.Hour)
	v.SetDefault("cache.l1_size", 10000)

	v.SetDefault("redis.url", "")
	v.SetDefault("mongo.url", "")
	v.SetDefault("mongo.database", "corp_resolver")

	v.SetDefault("meilisearch.url", "")
	v.SetDefault("meilisearch.master_key", "")
	v.SetDefault("meilisearch.index", "corps")
	v.SetDefault("meilisearch.timeout", 5*time.Second)

	v.SetDefault("batch.concurrency", 8)
}

// Load đọc config từ file (nếu có) rồi override bằng env. path rỗng thì tìm
// app.yaml trong ./config và thư mục hiện tại.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("app")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// OPENAI_API_KEY được chấp nhận như alias của LLM_API_KEY
	if err := v.BindEnv("llm.api_key", "LLM_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("lỗi đọc config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("lỗi parse config: %w", err)
	}
	return &cfg, nil
}

// Validate kiểm tra các giá trị phụ thuộc nhau
func (c *Config) Validate() error {
	if c.Matcher.Threshold < 0 || c.Matcher.Threshold > 100 {
		return errs.NewConfigError("matcher.threshold", fmt.Sprintf("phải trong khoảng 0-100, nhận %d", c.Matcher.Threshold))
	}
	if c.Matcher.CandidateLimit <= 0 || c.Matcher.TopK < c.Matcher.CandidateLimit {
		return errs.NewConfigError("matcher.top_k", "top_k phải >= candidate_limit > 0")
	}
	if _, err := matcher.NewScorer(c.Matcher.Scorer); err != nil {
		return errs.NewConfigError("matcher.scorer", err.Error())
	}

	switch strings.ToLower(c.LLM.Provider) {
	case "", external.ProviderOpenAI, external.ProviderGemini:
	default:
		return errs.NewConfigError("llm.provider", "chỉ hỗ trợ openai hoặc gemini")
	}

	switch c.Cache.Backend {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if c.Redis.URL == "" {
			return errs.NewConfigError("redis.url", "cần cho cache.backend=redis")
		}
	case CacheHybrid:
		// L1 là Redis nếu có redis.url, nếu không thì in-memory
		if c.Mongo.URL == "" {
			return errs.NewConfigError("mongo.url", "cần cho cache.backend=hybrid")
		}
	default:
		return errs.NewConfigError("cache.backend", fmt.Sprintf("không hỗ trợ %q", c.Cache.Backend))
	}

	if c.Registry.RefreshInterval < 0 {
		return errs.NewConfigError("registry.refresh_interval", "không được âm")
	}
	return nil
}

// IsProduction môi trường production
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// ChatConfig cấu hình cho external.NewChatClient
func (c *Config) ChatConfig() external.ChatConfig {
	return external.ChatConfig{
		Provider: c.LLM.Provider,
		APIKey:   c.LLM.APIKey,
		Model:    c.LLM.Model,
		BaseURL:  c.LLM.BaseURL,
	}
}
