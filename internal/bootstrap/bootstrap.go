// Package bootstrap khởi tạo logger và toàn bộ thành phần từ config,
// dùng chung cho API server và CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/corp-resolver/app/config"
	"github.com/corp-resolver/app/services"
	"github.com/corp-resolver/internal/disambiguator"
	"github.com/corp-resolver/internal/external"
	"github.com/corp-resolver/internal/matcher"
	"github.com/corp-resolver/internal/normalizer"
	"github.com/corp-resolver/internal/registry"
	"github.com/corp-resolver/internal/resolver"
	"github.com/corp-resolver/internal/search"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// LoadConfig nạp .env (nếu có) rồi đọc và kiểm tra config
func LoadConfig(path string) (*config.Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("Không có file .env, dùng biến môi trường sẵn có")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InitLogger khởi tạo structured logger theo môi trường
func InitLogger(env string) (*zap.Logger, error) {
	var zc zap.Config
	if env == "production" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	return zc.Build()
}

// App các thành phần đã wire. Cache, Reviews, Searcher có thể nil tùy config.
type App struct {
	Config        *config.Config
	Logger        *zap.Logger
	Loader        *registry.Loader
	Store         *registry.Store
	Synonyms      *normalizer.Synonyms
	Matcher       *matcher.Matcher
	Disambiguator *disambiguator.Disambiguator
	Resolver      *resolver.Resolver
	Cache         services.ICacheService
	Reviews       *services.ReviewService
	Searcher      *search.RegistrySearcher
	Resolves      *services.ResolveService
	Admin         *services.AdminService

	mongoClient *mongo.Client
	closers     []func() error
}

// Options bật/tắt các thành phần nặng khi không cần (CLI)
type Options struct {
	WithCache   bool
	WithMongo   bool
	WithSearch  bool
	WarmUpCache bool
	HTTPTimeout time.Duration
	SkipPreload bool
}

// ServerOptions cấu hình đầy đủ cho API server
func ServerOptions() Options {
	return Options{WithCache: true, WithMongo: true, WithSearch: true, WarmUpCache: true}
}

// Build wire toàn bộ thành phần theo cfg
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts Options) (*App, error) {
	app := &App{Config: cfg, Logger: logger}

	timeout := opts.HTTPTimeout
	if timeout <= 0 {
		timeout = cfg.DART.Timeout
	}
	httpClient := &http.Client{Timeout: timeout}

	// 1. Registry
	app.Loader = registry.NewLoader(registry.LoaderConfig{
		BaseURL:      cfg.DART.BaseURL,
		APIKey:       cfg.DART.APIKey,
		SnapshotPath: cfg.Registry.SnapshotPath,
		Timeout:      cfg.DART.Timeout,
	}, httpClient, logger)
	if err := app.Loader.CheckConfig(); err != nil {
		return nil, err
	}
	app.Store = registry.NewStore(app.Loader, logger)

	// 2. Normalizer + matcher
	if cfg.Synonyms.Path != "" {
		syn, err := normalizer.LoadSynonyms(cfg.Synonyms.Path)
		if err != nil {
			return nil, err
		}
		app.Synonyms = syn
		logger.Info("Loaded synonyms", zap.String("path", cfg.Synonyms.Path), zap.Int("count", syn.Len()))
	}

	scorer, err := matcher.NewScorer(cfg.Matcher.Scorer)
	if err != nil {
		return nil, err
	}
	app.Matcher = matcher.New(scorer, matcher.Options{
		Threshold:      cfg.Matcher.Threshold,
		TopK:           cfg.Matcher.TopK,
		CandidateLimit: cfg.Matcher.CandidateLimit,
	})

	// 3. LLM fallback
	chat, err := external.NewChatClient(ctx, cfg.ChatConfig(), &http.Client{Timeout: cfg.LLM.Timeout}, logger)
	if err != nil {
		return nil, err
	}
	app.Disambiguator = disambiguator.New(chat, disambiguator.Options{
		Timeout:       cfg.LLM.Timeout,
		RatePerSecond: cfg.LLM.RatePerSecond,
		Burst:         cfg.LLM.Burst,
	}, logger)

	app.Resolver = resolver.New(app.Store, app.Matcher, app.Disambiguator, app.Synonyms, logger)

	// 4. MongoDB: review queue + cache L2
	var db *mongo.Database
	if opts.WithMongo && cfg.Mongo.URL != "" {
		db, err = app.connectMongo(ctx)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Reviews, err = services.NewReviewService(ctx, db, services.RegistryCodes{Store: app.Store}, logger)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("lỗi khởi tạo review queue: %w", err)
		}
		app.Resolver.SetAliases(app.Reviews)
	}

	// 5. Cache
	if opts.WithCache {
		if err := app.buildCache(ctx, db, opts.WarmUpCache); err != nil {
			app.Close()
			return nil, err
		}
	}

	// 6. Meilisearch (tùy chọn)
	if opts.WithSearch && cfg.Meilisearch.URL != "" {
		searcher, err := search.NewRegistrySearcher(search.SearchConfig{
			Host:      cfg.Meilisearch.URL,
			APIKey:    cfg.Meilisearch.MasterKey,
			IndexName: cfg.Meilisearch.Index,
			Timeout:   cfg.Meilisearch.Timeout,
		}, logger)
		if err != nil {
			logger.Warn("Meilisearch không khả dụng, tắt search", zap.Error(err))
		} else {
			app.Searcher = searcher
		}
	}

	// 7. Services
	var reviews services.ReviewRecorder
	if app.Reviews != nil {
		reviews = app.Reviews
	}
	app.Resolves = services.NewResolveService(app.Resolver, app.Store, app.Cache, reviews, cfg.Batch.Concurrency, logger)
	app.Admin = services.NewAdminService(services.AdminDeps{
		Store:    app.Store,
		Resolves: app.Resolves,
		Cache:    app.Cache,
		Searcher: app.Searcher,
		Synonyms: app.Synonyms,
		Reviews:  app.Reviews,
		LLM:      app.Disambiguator,
	}, logger)

	if !opts.SkipPreload {
		if _, err := app.Store.Table(ctx); err != nil {
			logger.Warn("Chưa load được registry, sẽ thử lại khi có request", zap.Error(err))
		}
	}

	return app, nil
}

func (a *App) connectMongo(ctx context.Context) (*mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(a.Config.Mongo.URL))
	if err != nil {
		return nil, fmt.Errorf("lỗi kết nối MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("lỗi ping MongoDB: %w", err)
	}

	a.mongoClient = client
	a.Logger.Info("Connected to MongoDB", zap.String("database", a.Config.Mongo.Database))
	return client.Database(a.Config.Mongo.Database), nil
}

func (a *App) buildCache(ctx context.Context, db *mongo.Database, warmUp bool) error {
	cfg := a.Config
	switch cfg.Cache.Backend {
	case config.CacheNone:
		return nil

	case config.CacheMemory:
		a.Cache = services.NewCacheService(cfg.Cache.L1Size, cfg.Cache.TTL)

	case config.CacheRedis:
		rc, err := services.NewRedisCacheService(cfg.Redis.URL, cfg.Cache.TTL, a.Logger)
		if err != nil {
			return err
		}
		a.Cache = rc

	case config.CacheHybrid:
		if db == nil {
			return errors.New("cache hybrid cần kết nối MongoDB")
		}
		var l1 services.ICacheService
		if cfg.Redis.URL != "" {
			rc, err := services.NewRedisCacheService(cfg.Redis.URL, cfg.Cache.TTL, a.Logger)
			if err != nil {
				return err
			}
			l1 = rc
		} else {
			l1 = services.NewCacheService(cfg.Cache.L1Size, cfg.Cache.TTL)
		}

		mc, err := services.NewMongoCacheService(db, cfg.Cache.L1Size, cfg.Cache.TTL, a.Logger)
		if err != nil {
			_ = l1.Close()
			return err
		}
		if warmUp {
			if table, err := a.Store.Table(ctx); err == nil {
				if err := mc.WarmUp(ctx, table.Version(), cfg.Cache.L1Size/2); err != nil {
					a.Logger.Warn("Failed to warm up cache", zap.Error(err))
				}
			}
		}
		a.Cache = services.NewHybridCacheService(l1, mc, a.Logger)
	}

	if a.Cache != nil {
		a.closers = append(a.closers, a.Cache.Close)
		a.Logger.Info("Cache initialized", zap.String("backend", cfg.Cache.Backend))
	}
	return nil
}

// Close đóng cache và kết nối MongoDB
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Warn("Lỗi đóng tài nguyên", zap.Error(err))
		}
	}
	a.closers = nil

	if a.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.mongoClient.Disconnect(ctx); err != nil {
			a.Logger.Error("Error disconnecting MongoDB", zap.Error(err))
		}
		a.mongoClient = nil
	}
}
