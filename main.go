package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/corp-resolver/app/controllers"
	"github.com/corp-resolver/app/services"
	"github.com/corp-resolver/internal/bootstrap"
	"github.com/corp-resolver/routes"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	cfg, err := bootstrap.LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}

	// 2. Khởi tạo logger
	logger, err := bootstrap.InitLogger(cfg.App.Env)
	if err != nil {
		log.Fatalf("Cannot initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting Corp Resolver Service", zap.String("env", cfg.App.Env), zap.String("version", cfg.App.Version))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Wire registry, matcher, LLM, cache, review queue, search
	app, err := bootstrap.Build(ctx, cfg, logger, bootstrap.ServerOptions())
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer app.Close()

	// 4. Khởi tạo controllers
	var searcher controllers.Searcher
	if app.Searcher != nil {
		searcher = app.Searcher
		if err := app.Admin.BuildIndexes(ctx); err != nil {
			logger.Warn("Failed to build Meilisearch indexes", zap.Error(err))
		}
	}
	corpController := controllers.NewCorpController(app.Resolves, app.Store, searcher, cfg.App.Version, logger)
	adminController := controllers.NewAdminController(app.Admin, logger)

	// 5. Reload registry định kỳ ngay trong process phục vụ request
	refresher := services.NewRegistryRefresher(app.Admin, cfg.Registry.RefreshInterval, logger)
	refreshDone := make(chan struct{})
	go func() {
		defer close(refreshDone)
		refresher.Run(ctx)
	}()

	// 6. Khởi tạo Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	routes.SetupAllRoutes(router, corpController, adminController, logger)

	// 7. Khởi động server
	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Corp Resolver Service starting", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	<-refreshDone

	logger.Info("Server exited")
}
