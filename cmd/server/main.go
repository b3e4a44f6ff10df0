package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mangareader/internal/core"
	"mangareader/internal/media"
	grpcProtocol "mangareader/internal/protocols/grpc"
	httpProtocol "mangareader/internal/protocols/http"
	wsProtocol "mangareader/internal/protocols/websocket"
	"mangareader/internal/repository"
	"mangareader/pkg/config"
	"mangareader/pkg/database"
	"mangareader/pkg/logger"
)

func main() {
	configPath := os.Getenv("MANGAREADER_CONFIG")
	if configPath == "" {
		configPath = "./configs/development.yaml"
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting mangareader server...")

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := database.NewPGXPool(ctx, database.ConfigFrom(cfg.Database))
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()
	logger.Info("Connected to PostgreSQL database")

	// Connect to Redis
	rdb, err := database.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatalf("Failed to connect to redis: %v", err)
	}
	defer rdb.Close()
	logger.Info("Connected to Redis")

	// Initialize repositories
	userRepo := repository.NewUserRepository(pool)
	mangaRepo := repository.NewMangaRepository(pool)
	chapterRepo := repository.NewChapterRepository(pool)
	walletRepo := repository.NewWalletRepository(pool)
	libraryRepo := repository.NewLibraryRepository(pool)
	popularRepo := repository.NewPopularRepository(rdb, cfg.Redis.PopularKey)
	sessionRepo := repository.NewSessionRepository(rdb)

	// Initialize core services
	events := core.NewEventHub()
	authSvc := core.NewAuthService(userRepo, sessionRepo, events, cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiration)
	librarySvc := core.NewLibraryService(libraryRepo)
	paywallSvc := core.NewPaywallService(chapterRepo, walletRepo, events)

	services := httpProtocol.Services{
		Auth:      authSvc,
		Manga:     core.NewMangaService(mangaRepo),
		Chapters:  core.NewChapterService(mangaRepo, chapterRepo, paywallSvc, librarySvc),
		Paywall:   paywallSvc,
		Recommend: core.NewRecommendService(mangaRepo, cfg.Catalog.RelatedDefault, cfg.Catalog.RelatedMax),
		Library:   librarySvc,
		Wallet:    core.NewWalletService(walletRepo, events),
		Popular:   core.NewPopularService(popularRepo, mangaRepo, cfg.Catalog.PopularDefaultSize),
		Uploader:  media.NewCloudinaryClient(cfg.CDN),
	}
	logger.Info("Initialized all core services")

	// HTTP REST API + WebSocket event stream
	httpServer := httpProtocol.NewServer(cfg, services)
	wsHandler := wsProtocol.NewHandler(authSvc, events, cfg.Server.AllowedOrigins, cfg.IsDevelopment())
	httpServer.Router().GET("/ws/me", wsHandler.HandleViewerStream)

	srv := httpServer.HTTPServer()
	go func() {
		logger.Infof("Starting HTTP server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server error: %v", err)
		}
	}()

	// gRPC health
	var grpcServer *grpcProtocol.Server
	if cfg.GRPC.Enabled {
		grpcServer = grpcProtocol.NewServer(cfg.GRPC.Addr(), map[string]grpcProtocol.Check{
			"postgres": pool.Ping,
			"redis": func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			},
		})
		if err := grpcServer.Start(); err != nil {
			logger.Fatalf("gRPC server error: %v", err)
		}
	}

	logger.Info("Press Ctrl+C to shutdown")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	logger.Infof("Received signal: %v", sig)

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP server shutdown: %v", err)
	}

	logger.Info("Shutdown complete")
}
