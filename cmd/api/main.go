package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/karlis-benefelds/forum-transcriber/pkg/validator"

	"github.com/karlis-benefelds/forum-transcriber/internal/adapter/handler"
	"github.com/karlis-benefelds/forum-transcriber/internal/adapter/repository"
	"github.com/karlis-benefelds/forum-transcriber/internal/infrastructure/cache"
	"github.com/karlis-benefelds/forum-transcriber/internal/infrastructure/database"
	"github.com/karlis-benefelds/forum-transcriber/internal/infrastructure/external/forum"
	"github.com/karlis-benefelds/forum-transcriber/internal/infrastructure/storage"
	"github.com/karlis-benefelds/forum-transcriber/internal/usecase/attribution"
	"github.com/karlis-benefelds/forum-transcriber/internal/usecase/chat"
	"github.com/karlis-benefelds/forum-transcriber/internal/usecase/report"
	"github.com/karlis-benefelds/forum-transcriber/internal/usecase/transcription"
	"github.com/karlis-benefelds/forum-transcriber/pkg/config"
	"github.com/karlis-benefelds/forum-transcriber/pkg/engine"
	"github.com/karlis-benefelds/forum-transcriber/pkg/llm"
	"github.com/karlis-benefelds/forum-transcriber/pkg/monitor"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	// Initialize dependencies
	log.Println("🔧 Initializing dependencies...")

	logger, err := zap.NewProduction()
	if cfg.Server.Environment != "production" {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	// Run AutoMigrate only when explicitly enabled in config.
	// Production deployments should manage schema via sql-migrate.
	if cfg.Database.AutoMigrate {
		if cfg.Server.Environment == "production" {
			log.Fatalf("AutoMigrate is enabled in production. Disable DB_AUTO_MIGRATE or manage schema with sql-migrate.")
		}
		log.Println("🔄 Applying schema migrations (development only) ...")
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	} else {
		log.Println("🔄 Skipping schema migrations; use sql-migrate in CI/CD/production")
	}

	// Initialize caching. Redis backs progress reporting; a process-local
	// store keeps the pipeline usable when Redis is not deployed.
	log.Println("📦 Connecting to Redis...")
	var progressStore cache.Store
	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Printf("⚠️  Redis unavailable (%v), falling back to in-memory progress store", err)
		progressStore = cache.NewMemoryStore()
	} else {
		defer redisClient.Close()
		progressStore = cache.NewRedisStore(redisClient)
	}
	progressCache := cache.NewProgressCache(progressStore)

	// Initialize artifact storage
	log.Println("🗄️  Connecting to object storage...")
	artifacts, err := storage.NewArtifactStore(&cfg.Storage)
	if err != nil {
		log.Printf("⚠️  Object storage unavailable (%v), artifacts will not be persisted", err)
		artifacts = nil
	}

	// Initialize repositories
	log.Println("⚙️  Initializing repositories...")
	jobRepo := repository.NewJobRepository(db)
	transcriptRepo := repository.NewTranscriptRepository(db)

	// Initialize Forum client
	log.Println("🏫 Initializing Forum client...")
	forumClient := forum.NewClient(&cfg.Forum, logger)

	// Initialize speech engine
	log.Println("🎙️  Initializing speech engine...")
	profile := engine.DetectProfile(logger)
	engineCache := engine.NewCache(func(ctx context.Context, size string) (engine.Engine, error) {
		return engine.NewWhisperEngine(engine.WhisperConfig{
			Binary:      cfg.Engine.Binary,
			ModelSize:   size,
			Device:      profile.Device,
			ComputeType: profile.ComputeType(),
		}, logger)
	}, logger)

	// Initialize transcription pipeline
	log.Println("⚙️  Initializing transcription pipeline...")
	transcriber := transcription.NewTranscriber(
		cfg.Pipeline.WorkDir,
		cfg.Engine.LanguageHint,
		cfg.Engine.InitialPrompt,
		logger,
	)
	orchestrator := transcription.NewOrchestrator(engineCache, transcriber, logger)
	attributor := attribution.New(attribution.Options{}, logger)
	reporter := report.NewGenerator(logger)

	jobService := transcription.NewService(
		cfg,
		profile,
		jobRepo,
		transcriptRepo,
		forumClient,
		transcription.NewAudioPreparer(cfg.Pipeline.WorkDir),
		orchestrator,
		attributor,
		reporter,
		artifacts,
		progressCache,
		monitor.New(logger),
		logger,
	)

	// Initialize chat (optional, needs an LLM key)
	var chatHandler *handler.Chat
	if cfg.LLM.APIKey != "" {
		log.Println("💬 Initializing transcript chat...")
		chatService := chat.NewService(llm.NewClient(&cfg.LLM), transcriptRepo, logger)
		chatHandler = handler.NewChatHandler(chatService, logger)
	} else {
		log.Println("💬 Transcript chat disabled (LLM_API_KEY not set)")
	}

	// Start background workers
	log.Println("👷 Starting worker pool...")
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if err := jobService.StartWorkerPool(workerCtx); err != nil {
		log.Fatalf("Failed to start worker pool: %v", err)
	}

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	jobHandler := handler.NewJobHandler(jobService, logger)
	router := handler.NewRouter(cfg, jobHandler, chatHandler)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	if err := jobService.StopWorkerPool(); err != nil {
		log.Printf("⚠️  Worker pool shutdown: %v", err)
	}
	workerCancel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
