package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/clipforge/api/internal/client"
	"github.com/clipforge/api/internal/config"
	"github.com/clipforge/api/internal/handler"
	"github.com/clipforge/api/internal/middleware"
	"github.com/clipforge/api/internal/service"
	"github.com/clipforge/api/internal/store"
	"github.com/clipforge/api/internal/worker"
	ws "github.com/clipforge/api/internal/websocket"
	"github.com/clipforge/api/pkg/response"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("Redis not available: %v", err)
	}

	// Initialize Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	// Initialize validator
	validate := validator.New()

	// Initialize WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Initialize external clients
	groqClient := client.NewGroqClient(&cfg.Groq)
	renderClient := client.NewRenderClient(&cfg.Render)
	telegramClient := client.NewTelegramClient(&cfg.Telegram)

	var mediaClient client.MediaProcessor
	if cfg.Media.ServiceURL != "" {
		mediaClient = client.NewMediaClient(&cfg.Media)
	} else {
		log.Println("Info: media service not configured, using mock assets")
	}

	// Initialize R2 client (optional - continues if not configured)
	var r2Client client.StorageClient
	if cfg.R2.AccessKeyID != "" && cfg.R2.SecretAccessKey != "" {
		c, err := client.NewR2Client(&cfg.R2)
		if err != nil {
			log.Printf("Warning: R2 client not initialized: %v", err)
		} else {
			r2Client = c
		}
	} else {
		log.Println("Info: R2 storage not configured, publishing render URLs directly")
	}

	var notifier service.Notifier
	if telegramClient.IsConfigured() {
		notifier = telegramClient
	} else {
		log.Println("Warning: Telegram bot token not set, notifications disabled")
	}

	// Job store
	jobStore := store.NewRedisStore(redisClient)

	// Initialize services
	researchService := service.NewResearchService(groqClient)
	scriptService := service.NewScriptService(groqClient)
	assetService := service.NewAssetService(mediaClient)
	videoService := service.NewVideoService(renderClient)
	publishService := service.NewPublishService(r2Client)

	pipelineService := service.NewPipelineService(
		jobStore,
		researchService,
		scriptService,
		assetService,
		videoService,
		publishService,
		notifier,
		hub,
		time.Duration(cfg.Pipeline.StageTimeout)*time.Second,
	)
	intakeService := service.NewIntakeService(jobStore, asynqClient)

	// Fail jobs a previous process left in flight before accepting new
	// work.
	if err := pipelineService.RecoverInterrupted(ctx); err != nil {
		log.Printf("Warning: recovery sweep failed: %v", err)
	}

	// Initialize handlers
	webhookHandler := handler.NewWebhookHandler(intakeService, cfg.Telegram.WebhookSecret)
	jobsHandler := handler.NewJobsHandler(jobStore, intakeService, validate)

	// Dashboard API auth: gateway headers behind a proxy, bearer tokens
	// when a secret is set, open otherwise (single-operator setups).
	var apiAuthMiddleware fiber.Handler
	switch {
	case cfg.Gateway.Enabled:
		log.Println("Info: Gateway mode enabled — using header-based auth")
		apiAuthMiddleware = middleware.GatewayAuthMiddleware()
	case cfg.JWT.Secret != "":
		apiAuthMiddleware = middleware.NewAuthMiddleware(cfg.JWT.Secret).Authenticate()
	default:
		log.Println("Warning: dashboard API is unauthenticated (no JWT secret, no gateway)")
		apiAuthMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	isDebug := strings.EqualFold(cfg.Server.LogLevel, "debug")
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if isDebug {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams} ${body}\n"
		log.Println("Debug logging enabled")
	}
	app.Use(logger.New(logger.Config{
		Format: logFormat,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Base URL - timestamp
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"timestamp": time.Now().Unix(),
		})
	})

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"groq":     groqClient.IsConfigured(),
				"render":   renderClient.IsConfigured(),
				"media":    mediaClient != nil,
				"r2":       r2Client != nil,
				"telegram": telegramClient.IsConfigured(),
			},
		})
	})

	// Trigger intake: secured by the Telegram secret token, not the
	// dashboard auth.
	app.Post("/telegram/webhook", rateLimiter.WebhookLimit(cfg.RateLimit.WebhookPerMin), webhookHandler.Handle)

	// Dashboard API routes
	api := app.Group("/api", apiAuthMiddleware)
	jobs := api.Group("/jobs", rateLimiter.JobsLimit(cfg.RateLimit.JobsPerMin))
	jobs.Get("/", jobsHandler.List)
	jobs.Get("/:jobId", jobsHandler.Get)
	jobs.Post("/", jobsHandler.Create)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/jobs", websocket.New(func(c *websocket.Conn) {
		hub.HandleConnection(c)
	}))

	// Start Asynq worker server
	go startWorkerServer(cfg, pipelineService)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func startWorkerServer(cfg *config.Config, pipelineService *service.PipelineService) {
	asynqLogLevel := asynq.InfoLevel
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		asynqLogLevel = asynq.DebugLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "warn") {
		asynqLogLevel = asynq.WarnLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "error") {
		asynqLogLevel = asynq.ErrorLevel
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			// Concurrency bounds simultaneous pipeline runs; queued
			// jobs wait for a slot.
			Concurrency: cfg.Pipeline.Concurrency,
			Queues: map[string]int{
				service.PipelineQueue: 1,
			},
			LogLevel: asynqLogLevel,
		},
	)

	pipelineWorker := worker.NewPipelineWorker(pipelineService)

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypePipeline, pipelineWorker.ProcessTask)

	if err := srv.Run(mux); err != nil {
		log.Printf("Asynq worker error: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return response.Error(c, code, response.CodeServiceError, message, nil)
}
