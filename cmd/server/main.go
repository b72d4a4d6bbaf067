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

	"github.com/lyricstudio/api/internal/client"
	"github.com/lyricstudio/api/internal/compositor"
	"github.com/lyricstudio/api/internal/config"
	"github.com/lyricstudio/api/internal/encoder"
	"github.com/lyricstudio/api/internal/handler"
	"github.com/lyricstudio/api/internal/middleware"
	"github.com/lyricstudio/api/internal/pipeline"
	"github.com/lyricstudio/api/internal/service"
	ws "github.com/lyricstudio/api/internal/websocket"
	"github.com/lyricstudio/api/internal/worker"
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

	// Test Redis connection
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available: %v", err)
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
	credentials := client.NewRedisCredentialProvider(redisClient, cfg.Gemini.APIKey)
	geminiClient := client.NewGeminiClient(&cfg.Gemini, credentials)

	// Initialize R2 client (optional - continues if not configured)
	var storage client.StorageClient
	if cfg.R2.AccessKeyID != "" && cfg.R2.SecretAccessKey != "" {
		r2Client, err := client.NewR2Client(&cfg.R2)
		if err != nil {
			log.Printf("Warning: R2 client not initialized: %v", err)
		} else {
			storage = r2Client
		}
	} else {
		log.Println("Info: R2 storage not configured, serving media locally")
	}

	// Initialize encoder engine
	engine := encoder.NewEngine(cfg.Render.FFmpegBin, cfg.Render.FFprobeBin)
	if err := engine.Load(); err != nil {
		log.Printf("Warning: encoder unavailable, renders will fail: %v", err)
	}

	// Initialize render pipeline
	assembler := pipeline.New(
		engine,
		engine,
		func() (pipeline.FrameRenderer, error) {
			return compositor.New(cfg.Render.Width, cfg.Render.Height)
		},
		cfg.Render.FrameRate,
		cfg.Render.ScratchDir,
	)

	// Initialize services
	transcribeService := service.NewTranscribeService(geminiClient)
	subtitleService := service.NewSubtitleService(cfg.Render.MediaDir)
	artworkService := service.NewArtworkService(geminiClient, storage, cfg.Render.MediaDir)
	uploadService := service.NewUploadService(cfg.Render.MediaDir, engine)
	renderService := service.NewRenderService(redisClient, asynqClient)

	// Initialize handlers
	transcribeHandler := handler.NewTranscribeHandler(transcribeService)
	subtitleHandler := handler.NewSubtitleHandler(subtitleService, validate)
	artworkHandler := handler.NewArtworkHandler(artworkService, validate)
	uploadHandler := handler.NewUploadHandler(uploadService)
	renderHandler := handler.NewRenderHandler(renderService, uploadService, artworkService, validate)
	credentialsHandler := handler.NewCredentialsHandler(credentials, validate)

	// Initialize middleware
	var apiAuthMiddleware fiber.Handler
	if cfg.Gateway.Enabled {
		// Behind a gateway: auth happens upstream, read X-User-* headers
		log.Println("Info: Gateway mode enabled — using header-based auth")
		apiAuthMiddleware = middleware.GatewayAuthMiddleware()
	} else {
		apiAuthMiddleware = middleware.NewAuthMiddleware(cfg.JWT.Secret).Authenticate()
	}
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    50 * 1024 * 1024, // 50MB
	})

	// Global middleware
	app.Use(recover.New())
	isDebug := strings.EqualFold(cfg.Server.LogLevel, "debug")
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if isDebug {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams} ${body} ${reqHeaders}\n"
		log.Println("Debug logging enabled")
	}
	app.Use(logger.New(logger.Config{
		Format: logFormat,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
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
				"gemini":  geminiClient.IsConfigured(c.Context()),
				"r2":      storage != nil,
				"encoder": engine.Loaded(),
			},
		})
	})

	// Locally staged media (uploads, covers, exported subtitles, finished videos)
	app.Static("/media", cfg.Render.MediaDir)

	// API routes
	api := app.Group("/api", apiAuthMiddleware)

	api.Post("/transcribe", rateLimiter.TranscribeLimit(cfg.RateLimit.TranscribePerHour), transcribeHandler.Transcribe)

	subtitles := api.Group("/subtitles")
	subtitles.Post("/normalize", subtitleHandler.Normalize)
	subtitles.Post("/export", subtitleHandler.Export)

	api.Post("/artwork", rateLimiter.ArtworkLimit(cfg.RateLimit.ArtworkPerHour), artworkHandler.Generate)

	upload := api.Group("/upload", rateLimiter.UploadLimit(cfg.RateLimit.UploadPerHour))
	upload.Post("/audio", uploadHandler.Audio)
	upload.Delete("/audio/:trackId", uploadHandler.DeleteAudio)

	render := api.Group("/render")
	render.Post("/start", rateLimiter.RenderLimit(cfg.RateLimit.RenderPerHour), renderHandler.Start)
	render.Get("/status/:jobId", renderHandler.Status)
	render.Get("/result/:jobId", renderHandler.Result)

	api.Post("/credentials", credentialsHandler.Save)
	api.Delete("/credentials", credentialsHandler.Clear)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/jobs/:jobId", websocket.New(func(c *websocket.Conn) {
		jobID := c.Params("jobId")
		hub.HandleConnection(c, jobID)
	}))

	// Start Asynq worker server
	go startWorkerServer(cfg, renderService, assembler, storage, hub)

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

func startWorkerServer(
	cfg *config.Config,
	renderService *service.RenderService,
	assembler *pipeline.Assembler,
	storage client.StorageClient,
	hub *ws.Hub,
) {
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
			// Frame compositing is CPU-bound and jobs are serialized by an
			// active-job key, so one render at a time is all we need.
			Concurrency: 1,
			Queues: map[string]int{
				"render": 10,
			},
			LogLevel: asynqLogLevel,
		},
	)

	renderWorker := worker.NewRenderWorker(renderService, assembler, storage, hub, cfg.Render.MediaDir)

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeRender, renderWorker.ProcessTask)

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

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
