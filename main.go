package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ruralearn/config"
	authControllers "ruralearn/controllers/auth"
	courseControllers "ruralearn/controllers/course"
	"ruralearn/database"
	"ruralearn/logger"
	authRoutes "ruralearn/routers/authRoutes"
	courseRoutes "ruralearn/routers/courseRoutes"
	"ruralearn/services/assistant"
	"ruralearn/services/catalog"
	"ruralearn/services/learning"
	"ruralearn/services/recommendation"
	"ruralearn/utils"
	"ruralearn/utils/cache"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig

	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer appLog.Sync()

	database.ConnectDb()
	db := database.Database.Db

	// Redis is optional; services take a nil cache when it is not configured
	var catalogCache catalog.Cache
	var recommendationCache recommendation.Cache
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(cfg.RedisURL, "ruralearn")
		if err != nil {
			appLog.Warn("redis unavailable, caching disabled", "error", err)
		} else {
			defer redisCache.Close()
			catalogCache = redisCache
			recommendationCache = redisCache
		}
	}
	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second

	mailer := utils.NewMailer(cfg.SendgridAPIKey, cfg.EmailSenderName, cfg.EmailSender, appLog)
	authControllers.SetMailer(mailer)

	learningService := learning.New(db, appLog, mailer)
	catalogService := catalog.New(db, appLog, catalogCache, cacheTTL)
	catalogService.SetProgressReconciler(learningService)
	learningService.SetListingInvalidator(catalogService)

	handler := &courseControllers.Handler{
		Learning: learningService,
		Catalog:  catalogService,
		Recommendation: recommendation.New(db, appLog, recommendation.Config{
			Endpoint: cfg.RecommenderURL,
			APIKey:   cfg.RecommenderAPIKey,
			CacheTTL: cacheTTL,
		}, recommendationCache),
		Assistant: assistant.New(assistant.Config{
			BaseURL: cfg.AssistantURL,
			APIKey:  cfg.AssistantAPIKey,
			Model:   cfg.AssistantModel,
		}, appLog),
		UploadDir: cfg.UploadDir,
		Log:       appLog.With("component", "http"),
	}

	scheduler, err := utils.InitializeProgressScheduler(cfg.ReconcileCron, learningService)
	if err != nil {
		log.Fatalf("Invalid RECONCILE_CRON %q: %v", cfg.ReconcileCron, err)
	}
	defer scheduler.Stop()

	app := fiber.New(fiber.Config{
		BodyLimit: 4 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",        // Allowed HTTP methods
		AllowHeaders: "Content-Type,Authorization", // Allowed headers
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(fiberLogger.New(fiberLogger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	// Uploaded course thumbnails
	app.Static("/uploads", cfg.UploadDir)

	authRoutes.SetupAuthRoutes(app)
	courseRoutes.SetupCourseRoutes(app, handler)
	courseRoutes.SetupAdminCourseRoutes(app, handler)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	log.Printf("Server is running on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
