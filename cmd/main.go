package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"product-sheets-service/internal/clients"
	"product-sheets-service/internal/config"
	"product-sheets-service/internal/events"
	"product-sheets-service/internal/handlers"
	"product-sheets-service/internal/importer"
	"product-sheets-service/internal/metrics"
	"product-sheets-service/internal/middleware"
	"product-sheets-service/internal/workbook"
)

const serviceName = "product-sheets-service"

// @title Product Sheets API
// @version 1.0.0
// @description Excel template, export and bulk import of catalog products

// @host localhost:8095
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using system environment variables")
	}

	cfg := config.Load()
	if cfg.IsProduction() {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Session store
	var (
		store       importer.Store
		redisClient *redis.Client
	)
	if cfg.RedisURL != "" {
		redisClient = connectRedis(cfg.RedisURL, logger)
	}
	if redisClient != nil {
		store = importer.NewRedisStore(redisClient, cfg.SessionTTL)
		defer redisClient.Close()
	} else {
		logger.Info("Import sessions kept in memory")
		store = importer.NewMemoryStore(cfg.SessionTTL)
	}

	// Import events, only when NATS_URL is set
	publisher, err := events.NewPublisher(cfg.NATSURL, logger)
	if err != nil {
		logger.WithError(err).Warn("Continuing without import events")
		publisher = nil
	}
	defer publisher.Close()

	catalog := clients.NewCatalogClient(cfg.BackendURL, cfg.BackendToken, cfg.BackendTimeout, logger)
	builder := workbook.NewBuilder(
		workbook.WithValidationRows(cfg.TemplateValidationRows),
		workbook.WithAccentColor(cfg.TemplateHeaderColor),
		workbook.WithDefaultWidth(float64(cfg.TemplateColumnWidth)),
	)

	opts := []importer.Option{
		importer.WithLogger(logger),
		importer.WithPreviewLimit(cfg.PreviewLimit),
	}
	if publisher != nil {
		opts = append(opts, importer.WithPublisher(publisher))
	}
	orch := importer.New(store, catalog, opts...)

	metrics.Register()

	checks := map[string]handlers.Pinger{}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	healthHandler := handlers.NewHealthHandler(serviceName, checks)
	sheetsHandler := handlers.NewSheetsHandler(catalog, builder, cfg.ExportPageSize, logger)
	importHandler := handlers.NewImportHandler(orch, cfg.MaxUploadMB, logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.CORSOrigins))

	// Health check endpoints (no auth required)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/api/v1")
	if cfg.IsProduction() {
		api.Use(middleware.RequireBearer())
	}
	api.Use(middleware.Tenant(), middleware.User())

	products := api.Group("/products")
	{
		products.GET("/import/template", sheetsHandler.GetTemplate)
		products.GET("/export", sheetsHandler.ExportProducts)

		sessions := products.Group("/import/sessions")
		sessions.POST("", importHandler.OpenSession)
		sessions.GET("/:id", importHandler.GetSession)
		sessions.POST("/:id/file", importHandler.UploadFile)
		sessions.DELETE("/:id/file", importHandler.RepickFile)
		sessions.POST("/:id/confirm", importHandler.ConfirmImport)
		sessions.DELETE("/:id", importHandler.CloseSession)
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("Product sheets service starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down product-sheets-service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shut down")
	}
	logger.Info("Product sheets service stopped")
}

// connectRedis returns nil when Redis is unreachable so sessions fall back
// to memory.
func connectRedis(url string, logger *logrus.Logger) *redis.Client {
	opts, err := redis.ParseURL(url)
	if err != nil {
		logger.WithError(err).Warn("Invalid REDIS_URL, sessions kept in memory")
		return nil
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("Failed to connect to Redis, sessions kept in memory")
		client.Close()
		return nil
	}
	logger.Info("Redis connected")
	return client
}
