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

	"docgen-api/config"
	"docgen-api/internal/auth"
	"docgen-api/internal/handlers"
	"docgen-api/internal/middleware"
	"docgen-api/internal/queue"
	"docgen-api/internal/render"
	"docgen-api/internal/repositories"
	"docgen-api/internal/services"
	"docgen-api/internal/templates"
	"docgen-api/pkg/memorydb"
	"docgen-api/pkg/objectstore"
	"docgen-api/pkg/postgres"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	ctx := context.Background()

	db, err := postgres.NewDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	redisClient, err := memorydb.NewRedisClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	store, err := objectstore.NewClient(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to object storage: %v", err)
	}
	for _, bucket := range []string{cfg.Storage.DocumentsBucket, cfg.Storage.TemplatesBucket} {
		if err := store.EnsureBucket(ctx, bucket); err != nil {
			log.Fatalf("Failed to ensure bucket %s: %v", bucket, err)
		}
	}

	docRepo := repositories.NewDocumentRepository(db)
	usageRepo := repositories.NewUsageRepository(db)
	if err := docRepo.CreateSchema(ctx); err != nil {
		log.Fatalf("Failed to create documents schema: %v", err)
	}
	if err := usageRepo.CreateSchema(ctx); err != nil {
		log.Fatalf("Failed to create usage schema: %v", err)
	}

	registry := templates.NewRegistry()
	durable := templates.NewFallbackStore(
		templates.NewBucketStore(store, cfg.Storage.TemplatesBucket),
		templates.NewFilesystemStore(cfg.Templates.LocalPath),
	)
	tplCache := templates.NewCache(
		cfg.Templates.CacheSize,
		time.Duration(cfg.Templates.TTLSeconds)*time.Second,
		redisClient,
		durable,
	)

	compiler := render.NewCompiler(cfg.App.CompilerBin, cfg.App.TempDir, 60*time.Second)
	renderer := render.NewRenderer(registry, tplCache, compiler)

	publisher := queue.NewPublisher(redisClient.Raw(), cfg.Queue)
	limiter := services.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)

	routerService := services.NewRouterService(cfg, limiter, renderer, publisher, store, docRepo)
	templateService := services.NewTemplateService(registry, tplCache)
	healthService := services.NewHealthService(db, redisClient)

	tokenService := auth.NewTokenService(cfg)
	authMW := middleware.NewAuthMiddleware(tokenService)

	documentHandler := handlers.NewDocumentHandler(routerService)
	templateHandler := handlers.NewTemplateHandler(templateService)
	usageHandler := handlers.NewUsageHandler(usageRepo)

	router := setupRouter(cfg, documentHandler, templateHandler, usageHandler, healthService, authMW)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s:%s", cfg.Server.Host, cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

func setupRouter(
	cfg *config.Config,
	documentHandler *handlers.DocumentHandler,
	templateHandler *handlers.TemplateHandler,
	usageHandler *handlers.UsageHandler,
	healthService *services.HealthService,
	authMW *middleware.AuthMiddleware,
) *gin.Engine {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.ErrorMiddleware())

	router.GET("/health", func(c *gin.Context) {
		healthy, details := healthService.Check(c.Request.Context())
		status := http.StatusOK
		state := "ok"
		if !healthy {
			status = http.StatusServiceUnavailable
			state = "degraded"
		}
		c.JSON(status, gin.H{
			"status":  state,
			"service": "docgen-api",
			"checks":  details,
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(authMW.RequireAuth())
	{
		documents := v1.Group("/documents")
		{
			documents.POST("/generate", documentHandler.Generate())
			documents.POST("/generate/async", documentHandler.GenerateAsync())
			documents.GET("/:id/status", documentHandler.Status())
			documents.GET("/:id/download", documentHandler.Download())
		}

		tpl := v1.Group("/templates")
		{
			tpl.GET("", templateHandler.List())
			tpl.GET("/:id", templateHandler.Get())
			tpl.PUT("/:id", templateHandler.Update())
			tpl.POST("/:id/reload", templateHandler.Reload())
		}

		v1.GET("/usage", usageHandler.Stats())
	}

	return router
}
