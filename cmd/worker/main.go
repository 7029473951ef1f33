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
	"docgen-api/internal/queue"
	"docgen-api/internal/render"
	"docgen-api/internal/repositories"
	"docgen-api/internal/services"
	"docgen-api/internal/templates"
	"docgen-api/pkg/memorydb"
	"docgen-api/pkg/objectstore"
	"docgen-api/pkg/postgres"

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

	compiler := render.NewCompiler(cfg.App.CompilerBin, cfg.App.TempDir, 5*time.Minute)
	renderer := render.NewRenderer(registry, tplCache, compiler)

	hostname, _ := os.Hostname()
	consumer := queue.NewConsumer(redisClient.Raw(), cfg.Queue, fmt.Sprintf("worker-%s-%d", hostname, os.Getpid()))

	pool := services.NewWorkerPool(cfg, consumer, renderer, store, docRepo, usageRepo, services.NewNotifier())
	if err := pool.Start(); err != nil {
		log.Fatalf("Failed to start worker pool: %v", err)
	}

	// Metrics-only HTTP listener; the worker serves no API traffic.
	metricsSrv := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler: promhttp.Handler(),
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Metrics listener stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down worker...")

	pool.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)

	log.Println("Worker exited")
}
