package main

import (
	"context"
	"log"
	"time"

	"filedrop/config"
	"filedrop/internal/handler"
	"filedrop/internal/redis"
	"filedrop/internal/repository"
	"filedrop/internal/server"
	"filedrop/internal/services"
	"filedrop/internal/storage"
	"filedrop/pkg/database"
	"filedrop/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	l := logger.New(cfg.LogMode)
	logger.SetGlobalLogger(l)
	defer l.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo, closeRepo, err := buildCatalog(ctx, cfg, l)
	if err != nil {
		log.Fatalf("Failed to initialize catalog: %v", err)
	}
	defer closeRepo()

	store, err := buildStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize artifact store: %v", err)
	}

	var limiter *redis.RateLimiter
	if cfg.RateLimitEnabled {
		redis.Initialize(redis.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := redis.Ping(ctx, redis.GetClient()); err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		limiter = redis.NewRateLimiter(redis.GetClient(), redis.RateLimitConfig{
			UploadLimit:  cfg.UploadRateLimit,
			UploadWindow: time.Duration(cfg.UploadRateWindow) * time.Second,
		})
		l.Infof("Upload rate limit: %d per %ds", cfg.UploadRateLimit, cfg.UploadRateWindow)
	}

	admission := services.NewAdmission(cfg.UploadMaxBytes)
	uploadService := services.NewUploadService(admission, store, repo, l)
	retrievalService := services.NewRetrievalService(store, repo, l)

	handlers := &server.Handlers{
		File: handler.NewFileHandler(uploadService, retrievalService, admission.MaxBytes(), l),
	}

	srv := server.New(cfg, l)
	srv.SetupRoutes(handlers, repo, limiter)

	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func buildCatalog(ctx context.Context, cfg *config.Config, l *logger.Logger) (repository.FileRepository, func(), error) {
	switch cfg.CatalogBackend {
	case config.CatalogMemory:
		l.Infof("Using in-memory catalog; records are lost on restart")
		return repository.NewMemoryFileRepository(), func() {}, nil
	default:
		if err := database.MigrateUp(cfg, l); err != nil {
			return nil, nil, err
		}
		pool, err := database.Connect(ctx, cfg, l)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewFileRepository(pool), pool.Close, nil
	}
}

func buildStore(ctx context.Context, cfg *config.Config) (storage.ArtifactStore, error) {
	switch cfg.StorageBackend {
	case config.StorageS3:
		return storage.NewS3Store(ctx, storage.S3Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Endpoint:  cfg.S3Endpoint,
			Prefix:    cfg.S3Prefix,
		})
	default:
		return storage.NewDiskStore(cfg.UploadDir)
	}
}
