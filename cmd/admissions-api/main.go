package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/academy-admissions/api/swagger"
	"github.com/noah-isme/academy-admissions/internal/handler"
	"github.com/noah-isme/academy-admissions/internal/middleware"
	"github.com/noah-isme/academy-admissions/internal/repository"
	"github.com/noah-isme/academy-admissions/internal/router"
	"github.com/noah-isme/academy-admissions/internal/service"
	"github.com/noah-isme/academy-admissions/pkg/cache"
	"github.com/noah-isme/academy-admissions/pkg/config"
	"github.com/noah-isme/academy-admissions/pkg/database"
	"github.com/noah-isme/academy-admissions/pkg/jobs"
	"github.com/noah-isme/academy-admissions/pkg/logger"
	"github.com/noah-isme/academy-admissions/pkg/storage"
)

// @title Academy Admissions API
// @version 1.0.0
// @description Public admission intake with proof-of-payment uploads and an admin fee dashboard.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logr.Warn("unknown timezone, falling back to UTC", zap.String("timezone", cfg.Timezone), zap.Error(err))
		location = time.UTC
	}

	catalog, err := repository.LoadCourseCatalog(cfg.Admissions.CourseCatalogFile)
	if err != nil {
		return fmt.Errorf("load course catalog: %w", err)
	}

	metrics := service.NewMetricsService()
	var checks []handler.ReadinessCheck

	store, storeCheck, closeStore, err := openStore(ctx, cfg, logr)
	if err != nil {
		return err
	}
	defer closeStore()
	checks = append(checks, storeCheck)

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	var (
		cacheRepo     service.CacheRepository
		submitLimiter middleware.Limiter = middleware.NewMemoryLimiter()
	)
	if redisClient != nil {
		repo := repository.NewCacheRepository(redisClient, logr)
		defer repo.Close() //nolint:errcheck
		cacheRepo = repo
		submitLimiter = middleware.NewRedisLimiter(redisClient, "admissions:ratelimit")
		checks = append(checks, handler.ReadinessCheck{Name: "redis", Probe: repo.Ping})
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.RecordsTTL, logr, cfg.Cache.Enabled && cacheRepo != nil)

	files, err := storage.NewLocalStorage(cfg.Uploads.Dir)
	if err != nil {
		return fmt.Errorf("prepare upload directory: %w", err)
	}
	uploads := service.NewUploadService(files, logr, service.UploadServiceConfig{
		MaxFileSize:       cfg.Uploads.MaxFileSizeBytes,
		AllowedExtensions: cfg.Uploads.AllowedExtensions,
		URLPrefix:         cfg.Uploads.URLPrefix,
	})

	cleanupQueue := jobs.NewQueue("attachment-cleanup", service.NewAttachmentCleanupHandler(uploads, metrics, logr), jobs.QueueConfig{
		Workers:    cfg.Cleanup.Workers,
		MaxRetries: cfg.Cleanup.Retries,
		RetryDelay: cfg.Cleanup.RetryDelay,
		Logger:     logr,
	})
	cleanupQueue.Start(context.Background())

	validate := validator.New()
	admissions := service.NewAdmissionService(
		service.NewAdmissionValidator(catalog, validate, cfg.Admissions.PhoneCountryCode, location),
		uploads, store, cacheSvc, metrics, cleanupQueue, logr,
	)
	dashboard := service.NewDashboardService(admissions, location, logr)

	var signer *storage.SignedURLSigner
	if !cfg.Uploads.Public {
		signer = storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)
	}
	attachments := service.NewAttachmentService(uploads, files, signer, service.AttachmentServiceConfig{
		Public:       cfg.Uploads.Public,
		DownloadPath: router.AttachmentDownloadPath(cfg.APIPrefix),
	}, logr)

	deps := router.Dependencies{
		Logger:         logr,
		Metrics:        metrics,
		Admissions:     handler.NewAdmissionHandler(admissions, uploads),
		Dashboard:      handler.NewDashboardHandler(dashboard, attachments),
		Courses:        handler.NewCourseHandler(catalog),
		Exports:        handler.NewExportHandler(service.NewExportService(dashboard, location, logr)),
		Attachments:    handler.NewAttachmentHandler(attachments),
		Health:         handler.NewHealthHandler(metrics, logr, checks...),
		SubmitLimiter:  submitLimiter,
		SubmitLimit:    cfg.RateLimit.Submissions,
		SubmitWindow:   cfg.RateLimit.Window,
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		TrustedProxies: cfg.TrustedProxies,
		EnableDocs:     cfg.Env != config.EnvProduction,
	}
	if cfg.Uploads.Public {
		deps.UploadsDir = files.BaseDir()
		deps.UploadsURLPrefix = cfg.Uploads.URLPrefix
	}
	if cfg.AdminAuth.Enabled {
		deps.AdminTokens = service.NewAuthService(validate, logr, service.AuthConfig{
			Secret:   cfg.AdminAuth.Secret,
			TokenTTL: cfg.AdminAuth.TokenTTL,
			Issuer:   cfg.AdminAuth.Issuer,
		})
	} else {
		logr.Warn("admin auth disabled, dashboard and exports are unauthenticated")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router.New(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logr.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("http shutdown incomplete", zap.Error(err))
	}
	if err := cleanupQueue.Shutdown(shutdownCtx); err != nil {
		logr.Error("cleanup queue shutdown incomplete", zap.Error(err))
	}
	return nil
}

// openStore builds the configured admission store with its readiness probe and closer.
func openStore(ctx context.Context, cfg *config.Config, logr *zap.Logger) (service.AdmissionStore, handler.ReadinessCheck, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, handler.ReadinessCheck{}, nil, fmt.Errorf("connect postgres: %w", err)
		}
		repo := repository.NewAdmissionRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			db.Close() //nolint:errcheck
			return nil, handler.ReadinessCheck{}, nil, fmt.Errorf("prepare admissions schema: %w", err)
		}
		return repo, handler.ReadinessCheck{Name: "postgres", Probe: repo.Ping}, func() { db.Close() }, nil //nolint:errcheck
	case config.StoreDriverJSON, "":
		repo, err := repository.NewAdmissionFileRepository(cfg.Store.DataFile, cfg.Store.WriteTimeout, logr)
		if err != nil {
			return nil, handler.ReadinessCheck{}, nil, err
		}
		return repo, handler.ReadinessCheck{Name: "store", Probe: repo.Ping}, func() {}, nil
	default:
		return nil, handler.ReadinessCheck{}, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.Store.Driver)
	}
}
