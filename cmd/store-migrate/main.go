package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/noah-isme/academy-admissions/internal/repository"
	"github.com/noah-isme/academy-admissions/internal/service"
	"github.com/noah-isme/academy-admissions/pkg/config"
	"github.com/noah-isme/academy-admissions/pkg/database"
	"github.com/noah-isme/academy-admissions/pkg/logger"
)

// store-migrate copies the JSON admission file into PostgreSQL using the DB_*
// settings from the environment.
func main() {
	var (
		source string
		force  bool
	)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	flag.StringVar(&source, "source", cfg.Store.DataFile, "Path to the JSON admissions file")
	flag.BoolVar(&force, "force", false, "Append even when the database already holds admissions")
	flag.Parse()

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src, err := repository.NewAdmissionFileRepository(source, cfg.Store.WriteTimeout, logr)
	if err != nil {
		logr.Fatal("failed to open source file", zap.String("source", source), zap.Error(err))
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	dst := repository.NewAdmissionRepository(db)
	if err := dst.EnsureSchema(ctx); err != nil {
		logr.Fatal("failed to prepare schema", zap.Error(err))
	}

	result, err := service.MigrateAdmissions(ctx, src, dst, force, logr)
	if err != nil {
		logr.Fatal("migration failed", zap.Int("written", result.Written), zap.Error(err))
	}
	logr.Info("migration complete", zap.String("source", source), zap.Int("records", result.Written))
}
