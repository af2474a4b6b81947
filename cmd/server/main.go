package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"anoa.com/teamcommonapp/internal/bootstrap"
	"anoa.com/teamcommonapp/internal/config"
	"anoa.com/teamcommonapp/internal/server"
	"anoa.com/teamcommonapp/pkg/database"
	"anoa.com/teamcommonapp/pkg/logger"
	"anoa.com/teamcommonapp/pkg/validator"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(logger.Config{
		ServiceName: "teamcommonapp",
		Environment: cfg.AppEnv,
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
	})
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	validator.SetInstitutionDomain(cfg.InstitutionEmailDomain)

	db, err := database.Connect(database.Config{
		Host:     cfg.DBHost,
		User:     cfg.DBUser,
		Password: cfg.DBPass,
		Name:     cfg.DBName,
		Port:     cfg.DBPort,
		SSLMode:  cfg.DBSSLMode,
		Debug:    cfg.AppEnv == "development",
	})
	if err != nil {
		zl.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := bootstrap.Migrate(db); err != nil {
		zl.Fatal("migration failed", zap.Error(err))
	}

	if cfg.TeamSeedFile != "" {
		seed, err := bootstrap.LoadSeedFile(cfg.TeamSeedFile)
		if err != nil {
			zl.Fatal("failed to load team seed file", zap.String("path", cfg.TeamSeedFile), zap.Error(err))
		}
		if err := bootstrap.SeedTeams(context.Background(), db, seed, zl); err != nil {
			zl.Fatal("failed to seed teams", zap.Error(err))
		}
	}

	srv, err := server.NewServer(cfg, db, zl)
	if err != nil {
		zl.Fatal("failed to build server", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		zl.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			zl.Error("server exited with error", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zl.Error("graceful shutdown failed", zap.Error(err))
	}
}
