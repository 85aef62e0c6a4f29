package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"campuspass/internal/httpapi"
	"campuspass/internal/sweeper"
	"campuspass/internal/visit"
	"campuspass/pkg/config"
	"campuspass/pkg/db"
	"campuspass/pkg/passlog"
)

func main() {
	cfg := config.Load()

	logger, err := passlog.New(cfg.LogLevel, cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	settings, err := visit.NewSettings(cfg.Engine)
	if err != nil {
		log.Fatalf("engine settings: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer conn.Close()

	if cfg.MigrationsPath != "" {
		if err := db.Migrate(cfg.MigrationsPath, cfg); err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	router := httpapi.NewRouter(httpapi.Dependencies{
		Cfg:      cfg,
		DB:       conn,
		Settings: settings,
	})

	sw := &sweeper.Sweeper{
		Visits:   visit.NewRepository(conn),
		Cutoff:   settings.Cutoff,
		Log:      logger.Named("sweeper"),
		Location: settings.Location,
	}
	go sw.Run(ctx, cfg.Engine.SweepInterval)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http serve", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(shutdownCtx)
}
