package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/Wikid82/ballot/backend/internal/api/routes"
	"github.com/Wikid82/ballot/backend/internal/config"
	"github.com/Wikid82/ballot/backend/internal/credentials"
	"github.com/Wikid82/ballot/backend/internal/database"
	"github.com/Wikid82/ballot/backend/internal/live"
	"github.com/Wikid82/ballot/backend/internal/logger"
	"github.com/Wikid82/ballot/backend/internal/metrics"
	"github.com/Wikid82/ballot/backend/internal/models"
	"github.com/Wikid82/ballot/backend/internal/server"
	"github.com/Wikid82/ballot/backend/internal/services"
	"github.com/Wikid82/ballot/backend/internal/store"
	"github.com/Wikid82/ballot/backend/internal/version"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "gen-secret" {
		if err := runCommand(context.Background(), nil, os.Args[1:], os.Stdout); err != nil {
			log.Fatal(err)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Setup logging with rotation
	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		log.Fatalf("create log dir: %v", err)
	}
	rotator := logger.Rotating(cfg.LogDir)
	defer rotator.Close()
	mw := io.MultiWriter(os.Stdout, rotator)
	log.SetOutput(mw)
	logger.Init(cfg.Debug, mw)

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DSN())
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Handle CLI commands
	if len(os.Args) > 1 {
		if err := runCommand(ctx, credentials.NewLocalProvider(db), os.Args[1:], os.Stdout); err != nil {
			log.Fatal(err)
		}
		return
	}

	logger.WithFields(logrus.Fields{"version": version.Info().String(), "driver": cfg.DatabaseDriver}).Infof("starting %s backend", version.Name)
	if cfg.GeneratedSecret {
		logger.Log().Warn("BALLOT_JWT_SECRET is not set; using a random secret, tokens will not survive a restart")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(registry)

	notify, err := services.NewNotificationService(cfg.NotifyURLs)
	if err != nil {
		log.Fatalf("notifications: %v", err)
	}
	defer notify.Wait()

	if cfg.SweepSchedule != "" {
		sweeper := services.NewScheduleService(store.New(db, models.TableAuditLogs))
		if err := sweeper.Start(cfg.SweepSchedule); err != nil {
			log.Fatalf("election sweeper: %v", err)
		}
		defer sweeper.Stop()
		logger.WithFields(logrus.Fields{"schedule": cfg.SweepSchedule}).Info("election sweeper enabled")
	}

	hub := live.NewHub()
	go hub.Run(ctx)

	srv := server.New(db, cfg, routes.Deps{Hub: hub, Notify: notify}, registry)
	logger.WithFields(logrus.Fields{"port": cfg.HTTPPort}).Info("listening")
	if err := srv.Run(ctx); err != nil {
		logger.Log().WithError(err).Error("server error")
	}
	logger.Log().Info("shutdown complete")
}
