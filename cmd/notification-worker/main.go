package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dimitrije/trainerhub/internal/config"
	"github.com/dimitrije/trainerhub/internal/logger"
	"github.com/dimitrije/trainerhub/internal/notifications"
	"github.com/dimitrije/trainerhub/internal/services"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if cfg.NATSURL == "" {
		log.Fatal("NATS_URL environment variable is not set")
	}

	emailService := services.NewEmailService(cfg.SMTP)
	if !emailService.IsConfigured() {
		log.Fatal("SMTP is not configured")
	}

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry, cfg.PasswordSetupExpiry)
	dispatcher := notifications.NewDispatcher(emailService, jwtService, cfg.BaseURL, cfg.AdministratorMailbox, log)

	worker, err := notifications.StartWorker(cfg.NATSURL, dispatcher, log)
	if err != nil {
		log.Fatal("failed to start worker", zap.Error(err))
	}
	defer worker.Close()

	log.Info("notification worker started, waiting for events")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down notification worker")
}
