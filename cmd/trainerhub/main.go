package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dimitrije/trainerhub/internal/config"
	"github.com/dimitrije/trainerhub/internal/database"
	"github.com/dimitrije/trainerhub/internal/events"
	"github.com/dimitrije/trainerhub/internal/handlers"
	"github.com/dimitrije/trainerhub/internal/logger"
	"github.com/dimitrije/trainerhub/internal/media"
	authmw "github.com/dimitrije/trainerhub/internal/middleware"
	"github.com/dimitrije/trainerhub/internal/models"
	"github.com/dimitrije/trainerhub/internal/notifications"
	"github.com/dimitrije/trainerhub/internal/oauth"
	"github.com/dimitrije/trainerhub/internal/services"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
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

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	bus := events.NewBus(log)
	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry, cfg.PasswordSetupExpiry)

	if cfg.NATSURL != "" {
		publisher, err := events.NewNatsPublisher(cfg.NATSURL, log)
		if err != nil {
			log.Fatal("failed to connect to nats", zap.Error(err))
		}
		defer publisher.Close()
		bus.SubscribeAll(publisher.Handle)
		log.Info("user events forwarded to nats", zap.String("url", cfg.NATSURL))
	} else {
		emailService := services.NewEmailService(cfg.SMTP)
		if !emailService.IsConfigured() {
			log.Warn("smtp is not configured, notification mails will be skipped")
		}
		notifications.NewDispatcher(emailService, jwtService, cfg.BaseURL, cfg.AdministratorMailbox, log).Register(bus)
	}

	userService := services.NewUserService(db, bus, cfg.Users)
	providerTokenService := services.NewProviderTokenService(db)
	sessionService := services.NewSessionService(db, jwtService, userService)
	accountService := services.NewAccountService(userService, providerTokenService, sessionService, jwtService, bus, cfg.Users)
	leadService := services.NewLeadService(db, bus)

	var mediaService handlers.MediaServiceInterface
	if cfg.S3.IsConfigured() {
		storage, err := media.NewS3Storage(ctx, cfg.S3)
		if err != nil {
			log.Fatal("failed to configure media storage", zap.Error(err))
		}
		mediaService = media.NewService(db, userService, storage, media.NewQRGenerator(), log)
	}

	providers := oauth.NewRegistry(cfg)
	log.Info("oauth providers configured", zap.Strings("providers", providers.Names()))

	authHandler := handlers.NewAuthHandler(providers, accountService, userService, sessionService, cfg.OAuthStateExpiry, log)
	userHandler := handlers.NewUserHandler(accountService, userService, providerTokenService, mediaService, providers, log)
	leadHandler := handlers.NewLeadHandler(leadService, log)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	api := app.Group("/api/v1")

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/password/setup", authHandler.SetupPassword)
	auth.Post("/refresh", authHandler.RefreshToken)
	auth.Post("/logout", authHandler.Logout)
	auth.Get("/:provider/callback", authHandler.Callback)

	api.Post("/leads", leadHandler.Submit)

	if mediaService != nil {
		api.Get("/users/:uniqid/qr", userHandler.TrainerQR)
	}

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService))

	protected.Post("/auth/logout-all", authHandler.LogoutAll)
	protected.Get("/auth/:provider/consent", authHandler.Consent)

	protected.Get("/dashboard", userHandler.Dashboard)
	protected.Get("/user", userHandler.Me)
	protected.Get("/options", userHandler.Options)
	protected.Get("/users/:uniqid", userHandler.Show)
	protected.Patch("/users/:uniqid", userHandler.Update)
	protected.Patch("/users/:uniqid/password", userHandler.UpdatePassword)
	protected.Delete("/users/:uniqid", userHandler.Delete)
	protected.Delete("/users/:uniqid/providers/:provider", userHandler.UnlinkProvider)

	admin := api.Group("")
	admin.Use(authmw.Auth(jwtService))
	admin.Use(authmw.RequireRole(models.RoleAdministrator))

	admin.Get("/users", userHandler.List)
	admin.Post("/users", userHandler.Create)

	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		for range ticker.C {
			if err := sessionService.CleanupExpired(context.Background()); err != nil {
				log.Warn("failed to clean up refresh tokens", zap.Error(err))
			}
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           authmw.RequestLogger(log)(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown failed", zap.Error(err))
	}

	bus.Wait()
}
