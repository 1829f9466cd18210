package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/iliyamo/choir-api/internal/config"
	"github.com/iliyamo/choir-api/internal/database"
	"github.com/iliyamo/choir-api/internal/handler"
	"github.com/iliyamo/choir-api/internal/logger"
	"github.com/iliyamo/choir-api/internal/middleware"
	"github.com/iliyamo/choir-api/internal/presence"
	"github.com/iliyamo/choir-api/internal/queue"
	"github.com/iliyamo/choir-api/internal/repository"
	"github.com/iliyamo/choir-api/internal/router"
	"github.com/iliyamo/choir-api/internal/service"
	"github.com/iliyamo/choir-api/internal/tenancy"
)

func main() {
	_ = godotenv.Load() // .env is optional outside local development

	cfg, err := config.Load()
	if err != nil {
		logger.InitLogger("dev", "info").Fatal("invalid configuration", zap.Error(err))
	}
	log := logger.InitLogger(cfg.Env, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(database.Options{
		User: cfg.DBUser,
		Pass: cfg.DBPass,
		Host: cfg.DBHost,
		Port: cfg.DBPort,
		Name: cfg.DBName,
	})
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer func() { _ = db.Close() }()
	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatal("schema bootstrap failed", zap.Error(err))
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable; rate limiting and catalog cache disabled")
	} else {
		defer func() { _ = rdb.Close() }()
	}
	cacheCfg := config.LoadCacheConfig()

	// ---- Stores ----
	users := repository.NewUserRepo(db)
	choirs := repository.NewChoirRepo(db)
	tokensRepo := repository.NewTokenRepo(db)
	songs := repository.NewSongRepo(db)
	announcements := repository.NewAnnouncementRepo(db)
	settings := repository.NewSettingsRepo(db)
	themes := repository.NewThemeRepo(db)
	instruments := repository.NewInstrumentRepo(db)
	logs := repository.NewLogRepo(db)

	// ---- Services ----
	tokens := service.NewTokenService(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL(), cfg.RefreshTTL(), tokensRepo)
	auth := service.NewAuthenticator(users, choirs, tokens, cfg.BcryptCost, cfg.DefaultChoirCode)
	provisioner := service.NewProvisioner(choirs, settings, themes)
	if _, err := provisioner.EnsureChoir(ctx, cfg.DefaultChoirCode, cfg.DefaultChoirCode); err != nil {
		log.Fatal("default choir provisioning failed", zap.String("code", cfg.DefaultChoirCode), zap.Error(err))
	}
	policy, err := tenancy.NewPolicy()
	if err != nil {
		log.Fatal("authorization policy failed to load", zap.Error(err))
	}
	resolver := tenancy.NewResolver(choirs)
	pub := queue.NewPublisher(cfg.AMQPURL, log)
	auditor := service.NewQueueAuditor(pub, log)
	notifier := service.NewNotifier(pub, log)
	media := service.NewMediaClient(cfg.MediaBaseURL, cfg.MediaAPIKey, log)
	hub := presence.NewHub(log)

	// ---- Background workers ----
	go func() {
		if err := queue.StartAuditConsumer(ctx, cfg.AMQPURL, logs, log); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit consumer stopped", zap.Error(err))
		}
	}()
	go tokens.RunGC(ctx, cfg.TokenGCInterval, log)

	// ---- HTTP ----
	e := router.New(router.Handlers{
		Auth: handler.NewAuthHandler(auth),
		Choirs: &handler.ChoirHandler{
			Choirs: choirs, Users: users, Creator: provisioner, Scope: resolver, Audit: auditor,
		},
		Users: &handler.UserHandler{
			Users: users, Choirs: choirs, Themes: themes, Sessions: tokensRepo,
			Media: media, Scope: resolver, Audit: auditor,
		},
		Songs: &handler.SongHandler{Songs: songs, Settings: settings, Scope: resolver, Audit: auditor},
		Announcements: &handler.AnnouncementHandler{
			Announcements: announcements, Scope: resolver, Audit: auditor, Notify: notifier,
		},
		Settings: &handler.SettingsHandler{
			Settings: settings, Songs: songs, Themes: themes, Scope: resolver, Audit: auditor,
		},
		Themes: &handler.ThemeHandler{Themes: themes, Scope: resolver},
		Instruments: &handler.InstrumentHandler{
			Instruments: instruments,
			Audit:       auditor,
			Purge: func(ctx context.Context) error {
				return middleware.PurgeCache(ctx, cacheCfg, rdb)
			},
		},
		Logs:     &handler.LogHandler{Logs: logs, Scope: resolver},
		Presence: handler.NewPresenceHandler(hub, resolver),
		Health:   &handler.HealthHandler{DB: db},
	}, router.Options{
		Tokens:    tokens,
		Policy:    policy,
		Redis:     rdb,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     cacheCfg,
		Log:       log,
	})

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
