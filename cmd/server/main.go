package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lesson-seat-invitation/internal/config"
	"github.com/iliyamo/lesson-seat-invitation/internal/database"
	"github.com/iliyamo/lesson-seat-invitation/internal/handler"
	"github.com/iliyamo/lesson-seat-invitation/internal/logging"
	"github.com/iliyamo/lesson-seat-invitation/internal/middleware"
	"github.com/iliyamo/lesson-seat-invitation/internal/queue"
	"github.com/iliyamo/lesson-seat-invitation/internal/repository"
	"github.com/iliyamo/lesson-seat-invitation/internal/router"
	"github.com/iliyamo/lesson-seat-invitation/internal/service"
)

func main() {
	// A missing .env is fine in environments that inject variables
	// directly.
	_ = godotenv.Load()
	cfg := config.Load()

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer lg.Closer()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		lg.Sugar.Fatalw("open database", "err", err)
	}
	if err := database.Migrate(db); err != nil {
		lg.Sugar.Fatalw("migrate database", "err", err)
	}

	store := repository.NewSQLStore(db)
	invites := service.NewInviteService(store, cfg.InviteCodeLength, cfg.InviteTTLDays, cfg.InviteCodeRetries)
	forms := service.NewIdentityFormService(store, invites)
	claims := service.NewClaimCoordinator(store, invites)
	audit := service.NewAuditPublisher(cfg.RabbitURL, lg.Sugar)

	go func() {
		if err := queue.StartAuditConsumer(cfg.RabbitURL, lg.Sugar); err != nil {
			lg.Sugar.Warnw("audit consumer stopped", "err", err)
		}
	}()

	rdb := config.NewRedisClient()
	if rdb == nil {
		lg.Sugar.Warn("redis unavailable, rate limiting disabled")
	}
	rl := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterInvitations(e,
		handler.NewInvitationHandler(invites, store, audit),
		handler.NewIdentityFormHandler(forms, audit),
		handler.NewClaimHandler(claims, audit),
		cfg.JWTSecret, rl)

	addr := ":" + cfg.Port
	lg.Sugar.Infow("listening", "addr", addr, "env", cfg.Env)
	if err := e.Start(addr); err != nil {
		lg.Sugar.Fatalw("server stopped", "err", err)
	}
}
