package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Spok95/atk-inventory/internal/api"
	"github.com/Spok95/atk-inventory/internal/auth"
	"github.com/Spok95/atk-inventory/internal/config"
	"github.com/Spok95/atk-inventory/internal/infra/db"
	httpx "github.com/Spok95/atk-inventory/internal/infra/http"
	"github.com/Spok95/atk-inventory/internal/infra/logger"
	"github.com/Spok95/atk-inventory/internal/infra/notify"
	"github.com/Spok95/atk-inventory/internal/ledger"
	"github.com/Spok95/atk-inventory/internal/report"
	"github.com/Spok95/atk-inventory/internal/storage/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/subosito/gotenv"
)

func runMigrations(dsn string) error {
	sqlDB, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return goose.Up(sqlDB, "migrations")
}

func main() {
	_ = gotenv.Load()

	cfg, err := config.Load("config/example.yaml")
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	if err := runMigrations(cfg.Postgres.DSN); err != nil {
		log.Error("migrations failed", "err", err)
		return
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Error("db connect failed", "err", err)
		return
	}
	defer pool.Close()
	log.Info("db connected")

	store := postgres.New(pool)

	var notifier ledger.Notifier = ledger.NopNotifier{}
	if cfg.Telegram.Token != "" {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.AdminChatID, log)
		if err != nil {
			log.Error("telegram init failed", "err", err)
			return
		}
		notifier = tg
		log.Info("telegram notifications enabled", "chat_id", cfg.Telegram.AdminChatID)
	}

	authSvc := auth.New(store, cfg.Auth.JWTSecret)
	if cfg.Auth.BootstrapPassword != "" {
		existing, err := store.GetUserByUsername(ctx, "admin")
		if err != nil {
			log.Error("admin bootstrap check failed", "err", err)
			return
		}
		if existing == nil {
			if _, err := authSvc.Register(ctx, "admin", cfg.Auth.BootstrapPassword, "Administrator"); err != nil {
				log.Error("admin bootstrap failed", "err", err)
				return
			}
			log.Info("default admin created", "username", "admin")
		}
	}

	srv := &api.Server{
		Ledger:  ledger.New(store, log, notifier, cfg.Ledger.MaxRequestQty),
		Reports: report.New(store),
		Auth:    authSvc,
		Log:     log,
		Secret:  cfg.Auth.JWTSecret,
	}
	app := srv.App()

	ops := httpx.New(cfg.Ops.Addr, cfg.Metrics.Enabled)
	go func() {
		if err := ops.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("ops server error", "err", err)
		}
	}()
	log.Info("ops server started", "addr", cfg.Ops.Addr)

	go func() {
		if err := app.Listen(cfg.HTTP.Addr); err != nil {
			log.Error("api server error", "err", err)
		}
	}()
	log.Info("api server started", "addr", cfg.HTTP.Addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(shutdownCtx)
	_ = ops.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}
