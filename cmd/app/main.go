// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telegram-yoga-subscription/internal/config"
	"telegram-yoga-subscription/internal/domain/ports/adapter"
	pg "telegram-yoga-subscription/internal/infra/db/postgres"
	"telegram-yoga-subscription/internal/infra/logging"
	"telegram-yoga-subscription/internal/infra/metrics"
	"telegram-yoga-subscription/internal/infra/payment/click"
	"telegram-yoga-subscription/internal/infra/payment/payme"
	red "telegram-yoga-subscription/internal/infra/redis"
	"telegram-yoga-subscription/internal/infra/sched"
	tele "telegram-yoga-subscription/internal/infra/telegram"
	"telegram-yoga-subscription/internal/infra/web"
	"telegram-yoga-subscription/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis (sweep lock) ----
	var locker red.Locker
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		locker = red.NewLocker(redisClient)
	} else {
		logger.Warn().Msg("redis.url not set; lifecycle sweep runs without a lock")
	}

	// ---- Repositories ----
	orderRepo := pg.NewOrderRepo(pool)
	paymentRepo := pg.NewPaymentRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	jobRunRepo := pg.NewJobRunRepo(pool)
	productRepo := pg.NewProductRepo(pool)
	userRepo := pg.NewUserRepo(pool)
	auditRepo := pg.NewAuditLogRepo(pool)
	tm := pg.NewTxManager(pool)

	// ---- Messaging ----
	var sender adapter.MessageSender
	if cfg.Runtime.Dev || cfg.Bot.Token == "" {
		sender = tele.NewNoopSender(logger)
	} else {
		sender, err = tele.NewSender(cfg.Bot.Token, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram")
		}
	}

	// ---- Use cases ----
	grantUC := usecase.NewGrantUseCase(productRepo, subRepo, logger)
	lifecycleUC := usecase.NewLifecycleUseCase(subRepo, userRepo, productRepo, jobRunRepo, sender, logger)
	adminUC := usecase.NewAdminUseCase(subRepo, auditRepo, tm, logger)

	// ---- Provider adapters ----
	clickHandler := click.NewHandler(cfg.Payment.Click, orderRepo, paymentRepo, grantUC, tm, logger)
	paymeHandler := payme.NewHandler(cfg.Payment.Payme, orderRepo, paymentRepo, grantUC, tm, logger)

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Admin.JWTSecret)
	srv := web.NewServer(clickHandler, paymeHandler, adminUC, lifecycleUC, auth, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Lifecycle worker ----
	worker := sched.NewLifecycleWorker(cfg.Scheduler.SweepInterval, lifecycleUC, locker, logger)
	go func() { _ = worker.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
}
