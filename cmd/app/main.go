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

	"esengo-membership/internal/config"
	"esengo-membership/internal/domain/ports/adapter"
	"esengo-membership/internal/infra/adapters/currency"
	"esengo-membership/internal/infra/adapters/notify"
	pg "esengo-membership/internal/infra/db/postgres"
	"esengo-membership/internal/infra/logging"
	"esengo-membership/internal/infra/metrics"
	red "esengo-membership/internal/infra/redis"
	"esengo-membership/internal/infra/sched"
	"esengo-membership/internal/infra/web"
	"esengo-membership/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (relaxed auth, console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	walletRepo := pg.NewWalletRepo(pool)
	membershipRepo := pg.NewMembershipRepo(pool)
	commissionRepo := pg.NewCommissionRepo(pool)
	commRateRepo := pg.NewCommissionRateRepoCacheDecorator(pg.NewCommissionRateRepo(pool), redisClient)
	bonusRepo := pg.NewBonusRepo(pool)
	bonusRateRepo := pg.NewBonusRateRepoCacheDecorator(pg.NewBonusRateRepo(pool), redisClient)
	tokenRepo := pg.NewTokenRepo(pool)
	packRepo := pg.NewPackRepoCacheDecorator(pg.NewPackRepo(pool), redisClient)
	tm := pg.NewTxManager(pool)

	// ---- Adapters ----
	converter := currency.NewStaticConverter(cfg.Currency, logger)
	var notifier adapter.Notifier = notify.NoopNotifier{}
	if cfg.Notify.TelegramToken != "" {
		tg, err := notify.NewTelegramNotifier(cfg.Notify, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram notifier")
		}
		notifier = tg
	} else {
		logger.Info().Msg("no telegram token configured; notifications disabled")
	}

	// ---- Use cases ----
	ledgerUC := usecase.NewLedgerUseCase(walletRepo, tm, cfg.Settlement.Currency, logger)
	if _, err := ledgerUC.EnsureSystemWallet(ctx); err != nil {
		logger.Fatal().Err(err).Msg("system wallet bootstrap")
	}
	commissionUC := usecase.NewCommissionUseCase(membershipRepo, packRepo, commRateRepo, commissionRepo, ledgerUC, converter, notifier, tm, logger)
	bonusUC := usecase.NewBonusUseCase(membershipRepo, bonusRateRepo, bonusRepo, tokenRepo, ledgerUC, locker, notifier, tm, cfg.Settlement.TokenTTL(), logger)
	tokenUC := usecase.NewTokenUseCase(tokenRepo, bonusRepo, tm, logger)
	membershipUC := usecase.NewMembershipUseCase(membershipRepo, logger)

	// ---- Batch scheduler ----
	jobs := sched.NewJobs(bonusUC, tokenUC, membershipUC, logger)
	scheduler := sched.NewScheduler(jobs, cfg.Scheduler, logger)
	scheduler.Start()

	// ---- Admin API ----
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, !cfg.Runtime.Dev, "", 30*time.Minute)
	adminSrv := web.NewServer(
		ledgerUC, commissionUC, bonusUC, tokenUC, membershipUC,
		packRepo, commRateRepo, bonusRateRepo,
		cfg.Admin.APIKey, auth, logger,
	)
	adminSrv.LimitRedemptions(red.NewRateLimiter(redisClient), 10, time.Minute)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Admin.Port),
		Handler: adminSrv.Router(),
	}
	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("admin API listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("admin API server")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	// Let in-flight cron jobs drain before the pool closes.
	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn().Msg("scheduler drain timed out")
	}
	cancel()
}
