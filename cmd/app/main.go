// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ibnahmadCoded/agent-pay-demo/internal/config"
	"github.com/ibnahmadCoded/agent-pay-demo/internal/domain/model"
	"github.com/ibnahmadCoded/agent-pay-demo/internal/domain/ports/repository"
	pg "github.com/ibnahmadCoded/agent-pay-demo/internal/infra/db/postgres"
	"github.com/ibnahmadCoded/agent-pay-demo/internal/infra/gateway"
	"github.com/ibnahmadCoded/agent-pay-demo/internal/infra/logging"
	"github.com/ibnahmadCoded/agent-pay-demo/internal/infra/memory"
	"github.com/ibnahmadCoded/agent-pay-demo/internal/infra/metrics"
	red "github.com/ibnahmadCoded/agent-pay-demo/internal/infra/redis"
	"github.com/ibnahmadCoded/agent-pay-demo/internal/infra/sched"
	"github.com/ibnahmadCoded/agent-pay-demo/internal/infra/web"
	"github.com/ibnahmadCoded/agent-pay-demo/internal/usecase"
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
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()

	// ---- Payment record store ----
	var records repository.PaymentRecordRepository
	if cfg.Database.URL != "" {
		pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres")
		}
		defer pool.Close()
		repo := pg.NewPaymentRecordRepo(pool)
		if err := repo.Migrate(ctx); err != nil {
			logger.Fatal().Err(err).Msg("postgres migrate")
		}
		records = repo
		logger.Info().Msg("record store: postgres")
	} else {
		records = memory.NewPaymentRecordRepo()
		logger.Warn().Msg("record store: in-memory (database.url not set)")
	}

	// ---- Dedup store ----
	var dedup repository.DedupStore
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		dedup = red.NewDedupStore(redisClient, cfg.Redis.TTL)
		logger.Info().Msg("dedup store: redis")
	} else {
		dedup = memory.NewDedupStore(cfg.Redis.TTL)
		logger.Warn().Msg("dedup store: in-memory (redis.url not set)")
	}

	// ---- Gateway client ----
	verifier := gateway.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.AccessToken)
	logger.Info().
		Str("base_url", cfg.Gateway.BaseURL).
		Str("merchant_id", cfg.Gateway.MerchantID).
		Str("access_token", logging.Redact(cfg.Gateway.AccessToken, cfg.Runtime.Dev)).
		Msg("gateway client configured")

	// ---- Use cases ----
	notifUC := usecase.NewNotificationUseCase(records, dedup, logger)
	verifyUC := usecase.NewVerificationUseCase(verifier, logger)

	// ---- Gateway widget session (one per process lifetime here) ----
	session := gateway.NewSession(gateway.SessionConfig{
		MerchantID: cfg.Gateway.MerchantID,
		PublicKey:  cfg.Gateway.PublicKey,
		BaseURL:    cfg.Gateway.BaseURL,
	}, logger)
	defer session.Destroy()
	if err := session.Init(ctx); err != nil {
		logger.Fatal().Err(err).Msg("gateway session")
	}
	session.OnPaymentEvent(func(ev model.PaymentEvent) {
		logger.Info().
			Str("event_id", ev.ID).
			Str("payment_id", ev.PaymentID).
			Str("status", string(ev.Status)).
			Msg("payment event received")
	})

	// ---- Reconciler ----
	if cfg.Reconciler.Enabled {
		rec := sched.NewReconciler(verifier, records, cfg.Reconciler.Interval, cfg.Reconciler.StaleAfter, logger)
		go rec.Start(ctx)
		logger.Info().Dur("interval", cfg.Reconciler.Interval).Msg("reconciler started")
	}

	// ---- HTTP server ----
	srv := web.NewServer(cfg.Server, notifUC, verifyUC, logger)
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// ---- Shutdown ----
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		logger.Error().Err(err).Msg("http server failed")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
}
