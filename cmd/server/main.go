package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/config"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/infra"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/repository"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/router"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/sse"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger. dev: pretty, prod: JSON
	if cfg.Env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Domain events are optional; without RABBITMQ_URL the sale flow skips them.
	var (
		broker  *infra.Broker
		breaker *infra.CircuitBreaker
	)
	if cfg.RabbitMQURL != "" {
		breaker = infra.NewCircuitBreaker(infra.DefaultCBConfig("rabbitmq"))
		broker = infra.NewBroker(cfg.RabbitMQURL, breaker)
		defer broker.Close()
	}

	// Worker handlers are wired here (composition root) so that the pool
	// has full access to all infrastructure dependencies.
	mailer := infra.NewMailer(cfg)
	dispatcher := worker.NewDispatcher(rdb)
	pool := worker.NewPool(rdb, map[string]worker.Handler{
		worker.JobAuditoria:   worker.NewAuditoriaWorker(repository.NewAuditoriaRepository(db)),
		worker.JobAlertaStock: worker.NewAlertaStockWorker(mailer, cfg.AlertEmail),
	})
	pool.Start(ctx, cfg.WorkerPoolSize)

	r := router.New(router.Deps{
		Config:     cfg,
		DB:         db,
		Redis:      rdb,
		Hub:        sse.NewHub(),
		Dispatcher: dispatcher,
		Broker:     broker,
		Breaker:    breaker,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Str("env", cfg.Env).Msgf("inventario backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
