package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hostelbites/api/internal/config"
	"github.com/hostelbites/api/internal/database"
	"github.com/hostelbites/api/internal/logging"
	"github.com/hostelbites/api/internal/notify"
	"github.com/hostelbites/api/internal/router"
	"github.com/hostelbites/api/internal/service"
	"github.com/hostelbites/api/internal/whatsapp"
	"github.com/hostelbites/api/internal/ws"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return err
	}
	queries := database.New(pool)

	hub := ws.NewHub()
	go hub.Run(ctx)

	deliveryCharge, err := decimal.NewFromString(cfg.Checkout.DeliveryCharge)
	if err != nil {
		return err
	}

	mailer := notify.NewResendMailer(cfg.Email.ResendURL, cfg.Email.ResendAPIKey, cfg.Email.Timeout)

	var producer notify.EventProducer
	if cfg.Kafka.Enabled {
		kp, err := notify.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		defer kp.Close()
		producer = kp
	}

	notifier := notify.New(queries, mailer, hub, producer, notify.Config{
		From:         cfg.Email.From,
		AdminAddress: cfg.Email.AdminAddress,
	})

	orders := service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}, notifier, service.OrderServiceConfig{
		DeliveryCharge:  deliveryCharge,
		UPIRefMinLength: cfg.Checkout.UPIRefMinLength,
		NotifyTimeout:   cfg.Notification.Timeout,
	})

	r := router.New(router.Deps{
		Config:             cfg,
		Queries:            queries,
		Pool:               pool,
		Hub:                hub,
		Orders:             orders,
		Cart:               service.NewCartService(queries, hub),
		AdminNotifications: service.NewAdminNotificationService(queries, orders, hub),
		Analytics:          service.NewAnalyticsService(queries, cfg.Analytics.AssumedCostRate),
		Mailer:             mailer,
		Prober:             whatsapp.NewProber(cfg.WhatsApp.ProbeBaseURL, cfg.WhatsApp.ProbeTimeout),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("http shutdown")
	}
	// Let committed orders finish notifying before the pool closes.
	orders.Wait()
	return nil
}
