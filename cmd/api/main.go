package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marcelsud/helpdesk-webhooks/config"
	"github.com/marcelsud/helpdesk-webhooks/internal/http/chi"
	"github.com/marcelsud/helpdesk-webhooks/metrics"
	"github.com/marcelsud/helpdesk-webhooks/seed"
	"github.com/marcelsud/helpdesk-webhooks/webhook"
	webhookredis "github.com/marcelsud/helpdesk-webhooks/webhook/redis"
	"github.com/marcelsud/helpdesk-webhooks/webhook/signature"
	"github.com/marcelsud/helpdesk-webhooks/webhook/slack"
	"github.com/rs/zerolog"
)

const TIMEOUT = 30 * time.Second

const heartbeatInterval = 30 * time.Second

var version = "dev"

/* main wires every package together: config, storage, the event catalog,
 * the dispatcher and the HTTP API. Imports only point downward:
 * cmd imports the domain, the domain imports storage interfaces.
 */

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "helpdesk-webhooks").Logger()

	if err := run(logger); err != nil {
		logger.Error().Err(err).Msg("exiting")
		os.Exit(1)
	}
}

func run(logger zerolog.Logger) error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	if cfg.OTLPEndpoint != "" {
		tp, err := metrics.NewTracerProvider(ctx, cfg.OTLPEndpoint, "helpdesk-webhooks", cfg.OTLPInsecure)
		if err != nil {
			return err
		}
		defer tp.Shutdown(context.Background())
	}

	repo, err := webhookredis.NewRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer repo.Close(ctx)

	// the meter provider must be global before the dispatcher creates its instruments
	exporter, err := metrics.NewOTelExporter(metrics.NewRedisCollector(repo.GetClient()))
	if err != nil {
		return err
	}
	defer exporter.Shutdown(context.Background())

	loader := seed.NewLoader()
	if cfg.SeedFile != "" {
		if err := loader.Load(cfg.SeedFile); err != nil {
			return err
		}
	}
	catalog := webhook.NewCatalog()
	if err := loader.RegisterEvents(catalog); err != nil {
		return err
	}
	events := catalog.Freeze()

	signer, err := signature.NewSigner(cfg.AppKey)
	if err != nil {
		return err
	}
	chat := slack.NewBuilder(cfg.AppURL, cfg.GetAppName(), nil)

	dispatcher := webhook.NewDispatcher(repo, signer, chat,
		webhook.WithLogger(logger.With().Str("component", "dispatcher").Logger()),
	)
	s := webhook.NewService(repo, repo, dispatcher, events,
		webhook.WithConcurrency(cfg.GetDispatchConcurrency()),
		webhook.WithServiceLogger(logger.With().Str("component", "service").Logger()),
	)

	if len(loader.Subscriptions()) > 0 {
		res, err := loader.Apply(ctx, s)
		if err != nil {
			return err
		}
		logger.Info().
			Int("created", len(res.Created)).
			Int("skipped", len(res.Skipped)).
			Strs("rejected_events", res.Rejected).
			Msg("seed applied")
	}

	go heartbeat(ctx, logger, repo, s, cfg.GetInstanceID())

	r := chi.WebhookHandlers(ctx, s, chi.Options{
		Metrics: exporter.Handler(),
		Timeout: cfg.GetRequestTimeout(),
	})
	srv := &http.Server{
		ReadTimeout: 30 * time.Second,
		// Fire holds the response until every delivery finishes
		WriteTimeout: cfg.GetRequestTimeout() + 5*time.Second,
		Addr:         ":" + cfg.GetPort(),
		Handler:      r,
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, ctx, errShutdown)
	logger.Info().Str("port", cfg.GetPort()).Int("events", events.Len()).Msg("listening")
	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return <-errShutdown
}

// heartbeat advertises this instance until ctx is cancelled
func heartbeat(ctx context.Context, logger zerolog.Logger, repo *webhookredis.Repository, s webhook.UseCase, instanceID string) {
	beat := func() {
		subs, err := s.List(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("heartbeat: listing webhooks")
		}
		hb := webhookredis.InstanceHeartbeat{
			InstanceID:    instanceID,
			Version:       version,
			Subscriptions: len(subs),
			LastHeartbeat: time.Now(),
		}
		if err := repo.SetHeartbeat(ctx, hb); err != nil && ctx.Err() == nil {
			logger.Warn().Err(err).Msg("heartbeat failed")
		}
	}

	beat()
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			beat()
		}
	}
}

func shutdown(server *http.Server, ctxShutdown context.Context, errShutdown chan error) {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), TIMEOUT)
	defer stop()

	err := server.Shutdown(ctxTimeout)
	switch err {
	case nil:
		errShutdown <- nil
	case context.DeadlineExceeded:
		errShutdown <- fmt.Errorf("forcing server close after %s", TIMEOUT)
	default:
		errShutdown <- fmt.Errorf("shutting down server: %w", err)
	}
}
