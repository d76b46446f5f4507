package chi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/helpdesk-webhooks/webhook"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Options tunes the router; zero values are usable
type Options struct {
	// Metrics serves GET /metrics when set
	Metrics http.Handler

	// Timeout bounds each request; Fire waits for every delivery it starts
	Timeout time.Duration
}

// WebhookHandlers sets up the webhook API routes
func WebhookHandlers(ctx context.Context, webhookService webhook.UseCase, opts Options) *chi.Mux {
	logger := httplog.NewLogger("helpdesk-webhooks", httplog.Options{
		JSON: true,
	})
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "webhook-api")
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(opts.Timeout))

		r.Method(http.MethodGet, "/events", getEvents(webhookService))
		r.Method(http.MethodPost, "/events/{event}", postEvent(webhookService))

		r.Method(http.MethodGet, "/webhooks", getWebhooks(webhookService))
		r.Method(http.MethodPost, "/webhooks", postWebhook(webhookService))
		r.Method(http.MethodGet, "/webhooks/{id}", getWebhook(webhookService))
		r.Method(http.MethodDelete, "/webhooks/{id}", deleteWebhook(webhookService))
		r.Method(http.MethodGet, "/webhooks/{id}/logs", getWebhookLogs(webhookService))

		r.Method(http.MethodPost, "/logs/{id}/retry", postRetry(webhookService))
	})

	return r
}
