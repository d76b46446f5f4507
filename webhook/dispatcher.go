package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/marcelsud/helpdesk-webhooks/webhook/payload"
	"github.com/marcelsud/helpdesk-webhooks/webhook/signature"
	"github.com/marcelsud/helpdesk-webhooks/webhook/slack"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/marcelsud/helpdesk-webhooks/webhook"

// ErrMissingSigner is returned when a signed delivery has no signer configured
var ErrMissingSigner = errors.New("signer required for signed deliveries")

// maxDrainBytes bounds how much of a response body is read before closing
const maxDrainBytes = 64 << 10

// Runner delivers one event to one subscription
type Runner interface {
	Run(ctx context.Context, sub *Subscription, event string, entity any, correlationID string) (Outcome, error)
}

/* Dispatcher performs exactly one delivery attempt per Run call
 * Retries are driven from outside through the correlation ID
 */
type Dispatcher struct {
	formatter payload.Formatter
	store     DeliveryStore
	signer    *signature.Signer
	chat      *slack.Builder
	client    *http.Client
	logger    zerolog.Logger
	tracer    trace.Tracer
	nowFn     func() time.Time

	deliveries metric.Int64Counter
	duration   metric.Float64Histogram
}

// DispatcherOption customizes a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithHTTPClient replaces the default client (30s timeout, traced transport)
func WithHTTPClient(c *http.Client) DispatcherOption {
	return func(d *Dispatcher) { d.client = c }
}

// WithFormatter replaces payload.DefaultFormatter
func WithFormatter(f payload.Formatter) DispatcherOption {
	return func(d *Dispatcher) { d.formatter = f }
}

// WithLogger sets the structured logger
func WithLogger(l zerolog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

// WithClock overrides time.Now, for tests
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) { d.nowFn = now }
}

// NewDispatcher creates a dispatcher with dependency injection
func NewDispatcher(store DeliveryStore, signer *signature.Signer, chat *slack.Builder, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		formatter: payload.DefaultFormatter{},
		store:     store,
		signer:    signer,
		chat:      chat,
		client: &http.Client{
			Timeout:   DeliveryTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: zerolog.Nop(),
		tracer: otel.Tracer(instrumentationName),
		nowFn:  time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.chat == nil {
		d.chat = slack.NewBuilder("", "", nil)
	}

	meter := otel.Meter(instrumentationName)
	var err error
	d.deliveries, err = meter.Int64Counter(
		"webhook.deliveries",
		metric.WithDescription("Webhook delivery attempts by outcome"),
		metric.WithUnit("{attempts}"),
	)
	if err != nil {
		d.deliveries = noop.Int64Counter{}
	}
	d.duration, err = meter.Float64Histogram(
		"webhook.delivery.duration",
		metric.WithDescription("Time spent waiting for the destination"),
		metric.WithUnit("s"),
	)
	if err != nil {
		d.duration = noop.Float64Histogram{}
	}

	return d
}

// Run formats the entity, posts it to the subscription URL and records the outcome
// The returned error is reserved for formatting and storage failures;
// delivery failures are reported through Outcome and the delivery log.
// Only DeliveryTimeout bounds the attempt: cancelling ctx does not abort it,
// so a started attempt always ends with its run status and log entry stored.
// ErrNotFound from the first status write means the subscription was deleted
// and nothing is sent.
func (d *Dispatcher) Run(ctx context.Context, sub *Subscription, event string, entity any, correlationID string) (Outcome, error) {
	ctx = context.WithoutCancel(ctx)
	branch := BranchFor(sub.URL)
	ctx, span := d.tracer.Start(ctx, "webhook.run", trace.WithAttributes(
		attribute.String("webhook.id", sub.ID),
		attribute.String("webhook.event", event),
		attribute.String("webhook.branch", branch.String()),
	))
	defer span.End()

	log := d.logger.With().
		Str("webhook_id", sub.ID).
		Str("event", event).
		Str("branch", branch.String()).
		Logger()

	p, err := d.formatter.Format(ctx, entity)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Outcome{}, fmt.Errorf("formatting entity: %w", err)
	}

	body, headers, err := d.encode(ctx, branch, event, p, entity)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Outcome{}, fmt.Errorf("encoding payload: %w", err)
	}

	// Record the attempt before touching the network
	sub.LastRunTime = d.nowFn()
	if err := d.store.SaveRunStatus(ctx, sub.ID, sub.LastRunTime, sub.LastRunError); err != nil {
		return Outcome{}, fmt.Errorf("recording attempt: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.URL, bytes.NewReader(body))
	if err != nil {
		return d.fail(ctx, span, log, sub, event, 0, err.Error(), p, correlationID, branch)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := d.client.Do(req)
	d.duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
		attribute.String("webhook.branch", branch.String()),
	))
	if err != nil {
		return d.fail(ctx, span, log, sub, event, 0, err.Error(), p, correlationID, branch)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := "Response status code: " + strconv.Itoa(resp.StatusCode)
		return d.fail(ctx, span, log, sub, event, resp.StatusCode, msg, p, correlationID, branch)
	}

	sub.LastRunError = ""
	if err := d.saveStatus(ctx, log, sub); err != nil {
		return Outcome{}, err
	}

	d.count(ctx, Delivered, branch)
	log.Debug().Int("status_code", resp.StatusCode).Msg("webhook delivered")

	return Outcome{
		Success:    true,
		Status:     Delivered,
		StatusCode: resp.StatusCode,
		Branch:     branch,
	}, nil
}

// encode builds the request body and headers for the branch
func (d *Dispatcher) encode(ctx context.Context, branch Branch, event string, p payload.Payload, entity any) ([]byte, map[string]string, error) {
	headers := map[string]string{"Content-Type": "application/json"}

	if branch == Chat {
		text := d.chat.Build(ctx, payload.Classify(p), entity)
		body, err := json.Marshal(map[string]string{"text": text})
		if err != nil {
			return nil, nil, fmt.Errorf("marshaling chat message: %w", err)
		}
		return body, headers, nil
	}

	body, err := p.Bytes()
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling payload: %w", err)
	}
	if d.signer == nil {
		return nil, nil, ErrMissingSigner
	}
	headers[HeaderEvent] = event
	headers[HeaderSignature] = d.signer.Sign(body)
	return body, headers, nil
}

func (d *Dispatcher) fail(ctx context.Context, span trace.Span, log zerolog.Logger, sub *Subscription, event string, code int, msg string, p payload.Payload, correlationID string, branch Branch) (Outcome, error) {
	status := Rejected
	if code == 0 {
		status = Unreachable
	}
	span.SetStatus(codes.Error, msg)

	sub.LastRunError = msg
	// the log entry is written even when the status write fails
	statusErr := d.saveStatus(ctx, log, sub)

	logID, err := d.store.AppendLog(ctx, LogEntry{
		SubscriptionID: sub.ID,
		Event:          event,
		StatusCode:     code,
		Payload:        p,
		Error:          msg,
		CorrelationID:  correlationID,
		CreatedAt:      d.nowFn(),
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("appending delivery log: %w", err)
	}

	d.count(ctx, status, branch)
	outcome := Outcome{
		Status:     status,
		StatusCode: code,
		Error:      msg,
		LogID:      logID,
		Branch:     branch,
	}
	log.Warn().
		Int("status_code", code).
		Str("log_id", logID).
		Str("correlation_id", correlationID).
		Msg(msg)

	return outcome, statusErr
}

// saveStatus writes the run status after the request
// A subscription deleted mid-flight stays deleted; its log entry is still kept
func (d *Dispatcher) saveStatus(ctx context.Context, log zerolog.Logger, sub *Subscription) error {
	err := d.store.SaveRunStatus(ctx, sub.ID, sub.LastRunTime, sub.LastRunError)
	if errors.Is(err, ErrNotFound) {
		log.Debug().Msg("webhook deleted during delivery")
		return nil
	}
	if err != nil {
		return fmt.Errorf("saving run status: %w", err)
	}
	return nil
}

func (d *Dispatcher) count(ctx context.Context, status Status, branch Branch) {
	d.deliveries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("webhook.status", status.String()),
		attribute.String("webhook.branch", branch.String()),
	))
}
