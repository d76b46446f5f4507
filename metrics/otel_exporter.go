package metrics

import (
	"context"
	"fmt"
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// OTelExporter provides OpenTelemetry metrics export following OTel standards
type OTelExporter struct {
	meterProvider *sdkmetric.MeterProvider
	registry      *promclient.Registry
	collector     Collector

	meter                metric.Meter
	subscriptionsGauge   metric.Int64ObservableGauge
	failuresGauge        metric.Int64ObservableGauge
	failuresByEventGauge metric.Int64ObservableGauge
	instancesGauge       metric.Int64ObservableGauge
}

// NewOTelExporter creates a new OpenTelemetry metrics exporter with Prometheus format
// The meter provider becomes the global one, so dispatcher counters land in the same registry
func NewOTelExporter(collector Collector) (*OTelExporter, error) {
	registry := promclient.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	meter := meterProvider.Meter(
		"helpdesk-webhooks",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	oe := &OTelExporter{
		meterProvider: meterProvider,
		registry:      registry,
		collector:     collector,
		meter:         meter,
	}

	if err := oe.registerInstruments(); err != nil {
		return nil, fmt.Errorf("registering instruments: %w", err)
	}

	return oe, nil
}

// registerInstruments creates and registers all OpenTelemetry metric instruments
func (oe *OTelExporter) registerInstruments() error {
	var err error

	oe.subscriptionsGauge, err = oe.meter.Int64ObservableGauge(
		"webhook.subscriptions",
		metric.WithDescription("Number of registered subscriptions by state"),
		metric.WithUnit("{subscriptions}"),
		metric.WithInt64Callback(oe.observeSubscriptions),
	)
	if err != nil {
		return fmt.Errorf("creating subscriptions gauge: %w", err)
	}

	oe.failuresGauge, err = oe.meter.Int64ObservableGauge(
		"webhook.failures",
		metric.WithDescription("Failed delivery attempts over time window"),
		metric.WithUnit("{attempts}"),
		metric.WithInt64Callback(oe.observeFailures),
	)
	if err != nil {
		return fmt.Errorf("creating failures gauge: %w", err)
	}

	oe.failuresByEventGauge, err = oe.meter.Int64ObservableGauge(
		"webhook.failures.by_event",
		metric.WithDescription("Failed delivery attempts per event in the last 15 minutes"),
		metric.WithUnit("{attempts}"),
		metric.WithInt64Callback(oe.observeFailuresByEvent),
	)
	if err != nil {
		return fmt.Errorf("creating failures by event gauge: %w", err)
	}

	oe.instancesGauge, err = oe.meter.Int64ObservableGauge(
		"webhook.dispatcher.instances",
		metric.WithDescription("Number of dispatcher processes with a live heartbeat"),
		metric.WithUnit("{instances}"),
		metric.WithInt64Callback(oe.observeInstances),
	)
	if err != nil {
		return fmt.Errorf("creating instances gauge: %w", err)
	}

	return nil
}

func (oe *OTelExporter) observeSubscriptions(ctx context.Context, observer metric.Int64Observer) error {
	counts, err := oe.collector.GetSubscriptionCounts(ctx)
	if err != nil {
		return err
	}

	observer.Observe(counts.Total, metric.WithAttributes(attribute.String("webhook.state", "total")))
	observer.Observe(counts.Failing, metric.WithAttributes(attribute.String("webhook.state", "failing")))
	return nil
}

func (oe *OTelExporter) observeFailures(ctx context.Context, observer metric.Int64Observer) error {
	w, err := oe.collector.GetFailureWindows(ctx)
	if err != nil {
		return err
	}

	observer.Observe(w.LastMinute, metric.WithAttributes(attribute.String("time.window", "1m")))
	observer.Observe(w.LastFiveMinutes, metric.WithAttributes(attribute.String("time.window", "5m")))
	observer.Observe(w.LastFifteenMinutes, metric.WithAttributes(attribute.String("time.window", "15m")))
	return nil
}

func (oe *OTelExporter) observeFailuresByEvent(ctx context.Context, observer metric.Int64Observer) error {
	byEvent, err := oe.collector.GetFailuresByEvent(ctx)
	if err != nil {
		return err
	}

	for event, n := range byEvent {
		observer.Observe(n, metric.WithAttributes(attribute.String("webhook.event", event)))
	}
	return nil
}

func (oe *OTelExporter) observeInstances(ctx context.Context, observer metric.Int64Observer) error {
	instances, err := oe.collector.GetActiveInstances(ctx)
	if err != nil {
		return err
	}

	observer.Observe(int64(len(instances)))
	return nil
}

// Handler serves Prometheus-formatted metrics from the exporter's registry
func (oe *OTelExporter) Handler() http.Handler {
	return promhttp.HandlerFor(oe.registry, promhttp.HandlerOpts{})
}

// Shutdown gracefully shuts down the meter provider
func (oe *OTelExporter) Shutdown(ctx context.Context) error {
	if oe.meterProvider != nil {
		return oe.meterProvider.Shutdown(ctx)
	}
	return nil
}
