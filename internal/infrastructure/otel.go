package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	ServiceName    = "batch-profit-dashboard"
	ServiceVersion = "1.0.0"
	MeterName      = "batchprofit"
)

// OTelProviders holds the OpenTelemetry providers and the metric instruments
// the profit pipeline reports through.
type OTelProviders struct {
	MeterProvider  *sdkmetric.MeterProvider
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Metrics        *PipelineMetrics
	Logger         *slog.Logger
}

// PipelineMetrics are the counters and histograms the loader, calculator and
// HTTP layer record into. All are exported through the Prometheus endpoint.
type PipelineMetrics struct {
	Loads           metric.Int64Counter
	LoadFailures    metric.Int64Counter
	RowsParsed      metric.Int64Counter
	RowsSkipped     metric.Int64Counter
	CellsZeroFilled metric.Int64Counter
	BatchesComputed metric.Int64Counter
	LoadDuration    metric.Float64Histogram
	HTTPRequests    metric.Int64Counter
	HTTPDuration    metric.Float64Histogram
}

// InitOTel sets up the OpenTelemetry meter provider backed by the Prometheus
// exporter and registers the pipeline instruments.
func InitOTel(logger *slog.Logger) (*OTelProviders, error) {
	if logger == nil {
		logger = slog.Default()
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	meter := meterProvider.Meter(MeterName)

	metrics, err := newPipelineMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	logger.Info("opentelemetry initialized",
		slog.String("service", ServiceName),
		slog.String("metric_exporter", "prometheus"))

	return &OTelProviders{
		MeterProvider:  meterProvider,
		Meter:          meter,
		PrometheusHTTP: promhttp.Handler(),
		Metrics:        metrics,
		Logger:         logger,
	}, nil
}

func newPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	m := &PipelineMetrics{}
	var err error

	if m.Loads, err = meter.Int64Counter("profit_loads_total",
		metric.WithDescription("Completed workbook loads")); err != nil {
		return nil, err
	}
	if m.LoadFailures, err = meter.Int64Counter("profit_load_failures_total",
		metric.WithDescription("Workbook loads that failed")); err != nil {
		return nil, err
	}
	if m.RowsParsed, err = meter.Int64Counter("profit_rows_parsed_total",
		metric.WithDescription("Input rows parsed, by sheet")); err != nil {
		return nil, err
	}
	if m.RowsSkipped, err = meter.Int64Counter("profit_rows_skipped_total",
		metric.WithDescription("Input rows excluded for invalid values")); err != nil {
		return nil, err
	}
	if m.CellsZeroFilled, err = meter.Int64Counter("profit_cells_zero_filled_total",
		metric.WithDescription("Missing or malformed cells coerced to zero")); err != nil {
		return nil, err
	}
	if m.BatchesComputed, err = meter.Int64Counter("profit_batches_computed_total",
		metric.WithDescription("Batch profit records produced")); err != nil {
		return nil, err
	}
	if m.LoadDuration, err = meter.Float64Histogram("profit_load_duration_seconds",
		metric.WithDescription("Full load-transform-calculate duration")); err != nil {
		return nil, err
	}
	if m.HTTPRequests, err = meter.Int64Counter("http_requests_total",
		metric.WithDescription("HTTP requests, by path and status")); err != nil {
		return nil, err
	}
	if m.HTTPDuration, err = meter.Float64Histogram("http_request_duration_seconds",
		metric.WithDescription("HTTP request duration")); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordHTTPRequest records one served request.
func (m *PipelineMetrics) RecordHTTPRequest(ctx context.Context, path string, status int, seconds float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("path", path),
		attribute.Int("status", status),
	)
	m.HTTPRequests.Add(ctx, 1, attrs)
	m.HTTPDuration.Record(ctx, seconds, attrs)
}

// Shutdown flushes and stops the meter provider.
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	if p == nil || p.MeterProvider == nil {
		return nil
	}
	return p.MeterProvider.Shutdown(ctx)
}
