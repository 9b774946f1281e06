package services

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	metricApi "go.opentelemetry.io/otel/sdk/metric"
)

// LocalSRSMetricsService exposes API and pipeline metrics through the
// OpenTelemetry Prometheus exporter; /metrics serves the exposition.
type LocalSRSMetricsService struct {
	provider *metricApi.MeterProvider

	Meter           metric.Meter
	ApiTimeMetric   metric.Float64Histogram
	StageTimeMetric metric.Float64Histogram
	JobsMetric      metric.Int64Counter
	CardsMetric     metric.Int64Counter
}

// NewLocalSRSMetricsService bootstraps the OpenTelemetry pipeline for
// Prometheus export. Call Shutdown for proper cleanup.
func NewLocalSRSMetricsService() (*LocalSRSMetricsService, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, err
	}
	provider := metricApi.NewMeterProvider(metricApi.WithReader(exporter))
	meter := provider.Meter("github.com/mudler/LocalSRS")

	apiTimeMetric, err := meter.Float64Histogram("api_call", metric.WithDescription("api calls"))
	if err != nil {
		return nil, err
	}
	stageTimeMetric, err := meter.Float64Histogram("pipeline_stage_seconds",
		metric.WithDescription("pipeline stage durations"), metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	jobsMetric, err := meter.Int64Counter("jobs", metric.WithDescription("job state transitions"))
	if err != nil {
		return nil, err
	}
	cardsMetric, err := meter.Int64Counter("cards_built", metric.WithDescription("flashcards rendered"))
	if err != nil {
		return nil, err
	}

	return &LocalSRSMetricsService{
		provider:        provider,
		Meter:           meter,
		ApiTimeMetric:   apiTimeMetric,
		StageTimeMetric: stageTimeMetric,
		JobsMetric:      jobsMetric,
		CardsMetric:     cardsMetric,
	}, nil
}

func (m *LocalSRSMetricsService) ObserveAPICall(method string, path string, duration float64) {
	opts := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
	)
	m.ApiTimeMetric.Record(context.Background(), duration, opts)
}

func (m *LocalSRSMetricsService) ObserveStage(stage string, seconds float64) {
	m.StageTimeMetric.Record(context.Background(), seconds,
		metric.WithAttributes(attribute.String("stage", stage)))
}

func (m *LocalSRSMetricsService) MarkJobState(state string) {
	m.JobsMetric.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("state", state)))
}

func (m *LocalSRSMetricsService) AddCards(n int) {
	m.CardsMetric.Add(context.Background(), int64(n))
}

func (m *LocalSRSMetricsService) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}
