package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "CityGuide"

// AppMetrics holds the application's metric instruments.
// A nil *AppMetrics records nothing.
type AppMetrics struct {
	ItineraryRequestsTotal     metric.Int64Counter
	KnowledgeBaseRequestsTotal metric.Int64Counter
	InferenceDurationSeconds   metric.Float64Histogram
	StoreQueryDurationSeconds  metric.Float64Histogram
	StoreQueryErrorsTotal      metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	initErr    error
	once       sync.Once
)

// InitAppMetrics creates the global instruments from the global MeterProvider
// exactly once.
func InitAppMetrics() (*AppMetrics, error) {
	once.Do(func() {
		appMetrics, initErr = New(otel.GetMeterProvider().Meter(meterName))
	})
	return appMetrics, initErr
}

// Get returns the instruments created by InitAppMetrics, or nil before it ran.
func Get() *AppMetrics {
	return appMetrics
}

func New(meter metric.Meter) (*AppMetrics, error) {
	var err error
	m := &AppMetrics{}

	m.ItineraryRequestsTotal, err = meter.Int64Counter(
		"itinerary_requests_total",
		metric.WithDescription("Total number of itinerary suggestion requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("metrics: failed to create itinerary_requests_total: %w", err)
	}

	m.KnowledgeBaseRequestsTotal, err = meter.Int64Counter(
		"knowledge_base_requests_total",
		metric.WithDescription("Total number of review questions by outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("metrics: failed to create knowledge_base_requests_total: %w", err)
	}

	m.InferenceDurationSeconds, err = meter.Float64Histogram(
		"inference_duration_seconds",
		metric.WithDescription("Duration of model inference calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("metrics: failed to create inference_duration_seconds: %w", err)
	}

	m.StoreQueryDurationSeconds, err = meter.Float64Histogram(
		"city_store_query_duration_seconds",
		metric.WithDescription("Duration of city store queries in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("metrics: failed to create city_store_query_duration_seconds: %w", err)
	}

	m.StoreQueryErrorsTotal, err = meter.Int64Counter(
		"city_store_query_errors_total",
		metric.WithDescription("Total number of city store query errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("metrics: failed to create city_store_query_errors_total: %w", err)
	}

	return m, nil
}

func (m *AppMetrics) RecordStoreQuery(ctx context.Context, op string, d time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("op", op))
	m.StoreQueryDurationSeconds.Record(ctx, d.Seconds(), attrs)
	if err != nil {
		m.StoreQueryErrorsTotal.Add(ctx, 1, attrs)
	}
}

func (m *AppMetrics) RecordInference(ctx context.Context, provider string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.InferenceDurationSeconds.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.Bool("error", err != nil),
	))
}

func (m *AppMetrics) RecordItineraryRequest(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.ItineraryRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordKnowledgeBaseRequest counts a review question; outcome is one of
// answered, cached, insufficient, throttled, malformed or error.
func (m *AppMetrics) RecordKnowledgeBaseRequest(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.KnowledgeBaseRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
