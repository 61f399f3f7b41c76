package city

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-city-guide/app/observability/metrics"
	"github.com/FACorreiaa/go-city-guide/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	GetAllCities(ctx context.Context) ([]types.City, error)
	GetCity(ctx context.Context, name string) (*types.City, error)
}

type ServiceImpl struct {
	logger  *slog.Logger
	repo    Repository
	metrics *metrics.AppMetrics
}

func NewCityService(repo Repository, appMetrics *metrics.AppMetrics, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:  logger,
		repo:    repo,
		metrics: appMetrics,
	}
}

// GetAllCities retrieves every city from the store.
func (s *ServiceImpl) GetAllCities(ctx context.Context) ([]types.City, error) {
	ctx, span := otel.Tracer("CityService").Start(ctx, "GetAllCities")
	defer span.End()

	l := s.logger.With(slog.String("method", "GetAllCities"))
	l.DebugContext(ctx, "Retrieving all cities")

	start := time.Now()
	cities, err := s.repo.ListCities(ctx)
	s.metrics.RecordStoreQuery(ctx, "list", time.Since(start), err)
	if err != nil {
		l.ErrorContext(ctx, "Failed to retrieve cities from repository", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository operation failed")
		return nil, fmt.Errorf("failed to retrieve cities: %w", err)
	}

	l.InfoContext(ctx, "Successfully retrieved cities", slog.Int("count", len(cities)))
	span.SetAttributes(attribute.Int("cities.count", len(cities)))
	span.SetStatus(codes.Ok, "Cities retrieved successfully")
	return cities, nil
}

// GetCity loads a single city; unknown names yield types.ErrCityNotFound.
func (s *ServiceImpl) GetCity(ctx context.Context, name string) (*types.City, error) {
	ctx, span := otel.Tracer("CityService").Start(ctx, "GetCity")
	defer span.End()
	span.SetAttributes(attribute.String("city.name", name))

	l := s.logger.With(slog.String("method", "GetCity"), slog.String("city", name))

	start := time.Now()
	c, err := s.repo.FindCityByName(ctx, name)
	if errors.Is(err, types.ErrCityNotFound) {
		s.metrics.RecordStoreQuery(ctx, "find", time.Since(start), nil)
		l.InfoContext(ctx, "City not found")
		span.SetStatus(codes.Ok, "City not found")
		return nil, err
	}
	s.metrics.RecordStoreQuery(ctx, "find", time.Since(start), err)
	if err != nil {
		l.ErrorContext(ctx, "Failed to load city", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository operation failed")
		return nil, fmt.Errorf("failed to load city %q: %w", name, err)
	}

	span.SetStatus(codes.Ok, "City loaded")
	return c, nil
}
