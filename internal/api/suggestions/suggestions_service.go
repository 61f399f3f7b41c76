package suggestions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-city-guide/app/observability/metrics"
	"github.com/FACorreiaa/go-city-guide/internal/api/composer"
	generativeAI "github.com/FACorreiaa/go-city-guide/internal/api/generative_ai"
	"github.com/FACorreiaa/go-city-guide/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Suggestion pairs the prompt sent to the model with its reply.
type Suggestion struct {
	Prompt string
	Result string
}

type Service interface {
	// Suggest builds the itinerary prompt and runs it through the model. The
	// prompt is returned even when generation fails.
	Suggest(ctx context.Context, city types.City, params types.QueryParameters) (Suggestion, error)
}

type ServiceImpl struct {
	logger    *slog.Logger
	generator generativeAI.TextGenerator
	metrics   *metrics.AppMetrics
}

func NewServiceImpl(generator generativeAI.TextGenerator, appMetrics *metrics.AppMetrics, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:    logger,
		generator: generator,
		metrics:   appMetrics,
	}
}

func (s *ServiceImpl) Suggest(ctx context.Context, city types.City, params types.QueryParameters) (Suggestion, error) {
	ctx, span := otel.Tracer("SuggestionsService").Start(ctx, "Suggest")
	defer span.End()
	span.SetAttributes(
		attribute.String("city.name", city.Name),
		attribute.Int("itinerary.days", params.Days),
		attribute.String("inference.provider", s.generator.Provider()),
	)

	l := s.logger.With(slog.String("method", "Suggest"), slog.String("city", city.Name))

	suggestion := Suggestion{Prompt: composer.BuildItineraryPrompt(city, params)}
	l.DebugContext(ctx, "Itinerary prompt built", slog.String("prompt", suggestion.Prompt))

	start := time.Now()
	result, err := s.generator.GenerateContent(ctx, suggestion.Prompt)
	s.metrics.RecordInference(ctx, s.generator.Provider(), time.Since(start), err)
	if err != nil {
		l.ErrorContext(ctx, "Failed to generate itinerary", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Generation failed")
		s.metrics.RecordItineraryRequest(ctx, "error")
		return suggestion, fmt.Errorf("failed to generate itinerary: %w", err)
	}

	suggestion.Result = result
	l.InfoContext(ctx, "Itinerary generated", slog.Int("length", len(result)))
	s.metrics.RecordItineraryRequest(ctx, "generated")
	span.SetStatus(codes.Ok, "Itinerary generated")
	return suggestion, nil
}
