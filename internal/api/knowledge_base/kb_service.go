package knowledgebase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/go-city-guide/app/observability/metrics"
	"github.com/FACorreiaa/go-city-guide/internal/api/composer"
	"github.com/FACorreiaa/go-city-guide/internal/types"
)

// ErrUnknownQuestion is returned for a question index outside Prompts.
var ErrUnknownQuestion = errors.New("unknown question")

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	// Ask answers Prompts[question] for city. A city without reviews yields
	// composer.InsufficientData and no error. Answer text is HTML with
	// <sup>[n]</sup> markers; references are plain text.
	Ask(ctx context.Context, city types.City, question int) (types.ComposedAnswer, error)
}

type Options struct {
	CacheTTL  time.Duration // <= 0 disables the answer cache
	RateLimit float64       // calls per second; <= 0 disables the limiter
	Burst     int
}

type ServiceImpl struct {
	logger    *slog.Logger
	retriever Retriever
	cache     *cache.Cache
	cacheTTL  time.Duration
	limiter   *rate.Limiter
	metrics   *metrics.AppMetrics
}

func NewServiceImpl(retriever Retriever, opts Options, appMetrics *metrics.AppMetrics, logger *slog.Logger) *ServiceImpl {
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := max(opts.Burst, 1)
	return &ServiceImpl{
		logger:    logger,
		retriever: retriever,
		cache:     cache.New(opts.CacheTTL, 2*opts.CacheTTL),
		cacheTTL:  opts.CacheTTL,
		limiter:   rate.NewLimiter(limit, burst),
		metrics:   appMetrics,
	}
}

func cacheKey(city string, question int) string {
	return fmt.Sprintf("%s|%d", city, question)
}

func (s *ServiceImpl) Ask(ctx context.Context, city types.City, question int) (types.ComposedAnswer, error) {
	ctx, span := otel.Tracer("KnowledgeBaseService").Start(ctx, "Ask")
	defer span.End()
	span.SetAttributes(attribute.String("city.name", city.Name), attribute.Int("kb.question", question))

	l := s.logger.With(slog.String("method", "Ask"), slog.String("city", city.Name), slog.Int("question", question))

	if question < 0 || question >= len(Prompts) {
		span.SetStatus(codes.Error, "Unknown question")
		return types.ComposedAnswer{}, fmt.Errorf("%w: %d", ErrUnknownQuestion, question)
	}

	key := cacheKey(city.Name, question)
	span.SetAttributes(attribute.String("cache.key", key))
	if cached, found := s.cache.Get(key); found {
		l.DebugContext(ctx, "Answer served from cache")
		s.metrics.RecordKnowledgeBaseRequest(ctx, "cached")
		span.SetStatus(codes.Ok, "Cache hit")
		return cached.(types.ComposedAnswer), nil
	}

	if !s.limiter.Allow() {
		l.WarnContext(ctx, "Local rate limit reached")
		s.metrics.RecordKnowledgeBaseRequest(ctx, "throttled")
		span.SetStatus(codes.Error, "Rate limited")
		return types.ComposedAnswer{}, fmt.Errorf("%w: local rate limit", ErrThrottled)
	}

	groups, err := s.retriever.RetrieveAndGenerate(ctx, city.Name, Prompts[question])
	if err == nil {
		err = composer.ValidateCitationGroups(groups)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Retrieval failed")
		switch {
		case errors.Is(err, ErrThrottled):
			l.WarnContext(ctx, "Knowledge base throttled", slog.Any("error", err))
			s.metrics.RecordKnowledgeBaseRequest(ctx, "throttled")
		case errors.Is(err, types.ErrMalformedCitation):
			l.ErrorContext(ctx, "Knowledge base returned a malformed citation", slog.Any("error", err))
			s.metrics.RecordKnowledgeBaseRequest(ctx, "malformed")
		default:
			l.ErrorContext(ctx, "Knowledge base call failed", slog.Any("error", err))
			s.metrics.RecordKnowledgeBaseRequest(ctx, "error")
		}
		return types.ComposedAnswer{}, err
	}

	answer := composer.Compose(groups, composer.HTML)
	if answer.Insufficient {
		l.InfoContext(ctx, "Not enough reviews to answer")
		s.metrics.RecordKnowledgeBaseRequest(ctx, "insufficient")
		span.SetStatus(codes.Ok, "Insufficient data")
		return answer, nil
	}

	if s.cacheTTL > 0 {
		s.cache.Set(key, answer, cache.DefaultExpiration)
	}
	l.InfoContext(ctx, "Answer composed", slog.Int("references", len(answer.References)))
	s.metrics.RecordKnowledgeBaseRequest(ctx, "answered")
	span.SetAttributes(attribute.Int("kb.references", len(answer.References)))
	span.SetStatus(codes.Ok, "Answer composed")
	return answer, nil
}
