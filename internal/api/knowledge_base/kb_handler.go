package knowledgebase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-city-guide/internal/api"
	"github.com/FACorreiaa/go-city-guide/internal/types"
)

const throttledMessage = "Please wait 30 seconds and try again."

// CityFinder resolves the city named in the route.
type CityFinder interface {
	GetCity(ctx context.Context, name string) (*types.City, error)
}

// Response is the JSON body the city page script reads.
type Response struct {
	Output  string   `json:"Output"`
	Reviews []string `json:"Reviews,omitempty"`
}

type Handler struct {
	logger  *slog.Logger
	service Service
	cities  CityFinder
}

func NewHandler(service Service, cities CityFinder, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
		cities:  cities,
	}
}

// Ask handles POST /kb/{name} with form field q, the index of the question.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("KnowledgeBaseHandler").Start(r.Context(), "Ask", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/kb/{name}"),
	))
	defer span.End()

	name := chi.URLParam(r, "name")
	l := h.logger.With(slog.String("handler", "Ask"), slog.String("city", name))

	question, err := strconv.Atoi(r.FormValue("q"))
	if err != nil {
		l.WarnContext(ctx, "Invalid question index", slog.String("q", r.FormValue("q")))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Question index is required")
		return
	}

	city, err := h.cities.GetCity(ctx, name)
	if err != nil {
		if errors.Is(err, types.ErrCityNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "City not found")
			return
		}
		l.ErrorContext(ctx, "Failed to load city", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to load city")
		return
	}

	answer, err := h.service.Ask(ctx, *city, question)
	switch {
	case errors.Is(err, ErrUnknownQuestion):
		api.ErrorResponse(w, r, http.StatusBadRequest, "Unknown question")
		return
	case errors.Is(err, ErrThrottled):
		api.WriteJSONResponse(w, r, http.StatusOK, Response{Output: throttledMessage})
		return
	case errors.Is(err, types.ErrMalformedCitation):
		api.ErrorResponse(w, r, http.StatusBadGateway, "The review service returned an invalid answer")
		return
	case err != nil:
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to answer the question")
		return
	}

	if answer.Insufficient {
		api.WriteJSONResponse(w, r, http.StatusOK, Response{Output: answer.Text})
		return
	}

	l.DebugContext(ctx, "Question answered", slog.Int("references", len(answer.References)))
	api.WriteJSONResponse(w, r, http.StatusOK, Response{
		Output:  answer.Text,
		Reviews: answer.References,
	})
}
