package suggestions

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-city-guide/internal/api"
	"github.com/FACorreiaa/go-city-guide/internal/types"
)

// CityFinder resolves the city named in the route.
type CityFinder interface {
	GetCity(ctx context.Context, name string) (*types.City, error)
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

// Suggest handles POST /suggestions/{name}. It answers with an HTML fragment
// holding the prompt and the generated itinerary.
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("SuggestionsHandler").Start(r.Context(), "Suggest", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/suggestions/{name}"),
	))
	defer span.End()

	name := chi.URLParam(r, "name")
	l := h.logger.With(slog.String("handler", "Suggest"), slog.String("city", name))

	params, err := parseQueryParameters(r)
	if err != nil {
		l.WarnContext(ctx, "Invalid itinerary form", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
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

	suggestion, err := h.service.Suggest(ctx, *city, params)
	if err != nil {
		api.WriteHTMLFragment(w, r, http.StatusOK, "Error: "+html.EscapeString(err.Error()))
		return
	}

	api.WriteHTMLFragment(w, r, http.StatusOK, fmt.Sprintf("PROMPT&gt; %s<br>----------<br>%s",
		html.EscapeString(suggestion.Prompt), html.EscapeString(suggestion.Result)))
}

// parseQueryParameters reads the itinerary form. Checkboxes count as set when
// present at all; an empty day count means "not given".
func parseQueryParameters(r *http.Request) (types.QueryParameters, error) {
	if err := r.ParseForm(); err != nil {
		return types.QueryParameters{}, fmt.Errorf("invalid form: %w", err)
	}

	var params types.QueryParameters
	if days := strings.TrimSpace(r.PostForm.Get("days")); days != "" {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return types.QueryParameters{}, fmt.Errorf("days must be a non-negative number")
		}
		params.Days = n
	}
	_, params.Children = r.PostForm["children"]
	_, params.Car = r.PostForm["car"]
	for _, interest := range r.PostForm["interests"] {
		if interest = strings.TrimSpace(interest); interest != "" {
			params.Interests = append(params.Interests, interest)
		}
	}
	return params, nil
}
