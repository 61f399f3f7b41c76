package city

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-city-guide/internal/types"
)

// Renderer writes a named HTML page.
type Renderer interface {
	Render(w http.ResponseWriter, r *http.Request, status int, name string, data any)
}

// Page is the data behind city.html.
type Page struct {
	City    types.City
	Prompts []string
}

type Handler struct {
	logger   *slog.Logger
	service  Service
	renderer Renderer
	prompts  []string
}

// NewCityHandler builds the page handlers. prompts are the canned review
// questions offered on every city page.
func NewCityHandler(service Service, renderer Renderer, prompts []string, logger *slog.Logger) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		renderer: renderer,
		prompts:  prompts,
	}
}

// Home handles GET / - the city picker.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CityHandler").Start(r.Context(), "Home")
	defer span.End()

	l := h.logger.With(slog.String("handler", "Home"))

	cities, err := h.service.GetAllCities(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to retrieve cities", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Service operation failed")
		http.Error(w, "Failed to retrieve cities", http.StatusInternalServerError)
		return
	}

	h.renderer.Render(w, r, http.StatusOK, "index.html", cities)
	span.SetStatus(codes.Ok, "Cities rendered")
}

// CityPage handles GET /city/{name}.
func (h *Handler) CityPage(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CityHandler").Start(r.Context(), "CityPage")
	defer span.End()

	name := chi.URLParam(r, "name")
	l := h.logger.With(slog.String("handler", "CityPage"), slog.String("city", name))

	c, err := h.service.GetCity(ctx, name)
	if err != nil {
		if errors.Is(err, types.ErrCityNotFound) {
			h.renderer.Render(w, r, http.StatusNotFound, "404.html", nil)
			return
		}
		l.ErrorContext(ctx, "Failed to load city", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Service operation failed")
		http.Error(w, "Failed to load city", http.StatusInternalServerError)
		return
	}

	h.renderer.Render(w, r, http.StatusOK, "city.html", Page{City: *c, Prompts: h.prompts})
	span.SetStatus(codes.Ok, "City rendered")
}
