package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/FACorreiaa/go-city-guide/internal/api/city"
	"github.com/FACorreiaa/go-city-guide/internal/api/diagnostics"
	knowledgebase "github.com/FACorreiaa/go-city-guide/internal/api/knowledge_base"
	"github.com/FACorreiaa/go-city-guide/internal/api/suggestions"
)

// Config contains dependencies needed for the router setup
type Config struct {
	CityHandler           *city.Handler
	SuggestionsHandler    *suggestions.Handler
	KnowledgeBaseHandler  *knowledgebase.Handler
	DiagnosticsHandler    *diagnostics.Handler
	DiagnosticsMiddleware func(http.Handler) http.Handler
	AllowedOrigins        []string
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, request id, recoverer) is applied in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:8000", "http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	r.Get("/", cfg.CityHandler.Home)
	r.Get("/city/{name}", cfg.CityHandler.CityPage)
	r.Post("/suggestions/{name}", cfg.SuggestionsHandler.Suggest)
	r.Post("/kb/{name}", cfg.KnowledgeBaseHandler.Ask)

	r.Group(func(r chi.Router) {
		if cfg.DiagnosticsMiddleware != nil {
			r.Use(cfg.DiagnosticsMiddleware)
		}
		r.Get("/check_models", cfg.DiagnosticsHandler.CheckModels)
		r.Get("/test_model", cfg.DiagnosticsHandler.TestModelForm)
		r.Post("/test_model", cfg.DiagnosticsHandler.TestModel)
	})

	return r
}
