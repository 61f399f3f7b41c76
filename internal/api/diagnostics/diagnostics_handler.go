package diagnostics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-city-guide/internal/api"
)

// ModelCatalog lists the foundation models the account can use.
type ModelCatalog interface {
	ListModels(ctx context.Context) ([]string, error)
}

// RawInvoker sends a request body to the configured model as is.
type RawInvoker interface {
	InvokeRaw(ctx context.Context, body []byte) ([]byte, error)
}

const defaultTestBody = `{"messages": [{"role": "user", "content": [{"text": "Hello, world!"}]}]}`

var testModelForm = `
<h1>Test Model</h1>
<form method="POST">
    <label>JSON Request Body:</label><br>
    <textarea name="request_body" rows="10" cols="80">` + html.EscapeString(defaultTestBody) + `</textarea><br>
    <input type="submit" value="Test">
</form>
`

type Handler struct {
	logger  *slog.Logger
	catalog ModelCatalog
	invoker RawInvoker
}

func NewHandler(catalog ModelCatalog, invoker RawInvoker, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		catalog: catalog,
		invoker: invoker,
	}
}

// CheckModels handles GET /check_models.
func (h *Handler) CheckModels(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("DiagnosticsHandler").Start(r.Context(), "CheckModels")
	defer span.End()

	l := h.logger.With(slog.String("handler", "CheckModels"))

	models, err := h.catalog.ListModels(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list models", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "List models failed")
		api.WriteHTMLFragment(w, r, http.StatusOK, "Error listing models: "+html.EscapeString(err.Error()))
		return
	}

	var b strings.Builder
	b.WriteString("<h3>Available Models:</h3><ul>")
	for _, id := range models {
		fmt.Fprintf(&b, "<li>%s</li>", html.EscapeString(id))
	}
	b.WriteString("</ul>")

	l.InfoContext(ctx, "Available models", slog.Int("count", len(models)), slog.Any("models", models))
	api.WriteHTMLFragment(w, r, http.StatusOK, b.String())
}

// TestModelForm handles GET /test_model.
func (h *Handler) TestModelForm(w http.ResponseWriter, r *http.Request) {
	api.WriteHTMLFragment(w, r, http.StatusOK, testModelForm)
}

// TestModel handles POST /test_model, sending the submitted request_body to
// the model and pretty-printing whatever comes back.
func (h *Handler) TestModel(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("DiagnosticsHandler").Start(r.Context(), "TestModel")
	defer span.End()

	l := h.logger.With(slog.String("handler", "TestModel"))

	body := r.FormValue("request_body")
	if strings.TrimSpace(body) == "" {
		api.WriteHTMLFragment(w, r, http.StatusBadRequest, "<h2>Error</h2><p>request_body is required</p>")
		return
	}

	raw, err := h.invoker.InvokeRaw(ctx, []byte(body))
	if err == nil {
		var pretty bytes.Buffer
		if err = json.Indent(&pretty, raw, "", "  "); err == nil {
			raw = pretty.Bytes()
		}
	}
	if err != nil {
		l.WarnContext(ctx, "Model test failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Model test failed")
		api.WriteHTMLFragment(w, r, http.StatusOK, "<h2>Error</h2><p>"+html.EscapeString(err.Error())+"</p>")
		return
	}

	api.WriteHTMLFragment(w, r, http.StatusOK, "<h2>Success!</h2><pre>"+html.EscapeString(string(raw))+"</pre>")
}
