package diagnostics

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) ListModels(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockInvoker struct {
	mock.Mock
}

func (m *MockInvoker) InvokeRaw(ctx context.Context, body []byte) ([]byte, error) {
	args := m.Called(ctx, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func setupDiagnosticsTest() (*Handler, *MockCatalog, *MockInvoker) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	catalog := new(MockCatalog)
	invoker := new(MockInvoker)
	return NewHandler(catalog, invoker, logger), catalog, invoker
}

func postTestModel(body string) *http.Request {
	form := url.Values{"request_body": {body}}
	req := httptest.NewRequest(http.MethodPost, "/test_model", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestHandler_CheckModels(t *testing.T) {
	t.Run("lists models", func(t *testing.T) {
		handler, catalog, _ := setupDiagnosticsTest()
		catalog.On("ListModels", mock.Anything).Return([]string{"amazon.nova-lite-v1:0", "Unknown"}, nil).Once()

		w := httptest.NewRecorder()
		handler.CheckModels(w, httptest.NewRequest(http.MethodGet, "/check_models", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "<h3>Available Models:</h3><ul><li>amazon.nova-lite-v1:0</li><li>Unknown</li></ul>", w.Body.String())
	})

	t.Run("error", func(t *testing.T) {
		handler, catalog, _ := setupDiagnosticsTest()
		catalog.On("ListModels", mock.Anything).Return(nil, errors.New("denied")).Once()

		w := httptest.NewRecorder()
		handler.CheckModels(w, httptest.NewRequest(http.MethodGet, "/check_models", nil))

		assert.Equal(t, "Error listing models: denied", w.Body.String())
	})
}

func TestHandler_TestModel(t *testing.T) {
	t.Run("form", func(t *testing.T) {
		handler, _, _ := setupDiagnosticsTest()

		w := httptest.NewRecorder()
		handler.TestModelForm(w, httptest.NewRequest(http.MethodGet, "/test_model", nil))

		assert.Contains(t, w.Body.String(), `<textarea name="request_body"`)
	})

	t.Run("pretty prints the response", func(t *testing.T) {
		handler, _, invoker := setupDiagnosticsTest()
		invoker.On("InvokeRaw", mock.Anything, []byte(`{"x":1}`)).Return([]byte(`{"ok":true}`), nil).Once()

		w := httptest.NewRecorder()
		handler.TestModel(w, postTestModel(`{"x":1}`))

		assert.Equal(t, "<h2>Success!</h2><pre>{\n  &#34;ok&#34;: true\n}</pre>", w.Body.String())
	})

	t.Run("invoke error", func(t *testing.T) {
		handler, _, invoker := setupDiagnosticsTest()
		invoker.On("InvokeRaw", mock.Anything, mock.Anything).Return(nil, errors.New("validation <failed>")).Once()

		w := httptest.NewRecorder()
		handler.TestModel(w, postTestModel(`{}`))

		assert.Equal(t, "<h2>Error</h2><p>validation &lt;failed&gt;</p>", w.Body.String())
	})

	t.Run("empty body", func(t *testing.T) {
		handler, _, invoker := setupDiagnosticsTest()

		w := httptest.NewRecorder()
		handler.TestModel(w, postTestModel(""))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		invoker.AssertNotCalled(t, "InvokeRaw", mock.Anything, mock.Anything)
	})
}
