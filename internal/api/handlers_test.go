package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wedding-planner/backend/internal/autosave"
	"github.com/wedding-planner/backend/internal/catalog"
	"github.com/wedding-planner/backend/internal/engine"
	"github.com/wedding-planner/backend/internal/scene"
	"github.com/wedding-planner/backend/internal/session"
	"github.com/wedding-planner/backend/internal/testutil"
)

// fixedProber reports the same natural size for every image.
type fixedProber struct {
	width, height int
	err           error
}

func (p fixedProber) Probe(context.Context, string) (int, int, error) {
	return p.width, p.height, p.err
}

type testServer struct {
	echo     *echo.Echo
	sessions *session.Manager
	scenes   *testutil.MockSceneStore
	assets   *testutil.MockAssetStore
	handlers *Handlers
}

type serverOption func(*Dependencies, *session.Options)

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	scenes := testutil.NewMockSceneStore()
	assets := testutil.NewMockAssetStore()

	sessOpts := session.Options{
		Engine: engine.DefaultConfig(),
		Prober: fixedProber{width: 400, height: 200},
		Logger: logger,
	}
	deps := &Dependencies{
		Assets:               assets,
		Catalog:              catalog.Default(),
		Logger:               logger,
		Version:              "test",
		AllowedImageTypes:    ".png,.jpg",
		AllowProjectDeletion: true,
		AllowAssetDeletion:   true,
		PlaceTimeout:         5 * time.Second,
	}
	for _, opt := range opts {
		opt(deps, &sessOpts)
	}

	sessions := session.NewManager(scenes, autosave.New(scenes, time.Hour, logger), sessOpts)
	t.Cleanup(func() { _ = sessions.Shutdown() })
	deps.Sessions = sessions

	e := echo.New()
	SetupMiddleware(e, MiddlewareOptions{})
	handlers := NewHandlers(deps)
	RegisterRoutes(e, handlers)

	return &testServer{echo: e, sessions: sessions, scenes: scenes, assets: assets, handlers: handlers}
}

// do sends a request through the router and returns the recorder.
func (s *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func assertAPIError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	assert.Equal(t, status, rec.Code, rec.Body.String())
	var apiErr APIError
	decodeBody(t, rec, &apiErr)
	assert.Equal(t, code, apiErr.Code)
}

func TestHealthHandler(t *testing.T) {
	srv := newTestServer(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if assert.NoError(t, srv.handlers.Health.HandleHealth(c)) {
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"ok"`)
		assert.Contains(t, rec.Body.String(), `"openProjects":0`)
	}
}

func TestCatalogHandler(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodGet, "/api/catalog", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"round-table-150"`)
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"api error", NewNotFoundError("shape", "s1"), http.StatusNotFound, "NOT_FOUND"},
		{"echo error", echo.NewHTTPError(http.StatusMethodNotAllowed, "nope"), http.StatusMethodNotAllowed, "HTTP_ERROR"},
		{"plain error", io.ErrUnexpectedEOF, http.StatusInternalServerError, "UNKNOWN_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			ErrorHandler(tt.err, c)
			assertAPIError(t, rec, tt.wantStatus, tt.wantCode)
		})
	}
}

func TestFromDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"missing entity", fmt.Errorf("remove shape: %w", scene.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"invalid project id", session.ErrInvalidProjectID, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"degenerate", scene.ErrDegenerate, http.StatusBadRequest, "BAD_REQUEST"},
		{"closed session", fmt.Errorf("add space: %w", engine.ErrClosed), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"anything else", io.ErrClosedPipe, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := fromDomainError("failed", "shape", "s1", tt.err)
			assert.Equal(t, tt.wantStatus, apiErr.Status)
			assert.Equal(t, tt.wantCode, apiErr.Code)
		})
	}
}

func TestCanvasHandler_ClosedEngineIsUnavailable(t *testing.T) {
	srv := newTestServer(t)
	eng, err := srv.sessions.Open(context.Background(), "p1")
	require.NoError(t, err)
	eng.Close()

	rec := srv.do(http.MethodPost, "/api/projects/p1/spaces", map[string]float64{"widthMeters": 4, "heightMeters": 3})
	assertAPIError(t, rec, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE")
}

func TestOpenProject_InvalidID(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(http.MethodGet, "/api/projects/bad.id/scene", nil)
	assertAPIError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
}
