package obs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestNewLoggerJSONOutsideDev(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod", "warn")
	log.Info("hidden")
	log.Warn("shown", "k", "v")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["msg"])
	assert.Equal(t, "v", line["k"])
}

func TestRequestIDAndLogging(t *testing.T) {
	var buf bytes.Buffer
	m := Middleware{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}
	r := gin.New()
	r.Use(m.RequestID(), m.LoggerMiddleware())
	var seen string
	r.GET("/ping", func(c *gin.Context) {
		seen = RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-42", seen)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"request_id":"req-42"`)
	assert.Contains(t, buf.String(), `"path":"/ping"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader), "generated when absent")
	assert.Empty(t, RequestIDFromContext(context.Background()))
}

func TestReadyz(t *testing.T) {
	r := gin.New()
	healthy := HealthHandlers{Checks: map[string]Check{"db": func(context.Context) error { return nil }}}
	broken := HealthHandlers{Checks: map[string]Check{"db": func(context.Context) error { return errors.New("down") }}}
	r.GET("/livez", healthy.Livez)
	r.GET("/ok", healthy.Readyz)
	r.GET("/broken", broken.Readyz)

	for path, want := range map[string]int{"/livez": http.StatusOK, "/ok": http.StatusOK, "/broken": http.StatusServiceUnavailable} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, w.Code, path)
	}
}
