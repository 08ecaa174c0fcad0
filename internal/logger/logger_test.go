package logger

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestNewWithOutput_Levels(t *testing.T) {
	cases := map[string]logrus.Level{
		"debug":   logrus.DebugLevel,
		" WARN ":  logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"info":    logrus.InfoLevel,
		"verbose": logrus.InfoLevel,
	}
	for level, want := range cases {
		assert.Equal(t, want, NewWithOutput("svc", level, &bytes.Buffer{}).GetLevel(), level)
	}
}

func TestNewWithOutput_JSONShape(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("chat-survey-api", "info", &buf)
	log.WithField("survey_id", "F6MQ").Info("hello")
	log.WithField("service", "override").Info("custom")
	log.Debug("hidden")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "hello", lines[0]["message"])
	assert.Equal(t, "info", lines[0]["level"])
	assert.Equal(t, "chat-survey-api", lines[0]["service"])
	assert.Equal(t, "F6MQ", lines[0]["survey_id"])
	assert.Contains(t, lines[0], "timestamp")
	assert.Equal(t, "override", lines[1]["service"])
}

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("svc", "info", &buf)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(Middleware(log))
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Get("/missing", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) })
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) })

	for _, path := range []string{"/ok", "/missing", "/boom"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3)
	assert.Equal(t, []any{"info", "warning", "error"}, []any{lines[0]["level"], lines[1]["level"], lines[2]["level"]})
	assert.Equal(t, "/missing", lines[1]["path"])
	assert.EqualValues(t, 404, lines[1]["status"])
	assert.NotEmpty(t, lines[0]["request_id"])
}

func TestFromRequest_WithoutRequestID(t *testing.T) {
	log := NewWithOutput("svc", "info", &bytes.Buffer{})
	entry := FromRequest(log, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Same(t, log, entry)
}
