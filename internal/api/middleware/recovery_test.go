package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wikid82/ballot/backend/internal/logger"
	"github.com/Wikid82/ballot/backend/internal/metrics"
	"github.com/Wikid82/ballot/backend/internal/services"
)

const voteRoute = "/api/elections/:id/vote"

// voteRouter mounts a protected vote route whose handler panics.
func voteRouter(verbose bool, handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), Recovery(verbose))
	api := router.Group("/api")
	api.Use(AuthMiddleware(services.NewTokenService(testSecret)))
	api.POST("/elections/:id/vote", handler)
	return router
}

func castVote(router *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/elections/e1/vote", bytes.NewBufferString(`{"candidate_id":"c1"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func panicCount(t *testing.T, reg *prometheus.Registry, route string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "ballot_http_panics_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "route" && l.GetValue() == route {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestRecovery_VerboseLogsVoterContext(t *testing.T) {
	buf := &bytes.Buffer{}
	logger.Init(false, buf)
	reg := prometheus.NewRegistry()
	metrics.Register(reg)
	before := panicCount(t, reg, voteRoute)

	token := issue(t, false)
	router := voteRouter(true, func(c *gin.Context) { panic("tally exploded") })
	w := castVote(router, token)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "internal server error", body["error"])
	rid := w.Header().Get(RequestIDHeader)
	require.NotEmpty(t, rid)
	assert.Equal(t, rid, body["request_id"])

	assert.NotContains(t, buf.String(), token)
	var entry struct {
		Msg        string              `json:"msg"`
		Level      string              `json:"level"`
		RequestID  string              `json:"request_id"`
		UserID     string              `json:"user_id"`
		ResourceID string              `json:"resource_id"`
		Route      string              `json:"route"`
		Headers    map[string][]string `json:"headers"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	assert.Equal(t, "error", entry.Level)
	assert.Contains(t, entry.Msg, "PANIC: tally exploded")
	assert.Contains(t, entry.Msg, "Stacktrace:")
	assert.Equal(t, rid, entry.RequestID)
	assert.Equal(t, "user-1", entry.UserID)
	assert.Equal(t, "e1", entry.ResourceID)
	assert.Equal(t, voteRoute, entry.Route)
	assert.Equal(t, []string{"<redacted>"}, entry.Headers["Authorization"])

	assert.Equal(t, before+1, panicCount(t, reg, voteRoute))
}

func TestRecovery_BriefWhenNotVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	logger.Init(false, buf)

	router := voteRouter(false, func(c *gin.Context) { panic("brief panic") })
	w := castVote(router, issue(t, false))
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	assert.Equal(t, "PANIC: brief panic", entry["msg"])
	assert.Equal(t, "user-1", entry["user_id"])
	assert.NotContains(t, entry, "headers")
	assert.NotContains(t, buf.String(), "Stacktrace:")
}

func TestRecovery_PanicBeforeAuth(t *testing.T) {
	buf := &bytes.Buffer{}
	logger.Init(false, buf)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), Recovery(false))
	router.GET("/api/elections", func(c *gin.Context) { panic("public panic") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/elections", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	assert.NotContains(t, entry, "user_id")
	assert.NotContains(t, entry, "resource_id")
	assert.Equal(t, "/api/elections", entry["route"])
}

func TestRecovery_KeepsResponseAlreadyWritten(t *testing.T) {
	logger.Init(false, &bytes.Buffer{})

	router := voteRouter(false, func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"message": "Vote cast successfully"})
		panic("after write")
	})
	w := castVote(router, issue(t, false))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"message":"Vote cast successfully"}`, w.Body.String())
}
