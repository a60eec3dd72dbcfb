package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Wikid82/ballot/backend/internal/config"
	"github.com/Wikid82/ballot/backend/internal/credentials"
	"github.com/Wikid82/ballot/backend/internal/live"
	"github.com/Wikid82/ballot/backend/internal/testutil"
	"github.com/Wikid82/ballot/backend/internal/version"
)

type apiClient struct {
	t      *testing.T
	router *gin.Engine
}

func (a apiClient) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	out := map[string]interface{}{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func (a apiClient) login(email, password, name string) string {
	a.t.Helper()
	a.do(http.MethodPost, "/api/auth/register", "", gin.H{"email": email, "password": password, "name": name})
	w, body := a.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	return body["token"].(string)
}

func setup(t *testing.T, cfg config.Config) (apiClient, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.OpenTestDB(t)
	router := gin.New()
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "test-secret"
	}
	Register(router, db, cfg, Deps{Hub: live.NewHub()})
	return apiClient{t: t, router: router}, db
}

func TestRegister(t *testing.T) {
	api, _ := setup(t, config.Config{})

	paths := map[string]bool{}
	for _, r := range api.router.Routes() {
		paths[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /api/health",
		"POST /api/auth/register",
		"POST /api/auth/login",
		"GET /api/elections",
		"GET /api/elections/:id/results/live",
		"POST /api/elections/:id/vote",
		"GET /api/admin/elections/all",
		"GET /api/admin/stats",
	} {
		assert.True(t, paths[want], "missing route %s", want)
	}

	w, body := api.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, version.Name, body["service"])
	assert.Equal(t, version.Version, body["version"])
	assert.Contains(t, body, "git_commit")
	assert.Contains(t, body, "build_time")
}

func TestVotingScenario(t *testing.T) {
	api, db := setup(t, config.Config{})

	adminToken := func() string {
		api.do(http.MethodPost, "/api/auth/register", "", gin.H{"email": "admin@example.com", "password": "password123", "name": "Admin"})
		require.NoError(t, credentials.NewLocalProvider(db).SetAdmin(context.Background(), "admin@example.com", true))
		return api.login("admin@example.com", "password123", "Admin")
	}()
	voter := api.login("voter@example.com", "password123", "Voter")

	w, _ := api.do(http.MethodPost, "/api/admin/elections", voter, gin.H{"title": "E1"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body := api.do(http.MethodPost, "/api/admin/elections", adminToken, gin.H{"title": "E1"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Election created successfully", body["message"])
	electionID := body["election"].(map[string]interface{})["id"].(string)

	candidateIDs := map[string]string{}
	for _, name := range []string{"A", "B"} {
		w, body = api.do(http.MethodPost, "/api/admin/candidates", adminToken, gin.H{"election_id": electionID, "name": name})
		require.Equal(t, http.StatusCreated, w.Code)
		candidateIDs[name] = body["candidate"].(map[string]interface{})["id"].(string)
	}

	w, body = api.do(http.MethodGet, "/api/elections/"+electionID+"/has-voted", voter, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["has_voted"])

	w, body = api.do(http.MethodPost, "/api/elections/"+electionID+"/vote", voter, gin.H{"candidate_id": candidateIDs["A"]})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Vote cast successfully", body["message"])
	assert.Len(t, body["vote_hash"], 64)

	w, body = api.do(http.MethodPost, "/api/elections/"+electionID+"/vote", voter, gin.H{"candidate_id": candidateIDs["B"]})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "You have already voted in this election", body["error"])

	w, body = api.do(http.MethodPost, "/api/elections/"+electionID+"/vote", adminToken, gin.H{"candidate_id": candidateIDs["A"]})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Administrators are not allowed to vote", body["error"])

	w, body = api.do(http.MethodGet, "/api/elections/"+electionID+"/results", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["total_votes"])
	results := body["results"].([]interface{})
	require.Len(t, results, 2)
	first := results[0].(map[string]interface{})
	second := results[1].(map[string]interface{})
	assert.Equal(t, "A", first["candidate_name"])
	assert.EqualValues(t, 1, first["vote_count"])
	assert.EqualValues(t, 100, first["percentage"])
	assert.Equal(t, "B", second["candidate_name"])
	assert.EqualValues(t, 0, second["percentage"])

	w, body = api.do(http.MethodGet, "/api/user/profile", voter, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Voter", body["name"])
	assert.EqualValues(t, 1, body["total_votes"])

	w, body = api.do(http.MethodGet, "/api/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["total_votes"])
	assert.EqualValues(t, 2, body["total_candidates"])

	w, _ = api.do(http.MethodGet, "/api/admin/elections/"+electionID+"/export", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "attachment; filename=election_"+electionID+"_results.csv", w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Body.String(), "A,1,100.00%")
}

func TestAdminRecheck(t *testing.T) {
	api, db := setup(t, config.Config{AdminRecheck: true})
	ctx := context.Background()
	provider := credentials.NewLocalProvider(db)

	api.do(http.MethodPost, "/api/auth/register", "", gin.H{"email": "admin@example.com", "password": "password123", "name": "Admin"})
	require.NoError(t, provider.SetAdmin(ctx, "admin@example.com", true))
	token := api.login("admin@example.com", "password123", "Admin")

	w, _ := api.do(http.MethodGet, "/api/admin/stats", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, provider.SetAdmin(ctx, "admin@example.com", false))
	w, body := api.do(http.MethodGet, "/api/admin/stats", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Admin access required", body["error"])
}
