package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/orgchart-service/internal/api/http/handlers"
	"github.com/spec-kit/orgchart-service/internal/auth"
	"github.com/spec-kit/orgchart-service/internal/observability"
	"github.com/spec-kit/orgchart-service/internal/repository/memstore"
	"github.com/spec-kit/orgchart-service/internal/service"
)

type testServer struct {
	t     *testing.T
	app   *fiber.App
	token string
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func newTestServer(t *testing.T, deps map[string]handlers.Pinger) *testServer {
	t.Helper()
	return newTestServerWithLogger(t, deps, zap.NewNop())
}

func newTestServerWithLogger(t *testing.T, deps map[string]handlers.Pinger, logger *zap.Logger) *testServer {
	t.Helper()
	repos := memstore.New(time.Now).Repositories()
	metrics := observability.NewMetrics()
	svc := service.NewOrgService(service.OrgDependencies{Repos: repos, Metrics: metrics})

	person, err := svc.CreatePerson(context.Background(), "E-0001", "Admin")
	require.NoError(t, err)
	tokens := auth.NewTokenManager("test-secret", 5)
	token, _, err := tokens.GenerateToken(person.ID)
	require.NoError(t, err)

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("orgchart-service", "test", deps),
		Corporations:   handlers.NewCorporationsHandler(svc),
		Teams:          handlers.NewTeamsHandler(svc),
		Restore:        handlers.NewRestoreHandler(svc),
		Commits:        handlers.NewCommitsHandler(svc),
		Roles:          handlers.NewRolesHandler(svc),
		Drafts:         handlers.NewDraftsHandler(svc),
		Metrics:        metrics.Handler(),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, repos.Persons),
	})
	return &testServer{t: t, app: app, token: token}
}

func (s *testServer) do(method, path string, body any) (int, map[string]any) {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(s.t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func data(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	d, ok := body["data"].(map[string]any)
	require.Truef(t, ok, "no data object in %v", body)
	return d
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func id(t *testing.T, obj map[string]any, key string) int64 {
	t.Helper()
	v, ok := obj[key].(float64)
	require.Truef(t, ok, "missing %s in %v", key, obj)
	return int64(v)
}

func TestRoutes_RequireToken(t *testing.T) {
	s := newTestServer(t, nil)
	s.token = ""

	status, body := s.do(nethttp.MethodGet, "/api/v1/company/commit/list", nil)
	require.Equal(t, nethttp.StatusUnauthorized, status)
	require.Equal(t, "UNAUTHORIZED", errorCode(body))
}

func TestRoutes_CommitAndRestoreFlow(t *testing.T) {
	s := newTestServer(t, nil)

	status, body := s.do(nethttp.MethodPost, "/api/v1/company/corp", map[string]any{
		"name":   "Acme",
		"commit": map[string]any{"new": true, "message": "founding"},
	})
	require.Equal(t, nethttp.StatusCreated, status)
	corpID := id(t, data(t, body), "c_id")
	c1 := id(t, body["commit"].(map[string]any), "commit_id")

	status, body = s.do(nethttp.MethodPost, "/api/v1/company/team", map[string]any{
		"name":        "Engineering",
		"corporation": corpID,
		"commit":      map[string]any{"id": c1},
	})
	require.Equal(t, nethttp.StatusCreated, status)
	teamID := id(t, data(t, body), "t_id")

	status, body = s.do(nethttp.MethodPatch, fmt.Sprintf("/api/v1/company/team/%d", teamID), map[string]any{
		"name":   "Eng",
		"commit": map[string]any{"new": true},
	})
	require.Equal(t, nethttp.StatusOK, status)
	require.Equal(t, "Eng", data(t, body)["name"])
	c2 := id(t, body["commit"].(map[string]any), "commit_id")
	require.Greater(t, c2, c1)

	status, body = s.do(nethttp.MethodGet, fmt.Sprintf("/api/v1/company/restore/corp/%d/%d", c1, corpID), nil)
	require.Equal(t, nethttp.StatusOK, status)
	subTeams := data(t, body)["sub_teams"].([]any)
	require.Len(t, subTeams, 1)
	require.Equal(t, "Engineering", subTeams[0].(map[string]any)["name"])

	status, body = s.do(nethttp.MethodGet, fmt.Sprintf("/api/v1/company/commit/compare?from=%d&to=%d", c1, c2), nil)
	require.Equal(t, nethttp.StatusOK, status)
	require.Len(t, data(t, body)["actions"].([]any), 1)

	// only the latest commit takes further changes
	status, body = s.do(nethttp.MethodPatch, fmt.Sprintf("/api/v1/company/team/%d", teamID), map[string]any{
		"name":   "Platform",
		"commit": map[string]any{"id": c1},
	})
	require.Equal(t, nethttp.StatusBadRequest, status)
	require.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, body = s.do(nethttp.MethodDelete, fmt.Sprintf("/api/v1/company/corp/%d", corpID), nil)
	require.Equal(t, nethttp.StatusOK, status)
	require.Equal(t, []any{float64(teamID)}, data(t, body)["deactivated_teams"])

	// a repeated delete changes nothing and leaves no commit behind
	status, body = s.do(nethttp.MethodDelete, fmt.Sprintf("/api/v1/company/corp/%d", corpID), map[string]any{
		"commit": map[string]any{"new": true},
	})
	require.Equal(t, nethttp.StatusOK, status)
	require.Empty(t, data(t, body)["deactivated_teams"])
	require.Nil(t, body["commit"])
}

func TestRoutes_ErrorMapping(t *testing.T) {
	s := newTestServer(t, nil)

	status, body := s.do(nethttp.MethodPost, "/api/v1/company/team", map[string]any{
		"name":   "",
		"commit": map[string]any{"new": true},
	})
	require.Equal(t, nethttp.StatusBadRequest, status)
	require.Equal(t, "VALIDATION_FAILED", errorCode(body))
	details := body["error"].(map[string]any)["details"].(map[string]any)
	require.Equal(t, "required", details["name"])

	status, body = s.do(nethttp.MethodGet, "/api/v1/company/corp/404", nil)
	require.Equal(t, nethttp.StatusNotFound, status)
	require.Equal(t, "NOT_FOUND", errorCode(body))

	status, _ = s.do(nethttp.MethodGet, "/api/v1/company/corp/abc", nil)
	require.Equal(t, nethttp.StatusBadRequest, status)

	status, body = s.do(nethttp.MethodPost, "/api/v1/company/corp", map[string]any{"name": "Acme"})
	require.Equal(t, nethttp.StatusNotFound, status, "no commit exists yet")
	require.Equal(t, "NOT_FOUND", errorCode(body))

	status, _ = s.do(nethttp.MethodGet, "/api/v1/company/commit/compare?from=1", nil)
	require.Equal(t, nethttp.StatusBadRequest, status)
}

func TestRoutes_ReparentCycleIsConflict(t *testing.T) {
	s := newTestServer(t, nil)
	_, body := s.do(nethttp.MethodPost, "/api/v1/company/corp", map[string]any{
		"name":   "Acme",
		"commit": map[string]any{"new": true},
	})
	corpID := id(t, data(t, body), "c_id")
	_, body = s.do(nethttp.MethodPost, "/api/v1/company/team", map[string]any{"name": "A", "corporation": corpID})
	a := id(t, data(t, body), "t_id")
	_, body = s.do(nethttp.MethodPost, "/api/v1/company/team", map[string]any{"name": "B", "parent_teams": []int64{a}})
	b := id(t, data(t, body), "t_id")

	status, body := s.do(nethttp.MethodPatch, fmt.Sprintf("/api/v1/company/team/%d", a), map[string]any{"parent_teams": []int64{b}})
	require.Equal(t, nethttp.StatusConflict, status)
	require.Equal(t, "INVARIANT_VIOLATION", errorCode(body))

	status, body = s.do(nethttp.MethodPatch, fmt.Sprintf("/api/v1/company/team/%d", b), map[string]any{"parent_teams": []int64{}})
	require.Equal(t, nethttp.StatusOK, status)
	require.Empty(t, data(t, body)["parent_teams"])
}

func TestRoutes_Roles(t *testing.T) {
	s := newTestServer(t, nil)
	_, body := s.do(nethttp.MethodPost, "/api/v1/company/corp", map[string]any{
		"name":   "Acme",
		"commit": map[string]any{"new": true},
	})
	corpID := id(t, data(t, body), "c_id")
	_, body = s.do(nethttp.MethodPost, "/api/v1/company/team", map[string]any{"name": "Support", "corporation": corpID})
	teamID := id(t, data(t, body), "t_id")

	// the admin created by the fixture is person 1
	status, body := s.do(nethttp.MethodPost, "/api/v1/company/roles/1", map[string]any{"team": teamID, "role": "HEAD"})
	require.Equal(t, nethttp.StatusCreated, status)
	roleID := id(t, data(t, body), "r_id")

	status, body = s.do(nethttp.MethodGet, fmt.Sprintf("/api/v1/company/team/%d", teamID), nil)
	require.Equal(t, nethttp.StatusOK, status)
	require.Equal(t, float64(1), data(t, body)["leader"])

	status, body = s.do(nethttp.MethodPost, "/api/v1/company/roles/1", map[string]any{"team": teamID, "role": "BOSS"})
	require.Equal(t, nethttp.StatusBadRequest, status)
	require.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, _ = s.do(nethttp.MethodDelete, fmt.Sprintf("/api/v1/company/roles/1/%d", roleID), nil)
	require.Equal(t, nethttp.StatusOK, status)

	status, body = s.do(nethttp.MethodGet, "/api/v1/company/roles/1", nil)
	require.Equal(t, nethttp.StatusOK, status)
	require.Len(t, body["data"].([]any), 1)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, map[string]handlers.Pinger{"postgres": failingPinger{}})

	status, _ := s.do(nethttp.MethodGet, "/health/live", nil)
	require.Equal(t, nethttp.StatusOK, status)

	status, body := s.do(nethttp.MethodGet, "/health/ready", nil)
	require.Equal(t, nethttp.StatusServiceUnavailable, status)
	require.Equal(t, "DEPENDENCY_UNAVAILABLE", errorCode(body))

	req := httptest.NewRequest(nethttp.MethodGet, "/metrics", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	require.Contains(t, string(raw), "orgchart_http_requests_total")
}

func TestRoutes_EditDrafts(t *testing.T) {
	s := newTestServer(t, nil)

	status, body := s.do(nethttp.MethodPost, "/api/v1/company/corp", map[string]any{
		"name":   "Acme",
		"commit": map[string]any{"new": true},
	})
	require.Equal(t, nethttp.StatusCreated, status)
	corpID := id(t, data(t, body), "c_id")

	status, body = s.do(nethttp.MethodPost, "/api/v1/company/edit/draft", map[string]any{
		"title":       "Split platform",
		"corporation": corpID,
		"payload":     map[string]any{"teams": []any{map[string]any{"name": "Platform"}}},
	})
	require.Equal(t, nethttp.StatusCreated, status)
	draft := data(t, body)
	draftID := id(t, draft, "d_id")
	require.Equal(t, "Split platform", draft["title"])
	require.NotContains(t, body, "commit")

	status, body = s.do(nethttp.MethodPost, "/api/v1/company/edit/draft", map[string]any{
		"d_id":    draftID,
		"title":   "Split platform v2",
		"payload": map[string]any{},
	})
	require.Equal(t, nethttp.StatusOK, status)
	require.Nil(t, data(t, body)["corporation"])

	status, body = s.do(nethttp.MethodGet, fmt.Sprintf("/api/v1/company/edit/draft?corp_id=%d", corpID), nil)
	require.Equal(t, nethttp.StatusOK, status)
	require.Empty(t, body["data"])

	status, body = s.do(nethttp.MethodGet, "/api/v1/company/edit/draft", nil)
	require.Equal(t, nethttp.StatusOK, status)
	require.Len(t, body["data"], 1)

	status, body = s.do(nethttp.MethodGet, fmt.Sprintf("/api/v1/company/edit/draft/%d", draftID), nil)
	require.Equal(t, nethttp.StatusOK, status)
	require.Equal(t, "Split platform v2", data(t, body)["title"])

	status, body = s.do(nethttp.MethodPost, "/api/v1/company/edit/draft", map[string]any{
		"title":   "bad",
		"payload": []any{1, 2},
	})
	require.Equal(t, nethttp.StatusBadRequest, status)
	require.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, _ = s.do(nethttp.MethodDelete, fmt.Sprintf("/api/v1/company/edit/draft/%d", draftID), nil)
	require.Equal(t, nethttp.StatusNoContent, status)

	status, body = s.do(nethttp.MethodGet, fmt.Sprintf("/api/v1/company/edit/draft/%d", draftID), nil)
	require.Equal(t, nethttp.StatusNotFound, status)
	require.Equal(t, "NOT_FOUND", errorCode(body))

	status, body = s.do(nethttp.MethodGet, "/api/v1/company/commit/list", nil)
	require.Equal(t, nethttp.StatusOK, status)
	require.Len(t, body["data"], 1, "drafts never create commits")
}
