package http

import (
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/orgchart-service/internal/observability"
)

func TestErrorEnvelope_PanicCarriesRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := newTestServerWithLogger(t, nil, zap.New(core))
	s.app.Get("/boom", func(c *fiber.Ctx) error { panic("kaboom") })

	req := httptest.NewRequest(nethttp.MethodGet, "/boom", nil)
	req.Header.Set(observability.RequestIDHeader, "req-42")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, nethttp.StatusInternalServerError, resp.StatusCode)

	var body struct {
		Error struct {
			Code      string `json:"code"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "INTERNAL_ERROR", body.Error.Code)
	require.Equal(t, "req-42", body.Error.RequestID)

	panics := logs.FilterMessage("panic recovered").All()
	require.Len(t, panics, 1)
	require.Equal(t, "req-42", panics[0].ContextMap()["request_id"])
}

func TestErrorEnvelope_InvariantViolationLogsActor(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := newTestServerWithLogger(t, nil, zap.New(core))

	_, body := s.do(nethttp.MethodPost, "/api/v1/company/corp", map[string]any{
		"name":   "Acme",
		"commit": map[string]any{"new": true},
	})
	corpID := id(t, data(t, body), "c_id")
	_, body = s.do(nethttp.MethodPost, "/api/v1/company/team", map[string]any{"name": "A", "corporation": corpID})
	a := id(t, data(t, body), "t_id")

	status, body := s.do(nethttp.MethodPatch, fmt.Sprintf("/api/v1/company/team/%d", a), map[string]any{"parent_teams": []int64{a}})
	require.Equal(t, nethttp.StatusConflict, status)
	_, hasRequestID := body["error"].(map[string]any)["request_id"]
	require.False(t, hasRequestID)

	warned := logs.FilterMessage("invariant violation").All()
	require.Len(t, warned, 1)
	fields := warned[0].ContextMap()
	require.Equal(t, int64(1), fields["actor_id"])
	require.Contains(t, fields["route"], "/team/:t_id")
	require.NotEmpty(t, fields["request_id"])
}
