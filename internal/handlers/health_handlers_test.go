package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

type stubPinger struct {
	err error
}

func (p *stubPinger) Ping(ctx context.Context) error {
	return p.err
}

func healthRequest(h echo.HandlerFunc, path string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	return rec, h(e.NewContext(req, rec))
}

func TestHealth_AlwaysOK(t *testing.T) {
	h := NewHealthHandlers(&stubPinger{err: assert.AnError})

	rec, err := healthRequest(h.Health, "/health")
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReady_LivenessOnly(t *testing.T) {
	// Readiness must not depend on the database.
	h := NewHealthHandlers(&stubPinger{err: assert.AnError})

	rec, err := healthRequest(h.Ready, "/health/ready")
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDetailed_ReportsDatabaseOK(t *testing.T) {
	h := NewHealthHandlers(&stubPinger{})

	rec, err := healthRequest(h.Detailed, "/health/detailed")
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	db := body["components"].(map[string]interface{})["database"].(map[string]interface{})
	assert.Equal(t, "ok", db["status"])
}

func TestDetailed_DatabaseDownIs503(t *testing.T) {
	h := NewHealthHandlers(&stubPinger{err: assert.AnError})

	rec, err := healthRequest(h.Detailed, "/health/detailed")
	assert.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body["status"])
	db := body["components"].(map[string]interface{})["database"].(map[string]interface{})
	assert.Equal(t, "unreachable", db["status"])
}
