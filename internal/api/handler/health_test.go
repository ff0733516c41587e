package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakePinger struct {
	err error
}

func (p *fakePinger) Ping(ctx context.Context) error {
	return p.err
}

func TestHealthHandler_Health(t *testing.T) {
	handler := NewHealthHandler(nil)
	app := newTestApp()
	app.Get("/health", handler.Health)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var health HealthResponse
	body, _ := io.ReadAll(resp.Body)
	assert.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "ok", health.Status)
}

func TestHealthHandler_Ready(t *testing.T) {
	t.Run("database reachable", func(t *testing.T) {
		handler := NewHealthHandler(&fakePinger{})
		app := newTestApp()
		app.Get("/ready", handler.Ready)

		resp, err := app.Test(httptest.NewRequest("GET", "/ready", nil))
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("database unreachable", func(t *testing.T) {
		handler := NewHealthHandler(&fakePinger{err: errors.New("connection refused")})
		app := newTestApp()
		app.Get("/ready", handler.Ready)

		resp, err := app.Test(httptest.NewRequest("GET", "/ready", nil))
		assert.NoError(t, err)
		assert.Equal(t, 503, resp.StatusCode)
	})
}
