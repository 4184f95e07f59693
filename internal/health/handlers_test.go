package health

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"tradenet-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type okPinger struct{}

func (okPinger) Ping() error { return nil }

func setupHealthTest(t *testing.T) (*fiber.App, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	h := &Handlers{Rdb: rdb, DB: okPinger{}, HealthAdminKey: "test-admin-key"}
	app := fiber.New()
	app.Get("/health/json", h.JSON)
	app.Get("/health/reset", h.Reset)
	return app, mr
}

func TestHealthJSON(t *testing.T) {
	app, mr := setupHealthTest(t)
	mr.Set(middleware.KeyReqTotal, "10")
	mr.Set(middleware.KeyReqErrors, "2")

	resp, err := app.Test(httptest.NewRequest("GET", "/health/json", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))

	assert.Equal(t, "tradenet-api", body["service"])
	deps := body["dependencies"].(map[string]interface{})
	db := deps["database"].(map[string]interface{})
	assert.Equal(t, "connected", db["status"])

	traffic := body["traffic"].(map[string]interface{})
	assert.Equal(t, float64(10), traffic["totalRequests"])
	assert.Equal(t, float64(2), traffic["failedCount"])
}

func TestHealthReset_RequiresKey(t *testing.T) {
	app, _ := setupHealthTest(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/health/reset", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 403, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/health/reset?key=wrong", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 403, resp.StatusCode)
}

func TestHealthReset_NoRedisConfigured(t *testing.T) {
	h := &Handlers{Rdb: nil, DB: okPinger{}, HealthAdminKey: "test-admin-key"}
	app := fiber.New()
	app.Get("/health/reset", h.Reset)

	resp, err := app.Test(httptest.NewRequest("GET", "/health/reset?key=test-admin-key", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 503, resp.StatusCode)
}

func TestHealthReset_ClearsTraffic(t *testing.T) {
	app, mr := setupHealthTest(t)
	mr.Set(middleware.KeyReqTotal, "42")
	mr.Set(middleware.KeyReqErrors, "7")

	resp, err := app.Test(httptest.NewRequest("GET", "/health/reset?key=test-admin-key", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)

	assert.False(t, mr.Exists(middleware.KeyReqTotal))
	assert.False(t, mr.Exists(middleware.KeyReqErrors))
	assert.True(t, mr.Exists(middleware.KeyStartTime))
}
