package ledger

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"tradenet-backend/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLedgerHandlers(t *testing.T) (*fiber.App, *Service) {
	svc := setupLedgerTest(t)
	h := &Handlers{Service: svc}

	app := fiber.New()
	grp := app.Group("/api/v1/ledger")
	grp.Get("/balance/:account_id", h.GetBalance)
	grp.Get("/history/:account_id", h.GetHistory)
	return app, svc
}

func getJSON(t *testing.T, app *fiber.App, path string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, body
}

func TestGetBalance(t *testing.T) {
	app, svc := setupLedgerHandlers(t)
	ctx := context.Background()
	acct, err := svc.CreateAccount(ctx, domain.AccountKindTrade)
	require.NoError(t, err)
	_, err = svc.Append(ctx, acct.AccountID, 12, domain.ReasonCreditPurchase, nil)
	require.NoError(t, err)

	status, body := getJSON(t, app, "/api/v1/ledger/balance/"+acct.AccountID.String())
	require.Equal(t, 200, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(12), data["credit_balance"])
}

func TestGetBalance_NotFound(t *testing.T) {
	app, _ := setupLedgerHandlers(t)
	status, _ := getJSON(t, app, "/api/v1/ledger/balance/"+uuid.New().String())
	assert.Equal(t, 404, status)
}

func TestGetBalance_BadID(t *testing.T) {
	app, _ := setupLedgerHandlers(t)
	status, _ := getJSON(t, app, "/api/v1/ledger/balance/nope")
	assert.Equal(t, 400, status)
}

func TestGetHistory(t *testing.T) {
	app, svc := setupLedgerHandlers(t)
	ctx := context.Background()
	acct, err := svc.CreateAccount(ctx, domain.AccountKindTrade)
	require.NoError(t, err)
	_, err = svc.Append(ctx, acct.AccountID, 10, domain.ReasonCreditPurchase, nil)
	require.NoError(t, err)
	ref := "m-1"
	_, err = svc.Append(ctx, acct.AccountID, -3, domain.ReasonLeadCharge, &ref)
	require.NoError(t, err)

	status, body := getJSON(t, app, "/api/v1/ledger/history/"+acct.AccountID.String())
	require.Equal(t, 200, status)
	entries := body["data"].([]interface{})
	require.Len(t, entries, 2)
	first := entries[0].(map[string]interface{})
	assert.Equal(t, float64(10), first["delta"])
	metadata := body["metadata"].(map[string]interface{})
	assert.Equal(t, float64(2), metadata["count"])
}
