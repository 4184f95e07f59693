package admin

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"tradenet-backend/internal/domain"
	"tradenet-backend/internal/ledger"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupAdminTest(t *testing.T) (*Service, *gorm.DB, *ledger.Service) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Account{}, &domain.LedgerEntry{},
		&domain.Job{}, &domain.Trade{}, &domain.Match{},
	))
	return &Service{DB: db}, db, &ledger.Service{DB: db}
}

func TestCollect_EmptyMarketplace(t *testing.T) {
	svc, _, _ := setupAdminTest(t)
	stats, err := svc.Collect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stats.JobsByStatus)
	assert.Empty(t, stats.MatchesByStatus)
	assert.Zero(t, stats.RevenueCredits)
	assert.Zero(t, stats.TradeCount)
}

func TestCollect_Aggregates(t *testing.T) {
	svc, db, ldg := setupAdminTest(t)
	ctx := context.Background()

	acct, err := ldg.CreateAccount(ctx, domain.AccountKindTrade)
	require.NoError(t, err)
	_, err = ldg.CreateAccount(ctx, domain.AccountKindClient)
	require.NoError(t, err)

	trade := domain.Trade{
		AccountID:       acct.AccountID,
		CompanyName:     "Acme",
		ServicesOffered: domain.NewServiceList([]string{"plumber"}),
		Verified:        true,
	}
	require.NoError(t, db.Create(&trade).Error)

	openJob := domain.Job{ClientID: uuid.New(), TradeType: "plumber", Description: "a", Location: "b", Urgency: "standard", Status: domain.JobStatusOpen}
	matchedJob := domain.Job{ClientID: uuid.New(), TradeType: "plumber", Description: "a", Location: "b", Urgency: "standard", Status: domain.JobStatusMatched}
	require.NoError(t, db.Create(&openJob).Error)
	require.NoError(t, db.Create(&matchedJob).Error)

	require.NoError(t, db.Create(&domain.Match{JobID: matchedJob.JobID, TradeID: trade.TradeID, MatchScore: 80, Status: domain.MatchStatusAccepted}).Error)
	require.NoError(t, db.Create(&domain.Match{JobID: openJob.JobID, TradeID: trade.TradeID, MatchScore: 60, IsFreeLead: true, Status: domain.MatchStatusPending}).Error)

	_, err = ldg.Append(ctx, acct.AccountID, 10, domain.ReasonCreditPurchase, nil)
	require.NoError(t, err)
	ref := "m-1"
	_, err = ldg.Append(ctx, acct.AccountID, -3, domain.ReasonLeadCharge, &ref)
	require.NoError(t, err)

	stats, err := svc.Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.JobsByStatus[domain.JobStatusOpen])
	assert.Equal(t, int64(1), stats.JobsByStatus[domain.JobStatusMatched])
	assert.Equal(t, int64(1), stats.MatchesByStatus[domain.MatchStatusAccepted])
	assert.Equal(t, int64(1), stats.MatchesByStatus[domain.MatchStatusPending])
	assert.Equal(t, int64(1), stats.FreeLeads)
	assert.Equal(t, int64(1), stats.BillableLeads)
	assert.Equal(t, int64(3), stats.RevenueCredits)
	assert.Equal(t, int64(1), stats.TradeCount)
	assert.Equal(t, int64(1), stats.ClientAccounts)
}

func TestGetStats_Handler(t *testing.T) {
	svc, _, _ := setupAdminTest(t)
	h := &Handlers{Service: svc}

	app := fiber.New()
	app.Get("/api/v1/admin/stats", h.GetStats)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/admin/stats", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "success", body["status"])
	data := body["data"].(map[string]interface{})
	assert.Contains(t, data, "jobs_by_status")
	assert.Contains(t, data, "revenue_credits")
}
