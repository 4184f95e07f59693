package trades

import (
	"errors"

	"tradenet-backend/internal/allocator"
	"tradenet-backend/internal/billing"
	"tradenet-backend/internal/domain"
	"tradenet-backend/internal/ledger"
	"tradenet-backend/internal/pkg/response"
	"tradenet-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service   *Service
	Allocator *allocator.Service
}

// RegisterTrade POST /api/v1/trades/register-trade
func (h *Handlers) RegisterTrade(c *fiber.Ctx) error {
	var body struct {
		CompanyName     string   `json:"company_name"`
		ServicesOffered []string `json:"services_offered"`
		Verified        bool     `json:"verified"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	if !validation.IsValidCompanyName(body.CompanyName) {
		return response.Error(c, "Invalid company name", 400, nil)
	}
	if len(body.ServicesOffered) == 0 {
		return response.Error(c, "At least one service is required", 400, nil)
	}
	for _, svc := range body.ServicesOffered {
		if !domain.ValidTradeType(svc) {
			return response.Error(c, "Unknown trade type: "+svc, 400, nil)
		}
	}

	trade, err := h.Service.Register(c.Context(), body.CompanyName, body.ServicesOffered, body.Verified)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.SuccessCreated(c, "Trade registered", trade, nil)
}

// GetPendingMatches GET /api/v1/trades/pending-matches/:trade_id
func (h *Handlers) GetPendingMatches(c *fiber.Ctx) error {
	tradeID, err := uuid.Parse(c.Params("trade_id"))
	if err != nil {
		return response.Error(c, "Invalid UUID format for trade_id", 400, nil)
	}
	if _, err := h.Service.Get(c.Context(), tradeID); err != nil {
		if errors.Is(err, ErrTradeNotFound) {
			return response.Error(c, "Trade not found", 404, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}

	matches, err := h.Service.PendingMatches(c.Context(), tradeID)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Pending matches retrieved", matches, fiber.Map{
		"count": len(matches),
	})
}

// RespondMatch POST /api/v1/trades/respond-match
func (h *Handlers) RespondMatch(c *fiber.Ctx) error {
	var body struct {
		MatchID  string `json:"match_id"`
		Decision string `json:"decision"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	if body.MatchID == "" || body.Decision == "" {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	matchID, err := uuid.Parse(body.MatchID)
	if err != nil {
		return response.Error(c, "Invalid UUID format for match_id", 400, nil)
	}

	match, err := h.Allocator.Respond(c.Context(), matchID, body.Decision)
	if err != nil {
		switch {
		case errors.Is(err, allocator.ErrInvalidDecision):
			return response.Error(c, "Decision must be accept or decline", 400, nil)
		case errors.Is(err, allocator.ErrMatchNotFound):
			return response.Error(c, "Match not found", 404, nil)
		case errors.Is(err, allocator.ErrInvalidTransition):
			return response.Error(c, "Match is no longer pending", 409, nil)
		case errors.Is(err, ledger.ErrInsufficientBalance):
			return response.Error(c, "Insufficient credit to accept this lead. Please top up your balance.", 402, nil)
		case errors.Is(err, billing.ErrGatewayFailure):
			return response.Error(c, "Payment provider unavailable, please retry", 502, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Match updated", match, nil)
}

// CompleteMatch POST /api/v1/trades/complete-match
func (h *Handlers) CompleteMatch(c *fiber.Ctx) error {
	var body struct {
		MatchID string `json:"match_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	matchID, err := uuid.Parse(body.MatchID)
	if err != nil {
		return response.Error(c, "Invalid UUID format for match_id", 400, nil)
	}

	match, err := h.Allocator.Complete(c.Context(), matchID)
	if err != nil {
		switch {
		case errors.Is(err, allocator.ErrMatchNotFound):
			return response.Error(c, "Match not found", 404, nil)
		case errors.Is(err, allocator.ErrInvalidTransition):
			return response.Error(c, "Only accepted matches can be completed", 409, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Match completed", match, nil)
}
