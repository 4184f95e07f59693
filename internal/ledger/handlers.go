package ledger

import (
	"errors"

	"tradenet-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *Service
}

// GetBalance GET /api/v1/ledger/balance/:account_id
func (h *Handlers) GetBalance(c *fiber.Ctx) error {
	accountID, err := uuid.Parse(c.Params("account_id"))
	if err != nil {
		return response.Error(c, "Invalid UUID format for account_id", 400, nil)
	}

	balance, err := h.Service.Balance(c.Context(), accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return response.Error(c, "Account not found", 404, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Balance retrieved", fiber.Map{
		"account_id":     accountID,
		"credit_balance": balance,
	}, nil)
}

// GetHistory GET /api/v1/ledger/history/:account_id
func (h *Handlers) GetHistory(c *fiber.Ctx) error {
	accountID, err := uuid.Parse(c.Params("account_id"))
	if err != nil {
		return response.Error(c, "Invalid UUID format for account_id", 400, nil)
	}

	entries, err := h.Service.History(c.Context(), accountID)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Ledger history retrieved", entries, fiber.Map{
		"count": len(entries),
	})
}
