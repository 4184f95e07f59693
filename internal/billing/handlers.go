package billing

import (
	"strconv"

	"tradenet-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// PriceCentsPerCredit is the list price for one credit. Credits are whole
// units; Stripe amounts are in the currency's minor unit.
const PriceCentsPerCredit = 100

type Handlers struct {
	StripeCreator StripePaymentIntentCreator
}

// BuyCredits POST /api/v1/billing/buy-credits — only creates the Stripe
// PaymentIntent; credits land on the account when the webhook confirms.
func (h *Handlers) BuyCredits(c *fiber.Ctx) error {
	var body struct {
		AccountID string `json:"account_id"`
		Credits   int64  `json:"credits"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	if body.AccountID == "" || body.Credits == 0 {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	if _, err := uuid.Parse(body.AccountID); err != nil {
		return response.Error(c, "Invalid UUID format for account_id", 400, nil)
	}
	if body.Credits <= 0 {
		return response.Error(c, "Credits must be a positive number", 400, nil)
	}

	if h.StripeCreator == nil {
		return response.Error(c, "Stripe not configured", 500, nil)
	}

	pi, err := h.StripeCreator.Create(body.Credits*PriceCentsPerCredit, "gbp", map[string]string{
		"account_id": body.AccountID,
		"credits":    strconv.FormatInt(body.Credits, 10),
	})
	if err != nil {
		return response.Error(c, err.Error(), 500, nil)
	}

	return response.Success(c, "Payment intent created", fiber.Map{
		"payment_intent_id": pi.ID,
		"client_secret":     pi.ClientSecret,
	}, nil)
}
