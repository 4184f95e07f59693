package billing

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrGatewayFailure wraps transport-level charge failures. The allocator
// surfaces it to the caller; the match stays pending so the external layer
// can retry safely.
var ErrGatewayFailure = errors.New("billing gateway failure")

// Gateway authorizes a charge against an account. The accept transition
// waits synchronously for this result. The financial effect itself is the
// lead_charge ledger entry the allocator appends after a successful Charge,
// which keeps this interface swappable for a card processor.
type Gateway interface {
	Charge(ctx context.Context, accountID uuid.UUID, amount int64, reference string) error
}

// CreditGateway is the production default: trades are funded by prepaid
// internal credits, so authorization only validates the request and records
// intent. The overdraft gate lives in the ledger append that follows.
type CreditGateway struct{}

func (CreditGateway) Charge(ctx context.Context, accountID uuid.UUID, amount int64, reference string) error {
	if amount <= 0 {
		return errors.New("charge amount must be positive")
	}
	log.Info().Str("account_id", accountID.String()).Int64("amount", amount).
		Str("reference", reference).Msg("credit charge authorized")
	return nil
}

// StripePaymentIntentCreator abstracts Stripe PaymentIntent creation for
// credit purchases, for testability.
type StripePaymentIntentCreator interface {
	Create(amountCents int64, currency string, metadata map[string]string) (*StripePaymentIntentResult, error)
}

type StripePaymentIntentResult struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// RealStripeCreator uses the Stripe HTTP API. Stubbed here for deployments
// without a Stripe account configured; the webhook path below is live.
type RealStripeCreator struct {
	SecretKey string
}

func (r *RealStripeCreator) Create(amountCents int64, currency string, metadata map[string]string) (*StripePaymentIntentResult, error) {
	return nil, fiber.NewError(501, "Stripe integration pending")
}
