package notify

import (
	"context"
	"encoding/json"
	"time"

	"tradenet-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Event types emitted on lead state transitions and credit purchases.
const (
	EventLeadNew         = "lead.new"
	EventLeadAccepted    = "lead.accepted"
	EventLeadDeclined    = "lead.declined"
	EventLeadCancelled   = "lead.cancelled"
	EventLeadCompleted   = "lead.completed"
	EventCreditPurchased = "credit.purchased"
)

// Notifier dispatches an outbound message to an account. Concrete
// transports (WhatsApp/SMS/email senders) are external collaborators that
// drain what these implementations produce. Callers treat delivery as
// best-effort: a Notify failure is logged and never rolls back the state
// transition that caused it.
type Notifier interface {
	Notify(ctx context.Context, accountID uuid.UUID, eventType string, payload map[string]interface{}) error
}

// RedisNotifier pushes events onto a Redis list for external sender workers.
type RedisNotifier struct {
	Rdb   *redis.Client
	Queue string
}

type queuedEvent struct {
	AccountID uuid.UUID              `json:"account_id"`
	EventType string                 `json:"event_type"`
	Payload   map[string]interface{} `json:"payload"`
	QueuedAt  time.Time              `json:"queued_at"`
}

func (n *RedisNotifier) Notify(ctx context.Context, accountID uuid.UUID, eventType string, payload map[string]interface{}) error {
	b, err := json.Marshal(queuedEvent{
		AccountID: accountID,
		EventType: eventType,
		Payload:   payload,
		QueuedAt:  time.Now(),
	})
	if err != nil {
		return err
	}
	return n.Rdb.LPush(ctx, n.Queue, b).Err()
}

// StoreNotifier persists events as Notification rows (inbox + audit trail).
type StoreNotifier struct {
	DB *gorm.DB
}

func (n *StoreNotifier) Notify(ctx context.Context, accountID uuid.UUID, eventType string, payload map[string]interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return n.DB.WithContext(ctx).Create(&domain.Notification{
		AccountID: accountID,
		EventType: eventType,
		Payload:   datatypes.JSON(b),
	}).Error
}

// LogNotifier writes events to the log only. Used in dev and as a fallback
// when Redis is not configured.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, accountID uuid.UUID, eventType string, payload map[string]interface{}) error {
	log.Info().Str("account_id", accountID.String()).Str("event_type", eventType).
		Interface("payload", payload).Msg("notification dispatched")
	return nil
}

// Fanout sends to every transport and reports the first error after all
// have been attempted.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, accountID uuid.UUID, eventType string, payload map[string]interface{}) error {
	var first error
	for _, n := range f {
		if err := n.Notify(ctx, accountID, eventType, payload); err != nil && first == nil {
			first = err
		}
	}
	return first
}
