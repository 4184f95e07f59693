package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ledger entry reasons.
const (
	ReasonLeadCharge     = "lead_charge"
	ReasonCreditPurchase = "credit_purchase"
	ReasonRefund         = "refund"
	ReasonBonusGrant     = "bonus_grant"
)

// ValidReason reports whether r is a known ledger reason.
func ValidReason(r string) bool {
	switch r {
	case ReasonLeadCharge, ReasonCreditPurchase, ReasonRefund, ReasonBonusGrant:
		return true
	}
	return false
}

// LedgerEntry is an immutable balance-affecting record. Delta is signed:
// positive credits the account, negative debits it. The unique index on
// (account_id, reason, reference_id) rejects replays of the same operation,
// so retried charges cannot double-apply.
type LedgerEntry struct {
	EntryID     uuid.UUID `gorm:"column:entry_id;type:uuid;primaryKey" json:"entry_id"`
	AccountID   uuid.UUID `gorm:"column:account_id;type:uuid;not null;index:idx_ledger_account_created,priority:1;uniqueIndex:idx_ledger_replay,priority:1" json:"account_id"`
	Delta       int64     `gorm:"column:delta;not null" json:"delta"`
	Reason      string    `gorm:"column:reason;type:varchar(20);not null;uniqueIndex:idx_ledger_replay,priority:2" json:"reason"`
	ReferenceID *string   `gorm:"column:reference_id;uniqueIndex:idx_ledger_replay,priority:3" json:"reference_id"`
	CreatedAt   time.Time `gorm:"column:createdAt;index:idx_ledger_account_created,priority:2" json:"createdAt"`
}

func (LedgerEntry) TableName() string {
	return "LedgerEntries"
}

func (e *LedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if e.EntryID == uuid.Nil {
		e.EntryID = uuid.New()
	}
	return nil
}
