package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account kinds.
const (
	AccountKindTrade  = "trade"
	AccountKindClient = "client"
)

// Account is a credit account for a trade or a client. CreditBalance is a
// cached projection of the account's ledger entries; it is mutated only by
// the ledger service, never directly.
type Account struct {
	AccountID     uuid.UUID `gorm:"column:account_id;type:uuid;primaryKey" json:"account_id"`
	Kind          string    `gorm:"column:kind;type:varchar(10);not null" json:"kind"`
	CreditBalance int64     `gorm:"column:credit_balance;not null;default:0" json:"credit_balance"`
	LeadCounter   int       `gorm:"column:lead_counter;not null;default:0" json:"lead_counter"`
	CreatedAt     time.Time `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt     time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Account) TableName() string {
	return "Accounts"
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.AccountID == uuid.Nil {
		a.AccountID = uuid.New()
	}
	return nil
}
