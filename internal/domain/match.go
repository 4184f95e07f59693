package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Match statuses. Legal transitions: pending → accepted | declined,
// accepted → completed. declined and completed are terminal.
const (
	MatchStatusPending   = "pending"
	MatchStatusAccepted  = "accepted"
	MatchStatusDeclined  = "declined"
	MatchStatusCompleted = "completed"
)

// Match is the introduction of a Job to a Trade (a lead). IsFreeLead is
// decided at creation and never changed afterwards.
type Match struct {
	MatchID       uuid.UUID `gorm:"column:match_id;type:uuid;primaryKey" json:"match_id"`
	JobID         uuid.UUID `gorm:"column:job_id;type:uuid;not null;uniqueIndex:idx_match_job_trade,priority:1" json:"job_id"`
	TradeID       uuid.UUID `gorm:"column:trade_id;type:uuid;not null;uniqueIndex:idx_match_job_trade,priority:2;index" json:"trade_id"`
	MatchScore    int       `gorm:"column:match_score;not null" json:"match_score"`
	IsFreeLead    bool      `gorm:"column:is_free_lead;not null;default:false" json:"is_free_lead"`
	FreeReason    *string   `gorm:"column:free_reason;type:varchar(10)" json:"free_reason"`
	LowConfidence bool      `gorm:"column:low_confidence;not null;default:false" json:"low_confidence"`
	Status        string    `gorm:"column:status;type:varchar(10);default:'pending'" json:"status"`
	CreatedAt     time.Time `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt     time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Match) TableName() string {
	return "Matches"
}

func (m *Match) BeforeCreate(tx *gorm.DB) error {
	if m.MatchID == uuid.Nil {
		m.MatchID = uuid.New()
	}
	return nil
}
