package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Trade-type categories a job can request.
var TradeTypes = []string{
	"plumber", "electrician", "carpenter", "painter",
	"roofer", "landscaper", "hvac", "general",
}

// Job urgency levels.
const (
	UrgencyEmergency = "emergency"
	UrgencyUrgent    = "urgent"
	UrgencyStandard  = "standard"
	UrgencyFlexible  = "flexible"
)

// Job statuses. Status only ever advances open → matched → closed.
const (
	JobStatusOpen    = "open"
	JobStatusMatched = "matched"
	JobStatusClosed  = "closed"
)

// ValidTradeType reports whether t is a known trade-type category.
func ValidTradeType(t string) bool {
	for _, v := range TradeTypes {
		if v == t {
			return true
		}
	}
	return false
}

// ValidUrgency reports whether u is a known urgency level.
func ValidUrgency(u string) bool {
	switch u {
	case UrgencyEmergency, UrgencyUrgent, UrgencyStandard, UrgencyFlexible:
		return true
	}
	return false
}

// Job is a client's request for work.
type Job struct {
	JobID       uuid.UUID `gorm:"column:job_id;type:uuid;primaryKey" json:"job_id"`
	ClientID    uuid.UUID `gorm:"column:client_id;type:uuid;not null;index" json:"client_id"`
	TradeType   string    `gorm:"column:trade_type;type:varchar(20);not null" json:"trade_type"`
	Description string    `gorm:"column:description;not null" json:"description"`
	Location    string    `gorm:"column:location;not null" json:"location"`
	Urgency     string    `gorm:"column:urgency;type:varchar(10);not null" json:"urgency"`
	Status      string    `gorm:"column:status;type:varchar(10);default:'open'" json:"status"`
	CreatedAt   time.Time `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Job) TableName() string {
	return "Jobs"
}

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.JobID == uuid.Nil {
		j.JobID = uuid.New()
	}
	return nil
}
