package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification is a persisted outbound event, kept so the UI can show an
// inbox and external senders (WhatsApp/SMS/email workers) can be audited.
type Notification struct {
	NotificationID uuid.UUID      `gorm:"column:notification_id;type:uuid;primaryKey" json:"notification_id"`
	AccountID      uuid.UUID      `gorm:"column:account_id;type:uuid;not null;index" json:"account_id"`
	EventType      string         `gorm:"column:event_type;type:varchar(30);not null" json:"event_type"`
	Payload        datatypes.JSON `gorm:"column:payload;type:json" json:"payload"`
	Read           bool           `gorm:"column:read;default:false" json:"read"`
	CreatedAt      time.Time      `gorm:"column:createdAt" json:"createdAt"`
}

func (Notification) TableName() string {
	return "Notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.NotificationID == uuid.Nil {
		n.NotificationID = uuid.New()
	}
	return nil
}
