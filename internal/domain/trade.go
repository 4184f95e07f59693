package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ServiceList stores the DB json value as string but marshals to JSON as an
// array of trade-type categories, so API responses send ["plumber","hvac"]
// not "[\"plumber\",\"hvac\"]".
type ServiceList string

// MarshalJSON implements json.Marshaler.
func (s ServiceList) MarshalJSON() ([]byte, error) {
	if s == "" {
		return []byte("[]"), nil
	}
	var arr []string
	if err := json.Unmarshal([]byte(s), &arr); err != nil {
		return []byte("[]"), nil
	}
	return json.Marshal(arr)
}

// UnmarshalJSON implements json.Unmarshaler for reading from request body.
func (s *ServiceList) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	bs, err := json.Marshal(arr)
	if err != nil {
		return err
	}
	*s = ServiceList(bs)
	return nil
}

// Scan implements sql.Scanner for reading from DB (json column).
func (s *ServiceList) Scan(value interface{}) error {
	if value == nil {
		*s = ""
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*s = ServiceList(v)
		return nil
	case string:
		*s = ServiceList(v)
		return nil
	default:
		return errors.New("unsupported type for ServiceList")
	}
}

// Value implements driver.Valuer for writing to DB.
func (s ServiceList) Value() (driver.Value, error) {
	if s == "" {
		return "[]", nil
	}
	return string(s), nil
}

// Values returns the decoded category slice.
func (s ServiceList) Values() []string {
	if s == "" {
		return nil
	}
	var arr []string
	if err := json.Unmarshal([]byte(s), &arr); err != nil {
		return nil
	}
	return arr
}

// Contains reports whether the list includes the given trade type.
func (s ServiceList) Contains(tradeType string) bool {
	for _, v := range s.Values() {
		if v == tradeType {
			return true
		}
	}
	return false
}

// NewServiceList builds a ServiceList from a category slice.
func NewServiceList(services []string) ServiceList {
	if len(services) == 0 {
		return "[]"
	}
	bs, _ := json.Marshal(services)
	return ServiceList(bs)
}

// Trade is a registered trade professional. Identity fields are immutable;
// the counters are owned by the allocator: QCCounter counts every lead ever
// allocated (drives quality-control sampling), BonusCounter counts billable
// charges since the last bonus lead, LeadCounter counts billable charges
// ever.
type Trade struct {
	TradeID         uuid.UUID   `gorm:"column:trade_id;type:uuid;primaryKey" json:"trade_id"`
	AccountID       uuid.UUID   `gorm:"column:account_id;type:uuid;not null;index" json:"account_id"`
	CompanyName     string      `gorm:"column:company_name;not null" json:"company_name"`
	ServicesOffered ServiceList `gorm:"column:services_offered;type:json" json:"services_offered"`
	Verified        bool        `gorm:"column:verified;default:false" json:"verified"`
	Rating          float64     `gorm:"column:rating;type:decimal(3,1);default:0" json:"rating"`
	LeadCounter     int         `gorm:"column:lead_counter;not null;default:0" json:"lead_counter"`
	QCCounter       int         `gorm:"column:qc_counter;not null;default:0" json:"qc_counter"`
	BonusCounter    int         `gorm:"column:bonus_counter;not null;default:0" json:"bonus_counter"`
	TradeOfWeek     bool        `gorm:"column:trade_of_week;default:false" json:"trade_of_week"`
	TradeOfWeekEnd  *time.Time  `gorm:"column:trade_of_week_end" json:"trade_of_week_end"`
	CreatedAt       time.Time   `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt       time.Time   `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Trade) TableName() string {
	return "Trades"
}

func (t *Trade) BeforeCreate(tx *gorm.DB) error {
	if t.TradeID == uuid.Nil {
		t.TradeID = uuid.New()
	}
	return nil
}

// TradeOfWeekActive reports whether the trade-of-week bonus applies at now.
// The flag is time-bounded; a set end date in the past disables it.
func (t *Trade) TradeOfWeekActive(now time.Time) bool {
	if !t.TradeOfWeek {
		return false
	}
	if t.TradeOfWeekEnd != nil && now.After(*t.TradeOfWeekEnd) {
		return false
	}
	return true
}
