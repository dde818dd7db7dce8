package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/salonflow/backend/pkg/enums"
)

// Sale is a product order header. The total is always recomputed from line
// items at write time.
type Sale struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ClientID      uuid.UUID           `gorm:"column:client_id;type:uuid;not null" json:"client_id"`
	StaffID       uuid.UUID           `gorm:"column:staff_id;type:uuid;not null" json:"staff_id"`
	Total         decimal.Decimal     `gorm:"column:total;type:numeric(10,2);not null" json:"total"`
	PaidTotal     decimal.Decimal     `gorm:"column:paid_total;type:numeric(10,2);not null;default:0" json:"paid_total"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'" json:"payment_status"`
	Items         []SaleItem          `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (s *Sale) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
