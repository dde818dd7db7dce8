package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/salonflow/backend/pkg/enums"
)

// Payment is an append-only ledger entry against a sale or appointment.
// Rows are never updated or deleted; the parent header's payment state is a
// recomputed projection of these rows.
type Payment struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderKind enums.OrderKind     `gorm:"column:order_kind;type:text;not null;index:idx_payments_order" json:"order_kind"`
	OrderID   uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index:idx_payments_order" json:"order_id"`
	Amount    decimal.Decimal     `gorm:"column:amount;type:numeric(10,2);not null" json:"amount"`
	Method    enums.PaymentMethod `gorm:"column:method;type:text;not null;default:'cash'" json:"method"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
