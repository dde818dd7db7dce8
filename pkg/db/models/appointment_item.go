package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AppointmentItem records one booked service with the price applied at
// booking time. The set is replaced wholesale on appointment updates.
type AppointmentItem struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	AppointmentID uuid.UUID       `gorm:"column:appointment_id;type:uuid;not null;index" json:"appointment_id"`
	ServiceID     uuid.UUID       `gorm:"column:service_id;type:uuid;not null" json:"service_id"`
	AppliedPrice  decimal.Decimal `gorm:"column:applied_price;type:numeric(10,2);not null" json:"applied_price"`
}

func (i *AppointmentItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
