package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/salonflow/backend/pkg/enums"
)

// Appointment blocks a staff member for [BlockedStartAt, EndAt). The travel
// buffer extends the blocked window backwards from StartAt without changing
// the visible duration.
type Appointment struct {
	ID               uuid.UUID               `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ClientID         uuid.UUID               `gorm:"column:client_id;type:uuid;not null" json:"client_id"`
	StaffID          uuid.UUID               `gorm:"column:staff_id;type:uuid;not null;index" json:"staff_id"`
	StartAt          time.Time               `gorm:"column:start_at;not null" json:"start_at"`
	EndAt            time.Time               `gorm:"column:end_at;not null" json:"end_at"`
	BlockedStartAt   time.Time               `gorm:"column:blocked_start_at;not null" json:"blocked_start_at"`
	TravelBufferMin  int                     `gorm:"column:travel_buffer_min;not null;default:0" json:"travel_buffer_min"`
	Total            decimal.Decimal         `gorm:"column:total;type:numeric(10,2);not null" json:"total"`
	PaidTotal        decimal.Decimal         `gorm:"column:paid_total;type:numeric(10,2);not null;default:0" json:"paid_total"`
	Status           enums.AppointmentStatus `gorm:"column:status;type:text;not null;default:'pending'" json:"status"`
	PaymentStatus    enums.PaymentStatus     `gorm:"column:payment_status;type:text;not null;default:'pending'" json:"payment_status"`
	Items            []AppointmentItem       `gorm:"foreignKey:AppointmentID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt        time.Time               `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time               `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
