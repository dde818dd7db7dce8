package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/salonflow/backend/pkg/enums"
)

// Staff is a bookable resource. The personnel system owns these rows; the
// scheduling and sales cores only read them.
type Staff struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name      string          `gorm:"column:name;not null" json:"name"`
	Role      enums.StaffRole `gorm:"column:role;type:text;not null;default:'stylist'" json:"role"`
	Active    bool            `gorm:"column:active;not null;default:true" json:"active"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (s *Staff) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
