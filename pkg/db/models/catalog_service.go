package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CatalogService is a bookable service offering. The catalog system owns
// these rows; the resolver only reads duration and active state.
type CatalogService struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name            string          `gorm:"column:name;not null" json:"name"`
	DurationMinutes int             `gorm:"column:duration_minutes;not null" json:"duration_minutes"`
	Price           decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null" json:"price"`
	Active          bool            `gorm:"column:active;not null;default:true" json:"active"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (s *CatalogService) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
