package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/salonflow/backend/pkg/db/models"
)

// SaleItemInput is one requested product line. The unit price is the
// caller-declared price to record, not the catalog price, so per-sale
// overrides are honored.
type SaleItemInput struct {
	ProductID uuid.UUID
	Qty       int
	UnitPrice decimal.Decimal
}

// CreateSaleInput captures a sale before stock reservation.
type CreateSaleInput struct {
	ClientID uuid.UUID
	StaffID  uuid.UUID
	Items    []SaleItemInput
}

// UpdateSaleInput replaces a sale's line items wholesale. Stock held by the
// previous lines is returned before the new lines reserve again.
type UpdateSaleInput struct {
	SaleID   uuid.UUID
	ClientID uuid.UUID
	StaffID  uuid.UUID
	Items    []SaleItemInput
}

// LowStockWarning flags a product that dropped to or below its minimum after
// a reservation. Warnings never block the sale.
type LowStockWarning struct {
	ProductID    uuid.UUID `json:"product_id"`
	Name         string    `json:"name"`
	CurrentStock int       `json:"current_stock"`
	StockMin     int       `json:"stock_min"`
}

// SaleResult pairs the persisted sale with any low stock warnings raised
// while reserving.
type SaleResult struct {
	Sale     *models.Sale
	Warnings []LowStockWarning
}

// ListFilter narrows sale listings.
type ListFilter struct {
	StaffID *uuid.UUID
	From    *time.Time
	To      *time.Time
	Limit   int
	Offset  int
}

// InsufficientStockDetails explains a rejected reservation.
type InsufficientStockDetails struct {
	ProductID uuid.UUID `json:"product_id"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}
