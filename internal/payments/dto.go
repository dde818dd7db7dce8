package payments

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/salonflow/backend/pkg/db/models"
	"github.com/salonflow/backend/pkg/enums"
)

// RecordPaymentInput appends one ledger entry against an order.
type RecordPaymentInput struct {
	OrderID uuid.UUID
	Amount  decimal.Decimal
	Method  enums.PaymentMethod
}

// PaymentResult returns the appended entry together with the order total and
// the recomputed header projection.
type PaymentResult struct {
	Payment       *models.Payment
	Total         decimal.Decimal
	PaidTotal     decimal.Decimal
	PaymentStatus enums.PaymentStatus
}
