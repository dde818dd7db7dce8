package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/salonflow/backend/pkg/db/models"
	"github.com/salonflow/backend/pkg/enums"
	pkgerrors "github.com/salonflow/backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service appends payments and keeps the order headers' payment projection
// consistent with the ledger.
type Service interface {
	RecordSalePayment(ctx context.Context, input RecordPaymentInput) (*PaymentResult, error)
	RecordAppointmentPayment(ctx context.Context, input RecordPaymentInput) (*PaymentResult, error)
	ListForSale(ctx context.Context, saleID uuid.UUID) ([]models.Payment, error)
	ListForAppointment(ctx context.Context, appointmentID uuid.UUID) ([]models.Payment, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds a payments service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) RecordSalePayment(ctx context.Context, input RecordPaymentInput) (*PaymentResult, error) {
	return s.record(ctx, enums.OrderKindSale, input)
}

func (s *service) RecordAppointmentPayment(ctx context.Context, input RecordPaymentInput) (*PaymentResult, error) {
	return s.record(ctx, enums.OrderKindAppointment, input)
}

func (s *service) ListForSale(ctx context.Context, saleID uuid.UUID) ([]models.Payment, error) {
	return s.list(ctx, enums.OrderKindSale, saleID)
}

func (s *service) ListForAppointment(ctx context.Context, appointmentID uuid.UUID) ([]models.Payment, error) {
	return s.list(ctx, enums.OrderKindAppointment, appointmentID)
}

func (s *service) record(ctx context.Context, kind enums.OrderKind, input RecordPaymentInput) (*PaymentResult, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}
	method := input.Method
	if method == "" {
		method = enums.PaymentMethodCash
	}
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	var result *PaymentResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		total, err := s.lockOrder(ctx, repo, kind, input.OrderID)
		if err != nil {
			return err
		}

		payment, err := repo.CreatePayment(ctx, &models.Payment{
			OrderKind: kind,
			OrderID:   input.OrderID,
			Amount:    input.Amount,
			Method:    method,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append payment")
		}

		// the projection is always recomputed from the ledger rows, never
		// incremented in place
		entries, err := repo.ListByOrder(ctx, kind, input.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
		}
		paidTotal := decimal.Zero
		for _, entry := range entries {
			paidTotal = paidTotal.Add(entry.Amount)
		}
		status := DerivePaymentStatus(paidTotal, total)

		if err := s.writeProjection(ctx, repo, kind, input.OrderID, paidTotal, status); err != nil {
			return err
		}

		result = &PaymentResult{
			Payment:       payment,
			Total:         total,
			PaidTotal:     paidTotal,
			PaymentStatus: status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) list(ctx context.Context, kind enums.OrderKind, orderID uuid.UUID) ([]models.Payment, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	entries, err := s.repo.ListByOrder(ctx, kind, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	return entries, nil
}

// lockOrder pins the order header for the transaction and returns its total.
func (s *service) lockOrder(ctx context.Context, repo Repository, kind enums.OrderKind, orderID uuid.UUID) (decimal.Decimal, error) {
	switch kind {
	case enums.OrderKindSale:
		sale, err := repo.FindSaleForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
			}
			return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale")
		}
		return sale.Total, nil
	case enums.OrderKindAppointment:
		appt, err := repo.FindAppointmentForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "appointment not found")
			}
			return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load appointment")
		}
		return appt.Total, nil
	default:
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "invalid order kind")
	}
}

func (s *service) writeProjection(ctx context.Context, repo Repository, kind enums.OrderKind, orderID uuid.UUID, paidTotal decimal.Decimal, status enums.PaymentStatus) error {
	var err error
	switch kind {
	case enums.OrderKindSale:
		err = repo.UpdateSalePaymentState(ctx, orderID, paidTotal, status)
	case enums.OrderKindAppointment:
		err = repo.UpdateAppointmentPaymentState(ctx, orderID, paidTotal, status)
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment projection")
	}
	return nil
}

// DerivePaymentStatus maps a paid total onto the order's payment status.
// Overpayment still reads as paid.
func DerivePaymentStatus(paidTotal, total decimal.Decimal) enums.PaymentStatus {
	switch {
	case total.IsPositive() && paidTotal.GreaterThanOrEqual(total):
		return enums.PaymentStatusPaid
	case paidTotal.IsPositive():
		return enums.PaymentStatusPartial
	default:
		return enums.PaymentStatusPending
	}
}
