package payments

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/salonflow/backend/pkg/db"
	"github.com/salonflow/backend/pkg/db/models"
	"github.com/salonflow/backend/pkg/enums"
)

// Repository appends ledger entries and projects them onto order headers.
// Payment rows are insert-only; there is deliberately no update or delete.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	ListByOrder(ctx context.Context, kind enums.OrderKind, orderID uuid.UUID) ([]models.Payment, error)
	FindSaleForUpdate(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	FindAppointmentForUpdate(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	UpdateSalePaymentState(ctx context.Context, id uuid.UUID, paidTotal decimal.Decimal, status enums.PaymentStatus) error
	UpdateAppointmentPaymentState(ctx context.Context, id uuid.UUID, paidTotal decimal.Decimal, status enums.PaymentStatus) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		return nil, err
	}
	return payment, nil
}

func (r *repository) ListByOrder(ctx context.Context, kind enums.OrderKind, orderID uuid.UUID) ([]models.Payment, error) {
	var entries []models.Payment
	err := r.db.WithContext(ctx).
		Where("order_kind = ? AND order_id = ?", kind, orderID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) FindSaleForUpdate(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	query := r.db.WithContext(ctx).Where("id = ?", id)
	if db.SupportsRowLocks(r.db.Dialector.Name()) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var sale models.Sale
	if err := query.First(&sale).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *repository) FindAppointmentForUpdate(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	query := r.db.WithContext(ctx).Where("id = ?", id)
	if db.SupportsRowLocks(r.db.Dialector.Name()) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var appt models.Appointment
	if err := query.First(&appt).Error; err != nil {
		return nil, err
	}
	return &appt, nil
}

func (r *repository) UpdateSalePaymentState(ctx context.Context, id uuid.UUID, paidTotal decimal.Decimal, status enums.PaymentStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"paid_total":     paidTotal,
			"payment_status": status,
		}).Error
}

func (r *repository) UpdateAppointmentPaymentState(ctx context.Context, id uuid.UUID, paidTotal decimal.Decimal, status enums.PaymentStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"paid_total":     paidTotal,
			"payment_status": status,
		}).Error
}
