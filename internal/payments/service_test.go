package payments

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/salonflow/backend/pkg/db/models"
	"github.com/salonflow/backend/pkg/enums"
	pkgerrors "github.com/salonflow/backend/pkg/errors"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx.WithContext(ctx))
	})
}

func newTestService(t *testing.T) (*gorm.DB, Service) {
	t.Helper()

	dsn := "file:payments_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Sale{},
		&models.Appointment{},
		&models.Payment{},
	))

	svc, err := NewService(NewRepository(db), testTxRunner{db: db})
	require.NoError(t, err)
	return db, svc
}

func seedSale(t *testing.T, db *gorm.DB, total float64) *models.Sale {
	t.Helper()
	sale := &models.Sale{
		ClientID:      uuid.New(),
		StaffID:       uuid.New(),
		Total:         decimal.NewFromFloat(total),
		PaidTotal:     decimal.Zero,
		PaymentStatus: enums.PaymentStatusPending,
	}
	require.NoError(t, db.Create(sale).Error)
	return sale
}

func TestRecordSalePayment_PartialThenPaid(t *testing.T) {
	db, svc := newTestService(t)
	ctx := context.Background()
	sale := seedSale(t, db, 100.00)

	first, err := svc.RecordSalePayment(ctx, RecordPaymentInput{
		OrderID: sale.ID,
		Amount:  decimal.NewFromFloat(40.00),
		Method:  enums.PaymentMethodCash,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPartial, first.PaymentStatus)
	assert.True(t, first.Total.Equal(decimal.NewFromFloat(100.00)))
	assert.True(t, first.PaidTotal.Equal(decimal.NewFromFloat(40.00)))

	// the exact remainder flips the projection to paid
	second, err := svc.RecordSalePayment(ctx, RecordPaymentInput{
		OrderID: sale.ID,
		Amount:  decimal.NewFromFloat(60.00),
		Method:  enums.PaymentMethodCard,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, second.PaymentStatus)
	assert.True(t, second.PaidTotal.Equal(decimal.NewFromFloat(100.00)))

	var reloaded models.Sale
	require.NoError(t, db.First(&reloaded, "id = ?", sale.ID).Error)
	assert.Equal(t, enums.PaymentStatusPaid, reloaded.PaymentStatus)
	assert.True(t, reloaded.PaidTotal.Equal(decimal.NewFromFloat(100.00)))
}

func TestRecordSalePayment_OverpaymentReadsPaid(t *testing.T) {
	db, svc := newTestService(t)
	ctx := context.Background()
	sale := seedSale(t, db, 50.00)

	result, err := svc.RecordSalePayment(ctx, RecordPaymentInput{
		OrderID: sale.ID,
		Amount:  decimal.NewFromFloat(80.00),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, result.PaymentStatus)
	assert.True(t, result.Total.Equal(decimal.NewFromFloat(50.00)))
	assert.True(t, result.PaidTotal.Equal(decimal.NewFromFloat(80.00)))
	assert.Equal(t, enums.PaymentMethodCash, result.Payment.Method)
}

func TestRecordSalePayment_Validation(t *testing.T) {
	db, svc := newTestService(t)
	ctx := context.Background()
	sale := seedSale(t, db, 50.00)

	t.Run("zero amount", func(t *testing.T) {
		_, err := svc.RecordSalePayment(ctx, RecordPaymentInput{
			OrderID: sale.ID,
			Amount:  decimal.Zero,
		})
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	})

	t.Run("negative amount", func(t *testing.T) {
		_, err := svc.RecordSalePayment(ctx, RecordPaymentInput{
			OrderID: sale.ID,
			Amount:  decimal.NewFromFloat(-5.00),
		})
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	})

	t.Run("unknown method", func(t *testing.T) {
		_, err := svc.RecordSalePayment(ctx, RecordPaymentInput{
			OrderID: sale.ID,
			Amount:  decimal.NewFromFloat(5.00),
			Method:  enums.PaymentMethod("crypto"),
		})
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	})

	t.Run("unknown sale", func(t *testing.T) {
		_, err := svc.RecordSalePayment(ctx, RecordPaymentInput{
			OrderID: uuid.New(),
			Amount:  decimal.NewFromFloat(5.00),
		})
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	})
}

func TestRecordAppointmentPayment(t *testing.T) {
	db, svc := newTestService(t)
	ctx := context.Background()

	appt := &models.Appointment{
		ClientID:      uuid.New(),
		StaffID:       uuid.New(),
		Total:         decimal.NewFromFloat(40.00),
		PaidTotal:     decimal.Zero,
		Status:        enums.AppointmentStatusCompleted,
		PaymentStatus: enums.PaymentStatusPending,
	}
	require.NoError(t, db.Create(appt).Error)

	result, err := svc.RecordAppointmentPayment(ctx, RecordPaymentInput{
		OrderID: appt.ID,
		Amount:  decimal.NewFromFloat(40.00),
		Method:  enums.PaymentMethodTransfer,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, result.PaymentStatus)

	var reloaded models.Appointment
	require.NoError(t, db.First(&reloaded, "id = ?", appt.ID).Error)
	assert.Equal(t, enums.PaymentStatusPaid, reloaded.PaymentStatus)
	assert.True(t, reloaded.PaidTotal.Equal(decimal.NewFromFloat(40.00)))
}

func TestListForSale_OrderedLedger(t *testing.T) {
	db, svc := newTestService(t)
	ctx := context.Background()
	sale := seedSale(t, db, 30.00)

	for _, amount := range []float64{10, 5, 15} {
		_, err := svc.RecordSalePayment(ctx, RecordPaymentInput{
			OrderID: sale.ID,
			Amount:  decimal.NewFromFloat(amount),
		})
		require.NoError(t, err)
	}

	entries, err := svc.ListForSale(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for _, entry := range entries {
		assert.Equal(t, enums.OrderKindSale, entry.OrderKind)
		assert.Equal(t, sale.ID, entry.OrderID)
	}
}

func TestDerivePaymentStatus(t *testing.T) {
	cases := []struct {
		name  string
		paid  float64
		total float64
		want  enums.PaymentStatus
	}{
		{"nothing paid", 0, 100, enums.PaymentStatusPending},
		{"partial", 40, 100, enums.PaymentStatusPartial},
		{"exact", 100, 100, enums.PaymentStatusPaid},
		{"overpaid", 120, 100, enums.PaymentStatusPaid},
		{"zero total unpaid", 0, 0, enums.PaymentStatusPending},
		{"zero total with payment", 10, 0, enums.PaymentStatusPartial},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DerivePaymentStatus(decimal.NewFromFloat(tc.paid), decimal.NewFromFloat(tc.total))
			assert.Equal(t, tc.want, got)
		})
	}
}
