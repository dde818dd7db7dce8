package sales

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/salonflow/backend/internal/staff"
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

type fixture struct {
	db      *gorm.DB
	svc     Service
	seller  models.Staff
	shampoo models.Product
	wax     models.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := "file:sales_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Staff{},
		&models.Product{},
		&models.Sale{},
		&models.SaleItem{},
	))

	svc, err := NewService(NewRepository(db), staff.NewRepository(db), testTxRunner{db: db})
	require.NoError(t, err)

	f := &fixture{
		db:  db,
		svc: svc,
		seller: models.Staff{
			Name:   "Desk",
			Role:   enums.StaffRoleFrontDesk,
			Active: true,
		},
		shampoo: models.Product{
			Name:     "Shampoo 500ml",
			Price:    decimal.NewFromFloat(12.50),
			Stock:    12,
			StockMin: 5,
			Active:   true,
		},
		wax: models.Product{
			Name:     "Styling Wax",
			Price:    decimal.NewFromFloat(9.90),
			Stock:    3,
			StockMin: 5,
			Active:   true,
		},
	}
	require.NoError(t, db.Create(&f.seller).Error)
	require.NoError(t, db.Create(&f.shampoo).Error)
	require.NoError(t, db.Create(&f.wax).Error)
	return f
}

// item declares a line at the product's catalog price, the common case.
func item(p models.Product, qty int) SaleItemInput {
	return SaleItemInput{ProductID: p.ID, Qty: qty, UnitPrice: p.Price}
}

func (f *fixture) stockOf(t *testing.T, id uuid.UUID) int {
	t.Helper()
	var product models.Product
	require.NoError(t, f.db.First(&product, "id = ?", id).Error)
	return product.Stock
}

func TestCreateSale_ReservesStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.svc.Create(ctx, CreateSaleInput{
		ClientID: uuid.New(),
		StaffID:  f.seller.ID,
		Items:    []SaleItemInput{item(f.shampoo, 5)},
	})
	require.NoError(t, err)

	assert.Equal(t, 7, f.stockOf(t, f.shampoo.ID))
	assert.True(t, result.Sale.Total.Equal(decimal.NewFromFloat(62.50)), "total %s", result.Sale.Total)
	assert.Equal(t, enums.PaymentStatusPending, result.Sale.PaymentStatus)
	require.Len(t, result.Sale.Items, 1)
	assert.True(t, result.Sale.Items[0].UnitPrice.Equal(f.shampoo.Price))
	assert.Empty(t, result.Warnings)
}

func TestCreateSale_UnitPriceOverridesCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	discounted := decimal.NewFromFloat(10.00)
	result, err := f.svc.Create(ctx, CreateSaleInput{
		ClientID: uuid.New(),
		StaffID:  f.seller.ID,
		Items: []SaleItemInput{{
			ProductID: f.shampoo.ID,
			Qty:       2,
			UnitPrice: discounted,
		}},
	})
	require.NoError(t, err)

	assert.True(t, result.Sale.Total.Equal(decimal.NewFromFloat(20.00)), "total %s", result.Sale.Total)
	require.Len(t, result.Sale.Items, 1)
	assert.True(t, result.Sale.Items[0].UnitPrice.Equal(discounted))
}

func TestCreateSale_LowStockWarning(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.svc.Create(ctx, CreateSaleInput{
		ClientID: uuid.New(),
		StaffID:  f.seller.ID,
		Items:    []SaleItemInput{item(f.shampoo, 8)},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, f.stockOf(t, f.shampoo.ID))
	require.Len(t, result.Warnings, 1)
	warning := result.Warnings[0]
	assert.Equal(t, f.shampoo.ID, warning.ProductID)
	assert.Equal(t, 4, warning.CurrentStock)
	assert.Equal(t, 5, warning.StockMin)
}

func TestCreateSale_InsufficientStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateSaleInput{
		ClientID: uuid.New(),
		StaffID:  f.seller.ID,
		Items:    []SaleItemInput{item(f.wax, 4)},
	})
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())

	details, ok := typed.Details().(InsufficientStockDetails)
	require.True(t, ok, "expected stock details, got %T", typed.Details())
	assert.Equal(t, f.wax.ID, details.ProductID)
	assert.Equal(t, 4, details.Requested)
	assert.Equal(t, 3, details.Available)

	// the rejected sale must leave stock untouched
	assert.Equal(t, 3, f.stockOf(t, f.wax.ID))
}

func TestCreateSale_PartialFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateSaleInput{
		ClientID: uuid.New(),
		StaffID:  f.seller.ID,
		Items: []SaleItemInput{
			item(f.shampoo, 2),
			item(f.wax, 10),
		},
	})
	require.Error(t, err)

	assert.Equal(t, 12, f.stockOf(t, f.shampoo.ID))
	assert.Equal(t, 3, f.stockOf(t, f.wax.ID))

	var count int64
	require.NoError(t, f.db.Model(&models.Sale{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateSale_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateSaleInput
		code  pkgerrors.Code
	}{
		{
			name:  "no items",
			input: CreateSaleInput{ClientID: uuid.New(), StaffID: f.seller.ID},
			code:  pkgerrors.CodeValidation,
		},
		{
			name: "zero quantity",
			input: CreateSaleInput{
				ClientID: uuid.New(),
				StaffID:  f.seller.ID,
				Items:    []SaleItemInput{item(f.shampoo, 0)},
			},
			code: pkgerrors.CodeValidation,
		},
		{
			name: "negative unit price",
			input: CreateSaleInput{
				ClientID: uuid.New(),
				StaffID:  f.seller.ID,
				Items: []SaleItemInput{{
					ProductID: f.shampoo.ID,
					Qty:       1,
					UnitPrice: decimal.NewFromFloat(-1.00),
				}},
			},
			code: pkgerrors.CodeValidation,
		},
		{
			name: "unknown product",
			input: CreateSaleInput{
				ClientID: uuid.New(),
				StaffID:  f.seller.ID,
				Items: []SaleItemInput{{
					ProductID: uuid.New(),
					Qty:       1,
					UnitPrice: decimal.NewFromFloat(5.00),
				}},
			},
			code: pkgerrors.CodeNotFound,
		},
		{
			name: "unknown staff",
			input: CreateSaleInput{
				ClientID: uuid.New(),
				StaffID:  uuid.New(),
				Items:    []SaleItemInput{item(f.shampoo, 1)},
			},
			code: pkgerrors.CodeValidation,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tc.input)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, tc.code, typed.Code())
		})
	}
}

func TestCreateSale_InactiveProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	discontinued := models.Product{
		Name:   "Old Pomade",
		Price:  decimal.NewFromFloat(5.00),
		Stock:  10,
		Active: false,
	}
	require.NoError(t, f.db.Create(&discontinued).Error)

	_, err := f.svc.Create(ctx, CreateSaleInput{
		ClientID: uuid.New(),
		StaffID:  f.seller.ID,
		Items:    []SaleItemInput{item(discontinued, 1)},
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestUpdateSale_RestoresAndReReserves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, CreateSaleInput{
		ClientID: uuid.New(),
		StaffID:  f.seller.ID,
		Items:    []SaleItemInput{item(f.shampoo, 5)},
	})
	require.NoError(t, err)
	require.Equal(t, 7, f.stockOf(t, f.shampoo.ID))

	result, err := f.svc.Update(ctx, UpdateSaleInput{
		SaleID:   created.Sale.ID,
		ClientID: created.Sale.ClientID,
		StaffID:  f.seller.ID,
		Items:    []SaleItemInput{item(f.shampoo, 3)},
	})
	require.NoError(t, err)

	// 12 back in the pool, 3 taken again
	assert.Equal(t, 9, f.stockOf(t, f.shampoo.ID))
	assert.True(t, result.Sale.Total.Equal(decimal.NewFromFloat(37.50)), "total %s", result.Sale.Total)
	require.Len(t, result.Sale.Items, 1)
	assert.Equal(t, 3, result.Sale.Items[0].Qty)
}

func TestUpdateSale_FailureRestoresNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, CreateSaleInput{
		ClientID: uuid.New(),
		StaffID:  f.seller.ID,
		Items:    []SaleItemInput{item(f.shampoo, 5)},
	})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, UpdateSaleInput{
		SaleID:   created.Sale.ID,
		ClientID: created.Sale.ClientID,
		StaffID:  f.seller.ID,
		Items:    []SaleItemInput{item(f.shampoo, 50)},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())

	// rollback leaves the original reservation in place
	assert.Equal(t, 7, f.stockOf(t, f.shampoo.ID))

	sale, err := f.svc.Get(ctx, created.Sale.ID)
	require.NoError(t, err)
	require.Len(t, sale.Items, 1)
	assert.Equal(t, 5, sale.Items[0].Qty)
}

func TestUpdateSale_PaidSaleIsLocked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, CreateSaleInput{
		ClientID: uuid.New(),
		StaffID:  f.seller.ID,
		Items:    []SaleItemInput{item(f.shampoo, 1)},
	})
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&models.Sale{}).
		Where("id = ?", created.Sale.ID).
		Updates(map[string]any{
			"paid_total":     decimal.NewFromFloat(12.50),
			"payment_status": enums.PaymentStatusPaid,
		}).Error)

	_, err = f.svc.Update(ctx, UpdateSaleInput{
		SaleID:   created.Sale.ID,
		ClientID: created.Sale.ClientID,
		StaffID:  f.seller.ID,
		Items:    []SaleItemInput{item(f.shampoo, 2)},
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestUpdateSale_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Update(context.Background(), UpdateSaleInput{
		SaleID:   uuid.New(),
		ClientID: uuid.New(),
		StaffID:  f.seller.ID,
		Items:    []SaleItemInput{item(f.shampoo, 1)},
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
