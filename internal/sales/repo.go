package sales

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/salonflow/backend/pkg/db"
	"github.com/salonflow/backend/pkg/db/models"
)

// Repository persists sales and mutates product stock.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateSale(ctx context.Context, sale *models.Sale) (*models.Sale, error)
	FindSaleByID(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	ListSales(ctx context.Context, filter ListFilter) ([]models.Sale, error)
	UpdateSaleHeader(ctx context.Context, sale *models.Sale) error
	ReplaceSaleItems(ctx context.Context, saleID uuid.UUID, items []models.SaleItem) error
	FindProductForUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error)
	DecrementStock(ctx context.Context, productID uuid.UUID, qty int) (int64, error)
	IncrementStock(ctx context.Context, productID uuid.UUID, qty int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a sales repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateSale(ctx context.Context, sale *models.Sale) (*models.Sale, error) {
	if err := r.db.WithContext(ctx).Create(sale).Error; err != nil {
		return nil, err
	}
	return sale, nil
}

func (r *repository) FindSaleByID(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&sale).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *repository) ListSales(ctx context.Context, filter ListFilter) ([]models.Sale, error) {
	query := r.db.WithContext(ctx).Model(&models.Sale{}).Preload("Items")

	if filter.StaffID != nil {
		query = query.Where("staff_id = ?", *filter.StaffID)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var sales []models.Sale
	if err := query.Order("created_at DESC").Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

func (r *repository) UpdateSaleHeader(ctx context.Context, sale *models.Sale) error {
	return r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Where("id = ?", sale.ID).
		Updates(map[string]any{
			"client_id": sale.ClientID,
			"staff_id":  sale.StaffID,
			"total":     sale.Total,
		}).Error
}

func (r *repository) ReplaceSaleItems(ctx context.Context, saleID uuid.UUID, items []models.SaleItem) error {
	if err := r.db.WithContext(ctx).
		Where("sale_id = ?", saleID).
		Delete(&models.SaleItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].ID = uuid.Nil
		items[i].SaleID = saleID
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

// FindProductForUpdate loads a product and locks its row for the surrounding
// transaction so concurrent reservations serialize.
func (r *repository) FindProductForUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	query := r.db.WithContext(ctx).Where("id = ?", id)
	if db.SupportsRowLocks(r.db.Dialector.Name()) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var product models.Product
	if err := query.First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// DecrementStock subtracts qty only when enough stock remains. A zero row
// count means the guard rejected the reservation.
func (r *repository) DecrementStock(ctx context.Context, productID uuid.UUID, qty int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	return result.RowsAffected, result.Error
}

func (r *repository) IncrementStock(ctx context.Context, productID uuid.UUID, qty int) error {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("product vanished while restoring stock")
	}
	return nil
}
