package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/salonflow/backend/internal/staff"
	"github.com/salonflow/backend/pkg/db/models"
	"github.com/salonflow/backend/pkg/enums"
	pkgerrors "github.com/salonflow/backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the sale operations.
type Service interface {
	Create(ctx context.Context, input CreateSaleInput) (*SaleResult, error)
	Update(ctx context.Context, input UpdateSaleInput) (*SaleResult, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	List(ctx context.Context, filter ListFilter) ([]models.Sale, error)
}

type service struct {
	repo  Repository
	staff staff.Repository
	tx    txRunner
}

// NewService builds a sales service with the required dependencies.
func NewService(repo Repository, staffRepo staff.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if staffRepo == nil {
		return nil, fmt.Errorf("staff repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, staff: staffRepo, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, input CreateSaleInput) (*SaleResult, error) {
	if err := validateSaleFields(input.ClientID, input.StaffID, input.Items); err != nil {
		return nil, err
	}

	var result *SaleResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if err := s.checkStaffCanSell(ctx, tx, input.StaffID); err != nil {
			return err
		}

		lines, total, warnings, err := s.reserveLines(ctx, repo, input.Items)
		if err != nil {
			return err
		}

		sale := &models.Sale{
			ClientID:      input.ClientID,
			StaffID:       input.StaffID,
			Total:         total,
			PaidTotal:     decimal.Zero,
			PaymentStatus: enums.PaymentStatusPending,
			Items:         lines,
		}
		created, err := repo.CreateSale(ctx, sale)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sale")
		}

		result = &SaleResult{Sale: created, Warnings: warnings}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Update(ctx context.Context, input UpdateSaleInput) (*SaleResult, error) {
	if input.SaleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale id required")
	}
	if err := validateSaleFields(input.ClientID, input.StaffID, input.Items); err != nil {
		return nil, err
	}

	var result *SaleResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindSaleByID(ctx, input.SaleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale")
		}
		if existing.PaidTotal.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeConflict, "sale with recorded payments cannot be modified")
		}

		if err := s.checkStaffCanSell(ctx, tx, input.StaffID); err != nil {
			return err
		}

		// return the stock held by the old lines before reserving again so
		// an unchanged line does not compete with itself
		for _, item := range existing.Items {
			if err := repo.IncrementStock(ctx, item.ProductID, item.Qty); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
			}
		}

		lines, total, warnings, err := s.reserveLines(ctx, repo, input.Items)
		if err != nil {
			return err
		}

		existing.ClientID = input.ClientID
		existing.StaffID = input.StaffID
		existing.Total = total

		if err := repo.UpdateSaleHeader(ctx, existing); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update sale")
		}
		if err := repo.ReplaceSaleItems(ctx, existing.ID, lines); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace sale items")
		}

		reloaded, err := repo.FindSaleByID(ctx, existing.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload sale")
		}
		result = &SaleResult{Sale: reloaded, Warnings: warnings}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale id required")
	}
	sale, err := s.repo.FindSaleByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale")
	}
	return sale, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Sale, error) {
	sales, err := s.repo.ListSales(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sales")
	}
	return sales, nil
}

// reserveLines locks each product, applies the guarded decrement and records
// the declared unit price. Any failure aborts the surrounding transaction so
// stock already taken in this loop is rolled back with it.
func (s *service) reserveLines(ctx context.Context, repo Repository, items []SaleItemInput) ([]models.SaleItem, decimal.Decimal, []LowStockWarning, error) {
	lines := make([]models.SaleItem, 0, len(items))
	warnings := make([]LowStockWarning, 0)
	total := decimal.Zero

	for _, item := range items {
		if item.ProductID == uuid.Nil {
			return nil, decimal.Zero, nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		if item.Qty <= 0 {
			return nil, decimal.Zero, nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		if item.UnitPrice.IsNegative() {
			return nil, decimal.Zero, nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
		}

		product, err := repo.FindProductForUpdate(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, decimal.Zero, nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
					WithDetails(map[string]any{"product_id": item.ProductID})
			}
			return nil, decimal.Zero, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if !product.Active {
			return nil, decimal.Zero, nil, pkgerrors.New(pkgerrors.CodeConflict, "product is inactive").
				WithDetails(map[string]any{"product_id": product.ID})
		}

		rows, err := repo.DecrementStock(ctx, product.ID, item.Qty)
		if err != nil {
			return nil, decimal.Zero, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
		}
		if rows == 0 {
			return nil, decimal.Zero, nil, pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
				WithDetails(InsufficientStockDetails{
					ProductID: product.ID,
					Requested: item.Qty,
					Available: product.Stock,
				})
		}

		remaining := product.Stock - item.Qty
		if remaining <= product.StockMin {
			warnings = append(warnings, LowStockWarning{
				ProductID:    product.ID,
				Name:         product.Name,
				CurrentStock: remaining,
				StockMin:     product.StockMin,
			})
		}

		lineTotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Qty)))
		total = total.Add(lineTotal)
		lines = append(lines, models.SaleItem{
			ProductID: product.ID,
			Qty:       item.Qty,
			UnitPrice: item.UnitPrice,
		})
	}

	return lines, total, warnings, nil
}

func validateSaleFields(clientID, staffID uuid.UUID, items []SaleItemInput) error {
	if clientID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "client id required")
	}
	if staffID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "staff id required")
	}
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one line item is required")
	}
	return nil
}

func (s *service) checkStaffCanSell(ctx context.Context, tx *gorm.DB, staffID uuid.UUID) error {
	member, err := s.staff.WithTx(tx).FindByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "staff does not exist")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load staff")
	}
	if !member.Active {
		return pkgerrors.New(pkgerrors.CodeValidation, "staff is inactive")
	}
	if !member.Role.CanSell() {
		return pkgerrors.New(pkgerrors.CodeValidation, "staff role cannot register sales")
	}
	return nil
}
