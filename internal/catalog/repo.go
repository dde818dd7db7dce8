package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/salonflow/backend/pkg/db/models"
)

// Repository exposes catalog reads for the booking resolver. Catalog
// administration lives outside this service.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindServiceByID(ctx context.Context, id uuid.UUID) (*models.CatalogService, error)
	FindServicesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.CatalogService, error)
	ListActiveServices(ctx context.Context) ([]models.CatalogService, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindServiceByID(ctx context.Context, id uuid.UUID) (*models.CatalogService, error) {
	var svc models.CatalogService
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&svc).Error
	if err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *repository) FindServicesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.CatalogService, error) {
	var services []models.CatalogService
	if len(ids) == 0 {
		return services, nil
	}
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&services).Error
	if err != nil {
		return nil, err
	}
	return services, nil
}

func (r *repository) ListActiveServices(ctx context.Context) ([]models.CatalogService, error) {
	var services []models.CatalogService
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("name ASC").
		Find(&services).Error
	if err != nil {
		return nil, err
	}
	return services, nil
}
