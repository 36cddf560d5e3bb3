package products

import (
	"context"

	"gorm.io/gorm"

	"github.com/pontodigital/pdv-backend/pkg/db/models"
)

// Repository handles catalog persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByBarcode(ctx context.Context, barcode string) (*models.Product, error)
	FindByInternalCode(ctx context.Context, internalCode string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Where("barcode = ? AND is_active", barcode).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindByInternalCode(ctx context.Context, internalCode string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Where("internal_code = ? AND is_active", internalCode).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}
