package storecredit

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pontodigital/pdv-backend/pkg/db/models"
)

// Repository handles store-credit ledger persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Append(ctx context.Context, entry *models.StoreCreditEntry) error
	BalanceByDocument(ctx context.Context, document string) (uuid.UUID, decimal.Decimal, error)
	BalanceByCustomerID(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Append(ctx context.Context, entry *models.StoreCreditEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

type balanceRow struct {
	CustomerID uuid.UUID
	Balance    decimal.Decimal
}

func (r *repository) BalanceByDocument(ctx context.Context, document string) (uuid.UUID, decimal.Decimal, error) {
	var row balanceRow
	err := r.db.WithContext(ctx).
		Model(&models.StoreCreditEntry{}).
		Select("customer_id, COALESCE(SUM(CASE WHEN direction = ? THEN amount ELSE -amount END), 0) AS balance",
			models.StoreCreditDirectionCredit).
		Where("customer_document = ?", document).
		Group("customer_id").
		Take(&row).Error
	if err != nil {
		return uuid.Nil, decimal.Zero, err
	}
	return row.CustomerID, row.Balance, nil
}

func (r *repository) BalanceByCustomerID(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error) {
	var row balanceRow
	err := r.db.WithContext(ctx).
		Model(&models.StoreCreditEntry{}).
		Select("customer_id, COALESCE(SUM(CASE WHEN direction = ? THEN amount ELSE -amount END), 0) AS balance",
			models.StoreCreditDirectionCredit).
		Where("customer_id = ?", customerID).
		Group("customer_id").
		Take(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Balance, nil
}
