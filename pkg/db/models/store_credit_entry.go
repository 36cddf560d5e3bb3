package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StoreCreditDirection marks whether an entry adds to or consumes a
// customer balance.
type StoreCreditDirection string

const (
	StoreCreditDirectionCredit StoreCreditDirection = "credit"
	StoreCreditDirectionDebit  StoreCreditDirection = "debit"
)

// StoreCreditEntry records an immutable store-credit ledger movement. A
// customer's balance is the sum of credits minus debits.
type StoreCreditEntry struct {
	ID               uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID       uuid.UUID            `gorm:"column:customer_id;type:uuid;index;not null"`
	CustomerDocument string               `gorm:"column:customer_document;index;not null"`
	Direction        StoreCreditDirection `gorm:"column:direction;not null"`
	Amount           decimal.Decimal      `gorm:"column:amount;type:numeric(12,2);not null"`
	// Reference ties a debit to the sale it paid for.
	Reference *string   `gorm:"column:reference"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
