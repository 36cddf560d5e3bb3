package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is one catalog row. InternalCode is the short numeric code scale
// labels embed; Barcode is the full EAN printed on packaged goods.
type Product struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Barcode      string          `gorm:"column:barcode;uniqueIndex;not null"`
	InternalCode string          `gorm:"column:internal_code;index;not null"`
	Description  string          `gorm:"column:description;not null"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	// Unit is "un" for counted items and "kg" for weighed items.
	Unit      string    `gorm:"column:unit;not null;default:un"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
