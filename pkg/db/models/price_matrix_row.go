package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PriceMatrixRow holds one price per fabric-grade bucket for a
// (product, size) combination. A null PriceListID means the general list.
// At most one row exists per (product_id, size_cm, price_list_id).
//
// Committed order lines capture their own price; this row is never re-read for
// historical orders.
type PriceMatrixRow struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ProductID   uuid.UUID  `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_price_rows_product_size_list"`
	SizeCm      int        `gorm:"column:size_cm;not null;uniqueIndex:idx_price_rows_product_size_list"`
	PriceListID *uuid.UUID `gorm:"column:price_list_id;type:uuid;uniqueIndex:idx_price_rows_product_size_list"`

	Grade1  decimal.Decimal `gorm:"column:grade1_price;type:numeric(12,2);not null"`
	Grade2  decimal.Decimal `gorm:"column:grade2_price;type:numeric(12,2);not null"`
	Grade3  decimal.Decimal `gorm:"column:grade3_price;type:numeric(12,2);not null"`
	Grade4  decimal.Decimal `gorm:"column:grade4_price;type:numeric(12,2);not null"`
	Grade5  decimal.Decimal `gorm:"column:grade5_price;type:numeric(12,2);not null"`
	Grade6  decimal.Decimal `gorm:"column:grade6_price;type:numeric(12,2);not null"`
	Grade7  decimal.Decimal `gorm:"column:grade7_price;type:numeric(12,2);not null"`
	Leather decimal.Decimal `gorm:"column:leather_price;type:numeric(12,2);not null"`

	WidthCm  int `gorm:"column:width_cm;not null;default:0"`
	DepthCm  int `gorm:"column:depth_cm;not null;default:0"`
	HeightCm int `gorm:"column:height_cm;not null;default:0"`

	FabricMeters  decimal.Decimal `gorm:"column:fabric_meters;type:numeric(6,2);not null;default:0"`
	LeatherMeters decimal.Decimal `gorm:"column:leather_meters;type:numeric(6,2);not null;default:0"`

	DiscountPercent *decimal.Decimal `gorm:"column:discount_percent;type:numeric(5,2)"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *PriceMatrixRow) TableName() string {
	return "price_matrix_rows"
}

func (r *PriceMatrixRow) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
