package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockItem records on-hand quantity for a (product, size, fabric)
// combination. The pricing core only reads it to annotate express-delivery
// eligibility; it never blocks checkout.
type StockItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_stock_product_size_fabric"`
	SizeCm    int       `gorm:"column:size_cm;not null;uniqueIndex:idx_stock_product_size_fabric"`
	FabricID  uuid.UUID `gorm:"column:fabric_id;type:uuid;not null;uniqueIndex:idx_stock_product_size_fabric"`
	OnHandQty int       `gorm:"column:on_hand_qty;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *StockItem) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
