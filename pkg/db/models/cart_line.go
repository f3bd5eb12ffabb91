package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartLine references a (product, size, fabric) combination and carries the
// price snapshot taken when the line was added or last reconciled.
type CartLine struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	CartID           uuid.UUID       `gorm:"column:cart_id;type:uuid;not null;index"`
	ProductID        uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	SizeCm           int             `gorm:"column:size_cm;not null"`
	FabricID         uuid.UUID       `gorm:"column:fabric_id;type:uuid;not null"`
	Quantity         int             `gorm:"column:quantity;not null"`
	PreviewUnitPrice decimal.Decimal `gorm:"column:preview_unit_price;type:numeric(12,2);not null"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (l *CartLine) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
