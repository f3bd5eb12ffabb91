package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/arborhaus/arborhaus-backend/pkg/enums"
)

// Order is the immutable snapshot a checkout produces. After creation only
// the status and the two last-seen stamps change.
type Order struct {
	ID     uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Code   string            `gorm:"column:code;not null;uniqueIndex:idx_orders_code"`
	UserID uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	Status enums.OrderStatus `gorm:"column:status;type:text;not null;default:'requested'"`
	Total  decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`

	LastSeenCustomerAt *time.Time `gorm:"column:last_seen_customer_at"`
	LastSeenStaffAt    *time.Time `gorm:"column:last_seen_staff_at"`

	Lines     []OrderLine          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	History   []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Messages  []OrderMessage       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
