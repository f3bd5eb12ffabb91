package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeaturedDiscountMap maps product ids to a site-wide featured discount
// percentage, orthogonal to row-level discounts.
type FeaturedDiscountMap map[uuid.UUID]decimal.Decimal

// SiteConfig is the singleton row of global storefront configuration read by
// the pricing engine. A nil ActiveProductIDs means every active product is
// sellable; a non-nil slice is an admin-curated whitelist.
type SiteConfig struct {
	ID                 int                 `gorm:"column:id;primaryKey"`
	ActiveProductIDs   *[]uuid.UUID        `gorm:"column:active_product_ids;type:jsonb;serializer:json"`
	FeaturedDiscounts  FeaturedDiscountMap `gorm:"column:featured_discounts;type:jsonb;serializer:json"`
	CurrentPriceListID *uuid.UUID          `gorm:"column:current_price_list_id;type:uuid"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *SiteConfig) TableName() string {
	return "site_config"
}
