package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arborhaus/arborhaus-backend/pkg/db/models"
)

// Repository wires together the catalog-side persistence helpers the pricing
// engine reads: fabrics, price matrix rows, stock, and the site config row.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindFabric loads a fabric by id.
func (r *Repository) FindFabric(ctx context.Context, id uuid.UUID) (*models.Fabric, error) {
	var fabric models.Fabric
	if err := r.db.WithContext(ctx).First(&fabric, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &fabric, nil
}

// FindProduct loads a product by id.
func (r *Repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindPriceRow loads the matrix row for (product, size) on the given list.
// A nil priceListID targets the general list.
func (r *Repository) FindPriceRow(ctx context.Context, productID uuid.UUID, sizeCm int, priceListID *uuid.UUID) (*models.PriceMatrixRow, error) {
	q := r.db.WithContext(ctx).Where("product_id = ? AND size_cm = ?", productID, sizeCm)
	if priceListID != nil {
		q = q.Where("price_list_id = ?", *priceListID)
	} else {
		q = q.Where("price_list_id IS NULL")
	}

	var row models.PriceMatrixRow
	if err := q.First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// UpsertPriceRow creates or replaces the row keyed by (product, size, list).
// Written as find-then-save so it behaves the same on Postgres and SQLite.
func (r *Repository) UpsertPriceRow(ctx context.Context, row *models.PriceMatrixRow) (*models.PriceMatrixRow, error) {
	existing, err := r.FindPriceRow(ctx, row.ProductID, row.SizeCm, row.PriceListID)
	switch {
	case err == nil:
		row.ID = existing.ID
		row.CreatedAt = existing.CreatedAt
	case errors.Is(err, gorm.ErrRecordNotFound):
		// fresh insert
	default:
		return nil, err
	}

	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// LoadSiteConfig returns the singleton configuration row. A missing row is
// treated as the empty configuration rather than an error.
func (r *Repository) LoadSiteConfig(ctx context.Context) (*models.SiteConfig, error) {
	var cfg models.SiteConfig
	err := r.db.WithContext(ctx).First(&cfg, "id = ?", siteConfigRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.SiteConfig{ID: siteConfigRowID, FeaturedDiscounts: models.FeaturedDiscountMap{}}, nil
	}
	if err != nil {
		return nil, err
	}
	if cfg.FeaturedDiscounts == nil {
		cfg.FeaturedDiscounts = models.FeaturedDiscountMap{}
	}
	return &cfg, nil
}

// SaveSiteConfig persists the singleton configuration row.
func (r *Repository) SaveSiteConfig(ctx context.Context, cfg *models.SiteConfig) error {
	cfg.ID = siteConfigRowID
	return r.db.WithContext(ctx).Save(cfg).Error
}

// OnHandQty returns the stock quantity for (product, size, fabric). The second
// return reports whether a stock row exists at all.
func (r *Repository) OnHandQty(ctx context.Context, productID uuid.UUID, sizeCm int, fabricID uuid.UUID) (int, bool, error) {
	var item models.StockItem
	err := r.db.WithContext(ctx).
		First(&item, "product_id = ? AND size_cm = ? AND fabric_id = ?", productID, sizeCm, fabricID).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return item.OnHandQty, true, nil
}

const siteConfigRowID = 1
