package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arborhaus/arborhaus-backend/pkg/db/models"
)

// Snapshot is an immutable read of the site configuration, loaded once per
// operation and passed as a parameter so reconciliation and discount
// resolution see a fixed configuration for their whole run.
type Snapshot struct {
	LoadedAt    time.Time
	PriceListID *uuid.UUID

	whitelist    map[uuid.UUID]struct{}
	hasWhitelist bool
	featured     models.FeaturedDiscountMap
}

// Allows reports whether the product is sellable under this snapshot. With no
// whitelist configured every product passes.
func (s *Snapshot) Allows(productID uuid.UUID) bool {
	if !s.hasWhitelist {
		return true
	}
	_, ok := s.whitelist[productID]
	return ok
}

// FeaturedDiscount returns the featured discount percent for the product,
// zero when the product is not featured.
func (s *Snapshot) FeaturedDiscount(productID uuid.UUID) decimal.Decimal {
	if s.featured == nil {
		return decimal.Zero
	}
	pct, ok := s.featured[productID]
	if !ok {
		return decimal.Zero
	}
	return pct
}

// SiteConfigSource is the slice of Repository the provider needs.
type SiteConfigSource interface {
	LoadSiteConfig(ctx context.Context) (*models.SiteConfig, error)
}

// SnapshotProvider materializes site configuration into Snapshots.
type SnapshotProvider struct {
	source SiteConfigSource
}

// NewSnapshotProvider validates dependencies and returns a provider.
func NewSnapshotProvider(source SiteConfigSource) (*SnapshotProvider, error) {
	if source == nil {
		return nil, fmt.Errorf("site config source is required")
	}
	return &SnapshotProvider{source: source}, nil
}

// Load reads the current site configuration into an immutable Snapshot.
func (p *SnapshotProvider) Load(ctx context.Context) (*Snapshot, error) {
	cfg, err := p.source.LoadSiteConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load site config: %w", err)
	}
	return SnapshotFromConfig(cfg), nil
}

// SnapshotFromConfig builds a Snapshot from a config row. Exposed so tests
// can construct fixed-configuration snapshots directly.
func SnapshotFromConfig(cfg *models.SiteConfig) *Snapshot {
	snap := &Snapshot{
		LoadedAt:    time.Now().UTC(),
		PriceListID: cfg.CurrentPriceListID,
		featured:    cfg.FeaturedDiscounts,
	}
	if cfg.ActiveProductIDs != nil {
		snap.hasWhitelist = true
		snap.whitelist = make(map[uuid.UUID]struct{}, len(*cfg.ActiveProductIDs))
		for _, id := range *cfg.ActiveProductIDs {
			snap.whitelist[id] = struct{}{}
		}
	}
	return snap
}
