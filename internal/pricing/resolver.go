package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/arborhaus/arborhaus-backend/internal/catalog"
	"github.com/arborhaus/arborhaus-backend/pkg/db/models"
	"github.com/arborhaus/arborhaus-backend/pkg/enums"
	pkgerrors "github.com/arborhaus/arborhaus-backend/pkg/errors"
)

// Domain-expected absences. Both mean "not currently sellable", never a
// system fault.
var (
	ErrFabricNotFound   = errors.New("fabric not found")
	ErrPriceRowNotFound = errors.New("price row not found")
)

// FabricLookup is the slice of the catalog repository the resolver reads.
type FabricLookup interface {
	FindFabric(ctx context.Context, id uuid.UUID) (*models.Fabric, error)
}

// PriceRowLookup loads a price matrix row for an exact (product, size, list).
type PriceRowLookup interface {
	FindPriceRow(ctx context.Context, productID uuid.UUID, sizeCm int, priceListID *uuid.UUID) (*models.PriceMatrixRow, error)
}

// Quote is the full pricing output for one (product, size, fabric).
type Quote struct {
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	EffectivePrice  decimal.Decimal
}

// Resolver computes unit prices and discounts. It holds no mutable state;
// every call reads the snapshot it is given.
type Resolver struct {
	fabrics FabricLookup
	rows    PriceRowLookup
}

// NewResolver builds a resolver with the required lookups.
func NewResolver(fabrics FabricLookup, rows PriceRowLookup) (*Resolver, error) {
	if fabrics == nil {
		return nil, fmt.Errorf("fabric lookup required")
	}
	if rows == nil {
		return nil, fmt.Errorf("price row lookup required")
	}
	return &Resolver{fabrics: fabrics, rows: rows}, nil
}

// ResolveUnitPrice returns the matrix price for (product, size, fabric) under
// the snapshot's current price list.
func (r *Resolver) ResolveUnitPrice(ctx context.Context, snap *catalog.Snapshot, productID uuid.UUID, sizeCm int, fabricID uuid.UUID) (decimal.Decimal, error) {
	fabric, err := r.findFabric(ctx, fabricID)
	if err != nil {
		return decimal.Zero, err
	}
	row, err := r.findRow(ctx, snap, productID, sizeCm)
	if err != nil {
		return decimal.Zero, err
	}
	return priceForGrade(row, fabric.Grade)
}

// ResolveDiscountPercent combines the row-level discount with the featured
// discount using a max rule. Discounts are never additive. An absent source
// counts as zero.
func (r *Resolver) ResolveDiscountPercent(ctx context.Context, snap *catalog.Snapshot, productID uuid.UUID, sizeCm int) (decimal.Decimal, error) {
	rowDiscount := decimal.Zero
	row, err := r.findRow(ctx, snap, productID, sizeCm)
	switch {
	case err == nil:
		if row.DiscountPercent != nil {
			rowDiscount = *row.DiscountPercent
		}
	case errors.Is(err, ErrPriceRowNotFound):
		// no row, row discount stays zero
	default:
		return decimal.Zero, err
	}

	featured := snap.FeaturedDiscount(productID)
	if featured.GreaterThan(rowDiscount) {
		return featured, nil
	}
	return rowDiscount, nil
}

// Quote resolves the unit price and discount in one pass and derives the
// effective price, rounded half-up to two decimals.
func (r *Resolver) Quote(ctx context.Context, snap *catalog.Snapshot, productID uuid.UUID, sizeCm int, fabricID uuid.UUID) (*Quote, error) {
	fabric, err := r.findFabric(ctx, fabricID)
	if err != nil {
		return nil, err
	}
	row, err := r.findRow(ctx, snap, productID, sizeCm)
	if err != nil {
		return nil, err
	}

	unit, err := priceForGrade(row, fabric.Grade)
	if err != nil {
		return nil, err
	}

	rowDiscount := decimal.Zero
	if row.DiscountPercent != nil {
		rowDiscount = *row.DiscountPercent
	}
	pct := snap.FeaturedDiscount(productID)
	if rowDiscount.GreaterThan(pct) {
		pct = rowDiscount
	}

	return &Quote{
		UnitPrice:       unit,
		DiscountPercent: pct,
		EffectivePrice:  EffectivePrice(unit, pct),
	}, nil
}

// EffectivePrice applies a percentage discount and rounds half-up to two
// decimals, matching what is persisted on cart lines and order lines.
func EffectivePrice(unit, percent decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(percent.Div(decimal.NewFromInt(100)))
	return unit.Mul(factor).Round(2)
}

func (r *Resolver) findFabric(ctx context.Context, fabricID uuid.UUID) (*models.Fabric, error) {
	fabric, err := r.fabrics.FindFabric(ctx, fabricID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFabricNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find fabric %s: %w", fabricID, err)
	}
	return fabric, nil
}

// findRow prefers the snapshot's current price list and falls back to the
// general list when that list has no row for the combination.
func (r *Resolver) findRow(ctx context.Context, snap *catalog.Snapshot, productID uuid.UUID, sizeCm int) (*models.PriceMatrixRow, error) {
	if snap.PriceListID != nil {
		row, err := r.rows.FindPriceRow(ctx, productID, sizeCm, snap.PriceListID)
		if err == nil {
			return row, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("find price row (product=%s size=%d): %w", productID, sizeCm, err)
		}
	}

	row, err := r.rows.FindPriceRow(ctx, productID, sizeCm, nil)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPriceRowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find price row (product=%s size=%d): %w", productID, sizeCm, err)
	}
	return row, nil
}

// priceForGrade selects the matrix column for the grade. The mapping is fixed
// and exhaustive; an unmapped grade is a programming error.
func priceForGrade(row *models.PriceMatrixRow, grade enums.FabricGrade) (decimal.Decimal, error) {
	switch grade {
	case enums.FabricGrade1:
		return row.Grade1, nil
	case enums.FabricGrade2:
		return row.Grade2, nil
	case enums.FabricGrade3:
		return row.Grade3, nil
	case enums.FabricGrade4:
		return row.Grade4, nil
	case enums.FabricGrade5:
		return row.Grade5, nil
	case enums.FabricGrade6:
		return row.Grade6, nil
	case enums.FabricGrade7:
		return row.Grade7, nil
	case enums.FabricGradeLeather:
		return row.Leather, nil
	default:
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unmapped fabric grade %q", grade))
	}
}
