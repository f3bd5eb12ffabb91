package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/arborhaus/arborhaus-backend/pkg/db/models"
	pkgerrors "github.com/arborhaus/arborhaus-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the admin import/edit surface for price matrix rows.
type Service interface {
	ImportPriceRows(ctx context.Context, inputs []PriceRowInput) (*ImportResult, error)
}

// PriceRowInput is one validated row of an admin price import.
type PriceRowInput struct {
	ProductID   uuid.UUID
	SizeCm      int
	PriceListID *uuid.UUID

	GradePrices  [7]decimal.Decimal
	LeatherPrice decimal.Decimal

	WidthCm  int
	DepthCm  int
	HeightCm int

	FabricMeters  decimal.Decimal
	LeatherMeters decimal.Decimal

	DiscountPercent *decimal.Decimal
}

// ImportResult reports how many rows an import touched.
type ImportResult struct {
	Upserted int
}

type service struct {
	repo *Repository
	tx   txRunner
}

// NewService builds the catalog admin service.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// ImportPriceRows upserts all rows in one transaction. Historical orders keep
// their own captured prices, so edits here never rewrite committed orders.
func (s *service) ImportPriceRows(ctx context.Context, inputs []PriceRowInput) (*ImportResult, error) {
	if len(inputs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one price row is required")
	}
	for i, in := range inputs {
		if verr := validatePriceRowInput(in); verr != nil {
			return nil, verr.WithDetails(map[string]any{"row_index": i, "reason": verr.Message()})
		}
	}

	result := &ImportResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, in := range inputs {
			row := in.toModel()
			if _, err := repo.UpsertPriceRow(ctx, row); err != nil {
				return fmt.Errorf("upsert price row (product=%s size=%d): %w", in.ProductID, in.SizeCm, err)
			}
			result.Upserted++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func validatePriceRowInput(in PriceRowInput) *pkgerrors.Error {
	if in.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	if in.SizeCm <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "size_cm must be positive")
	}
	for _, price := range in.GradePrices {
		if price.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "grade prices must be non-negative")
		}
	}
	if in.LeatherPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "leather price must be non-negative")
	}
	if in.DiscountPercent != nil {
		pct := *in.DiscountPercent
		if pct.IsNegative() || pct.GreaterThanOrEqual(decimal.NewFromInt(100)) {
			return pkgerrors.New(pkgerrors.CodeValidation, "discount_percent must be in [0,100)")
		}
	}
	return nil
}

func (in PriceRowInput) toModel() *models.PriceMatrixRow {
	return &models.PriceMatrixRow{
		ProductID:       in.ProductID,
		SizeCm:          in.SizeCm,
		PriceListID:     in.PriceListID,
		Grade1:          in.GradePrices[0],
		Grade2:          in.GradePrices[1],
		Grade3:          in.GradePrices[2],
		Grade4:          in.GradePrices[3],
		Grade5:          in.GradePrices[4],
		Grade6:          in.GradePrices[5],
		Grade7:          in.GradePrices[6],
		Leather:         in.LeatherPrice,
		WidthCm:         in.WidthCm,
		DepthCm:         in.DepthCm,
		HeightCm:        in.HeightCm,
		FabricMeters:    in.FabricMeters,
		LeatherMeters:   in.LeatherMeters,
		DiscountPercent: in.DiscountPercent,
	}
}
