package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/arborhaus/arborhaus-backend/internal/catalog"
	"github.com/arborhaus/arborhaus-backend/internal/pricing"
	"github.com/arborhaus/arborhaus-backend/pkg/config"
	"github.com/arborhaus/arborhaus-backend/pkg/db/models"
	"github.com/arborhaus/arborhaus-backend/pkg/enums"
	"github.com/arborhaus/arborhaus-backend/pkg/logger"
	"github.com/arborhaus/arborhaus-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RemovedLine describes one line evicted during reconciliation.
type RemovedLine struct {
	LineID    uuid.UUID
	ProductID uuid.UUID
	Reason    enums.LineRemovalReason
}

// PricedLine is a surviving cart line paired with its current effective
// price, the value checkout must charge without re-deriving.
type PricedLine struct {
	Line           models.CartLine
	EffectivePrice decimal.Decimal
}

// Result reports what a reconciliation run changed.
type Result struct {
	Removed      []RemovedLine
	UpdatedCount int
	Lines        []PricedLine
	Summary      string
}

// RemovedCount returns how many lines the run evicted.
func (r *Result) RemovedCount() int {
	return len(r.Removed)
}

// Total sums effective price times quantity over the surviving lines.
func (r *Result) Total() decimal.Decimal {
	total := decimal.Zero
	for _, priced := range r.Lines {
		total = total.Add(priced.EffectivePrice.Mul(decimal.NewFromInt(int64(priced.Line.Quantity))))
	}
	return total
}

// Reconciler re-prices every cart line against the current price matrix and
// catalog whitelist, applying the drift-tolerance policy before any
// price-sensitive read or checkout.
type Reconciler struct {
	resolver *pricing.Resolver
	repo     *Repository
	tx       txRunner
	logg     *logger.Logger
	engine   *metrics.EngineMetrics

	removeThreshold  decimal.Decimal
	correctThreshold decimal.Decimal
}

// NewReconciler builds a reconciler with the drift thresholds from config.
func NewReconciler(resolver *pricing.Resolver, repo *Repository, tx txRunner, logg *logger.Logger, engine *metrics.EngineMetrics, cfg config.PricingConfig) (*Reconciler, error) {
	if resolver == nil {
		return nil, fmt.Errorf("price resolver required")
	}
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Reconciler{
		resolver:         resolver,
		repo:             repo,
		tx:               tx,
		logg:             logg,
		engine:           engine,
		removeThreshold:  decimal.NewFromFloat(cfg.DriftRemovePercent),
		correctThreshold: decimal.NewFromFloat(cfg.DriftCorrectPercent),
	}, nil
}

// Reconcile runs the drift policy over every line of the cart and persists
// the outcome in one transaction. Running it twice with no intervening price
// change yields the same cart state both times.
func (r *Reconciler) Reconcile(ctx context.Context, snap *catalog.Snapshot, cart *models.Cart) (*Result, error) {
	result := &Result{Lines: make([]PricedLine, 0, len(cart.Lines))}

	type correction struct {
		lineID uuid.UUID
		price  decimal.Decimal
	}
	var corrections []correction

	for _, line := range cart.Lines {
		if !snap.Allows(line.ProductID) {
			result.Removed = append(result.Removed, RemovedLine{
				LineID:    line.ID,
				ProductID: line.ProductID,
				Reason:    enums.RemovalNotActiveInCatalog,
			})
			continue
		}

		quote, err := r.resolver.Quote(ctx, snap, line.ProductID, line.SizeCm, line.FabricID)
		if err != nil {
			if errors.Is(err, pricing.ErrFabricNotFound) || errors.Is(err, pricing.ErrPriceRowNotFound) {
				result.Removed = append(result.Removed, RemovedLine{
					LineID:    line.ID,
					ProductID: line.ProductID,
					Reason:    enums.RemovalPriceUnavailable,
				})
				continue
			}
			return nil, fmt.Errorf("quote line %s: %w", line.ID, err)
		}

		current := quote.EffectivePrice

		// a zero snapshot cannot anchor a drift ratio, force re-review
		if line.PreviewUnitPrice.IsZero() {
			result.Removed = append(result.Removed, RemovedLine{
				LineID:    line.ID,
				ProductID: line.ProductID,
				Reason:    enums.RemovalPriceDrift,
			})
			continue
		}

		drift := current.Sub(line.PreviewUnitPrice).Abs().
			Div(line.PreviewUnitPrice).
			Mul(decimal.NewFromInt(100))

		switch {
		case drift.GreaterThan(r.removeThreshold):
			result.Removed = append(result.Removed, RemovedLine{
				LineID:    line.ID,
				ProductID: line.ProductID,
				Reason:    enums.RemovalPriceDrift,
			})
		case drift.GreaterThan(r.correctThreshold):
			corrections = append(corrections, correction{lineID: line.ID, price: current})
			line.PreviewUnitPrice = current
			result.UpdatedCount++
			result.Lines = append(result.Lines, PricedLine{Line: line, EffectivePrice: current})
		default:
			result.Lines = append(result.Lines, PricedLine{Line: line, EffectivePrice: current})
		}
	}

	if len(result.Removed) > 0 || len(corrections) > 0 {
		err := r.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := r.repo.WithTx(tx)
			ids := make([]uuid.UUID, 0, len(result.Removed))
			for _, removed := range result.Removed {
				ids = append(ids, removed.LineID)
			}
			if err := repo.DeleteLines(ctx, ids); err != nil {
				return fmt.Errorf("delete reconciled lines: %w", err)
			}
			for _, fix := range corrections {
				if err := repo.UpdateLinePrice(ctx, fix.lineID, fix.price); err != nil {
					return fmt.Errorf("update line price %s: %w", fix.lineID, err)
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	r.record(ctx, cart.UserID, result)
	result.Summary = summarize(result)
	return result, nil
}

func (r *Reconciler) record(ctx context.Context, userID uuid.UUID, result *Result) {
	byReason := map[enums.LineRemovalReason]int{}
	for _, removed := range result.Removed {
		byReason[removed.Reason]++
	}
	for reason, n := range byReason {
		r.engine.AddLinesRemoved(reason.String(), n)
	}
	if result.UpdatedCount > 0 {
		r.engine.AddLinesRepriced(result.UpdatedCount)
	}

	if len(result.Removed) > 0 || result.UpdatedCount > 0 {
		ctx = r.logg.WithUserID(ctx, userID.String())
		r.logg.Info(r.logg.WithFields(ctx, map[string]any{
			"removed": len(result.Removed),
			"updated": result.UpdatedCount,
		}), "cart reconciled")
	}
}

func summarize(result *Result) string {
	if len(result.Removed) == 0 && result.UpdatedCount == 0 {
		return "cart is up to date"
	}

	var parts []string
	if n := len(result.Removed); n > 0 {
		parts = append(parts, fmt.Sprintf("%d %s removed because prices or availability changed", n, pluralLine(n)))
	}
	if n := result.UpdatedCount; n > 0 {
		parts = append(parts, fmt.Sprintf("%d %s updated to the current price", n, pluralLine(n)))
	}
	return strings.Join(parts, "; ")
}

func pluralLine(n int) string {
	if n == 1 {
		return "line"
	}
	return "lines"
}
