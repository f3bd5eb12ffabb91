package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arborhaus/arborhaus-backend/api/responses"
	"github.com/arborhaus/arborhaus-backend/api/validators"
	"github.com/arborhaus/arborhaus-backend/internal/catalog"
	"github.com/arborhaus/arborhaus-backend/internal/pricing"
	"github.com/arborhaus/arborhaus-backend/pkg/logger"
)

type snapshotLoader interface {
	Load(ctx context.Context) (*catalog.Snapshot, error)
}

type stockLookup interface {
	OnHandQty(ctx context.Context, productID uuid.UUID, sizeCm int, fabricID uuid.UUID) (int, bool, error)
}

type priceQuoteResponse struct {
	Available       bool             `json:"available"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	OriginalPrice   *decimal.Decimal `json:"original_price,omitempty"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
	LineTotal       *decimal.Decimal `json:"line_total,omitempty"`
	ExpressEligible bool             `json:"express_eligible"`
}

// PriceQuote answers the public price endpoint. A combination the catalog
// cannot price is a domain answer, not an error: the response is 200 with
// available=false.
func PriceQuote(resolver *pricing.Resolver, snapshots snapshotLoader, stock stockLookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseQueryUUID(r, "product")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		fabricID, err := validators.ParseQueryUUID(r, "fabric")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sizeCm, err := validators.ParseQueryInt(r, "size", 0, 1, 100000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if sizeCm == 0 {
			responses.WriteError(r.Context(), logg, w, validationRequired("size"))
			return
		}
		quantity, err := validators.ParseQueryInt(r, "quantity", 1, 1, 10000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap, err := snapshots.Load(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if !snap.Allows(productID) {
			responses.WriteSuccess(w, priceQuoteResponse{Available: false})
			return
		}

		quote, err := resolver.Quote(r.Context(), snap, productID, sizeCm, fabricID)
		if errors.Is(err, pricing.ErrFabricNotFound) || errors.Is(err, pricing.ErrPriceRowNotFound) {
			responses.WriteSuccess(w, priceQuoteResponse{Available: false})
			return
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lineTotal := quote.EffectivePrice.Mul(decimal.NewFromInt(int64(quantity)))

		resp := priceQuoteResponse{
			Available:       true,
			Price:           &quote.EffectivePrice,
			OriginalPrice:   &quote.UnitPrice,
			DiscountPercent: &quote.DiscountPercent,
			LineTotal:       &lineTotal,
		}

		if stock != nil {
			onHand, tracked, stockErr := stock.OnHandQty(r.Context(), productID, sizeCm, fabricID)
			if stockErr != nil {
				// stock is advisory only, the quote still stands
				logg.Warn(logg.WithField(r.Context(), "product_id", productID.String()), "stock lookup failed")
			} else {
				resp.ExpressEligible = tracked && onHand >= quantity
			}
		}

		responses.WriteSuccess(w, resp)
	}
}
