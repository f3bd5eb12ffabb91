package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arborhaus/arborhaus-backend/api/responses"
	"github.com/arborhaus/arborhaus-backend/api/validators"
	catalogsvc "github.com/arborhaus/arborhaus-backend/internal/catalog"
	"github.com/arborhaus/arborhaus-backend/pkg/logger"
)

type priceRowRequest struct {
	ProductID   uuid.UUID  `json:"product_id" validate:"required"`
	SizeCm      int        `json:"size_cm" validate:"required,min=1"`
	PriceListID *uuid.UUID `json:"price_list_id,omitempty"`

	GradePrices  []decimal.Decimal `json:"grade_prices" validate:"required,len=7"`
	LeatherPrice decimal.Decimal   `json:"leather_price"`

	WidthCm  int `json:"width_cm" validate:"omitempty,min=1"`
	DepthCm  int `json:"depth_cm" validate:"omitempty,min=1"`
	HeightCm int `json:"height_cm" validate:"omitempty,min=1"`

	FabricMeters  decimal.Decimal `json:"fabric_meters"`
	LeatherMeters decimal.Decimal `json:"leather_meters"`

	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
}

type importPriceRowsRequest struct {
	Rows []priceRowRequest `json:"rows" validate:"required,min=1,max=500,dive"`
}

// ImportPriceRows upserts price matrix rows from the staff import surface.
func ImportPriceRows(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload importPriceRowsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		inputs := make([]catalogsvc.PriceRowInput, 0, len(payload.Rows))
		for _, row := range payload.Rows {
			input := catalogsvc.PriceRowInput{
				ProductID:       row.ProductID,
				SizeCm:          row.SizeCm,
				PriceListID:     row.PriceListID,
				LeatherPrice:    row.LeatherPrice,
				WidthCm:         row.WidthCm,
				DepthCm:         row.DepthCm,
				HeightCm:        row.HeightCm,
				FabricMeters:    row.FabricMeters,
				LeatherMeters:   row.LeatherMeters,
				DiscountPercent: row.DiscountPercent,
			}
			copy(input.GradePrices[:], row.GradePrices)
			inputs = append(inputs, input)
		}

		result, err := svc.ImportPriceRows(r.Context(), inputs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"upserted": result.Upserted})
	}
}
