package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/arborhaus/arborhaus-backend/api/responses"
	"github.com/arborhaus/arborhaus-backend/pkg/db/models"
	"github.com/arborhaus/arborhaus-backend/pkg/logger"
)

// CheckoutService is the slice of the checkout transactor the API needs.
type CheckoutService interface {
	Checkout(ctx context.Context, userID uuid.UUID) (*models.Order, error)
}

type checkoutResponse struct {
	OrderID   uuid.UUID           `json:"order_id"`
	Code      string              `json:"code"`
	Status    string              `json:"status"`
	Total     string              `json:"total"`
	Lines     []orderLineResponse `json:"lines"`
	CreatedAt time.Time           `json:"created_at"`
}

// Checkout converts the caller's cart into an order.
func Checkout(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Checkout(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{
			OrderID:   order.ID,
			Code:      order.Code,
			Status:    order.Status.String(),
			Total:     order.Total.StringFixed(2),
			Lines:     newOrderLineResponses(order.Lines),
			CreatedAt: order.CreatedAt,
		})
	}
}
