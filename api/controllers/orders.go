package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/arborhaus/arborhaus-backend/api/middleware"
	"github.com/arborhaus/arborhaus-backend/api/responses"
	"github.com/arborhaus/arborhaus-backend/api/validators"
	ordersvc "github.com/arborhaus/arborhaus-backend/internal/orders"
	"github.com/arborhaus/arborhaus-backend/pkg/db/models"
	"github.com/arborhaus/arborhaus-backend/pkg/logger"
)

type orderLineResponse struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	SizeCm      int       `json:"size_cm"`
	FabricID    uuid.UUID `json:"fabric_id"`
	FabricName  string    `json:"fabric_name"`
	Quantity    int       `json:"quantity"`
	UnitPrice   string    `json:"unit_price"`
}

type orderHistoryResponse struct {
	Status    string    `json:"status"`
	Reason    *string   `json:"reason,omitempty"`
	ActorRole string    `json:"actor_role"`
	CreatedAt time.Time `json:"created_at"`
}

type orderResponse struct {
	ID        uuid.UUID              `json:"id"`
	Code      string                 `json:"code"`
	Status    string                 `json:"status"`
	Total     string                 `json:"total"`
	Lines     []orderLineResponse    `json:"lines,omitempty"`
	History   []orderHistoryResponse `json:"history,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

type orderMessageResponse struct {
	ID         uuid.UUID  `json:"id"`
	AuthorID   uuid.UUID  `json:"author_id"`
	AuthorRole string     `json:"author_role"`
	Body       string     `json:"body"`
	Edited     bool       `json:"edited"`
	EditedAt   *time.Time `json:"edited_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type postMessageRequest struct {
	Body string `json:"body" validate:"required,min=1,max=4000"`
}

type editMessageRequest struct {
	Body string `json:"body" validate:"required,min=1,max=4000"`
}

func newOrderLineResponses(lines []models.OrderLine) []orderLineResponse {
	out := make([]orderLineResponse, 0, len(lines))
	for _, line := range lines {
		out = append(out, orderLineResponse{
			ID:          line.ID,
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			SizeCm:      line.SizeCm,
			FabricID:    line.FabricID,
			FabricName:  line.FabricName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice.StringFixed(2),
		})
	}
	return out
}

func newOrderResponse(order *models.Order) orderResponse {
	history := make([]orderHistoryResponse, 0, len(order.History))
	for _, entry := range order.History {
		history = append(history, orderHistoryResponse{
			Status:    entry.Status.String(),
			Reason:    entry.Reason,
			ActorRole: entry.ActorRole.String(),
			CreatedAt: entry.CreatedAt,
		})
	}
	return orderResponse{
		ID:        order.ID,
		Code:      order.Code,
		Status:    order.Status.String(),
		Total:     order.Total.StringFixed(2),
		Lines:     newOrderLineResponses(order.Lines),
		History:   history,
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	}
}

func newOrderMessageResponses(messages []models.OrderMessage) []orderMessageResponse {
	out := make([]orderMessageResponse, 0, len(messages))
	for _, msg := range messages {
		out = append(out, newOrderMessageResponse(&msg))
	}
	return out
}

func newOrderMessageResponse(msg *models.OrderMessage) orderMessageResponse {
	return orderMessageResponse{
		ID:         msg.ID,
		AuthorID:   msg.AuthorID,
		AuthorRole: msg.AuthorRole.String(),
		Body:       msg.Body,
		Edited:     msg.Edited,
		EditedAt:   msg.EditedAt,
		CreatedAt:  msg.CreatedAt,
	}
}

func orderIDParam(r *http.Request) (uuid.UUID, error) {
	return validators.PathUUID(chi.URLParam(r, "orderID"), "order_id")
}

// ListMyOrders returns the caller's orders, newest first.
func ListMyOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListForCustomer(r.Context(), userID, paginationParams(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]orderResponse, 0, len(page.Items))
		for i := range page.Items {
			items = append(items, newOrderResponse(&page.Items[i]))
		}
		responses.WriteSuccess(w, map[string]any{
			"items":       items,
			"next_cursor": page.NextCursor,
		})
	}
}

// GetMyOrder returns one order and records the customer's view.
func GetMyOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetForCustomer(r.Context(), orderID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

func PostOrderMessage(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload postMessageRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		msg, err := svc.PostMessage(r.Context(), ordersvc.MessageInput{
			OrderID:    orderID,
			AuthorID:   userID,
			AuthorRole: middleware.RoleFromContext(r.Context()),
			Body:       payload.Body,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderMessageResponse(msg))
	}
}

func EditOrderMessage(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		messageID, err := validators.PathUUID(chi.URLParam(r, "messageID"), "message_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload editMessageRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		msg, err := svc.EditMessage(r.Context(), userID, messageID, payload.Body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderMessageResponse(msg))
	}
}

func DeleteOrderMessage(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		messageID, err := validators.PathUUID(chi.URLParam(r, "messageID"), "message_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteMessage(r.Context(), userID, messageID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func ListOrderMessages(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		messages, err := svc.ListMessages(r.Context(), orderID, userID, middleware.RoleFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderMessageResponses(messages))
	}
}
