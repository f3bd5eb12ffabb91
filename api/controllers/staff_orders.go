package controllers

import (
	"net/http"

	"github.com/arborhaus/arborhaus-backend/api/middleware"
	"github.com/arborhaus/arborhaus-backend/api/responses"
	"github.com/arborhaus/arborhaus-backend/api/validators"
	ordersvc "github.com/arborhaus/arborhaus-backend/internal/orders"
	"github.com/arborhaus/arborhaus-backend/pkg/enums"
	"github.com/arborhaus/arborhaus-backend/pkg/logger"
)

type staffOrderItem struct {
	orderResponse
	NeedsAttention bool `json:"needs_attention"`
}

type transitionRequest struct {
	NewStatus string  `json:"new_status" validate:"required"`
	Reason    *string `json:"reason,omitempty" validate:"omitempty,max=1000"`
}

// StaffListOrders returns every order with its derived attention flag.
func StaffListOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListForStaff(r.Context(), paginationParams(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]staffOrderItem, 0, len(list.Items))
		for i := range list.Items {
			items = append(items, staffOrderItem{
				orderResponse:  newOrderResponse(&list.Items[i].Order),
				NeedsAttention: list.Items[i].Attention,
			})
		}
		responses.WriteSuccess(w, map[string]any{
			"items":       items,
			"next_cursor": list.NextCursor,
		})
	}
}

// StaffGetOrder returns the order detail and records the staff view.
func StaffGetOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetForStaff(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, staffOrderItem{
			orderResponse:  newOrderResponse(detail.Order),
			NeedsAttention: detail.Attention,
		})
	}
}

// StaffTransitionOrder moves the order along the status pipeline.
func StaffTransitionOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := userIDFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload transitionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseOrderStatus(payload.NewStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, invalidField("new_status"))
			return
		}

		order, err := svc.Transition(r.Context(), ordersvc.TransitionInput{
			OrderID:   orderID,
			NewStatus: status,
			Reason:    payload.Reason,
			ActorID:   actorID,
			ActorRole: middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// StaffMarkOrderViewed clears the attention flag sourced from unseen changes.
func StaffMarkOrderViewed(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.MarkViewed(r.Context(), orderID, middleware.RoleFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "viewed"})
	}
}
