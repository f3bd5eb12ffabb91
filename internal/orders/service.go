package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arborhaus/arborhaus-backend/internal/notify"
	"github.com/arborhaus/arborhaus-backend/pkg/db/models"
	"github.com/arborhaus/arborhaus-backend/pkg/enums"
	pkgerrors "github.com/arborhaus/arborhaus-backend/pkg/errors"
	"github.com/arborhaus/arborhaus-backend/pkg/logger"
	"github.com/arborhaus/arborhaus-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type notifier interface {
	Send(ctx context.Context, notifications ...notify.Notification)
}

// TransitionInput carries one staff-driven status change.
type TransitionInput struct {
	OrderID   uuid.UUID
	NewStatus enums.OrderStatus
	Reason    *string
	ActorID   uuid.UUID
	ActorRole enums.ActorRole
}

// MessageInput posts a message on an order.
type MessageInput struct {
	OrderID    uuid.UUID
	AuthorID   uuid.UUID
	AuthorRole enums.ActorRole
	Body       string
}

// Detail is an order with its derived attention flag.
type Detail struct {
	Order     *models.Order
	Attention bool
}

// StaffOrderSummary is one row of the staff order list.
type StaffOrderSummary struct {
	Order     models.Order
	Attention bool
}

// StaffList is a cursor-paginated staff order listing.
type StaffList struct {
	Items      []StaffOrderSummary
	NextCursor string
}

// Service drives the order status pipeline, view stamps, and messages.
type Service interface {
	Transition(ctx context.Context, input TransitionInput) (*models.Order, error)
	MarkViewed(ctx context.Context, orderID uuid.UUID, role enums.ActorRole) error
	GetForCustomer(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	GetForStaff(ctx context.Context, orderID uuid.UUID) (*Detail, error)
	ListForCustomer(ctx context.Context, userID uuid.UUID, params pagination.Params) (*pagination.Page[models.Order], error)
	ListForStaff(ctx context.Context, params pagination.Params) (*StaffList, error)
	PostMessage(ctx context.Context, input MessageInput) (*models.OrderMessage, error)
	EditMessage(ctx context.Context, actorID, messageID uuid.UUID, body string) (*models.OrderMessage, error)
	DeleteMessage(ctx context.Context, actorID, messageID uuid.UUID) error
	ListMessages(ctx context.Context, orderID, viewerID uuid.UUID, viewerRole enums.ActorRole) ([]models.OrderMessage, error)
}

type service struct {
	repo   *Repository
	tx     txRunner
	sender notifier
	logg   *logger.Logger
	now    func() time.Time
}

// NewService builds the order pipeline service.
func NewService(repo *Repository, tx txRunner, sender notifier, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if sender == nil {
		return nil, fmt.Errorf("notification sender required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		sender: sender,
		logg:   logg,
		now:    time.Now,
	}, nil
}

// Transition moves an order along the pipeline. The target must be a later
// pipeline state, or rejected from any non-terminal state. Every transition
// appends exactly one history row; the status field itself is last-write-wins.
func (s *service) Transition(ctx context.Context, input TransitionInput) (*models.Order, error) {
	if !input.NewStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").
			WithDetails(map[string]any{"field": "new_status"})
	}
	if !input.ActorRole.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "status transitions are staff-only")
	}

	order, err := s.repo.FindByID(ctx, input.OrderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, err
	}

	if err := validateTransition(order.Status, input.NewStatus); err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.AppendHistory(ctx, &models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    input.NewStatus,
			Reason:    input.Reason,
			ActorID:   input.ActorID,
			ActorRole: input.ActorRole,
		}); err != nil {
			return fmt.Errorf("append status history: %w", err)
		}
		if err := repo.UpdateStatus(ctx, order.ID, input.NewStatus); err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order.Status = input.NewStatus

	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(s.logg.WithField(ctx, "status", input.NewStatus.String()), "order status changed")

	s.sender.Send(ctx, transitionNotification(order, input))
	return order, nil
}

func validateTransition(current, target enums.OrderStatus) error {
	if current.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is in a terminal state").
			WithDetails(map[string]any{"status": current.String()})
	}
	if target == enums.OrderStatusRejected {
		return nil
	}

	currentRank, ok := current.Rank()
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is outside the pipeline").
			WithDetails(map[string]any{"status": current.String()})
	}
	targetRank, ok := target.Rank()
	if !ok || targetRank <= currentRank {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "status can only move forward in the pipeline").
			WithDetails(map[string]any{"from": current.String(), "to": target.String()})
	}
	return nil
}

func transitionNotification(order *models.Order, input TransitionInput) notify.Notification {
	payload := map[string]any{
		"order_id": order.ID.String(),
		"code":     order.Code,
		"status":   input.NewStatus.String(),
	}
	if input.NewStatus == enums.OrderStatusRejected {
		if input.Reason != nil {
			payload["reason"] = *input.Reason
		}
		return notify.Notification{
			Recipient: order.UserID.String(),
			Subject:   fmt.Sprintf("Order %s was rejected", order.Code),
			Template:  enums.TemplateOrderRejected,
			Payload:   payload,
		}
	}
	return notify.Notification{
		Recipient: order.UserID.String(),
		Subject:   fmt.Sprintf("Order %s update", order.Code),
		Template:  enums.TemplateStatusUpdate,
		Payload:   payload,
	}
}

// MarkViewed stamps the role's last-seen timestamp.
func (s *service) MarkViewed(ctx context.Context, orderID uuid.UUID, role enums.ActorRole) error {
	if _, err := s.repo.FindByID(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return err
	}
	return s.repo.SetLastSeen(ctx, orderID, role, s.now().UTC())
}

// GetForCustomer returns the customer's own order and stamps their view.
func (s *service) GetForCustomer(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByIDForUser(ctx, orderID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetLastSeen(ctx, orderID, enums.ActorRoleCustomer, s.now().UTC()); err != nil {
		return nil, err
	}
	return order, nil
}

// GetForStaff returns the order with its attention flag as it stood before
// this view, then stamps the staff view.
func (s *service) GetForStaff(ctx context.Context, orderID uuid.UUID) (*Detail, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, err
	}

	latest, err := s.repo.LatestCustomerMessageAt(ctx, orderID)
	if err != nil {
		return nil, err
	}
	detail := &Detail{Order: order, Attention: NeedsAttention(order, latest)}

	if err := s.repo.SetLastSeen(ctx, orderID, enums.ActorRoleStaff, s.now().UTC()); err != nil {
		return nil, err
	}
	return detail, nil
}

// ListForCustomer returns the user's own orders.
func (s *service) ListForCustomer(ctx context.Context, userID uuid.UUID, params pagination.Params) (*pagination.Page[models.Order], error) {
	return s.repo.ListByUser(ctx, userID, params)
}

// ListForStaff returns all orders with the derived attention flag.
func (s *service) ListForStaff(ctx context.Context, params pagination.Params) (*StaffList, error) {
	page, err := s.repo.ListAll(ctx, params)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(page.Items))
	for _, order := range page.Items {
		ids = append(ids, order.ID)
	}
	latestByOrder, err := s.repo.LatestCustomerMessageTimes(ctx, ids)
	if err != nil {
		return nil, err
	}

	list := &StaffList{
		Items:      make([]StaffOrderSummary, 0, len(page.Items)),
		NextCursor: page.NextCursor,
	}
	for _, order := range page.Items {
		var latest *time.Time
		if at, ok := latestByOrder[order.ID]; ok {
			t := at
			latest = &t
		}
		list.Items = append(list.Items, StaffOrderSummary{
			Order:     order,
			Attention: NeedsAttention(&order, latest),
		})
	}
	return list, nil
}

// PostMessage appends a message to an order the author may see.
func (s *service) PostMessage(ctx context.Context, input MessageInput) (*models.OrderMessage, error) {
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message body is required").
			WithDetails(map[string]any{"field": "body"})
	}

	if err := s.ensureOrderVisible(ctx, input.OrderID, input.AuthorID, input.AuthorRole); err != nil {
		return nil, err
	}

	return s.repo.CreateMessage(ctx, &models.OrderMessage{
		OrderID:    input.OrderID,
		AuthorID:   input.AuthorID,
		AuthorRole: input.AuthorRole,
		Body:       body,
	})
}

// EditMessage soft-edits a message the actor authored.
func (s *service) EditMessage(ctx context.Context, actorID, messageID uuid.UUID, body string) (*models.OrderMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message body is required").
			WithDetails(map[string]any{"field": "body"})
	}

	msg, err := s.ownMessage(ctx, actorID, messageID)
	if err != nil {
		return nil, err
	}

	at := s.now().UTC()
	if err := s.repo.EditMessage(ctx, msg.ID, body, at); err != nil {
		return nil, err
	}
	msg.Body = body
	msg.Edited = true
	msg.EditedAt = &at
	return msg, nil
}

// DeleteMessage soft-deletes a message the actor authored.
func (s *service) DeleteMessage(ctx context.Context, actorID, messageID uuid.UUID) error {
	msg, err := s.ownMessage(ctx, actorID, messageID)
	if err != nil {
		return err
	}
	return s.repo.SoftDeleteMessage(ctx, msg.ID, s.now().UTC())
}

// ListMessages returns the order's visible messages.
func (s *service) ListMessages(ctx context.Context, orderID, viewerID uuid.UUID, viewerRole enums.ActorRole) ([]models.OrderMessage, error) {
	if err := s.ensureOrderVisible(ctx, orderID, viewerID, viewerRole); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, orderID)
}

func (s *service) ensureOrderVisible(ctx context.Context, orderID, actorID uuid.UUID, role enums.ActorRole) error {
	var err error
	if role.IsStaff() {
		_, err = s.repo.FindByID(ctx, orderID)
	} else {
		_, err = s.repo.FindByIDForUser(ctx, orderID, actorID)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return err
}

func (s *service) ownMessage(ctx context.Context, actorID, messageID uuid.UUID) (*models.OrderMessage, error) {
	msg, err := s.repo.FindMessage(ctx, messageID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "message not found")
	}
	if err != nil {
		return nil, err
	}
	if msg.Deleted {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "message not found")
	}
	if msg.AuthorID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the author may change a message")
	}
	return msg, nil
}
