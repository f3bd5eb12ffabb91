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
	"github.com/arborhaus/arborhaus-backend/pkg/db/models"
	pkgerrors "github.com/arborhaus/arborhaus-backend/pkg/errors"
)

// Service exposes customer cart operations. Reads that surface prices always
// reconcile first so no stale price is ever shown.
type Service interface {
	GetCart(ctx context.Context, snap *catalog.Snapshot, userID uuid.UUID) (*View, error)
	AddLine(ctx context.Context, snap *catalog.Snapshot, userID uuid.UUID, input AddLineInput) (*models.CartLine, error)
	UpdateLineQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) (*models.CartLine, error)
	RemoveLine(ctx context.Context, userID, lineID uuid.UUID) error
	Validate(ctx context.Context, snap *catalog.Snapshot, userID uuid.UUID) (*Result, error)
	ApplyCoupon(ctx context.Context, userID uuid.UUID, code string) error
}

// AddLineInput is the validated payload to add a cart line.
type AddLineInput struct {
	ProductID uuid.UUID
	SizeCm    int
	FabricID  uuid.UUID
	Quantity  int
}

// LineView is one cart line as returned to the customer.
type LineView struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	SizeCm    int             `json:"size_cm"`
	FabricID  uuid.UUID       `json:"fabric_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// View is the reconciled cart a customer sees.
type View struct {
	CartID       uuid.UUID       `json:"cart_id"`
	Lines        []LineView      `json:"lines"`
	Total        decimal.Decimal `json:"total"`
	CouponCode   *string         `json:"coupon_code,omitempty"`
	RemovedCount int             `json:"removed_count"`
	UpdatedCount int             `json:"updated_count"`
	Message      string          `json:"message"`
}

type service struct {
	repo       *Repository
	reconciler *Reconciler
	resolver   *pricing.Resolver
}

// NewService builds the cart service.
func NewService(repo *Repository, reconciler *Reconciler, resolver *pricing.Resolver) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if reconciler == nil {
		return nil, fmt.Errorf("reconciler required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("price resolver required")
	}
	return &service{repo: repo, reconciler: reconciler, resolver: resolver}, nil
}

// GetCart reconciles the user's cart and returns the corrected view.
func (s *service) GetCart(ctx context.Context, snap *catalog.Snapshot, userID uuid.UUID) (*View, error) {
	cart, err := s.repo.FindOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	result, err := s.reconciler.Reconcile(ctx, snap, cart)
	if err != nil {
		return nil, err
	}
	return buildView(cart, result), nil
}

// AddLine prices the combination and snapshots the effective price onto a new
// or merged line. The client never supplies a price.
func (s *service) AddLine(ctx context.Context, snap *catalog.Snapshot, userID uuid.UUID, input AddLineInput) (*models.CartLine, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
			WithDetails(map[string]any{"field": "quantity"})
	}
	if input.ProductID == uuid.Nil || input.FabricID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id and fabric_id are required")
	}
	if input.SizeCm <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size_cm must be positive").
			WithDetails(map[string]any{"field": "size_cm"})
	}

	if !snap.Allows(input.ProductID) {
		return nil, unavailable("product is not currently sellable")
	}

	quote, err := s.resolver.Quote(ctx, snap, input.ProductID, input.SizeCm, input.FabricID)
	if err != nil {
		if errors.Is(err, pricing.ErrFabricNotFound) || errors.Is(err, pricing.ErrPriceRowNotFound) {
			return nil, unavailable("combination is not currently sellable")
		}
		return nil, err
	}

	cart, err := s.repo.FindOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	existing, err := s.repo.FindLineForCombination(ctx, cart.ID, input.ProductID, input.SizeCm, input.FabricID)
	switch {
	case err == nil:
		// merge into the existing line and refresh its snapshot
		newQty := existing.Quantity + input.Quantity
		if err := s.repo.UpdateLineQuantity(ctx, existing.ID, newQty); err != nil {
			return nil, fmt.Errorf("merge cart line: %w", err)
		}
		if err := s.repo.UpdateLinePrice(ctx, existing.ID, quote.EffectivePrice); err != nil {
			return nil, fmt.Errorf("refresh line price: %w", err)
		}
		existing.Quantity = newQty
		existing.PreviewUnitPrice = quote.EffectivePrice
		return existing, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		// fall through to create
	default:
		return nil, err
	}

	line := &models.CartLine{
		CartID:           cart.ID,
		ProductID:        input.ProductID,
		SizeCm:           input.SizeCm,
		FabricID:         input.FabricID,
		Quantity:         input.Quantity,
		PreviewUnitPrice: quote.EffectivePrice,
	}
	return s.repo.CreateLine(ctx, line)
}

// UpdateLineQuantity changes the quantity of a line the user owns.
func (s *service) UpdateLineQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) (*models.CartLine, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
			WithDetails(map[string]any{"field": "quantity"})
	}

	line, err := s.ownedLine(ctx, userID, lineID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateLineQuantity(ctx, line.ID, quantity); err != nil {
		return nil, fmt.Errorf("update quantity: %w", err)
	}
	line.Quantity = quantity
	return line, nil
}

// RemoveLine deletes a line the user owns.
func (s *service) RemoveLine(ctx context.Context, userID, lineID uuid.UUID) error {
	line, err := s.ownedLine(ctx, userID, lineID)
	if err != nil {
		return err
	}
	return s.repo.DeleteLine(ctx, line.ID)
}

// Validate runs reconciliation on explicit request and reports the outcome.
func (s *service) Validate(ctx context.Context, snap *catalog.Snapshot, userID uuid.UUID) (*Result, error) {
	cart, err := s.repo.FindOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return s.reconciler.Reconcile(ctx, snap, cart)
}

// ApplyCoupon stores the coupon code by value on the cart.
func (s *service) ApplyCoupon(ctx context.Context, userID uuid.UUID, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required").
			WithDetails(map[string]any{"field": "code"})
	}

	cart, err := s.repo.FindOrCreateByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}
	return s.repo.SetCoupon(ctx, cart.ID, &code)
}

// ownedLine loads a line and verifies it belongs to the user's cart. Lines in
// other carts surface as not found so ids cannot be probed.
func (s *service) ownedLine(ctx context.Context, userID, lineID uuid.UUID) (*models.CartLine, error) {
	line, err := s.repo.FindLine(ctx, lineID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	if err != nil {
		return nil, err
	}

	cart, err := s.repo.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	if err != nil {
		return nil, err
	}
	if line.CartID != cart.ID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	return line, nil
}

func unavailable(message string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).
		WithDetails(map[string]any{"available": false})
}

func buildView(cart *models.Cart, result *Result) *View {
	view := &View{
		CartID:       cart.ID,
		Lines:        make([]LineView, 0, len(result.Lines)),
		Total:        result.Total(),
		CouponCode:   cart.CouponCode,
		RemovedCount: result.RemovedCount(),
		UpdatedCount: result.UpdatedCount,
		Message:      result.Summary,
	}
	for _, priced := range result.Lines {
		view.Lines = append(view.Lines, LineView{
			ID:        priced.Line.ID,
			ProductID: priced.Line.ProductID,
			SizeCm:    priced.Line.SizeCm,
			FabricID:  priced.Line.FabricID,
			Quantity:  priced.Line.Quantity,
			UnitPrice: priced.EffectivePrice,
			LineTotal: priced.EffectivePrice.Mul(decimal.NewFromInt(int64(priced.Line.Quantity))),
		})
	}
	return view
}
