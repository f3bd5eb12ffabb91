package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/arborhaus/arborhaus-backend/internal/catalog"
	"github.com/arborhaus/arborhaus-backend/pkg/db/models"
	pkgerrors "github.com/arborhaus/arborhaus-backend/pkg/errors"
)

func newServiceFixture(t *testing.T) (*reconcilerFixture, Service) {
	t.Helper()
	f := newReconcilerFixture(t)
	svc, err := NewService(f.repo, f.reconciler, f.resolver)
	require.NoError(t, err)
	return f, svc
}

func TestAddLine_SnapshotsEffectivePrice(t *testing.T) {
	f, svc := newServiceFixture(t)
	userID := uuid.New()

	line, err := svc.AddLine(context.Background(), f.featuredSnapshot(), userID, AddLineInput{
		ProductID: f.productID,
		SizeCm:    200,
		FabricID:  f.fabricID,
		Quantity:  2,
	})
	require.NoError(t, err)
	require.Equal(t, 2, line.Quantity)
	require.True(t, line.PreviewUnitPrice.Equal(decimal.RequireFromString("850.00")), "got %s", line.PreviewUnitPrice)
}

func TestAddLine_MergesExistingCombination(t *testing.T) {
	f, svc := newServiceFixture(t)
	userID := uuid.New()
	snap := f.featuredSnapshot()
	ctx := context.Background()

	input := AddLineInput{ProductID: f.productID, SizeCm: 200, FabricID: f.fabricID, Quantity: 1}
	first, err := svc.AddLine(ctx, snap, userID, input)
	require.NoError(t, err)

	second, err := svc.AddLine(ctx, snap, userID, input)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 2, second.Quantity)

	view, err := svc.GetCart(ctx, snap, userID)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	require.True(t, view.Total.Equal(decimal.RequireFromString("1700.00")))
}

func TestAddLine_RejectsBadQuantity(t *testing.T) {
	f, svc := newServiceFixture(t)

	_, err := svc.AddLine(context.Background(), f.featuredSnapshot(), uuid.New(), AddLineInput{
		ProductID: f.productID,
		SizeCm:    200,
		FabricID:  f.fabricID,
		Quantity:  0,
	})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestAddLine_UnsellableCombination(t *testing.T) {
	f, svc := newServiceFixture(t)

	_, err := svc.AddLine(context.Background(), f.featuredSnapshot(), uuid.New(), AddLineInput{
		ProductID: f.productID,
		SizeCm:    999, // no price row at this size
		FabricID:  f.fabricID,
		Quantity:  1,
	})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestAddLine_WhitelistBlocked(t *testing.T) {
	f, svc := newServiceFixture(t)

	whitelist := []uuid.UUID{uuid.New()}
	snap := catalog.SnapshotFromConfig(&models.SiteConfig{ActiveProductIDs: &whitelist})

	_, err := svc.AddLine(context.Background(), snap, uuid.New(), AddLineInput{
		ProductID: f.productID,
		SizeCm:    200,
		FabricID:  f.fabricID,
		Quantity:  1,
	})
	require.Error(t, err)
}

func TestUpdateLineQuantity_OwnershipEnforced(t *testing.T) {
	f, svc := newServiceFixture(t)
	ctx := context.Background()
	snap := f.featuredSnapshot()

	owner := uuid.New()
	line, err := svc.AddLine(ctx, snap, owner, AddLineInput{
		ProductID: f.productID, SizeCm: 200, FabricID: f.fabricID, Quantity: 1,
	})
	require.NoError(t, err)

	_, err = svc.UpdateLineQuantity(ctx, uuid.New(), line.ID, 3)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	updated, err := svc.UpdateLineQuantity(ctx, owner, line.ID, 3)
	require.NoError(t, err)
	require.Equal(t, 3, updated.Quantity)
}

func TestRemoveLine(t *testing.T) {
	f, svc := newServiceFixture(t)
	ctx := context.Background()
	snap := f.featuredSnapshot()

	owner := uuid.New()
	line, err := svc.AddLine(ctx, snap, owner, AddLineInput{
		ProductID: f.productID, SizeCm: 200, FabricID: f.fabricID, Quantity: 1,
	})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveLine(ctx, owner, line.ID))

	view, err := svc.GetCart(ctx, snap, owner)
	require.NoError(t, err)
	require.Empty(t, view.Lines)
}

func TestValidate_ReportsCounts(t *testing.T) {
	f, svc := newServiceFixture(t)
	ctx := context.Background()
	cart := f.seedCart(t, "851.00", 1)

	result, err := svc.Validate(ctx, f.featuredSnapshot(), cart.UserID)
	require.NoError(t, err)
	require.Equal(t, 1, result.UpdatedCount)
	require.Zero(t, result.RemovedCount())
	require.NotEmpty(t, result.Summary)
}

func TestApplyCoupon(t *testing.T) {
	f, svc := newServiceFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, svc.ApplyCoupon(ctx, userID, "SPRING-OAK"))

	cart, err := f.repo.FindByUser(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, cart.CouponCode)
	require.Equal(t, "SPRING-OAK", *cart.CouponCode)

	require.Error(t, svc.ApplyCoupon(ctx, userID, "   "))
}
