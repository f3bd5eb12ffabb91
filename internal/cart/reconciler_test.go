package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/arborhaus/arborhaus-backend/internal/catalog"
	"github.com/arborhaus/arborhaus-backend/internal/pricing"
	"github.com/arborhaus/arborhaus-backend/pkg/config"
	"github.com/arborhaus/arborhaus-backend/pkg/db/models"
	"github.com/arborhaus/arborhaus-backend/pkg/enums"
)

type reconcilerFixture struct {
	conn       *gorm.DB
	catalog    *catalog.Repository
	repo       *Repository
	reconciler *Reconciler
	resolver   *pricing.Resolver

	productID uuid.UUID
	fabricID  uuid.UUID
	rowID     uuid.UUID
}

func newReconcilerFixture(t *testing.T) *reconcilerFixture {
	t.Helper()
	conn := openTestDB(t)

	catalogRepo := catalog.NewRepository(conn)
	cartRepo := NewRepository(conn)

	resolver, err := pricing.NewResolver(catalogRepo, catalogRepo)
	require.NoError(t, err)

	reconciler, err := NewReconciler(resolver, cartRepo, directTxRunner{db: conn}, testLogger(), testMetrics(), config.PricingConfig{
		DriftRemovePercent:  5,
		DriftCorrectPercent: 0.01,
	})
	require.NoError(t, err)

	fabric := &models.Fabric{Name: "Loom Grey", Grade: enums.FabricGrade3, IsActive: true}
	require.NoError(t, conn.Create(fabric).Error)

	productID := uuid.New()
	rowDiscount := decimal.RequireFromString("10")
	row := &models.PriceMatrixRow{
		ProductID:       productID,
		SizeCm:          200,
		Grade1:          decimal.RequireFromString("800.00"),
		Grade2:          decimal.RequireFromString("900.00"),
		Grade3:          decimal.RequireFromString("1000.00"),
		Grade4:          decimal.RequireFromString("1100.00"),
		Grade5:          decimal.RequireFromString("1200.00"),
		Grade6:          decimal.RequireFromString("1300.00"),
		Grade7:          decimal.RequireFromString("1400.00"),
		Leather:         decimal.RequireFromString("2100.00"),
		DiscountPercent: &rowDiscount,
	}
	require.NoError(t, conn.Create(row).Error)

	return &reconcilerFixture{
		conn:       conn,
		catalog:    catalogRepo,
		repo:       cartRepo,
		reconciler: reconciler,
		resolver:   resolver,
		productID:  productID,
		fabricID:   fabric.ID,
		rowID:      row.ID,
	}
}

// snapshot with featured discount 15 for the product: effective price 850.00
func (f *reconcilerFixture) featuredSnapshot() *catalog.Snapshot {
	return catalog.SnapshotFromConfig(&models.SiteConfig{
		FeaturedDiscounts: models.FeaturedDiscountMap{
			f.productID: decimal.RequireFromString("15"),
		},
	})
}

func (f *reconcilerFixture) seedCart(t *testing.T, preview string, qty int) *models.Cart {
	t.Helper()
	cart := &models.Cart{UserID: uuid.New()}
	require.NoError(t, f.conn.Create(cart).Error)
	line := &models.CartLine{
		CartID:           cart.ID,
		ProductID:        f.productID,
		SizeCm:           200,
		FabricID:         f.fabricID,
		Quantity:         qty,
		PreviewUnitPrice: decimal.RequireFromString(preview),
	}
	require.NoError(t, f.conn.Create(line).Error)
	cart.Lines = []models.CartLine{*line}
	return cart
}

func (f *reconcilerFixture) reload(t *testing.T, cart *models.Cart) *models.Cart {
	t.Helper()
	loaded, err := f.repo.FindByUser(context.Background(), cart.UserID)
	require.NoError(t, err)
	return loaded
}

func TestReconcile_NoDriftLeavesCartAlone(t *testing.T) {
	f := newReconcilerFixture(t)
	cart := f.seedCart(t, "850.00", 2)

	result, err := f.reconciler.Reconcile(context.Background(), f.featuredSnapshot(), cart)
	require.NoError(t, err)
	require.Zero(t, result.RemovedCount())
	require.Zero(t, result.UpdatedCount)
	require.Len(t, result.Lines, 1)
	require.True(t, result.Total().Equal(decimal.RequireFromString("1700.00")))
	require.Equal(t, "cart is up to date", result.Summary)
}

func TestReconcile_SmallDriftCorrectsInPlace(t *testing.T) {
	f := newReconcilerFixture(t)
	// 851 vs current 850: drift 0.1175%, inside the correction band
	cart := f.seedCart(t, "851.00", 1)

	result, err := f.reconciler.Reconcile(context.Background(), f.featuredSnapshot(), cart)
	require.NoError(t, err)
	require.Zero(t, result.RemovedCount())
	require.Equal(t, 1, result.UpdatedCount)
	require.Len(t, result.Lines, 1)
	require.True(t, result.Lines[0].EffectivePrice.Equal(decimal.RequireFromString("850.00")))

	reloaded := f.reload(t, cart)
	require.Len(t, reloaded.Lines, 1)
	require.True(t, reloaded.Lines[0].PreviewUnitPrice.Equal(decimal.RequireFromString("850.00")))
}

func TestReconcile_LargeDriftRemovesLine(t *testing.T) {
	f := newReconcilerFixture(t)
	cart := f.seedCart(t, "850.00", 2)

	// row discount moves to 20%, new max: effective 800.00, drift 5.88% > 5
	newDiscount := decimal.RequireFromString("20")
	require.NoError(t, f.conn.Model(&models.PriceMatrixRow{}).
		Where("id = ?", f.rowID).
		Update("discount_percent", newDiscount).Error)

	result, err := f.reconciler.Reconcile(context.Background(), f.featuredSnapshot(), cart)
	require.NoError(t, err)
	require.Equal(t, 1, result.RemovedCount())
	require.Equal(t, enums.RemovalPriceDrift, result.Removed[0].Reason)
	require.Empty(t, result.Lines)
	require.True(t, result.Total().IsZero())

	reloaded := f.reload(t, cart)
	require.Empty(t, reloaded.Lines)
}

func TestReconcile_ZeroPreviewForcesRemoval(t *testing.T) {
	f := newReconcilerFixture(t)
	cart := f.seedCart(t, "0.00", 1)

	result, err := f.reconciler.Reconcile(context.Background(), f.featuredSnapshot(), cart)
	require.NoError(t, err)
	require.Equal(t, 1, result.RemovedCount())
	require.Equal(t, enums.RemovalPriceDrift, result.Removed[0].Reason)
}

func TestReconcile_WhitelistEviction(t *testing.T) {
	f := newReconcilerFixture(t)
	cart := f.seedCart(t, "850.00", 1)

	whitelist := []uuid.UUID{uuid.New()} // excludes the product
	snap := catalog.SnapshotFromConfig(&models.SiteConfig{
		ActiveProductIDs: &whitelist,
		FeaturedDiscounts: models.FeaturedDiscountMap{
			f.productID: decimal.RequireFromString("15"),
		},
	})

	result, err := f.reconciler.Reconcile(context.Background(), snap, cart)
	require.NoError(t, err)
	require.Equal(t, 1, result.RemovedCount())
	require.Equal(t, enums.RemovalNotActiveInCatalog, result.Removed[0].Reason)
}

func TestReconcile_MissingPriceRowEviction(t *testing.T) {
	f := newReconcilerFixture(t)
	cart := f.seedCart(t, "850.00", 1)

	require.NoError(t, f.conn.Where("id = ?", f.rowID).Delete(&models.PriceMatrixRow{}).Error)

	result, err := f.reconciler.Reconcile(context.Background(), f.featuredSnapshot(), cart)
	require.NoError(t, err)
	require.Equal(t, 1, result.RemovedCount())
	require.Equal(t, enums.RemovalPriceUnavailable, result.Removed[0].Reason)
}

func TestReconcile_Idempotent(t *testing.T) {
	f := newReconcilerFixture(t)
	cart := f.seedCart(t, "851.00", 1)
	snap := f.featuredSnapshot()

	first, err := f.reconciler.Reconcile(context.Background(), snap, cart)
	require.NoError(t, err)
	require.Equal(t, 1, first.UpdatedCount)

	second, err := f.reconciler.Reconcile(context.Background(), snap, f.reload(t, cart))
	require.NoError(t, err)
	require.Zero(t, second.UpdatedCount)
	require.Zero(t, second.RemovedCount())
	require.Len(t, second.Lines, 1)
	require.True(t, second.Lines[0].EffectivePrice.Equal(decimal.RequireFromString("850.00")))
}
