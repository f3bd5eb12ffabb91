package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arborhaus/arborhaus-backend/internal/cart"
	"github.com/arborhaus/arborhaus-backend/internal/catalog"
	"github.com/arborhaus/arborhaus-backend/internal/notify"
	"github.com/arborhaus/arborhaus-backend/internal/orders"
	"github.com/arborhaus/arborhaus-backend/pkg/config"
	"github.com/arborhaus/arborhaus-backend/pkg/db"
	"github.com/arborhaus/arborhaus-backend/pkg/db/models"
	"github.com/arborhaus/arborhaus-backend/pkg/enums"
	pkgerrors "github.com/arborhaus/arborhaus-backend/pkg/errors"
	"github.com/arborhaus/arborhaus-backend/pkg/logger"
	"github.com/arborhaus/arborhaus-backend/pkg/metrics"
)

const orderCodeIndex = "idx_orders_code"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type snapshotLoader interface {
	Load(ctx context.Context) (*catalog.Snapshot, error)
}

type reconciler interface {
	Reconcile(ctx context.Context, snap *catalog.Snapshot, c *models.Cart) (*cart.Result, error)
}

type catalogLookup interface {
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindFabric(ctx context.Context, id uuid.UUID) (*models.Fabric, error)
}

type notifier interface {
	Send(ctx context.Context, notifications ...notify.Notification)
}

// Transactor converts a reconciled cart into an order in one transaction.
type Transactor struct {
	carts      *cart.Repository
	reconciler reconciler
	snapshots  snapshotLoader
	orders     *orders.Repository
	catalog    catalogLookup
	tx         txRunner
	sender     notifier
	engine     *metrics.EngineMetrics
	logg       *logger.Logger
	checkout   config.CheckoutConfig
	notifyCfg  config.NotifyConfig
}

// NewTransactor wires the checkout dependencies.
func NewTransactor(
	carts *cart.Repository,
	rec reconciler,
	snapshots snapshotLoader,
	ordersRepo *orders.Repository,
	lookup catalogLookup,
	tx txRunner,
	sender notifier,
	engine *metrics.EngineMetrics,
	logg *logger.Logger,
	checkoutCfg config.CheckoutConfig,
	notifyCfg config.NotifyConfig,
) (*Transactor, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if rec == nil {
		return nil, fmt.Errorf("reconciler required")
	}
	if snapshots == nil {
		return nil, fmt.Errorf("snapshot loader required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if lookup == nil {
		return nil, fmt.Errorf("catalog lookup required")
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
	return &Transactor{
		carts:      carts,
		reconciler: rec,
		snapshots:  snapshots,
		orders:     ordersRepo,
		catalog:    lookup,
		tx:         tx,
		sender:     sender,
		engine:     engine,
		logg:       logg,
		checkout:   checkoutCfg,
		notifyCfg:  notifyCfg,
	}, nil
}

// Checkout reconciles the user's cart against the current snapshot and, when
// purchasable lines survive, atomically creates the order with its line
// snapshots and first history row while emptying the cart. Line prices come
// from the reconciliation output and are never re-derived here.
func (t *Transactor) Checkout(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	ctx = t.logg.WithUserID(ctx, userID.String())

	snap, err := t.snapshots.Load(ctx)
	if err != nil {
		t.engine.IncCheckoutFailure()
		return nil, err
	}

	userCart, err := t.carts.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		t.engine.IncCheckoutFailure()
		return nil, emptyCartError(0)
	}
	if err != nil {
		t.engine.IncCheckoutFailure()
		return nil, err
	}

	result, err := t.reconciler.Reconcile(ctx, snap, userCart)
	if err != nil {
		t.engine.IncCheckoutFailure()
		return nil, err
	}
	if len(result.Lines) == 0 {
		t.engine.IncCheckoutFailure()
		return nil, emptyCartError(result.RemovedCount())
	}

	lines, err := t.buildLines(ctx, result.Lines)
	if err != nil {
		t.engine.IncCheckoutFailure()
		return nil, err
	}

	order, err := t.commit(ctx, userID, userCart.ID, lines, result)
	if err != nil {
		t.engine.IncCheckoutFailure()
		return nil, err
	}
	t.engine.IncCheckoutSuccess()

	ctx = t.logg.WithOrderID(ctx, order.ID.String())
	t.logg.Info(t.logg.WithFields(ctx, map[string]any{
		"code":  order.Code,
		"total": order.Total.String(),
		"lines": len(order.Lines),
	}), "checkout committed")

	t.sender.Send(ctx,
		notify.Notification{
			Recipient: userID.String(),
			Subject:   fmt.Sprintf("Order %s received", order.Code),
			Template:  enums.TemplateOrderConfirmation,
			Payload: map[string]any{
				"order_id": order.ID.String(),
				"code":     order.Code,
				"total":    order.Total.String(),
			},
		},
		notify.Notification{
			Recipient: t.notifyCfg.FulfillmentEmail,
			Subject:   fmt.Sprintf("New order %s", order.Code),
			Template:  enums.TemplateNewOrderAlert,
			Payload: map[string]any{
				"order_id": order.ID.String(),
				"code":     order.Code,
				"lines":    len(order.Lines),
			},
		},
	)
	return order, nil
}

// commit runs the single checkout transaction, regenerating the order code
// when a concurrent checkout claimed the same one.
func (t *Transactor) commit(ctx context.Context, userID, cartID uuid.UUID, lines []models.OrderLine, result *cart.Result) (*models.Order, error) {
	attempts := t.checkout.CodeRetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		order := &models.Order{
			Code:   newOrderCode(t.checkout.CodePrefix),
			UserID: userID,
			Status: enums.OrderStatusRequested,
			Total:  result.Total(),
		}

		lastErr = t.tx.WithTx(ctx, func(tx *gorm.DB) error {
			ordersRepo := t.orders.WithTx(tx)
			if _, err := ordersRepo.CreateOrder(ctx, order); err != nil {
				return err
			}
			for i := range lines {
				lines[i].ID = uuid.Nil
				lines[i].OrderID = order.ID
			}
			if err := ordersRepo.CreateLines(ctx, lines); err != nil {
				return fmt.Errorf("create order lines: %w", err)
			}
			if err := ordersRepo.AppendHistory(ctx, &models.OrderStatusHistory{
				OrderID:   order.ID,
				Status:    enums.OrderStatusRequested,
				ActorID:   userID,
				ActorRole: enums.ActorRoleCustomer,
			}); err != nil {
				return fmt.Errorf("append initial history: %w", err)
			}
			if err := t.carts.WithTx(tx).DeleteAllLines(ctx, cartID); err != nil {
				return fmt.Errorf("empty cart: %w", err)
			}
			return nil
		})
		if lastErr == nil {
			order.Lines = lines
			return order, nil
		}
		if !db.IsUniqueViolation(lastErr, orderCodeIndex) {
			return nil, lastErr
		}
		t.logg.Warn(t.logg.WithField(ctx, "code", order.Code), "order code collision, retrying")
	}
	return nil, fmt.Errorf("order code generation exhausted retries: %w", lastErr)
}

// buildLines denormalizes product and fabric names into immutable order line
// snapshots.
func (t *Transactor) buildLines(ctx context.Context, priced []cart.PricedLine) ([]models.OrderLine, error) {
	productNames := map[uuid.UUID]string{}
	fabricNames := map[uuid.UUID]string{}

	lines := make([]models.OrderLine, 0, len(priced))
	for _, item := range priced {
		productName, ok := productNames[item.Line.ProductID]
		if !ok {
			product, err := t.catalog.FindProduct(ctx, item.Line.ProductID)
			if err != nil {
				return nil, fmt.Errorf("load product %s: %w", item.Line.ProductID, err)
			}
			productName = product.Name
			productNames[item.Line.ProductID] = productName
		}

		fabricName, ok := fabricNames[item.Line.FabricID]
		if !ok {
			fabric, err := t.catalog.FindFabric(ctx, item.Line.FabricID)
			if err != nil {
				return nil, fmt.Errorf("load fabric %s: %w", item.Line.FabricID, err)
			}
			fabricName = fabric.Name
			fabricNames[item.Line.FabricID] = fabricName
		}

		lines = append(lines, models.OrderLine{
			ProductID:   item.Line.ProductID,
			ProductName: productName,
			SizeCm:      item.Line.SizeCm,
			FabricID:    item.Line.FabricID,
			FabricName:  fabricName,
			Quantity:    item.Line.Quantity,
			UnitPrice:   item.EffectivePrice,
		})
	}
	return lines, nil
}

func emptyCartError(removed int) error {
	return pkgerrors.New(pkgerrors.CodeConsistency, "no purchasable lines remain in the cart").
		WithDetails(map[string]any{"removed_count": removed})
}
