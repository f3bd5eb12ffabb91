package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arborhaus/arborhaus-backend/pkg/db/models"
	"github.com/arborhaus/arborhaus-backend/pkg/enums"
	"github.com/arborhaus/arborhaus-backend/pkg/pagination"
)

// Repository covers order persistence: the order row, its immutable lines,
// the append-only status history, and per-order messages.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CreateOrder inserts the order row.
func (r *Repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// CreateLines inserts the order's line snapshots.
func (r *Repository) CreateLines(ctx context.Context, lines []models.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&lines).Error
}

// AppendHistory adds one status history row. History rows are never updated
// or deleted.
func (r *Repository) AppendHistory(ctx context.Context, entry *models.OrderStatusHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// FindByID loads an order with lines and history.
func (r *Repository) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&order, "id = ?", orderID).
		Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByIDForUser loads an order only when it belongs to the user.
func (r *Repository) FindByIDForUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&order, "id = ? AND user_id = ?", orderID, userID).
		Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateStatus rewrites the order's status field. Last write wins.
func (r *Repository) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("status", status).
		Error
}

// SetLastSeen stamps the viewing role's last-seen timestamp.
func (r *Repository) SetLastSeen(ctx context.Context, orderID uuid.UUID, role enums.ActorRole, at time.Time) error {
	column := "last_seen_customer_at"
	if role.IsStaff() {
		column = "last_seen_staff_at"
	}
	// UpdateColumn: a view stamp must not bump updated_at, or viewing an
	// order would immediately re-flag it as changed.
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		UpdateColumn(column, at).
		Error
}

// ListByUser returns the user's orders, newest first, cursor-paginated.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*pagination.Page[models.Order], error) {
	return r.listOrders(ctx, params, func(q *gorm.DB) *gorm.DB {
		return q.Where("user_id = ?", userID)
	})
}

// ListAll returns every order, newest first, cursor-paginated.
func (r *Repository) ListAll(ctx context.Context, params pagination.Params) (*pagination.Page[models.Order], error) {
	return r.listOrders(ctx, params, nil)
}

func (r *Repository) listOrders(ctx context.Context, params pagination.Params, scope func(*gorm.DB) *gorm.DB) (*pagination.Page[models.Order], error) {
	pageSize := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	q := r.db.WithContext(ctx).Model(&models.Order{}).Preload("Lines")
	if scope != nil {
		q = scope(q)
	}
	if cursor != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	if err := q.Order("created_at DESC").Order("id DESC").Limit(pagination.LimitWithBuffer(params.Limit)).Find(&rows).Error; err != nil {
		return nil, err
	}

	page := &pagination.Page[models.Order]{Items: rows}
	if len(rows) > pageSize {
		page.Items = rows[:pageSize]
		last := page.Items[len(page.Items)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

// ListHistory returns the order's transitions oldest first.
func (r *Repository) ListHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusHistory, error) {
	var rows []models.OrderStatusHistory
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).
		Error
	return rows, err
}

// CreateMessage appends a message to the order.
func (r *Repository) CreateMessage(ctx context.Context, msg *models.OrderMessage) (*models.OrderMessage, error) {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

// FindMessage loads one message row.
func (r *Repository) FindMessage(ctx context.Context, messageID uuid.UUID) (*models.OrderMessage, error) {
	var msg models.OrderMessage
	if err := r.db.WithContext(ctx).First(&msg, "id = ?", messageID).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// EditMessage rewrites the body and flags the row as edited. The row itself
// stays in place for audit.
func (r *Repository) EditMessage(ctx context.Context, messageID uuid.UUID, body string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderMessage{}).
		Where("id = ?", messageID).
		Updates(map[string]any{
			"body":      body,
			"edited":    true,
			"edited_at": at,
		}).
		Error
}

// SoftDeleteMessage flags the row as deleted without removing it.
func (r *Repository) SoftDeleteMessage(ctx context.Context, messageID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderMessage{}).
		Where("id = ?", messageID).
		Updates(map[string]any{
			"deleted":    true,
			"deleted_at": at,
		}).
		Error
}

// ListMessages returns the order's messages oldest first, excluding deleted
// rows.
func (r *Repository) ListMessages(ctx context.Context, orderID uuid.UUID) ([]models.OrderMessage, error) {
	var rows []models.OrderMessage
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND deleted = ?", orderID, false).
		Order("created_at ASC").
		Find(&rows).
		Error
	return rows, err
}

// LatestCustomerMessageAt returns when the customer last wrote on the order,
// nil when they never have. Deleted messages still count; the customer did
// reach out even if the text was later retracted.
func (r *Repository) LatestCustomerMessageAt(ctx context.Context, orderID uuid.UUID) (*time.Time, error) {
	var msg models.OrderMessage
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND author_role = ?", orderID, enums.ActorRoleCustomer).
		Order("created_at DESC").
		First(&msg).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	at := msg.CreatedAt
	return &at, nil
}

// LatestCustomerMessageTimes returns the latest customer message time per
// order for the given set, one query for list views.
func (r *Repository) LatestCustomerMessageTimes(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]time.Time, error) {
	if len(orderIDs) == 0 {
		return map[uuid.UUID]time.Time{}, nil
	}

	type row struct {
		OrderID uuid.UUID
		Latest  time.Time
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.OrderMessage{}).
		Select("order_id, MAX(created_at) AS latest").
		Where("order_id IN ? AND author_role = ?", orderIDs, enums.ActorRoleCustomer).
		Group("order_id").
		Scan(&rows).
		Error
	if err != nil {
		return nil, err
	}

	result := make(map[uuid.UUID]time.Time, len(rows))
	for _, rec := range rows {
		result[rec.OrderID] = rec.Latest
	}
	return result, nil
}
