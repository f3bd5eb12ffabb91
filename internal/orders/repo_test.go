package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/arborhaus/arborhaus-backend/pkg/db/models"
	"github.com/arborhaus/arborhaus-backend/pkg/enums"
	"github.com/arborhaus/arborhaus-backend/pkg/pagination"
)

func seedOrder(t *testing.T, db *gorm.DB, userID uuid.UUID, code string) *models.Order {
	t.Helper()
	order := &models.Order{
		Code:   code,
		UserID: userID,
		Status: enums.OrderStatusRequested,
		Total:  decimal.RequireFromString("850.00"),
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestRepositoryFindByIDForUserScopesOwnership(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	owner := uuid.New()
	order := seedOrder(t, db, owner, "AH-1001")

	found, err := repo.FindByIDForUser(ctx, order.ID, owner)
	require.NoError(t, err)
	require.Equal(t, order.ID, found.ID)

	_, err = repo.FindByIDForUser(ctx, order.ID, uuid.New())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryHistoryIsAppendOnlyAndOrdered(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, db, uuid.New(), "AH-1002")
	actor := uuid.New()

	statuses := []enums.OrderStatus{
		enums.OrderStatusRequested,
		enums.OrderStatusAwaitingPayment,
		enums.OrderStatusPaymentApproved,
	}
	for i, status := range statuses {
		require.NoError(t, repo.AppendHistory(ctx, &models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    status,
			ActorID:   actor,
			ActorRole: enums.ActorRoleStaff,
			CreatedAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
		}))
	}

	history, err := repo.ListHistory(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i, status := range statuses {
		require.Equal(t, status, history[i].Status)
	}
}

func TestRepositorySetLastSeenPicksRoleColumn(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, db, uuid.New(), "AH-1003")
	at := time.Date(2026, 4, 11, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.SetLastSeen(ctx, order.ID, enums.ActorRoleCustomer, at))
	require.NoError(t, repo.SetLastSeen(ctx, order.ID, enums.ActorRoleAdmin, at.Add(time.Minute)))

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, found.LastSeenCustomerAt)
	require.NotNil(t, found.LastSeenStaffAt)
	require.True(t, found.LastSeenStaffAt.After(*found.LastSeenCustomerAt))
}

func TestRepositoryListAllPaginates(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		order := seedOrder(t, db, uuid.New(), uuid.NewString())
		// spread created_at so cursor ordering is deterministic
		require.NoError(t, db.Model(order).
			Update("created_at", time.Now().UTC().Add(time.Duration(-i)*time.Hour)).Error)
	}

	first, err := repo.ListAll(ctx, pagination.Params{Limit: 3})
	require.NoError(t, err)
	require.Len(t, first.Items, 3)
	require.NotEmpty(t, first.NextCursor)

	second, err := repo.ListAll(ctx, pagination.Params{Limit: 3, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	require.Empty(t, second.NextCursor)
}

func TestRepositoryMessageSoftDelete(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, db, uuid.New(), "AH-1004")
	author := uuid.New()

	msg, err := repo.CreateMessage(ctx, &models.OrderMessage{
		OrderID:    order.ID,
		AuthorID:   author,
		AuthorRole: enums.ActorRoleCustomer,
		Body:       "any update on the walnut frame?",
	})
	require.NoError(t, err)

	require.NoError(t, repo.SoftDeleteMessage(ctx, msg.ID, time.Now().UTC()))

	visible, err := repo.ListMessages(ctx, order.ID)
	require.NoError(t, err)
	require.Empty(t, visible)

	// the row survives with its flags set
	kept, err := repo.FindMessage(ctx, msg.ID)
	require.NoError(t, err)
	require.True(t, kept.Deleted)
	require.NotNil(t, kept.DeletedAt)
}

func TestRepositoryLatestCustomerMessageCountsDeleted(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, db, uuid.New(), "AH-1005")

	latest, err := repo.LatestCustomerMessageAt(ctx, order.ID)
	require.NoError(t, err)
	require.Nil(t, latest)

	msg, err := repo.CreateMessage(ctx, &models.OrderMessage{
		OrderID:    order.ID,
		AuthorID:   uuid.New(),
		AuthorRole: enums.ActorRoleCustomer,
		Body:       "changed my mind on the fabric",
	})
	require.NoError(t, err)
	require.NoError(t, repo.SoftDeleteMessage(ctx, msg.ID, time.Now().UTC()))

	latest, err = repo.LatestCustomerMessageAt(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
}

func TestRepositoryLatestCustomerMessageTimesBatch(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	withMsg := seedOrder(t, db, uuid.New(), "AH-1006")
	without := seedOrder(t, db, uuid.New(), "AH-1007")

	_, err := repo.CreateMessage(ctx, &models.OrderMessage{
		OrderID:    withMsg.ID,
		AuthorID:   uuid.New(),
		AuthorRole: enums.ActorRoleCustomer,
		Body:       "is express delivery an option?",
	})
	require.NoError(t, err)

	// staff messages never trip the customer signal
	_, err = repo.CreateMessage(ctx, &models.OrderMessage{
		OrderID:    without.ID,
		AuthorID:   uuid.New(),
		AuthorRole: enums.ActorRoleStaff,
		Body:       "production slot confirmed",
	})
	require.NoError(t, err)

	times, err := repo.LatestCustomerMessageTimes(ctx, []uuid.UUID{withMsg.ID, without.ID})
	require.NoError(t, err)
	require.Contains(t, times, withMsg.ID)
	require.NotContains(t, times, without.ID)

	empty, err := repo.LatestCustomerMessageTimes(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, empty)
}
