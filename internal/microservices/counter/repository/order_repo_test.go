package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffeeshop-counter/internal/config"
	"coffeeshop-counter/internal/connections/database"
	"coffeeshop-counter/internal/microservices/counter/domain/dao"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.ConnectDB(ctx, config.DatabaseConfig{URL: "sqlite::memory:"}, database.Options{MaxRetries: 1})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(ctx, db))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newOrder() dao.Order {
	return dao.Order{
		ID:              uuid.New(),
		OrderSource:     dao.OrderSourceWeb,
		Location:        dao.LocationCharlotte,
		LoyaltyMemberID: dao.NoLoyaltyMember,
		OrderStatus:     dao.OrderStatusPlaced,
		PlacedAt:        time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func newLine(orderID uuid.UUID, lineNo int, itemType dao.ItemType, price string, barista bool) dao.LineItem {
	return dao.LineItem{
		ID:             uuid.New(),
		ItemType:       itemType,
		Name:           itemType.Name(),
		Price:          decimal.RequireFromString(price),
		ItemStatus:     dao.ItemStatusNew,
		IsBaristaOrder: barista,
		OrderID:        orderID,
		LineNo:         lineNo,
	}
}

func TestCommitOrder_RoundTrip(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t))
	ctx := context.Background()

	order := newOrder()
	lines := []dao.LineItem{
		newLine(order.ID, 0, 0, "4.50", true),
		newLine(order.ID, 1, 1, "3.00", true),
		newLine(order.ID, 2, 7, "0", false),
		newLine(order.ID, 3, 8, "1.125", false),
	}

	id, err := repo.CommitOrder(ctx, order, lines)
	require.NoError(t, err)
	assert.Equal(t, order.ID, id)

	orders, err := repo.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	got := orders[0]
	assert.Equal(t, order.ID, got.ID)
	assert.Equal(t, dao.OrderSourceWeb, got.OrderSource)
	assert.Equal(t, dao.LocationCharlotte, got.Location)
	assert.Equal(t, uuid.Nil, got.LoyaltyMemberID)
	assert.Equal(t, dao.OrderStatusPlaced, got.OrderStatus)
	assert.True(t, order.PlacedAt.Equal(got.PlacedAt))

	items, err := repo.ListLineItems(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, items, 4)
	for i, it := range items {
		assert.Equal(t, lines[i].ID, it.ID)
		assert.Equal(t, lines[i].ItemType, it.ItemType)
		assert.Equal(t, lines[i].Name, it.Name)
		assert.True(t, lines[i].Price.Equal(it.Price), "price %s != %s", lines[i].Price, it.Price)
		assert.Equal(t, lines[i].IsBaristaOrder, it.IsBaristaOrder)
		assert.Equal(t, dao.ItemStatusNew, it.ItemStatus)
		assert.Equal(t, order.ID, it.OrderID)
	}
}

func TestCommitOrder_LineItemFailureLeavesNothing(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t))
	ctx := context.Background()

	order := newOrder()
	dup := newLine(order.ID, 0, 0, "4.50", true)
	second := dup
	second.LineNo = 1 // same primary key: the second insert fails after the header went in

	_, err := repo.CommitOrder(ctx, order, []dao.LineItem{dup, second})
	require.Error(t, err)

	orders, err := repo.ListOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)

	items, err := repo.ListLineItems(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCommitOrder_DuplicateOrderID(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t))
	ctx := context.Background()

	order := newOrder()
	_, err := repo.CommitOrder(ctx, order, []dao.LineItem{newLine(order.ID, 0, 1, "3", true)})
	require.NoError(t, err)

	_, err = repo.CommitOrder(ctx, order, []dao.LineItem{newLine(order.ID, 0, 1, "3", true)})
	require.Error(t, err)

	items, err := repo.ListLineItems(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestCommitOrder_CancelledContext(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	order := newOrder()
	_, err := repo.CommitOrder(ctx, order, []dao.LineItem{newLine(order.ID, 0, 0, "4.5", true)})
	require.Error(t, err)

	orders, err := repo.ListOrders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestTransact_RollsBackOnError(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t))
	ctx := context.Background()
	order := newOrder()
	boom := errors.New("boom")

	err := repo.Transact(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(insertOrderQuery),
			order.ID, 0, 0, order.LoyaltyMemberID, 1, order.PlacedAt); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	orders, err := repo.ListOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestTransact_RollsBackOnPanic(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t))
	ctx := context.Background()
	order := newOrder()

	assert.Panics(t, func() {
		_ = repo.Transact(ctx, func(tx *sqlx.Tx) error {
			_, _ = tx.ExecContext(ctx, tx.Rebind(insertOrderQuery),
				order.ID, 0, 0, order.LoyaltyMemberID, 1, order.PlacedAt)
			panic("mid-transaction")
		})
	})

	orders, err := repo.ListOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestListLineItems_UnknownOrder(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t))

	items, err := repo.ListLineItems(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}
