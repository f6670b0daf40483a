package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"coffeeshop-counter/internal/microservices/counter/domain/dao"
)

type OrderRepositoryInterface interface {
	// CommitOrder writes the header and all line items in one transaction.
	CommitOrder(ctx context.Context, order dao.Order, lines []dao.LineItem) (uuid.UUID, error)
	ListOrders(ctx context.Context) ([]dao.Order, error)
	ListLineItems(ctx context.Context, orderID uuid.UUID) ([]dao.LineItem, error)
}

type OrderRepository struct {
	db *sqlx.DB
}

func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const (
	insertOrderQuery = `
		INSERT INTO orders (id, order_source, location, loyalty_member_id, order_status, placed_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	insertLineItemQuery = `
		INSERT INTO line_items (id, item_type, name, price, item_status, is_barista_order, order_id, line_no)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	listOrdersQuery = `
		SELECT id, order_source, location, loyalty_member_id, order_status, placed_at
		FROM orders`

	listLineItemsQuery = `
		SELECT id, item_type, name, price, item_status, is_barista_order, order_id, line_no
		FROM line_items
		WHERE order_id = ?
		ORDER BY line_no`
)

// Transact runs fn inside one transaction; any error or panic rolls it back.
func (r *OrderRepository) Transact(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *OrderRepository) CommitOrder(ctx context.Context, order dao.Order, lines []dao.LineItem) (uuid.UUID, error) {
	ctx, span := otel.Tracer("counter/repository").Start(ctx, "repository.CommitOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", order.ID.String()), attribute.Int("order.lines", len(lines)))

	err := r.Transact(ctx, func(tx *sqlx.Tx) error {
		// 1. Insert order
		if _, err := tx.ExecContext(ctx, tx.Rebind(insertOrderQuery),
			order.ID,
			int(order.OrderSource),
			int(order.Location),
			order.LoyaltyMemberID,
			int(order.OrderStatus),
			order.PlacedAt,
		); err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		// 2. Insert line items, all pointing at the header
		for _, item := range lines {
			if _, err := tx.ExecContext(ctx, tx.Rebind(insertLineItemQuery),
				item.ID,
				int(item.ItemType),
				item.Name,
				item.Price,
				int(item.ItemStatus),
				item.IsBaristaOrder,
				order.ID,
				item.LineNo,
			); err != nil {
				return fmt.Errorf("failed to insert line item %d (type %d): %w", item.LineNo, item.ItemType, err)
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return uuid.Nil, err
	}
	return order.ID, nil
}

func (r *OrderRepository) ListOrders(ctx context.Context) ([]dao.Order, error) {
	var orders []dao.Order
	if err := r.db.SelectContext(ctx, &orders, listOrdersQuery); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (r *OrderRepository) ListLineItems(ctx context.Context, orderID uuid.UUID) ([]dao.LineItem, error) {
	items := []dao.LineItem{}
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(listLineItemsQuery), orderID); err != nil {
		return nil, fmt.Errorf("failed to list line items of order %s: %w", orderID, err)
	}
	return items, nil
}
