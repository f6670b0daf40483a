package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"coffeeshop-counter/internal/common/logger"
	"coffeeshop-counter/internal/microservices/counter/domain"
	"coffeeshop-counter/internal/microservices/counter/domain/dao"
	"coffeeshop-counter/internal/microservices/counter/domain/dto"
	"coffeeshop-counter/internal/microservices/counter/events"
	"coffeeshop-counter/internal/microservices/counter/repository"
)

type OrderServiceInterface interface {
	// PlaceOrder prices, stores and announces one order and returns its id.
	// idempotencyKey may be empty.
	PlaceOrder(ctx context.Context, req dto.PlaceOrderRequest, idempotencyKey string) (uuid.UUID, error)
	// ListOrders returns every stored order with its line items.
	ListOrders(ctx context.Context) ([]dao.Order, error)
}

type OrderService struct {
	orders    repository.OrderRepositoryInterface
	idem      repository.IdempotencyStoreInterface
	resolver  PriceResolver
	publisher events.TicketPublisher
	lg        *logger.Logger

	now   func() time.Time
	newID func() uuid.UUID
}

func NewOrderService(
	orders repository.OrderRepositoryInterface,
	idem repository.IdempotencyStoreInterface,
	resolver PriceResolver,
	publisher events.TicketPublisher,
) *OrderService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &OrderService{
		orders:    orders,
		idem:      idem,
		resolver:  resolver,
		publisher: publisher,
		lg:        logger.New("counter-service"),
		now:       time.Now,
		newID:     uuid.New,
	}
}

func (s *OrderService) PlaceOrder(ctx context.Context, req dto.PlaceOrderRequest, idempotencyKey string) (id uuid.UUID, err error) {
	ctx, span := otel.Tracer("counter/service").Start(ctx, "service.PlaceOrder")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "place order failed")
		}
		span.End()
	}()

	// 1. Reject malformed orders before touching anything
	if err := req.Validate(); err != nil {
		return uuid.Nil, err
	}

	// 2. Claim the idempotency key
	key := ""
	if idempotencyKey != "" && s.idem != nil {
		existing, claimed, err := s.idem.Claim(ctx, idempotencyKey)
		switch {
		case err != nil:
			// redis trouble must not block the counter
			s.lg.WarnContext(ctx, "idempotency_unavailable", err, map[string]any{"idempotency_key": idempotencyKey})
		case !claimed && existing != uuid.Nil:
			s.lg.InfoContext(ctx, "order_replayed", map[string]any{"order_id": existing.String(), "idempotency_key": idempotencyKey})
			return existing, nil
		case !claimed:
			return uuid.Nil, domain.ErrDuplicateInFlight
		default:
			key = idempotencyKey
		}
	}
	defer func() {
		if err != nil && key != "" {
			if rerr := s.idem.Release(context.WithoutCancel(ctx), key); rerr != nil {
				s.lg.WarnContext(ctx, "idempotency_release_failed", rerr, map[string]any{"idempotency_key": key})
			}
		}
	}()

	// 3. Price and assemble
	order, lines, err := BuildOrder(ctx, req, s.resolver, s.now, s.newID)
	if err != nil {
		return uuid.Nil, err
	}
	span.SetAttributes(attribute.String("order.id", order.ID.String()))

	// 4. Store atomically
	id, err = s.orders.CommitOrder(ctx, order, lines)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", domain.ErrPlacementFailed, err)
	}

	if key != "" {
		if cerr := s.idem.Complete(context.WithoutCancel(ctx), key, id); cerr != nil {
			s.lg.WarnContext(ctx, "idempotency_complete_failed", cerr, map[string]any{"idempotency_key": key, "order_id": id.String()})
			// never leave the pending marker behind a committed order
			if rerr := s.idem.Release(context.WithoutCancel(ctx), key); rerr != nil {
				s.lg.WarnContext(ctx, "idempotency_release_failed", rerr, map[string]any{"idempotency_key": key})
			}
		}
	}

	// 5. Announce to the stations; the order stands regardless
	if perr := s.publisher.PublishTickets(context.WithoutCancel(ctx), order, lines); perr != nil {
		s.lg.ErrorContext(ctx, "ticket_publish_failed", perr, map[string]any{"order_id": id.String()})
	}

	s.lg.InfoContext(ctx, "order_placed", map[string]any{
		"order_id":   id.String(),
		"line_items": len(lines),
		"location":   int(order.Location),
	})
	return id, nil
}

func (s *OrderService) ListOrders(ctx context.Context) ([]dao.Order, error) {
	ctx, span := otel.Tracer("counter/service").Start(ctx, "service.ListOrders")
	defer span.End()

	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if orders == nil {
		orders = []dao.Order{}
	}

	for i := range orders {
		items, err := s.orders.ListLineItems(ctx, orders[i].ID)
		if err != nil {
			s.lg.WarnContext(ctx, "store_read_degraded",
				fmt.Errorf("%w: %w", domain.ErrStoreReadDegraded, err),
				map[string]any{"order_id": orders[i].ID.String()})
			items = []dao.LineItem{}
		}
		orders[i].LineItems = items
	}
	span.SetAttributes(attribute.Int("orders.count", len(orders)))
	return orders, nil
}
