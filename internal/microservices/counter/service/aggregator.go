package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"coffeeshop-counter/internal/microservices/counter/domain/dao"
	"coffeeshop-counter/internal/microservices/counter/domain/dto"
)

// PriceResolver looks prices up for a batch of item types in one call.
type PriceResolver interface {
	ResolvePrices(ctx context.Context, itemTypes []dao.ItemType) (dao.PriceTable, error)
}

// PriceResolverFunc adapts a plain function to PriceResolver.
type PriceResolverFunc func(ctx context.Context, itemTypes []dao.ItemType) (dao.PriceTable, error)

func (f PriceResolverFunc) ResolvePrices(ctx context.Context, itemTypes []dao.ItemType) (dao.PriceTable, error) {
	return f(ctx, itemTypes)
}

// BuildOrder turns a validated request into an order header and its line
// items. Each non-empty category costs exactly one resolver call; both run
// concurrently. Items the catalog does not know are priced at zero.
func BuildOrder(
	ctx context.Context,
	req dto.PlaceOrderRequest,
	resolver PriceResolver,
	now func() time.Time,
	newID func() uuid.UUID,
) (dao.Order, []dao.LineItem, error) {
	if err := req.Validate(); err != nil {
		return dao.Order{}, nil, err
	}

	baristaTypes := dto.ItemTypes(req.BaristaItems)
	kitchenTypes := dto.ItemTypes(req.KitchenItems)

	var baristaPrices, kitchenPrices dao.PriceTable
	g, gctx := errgroup.WithContext(ctx)
	if len(baristaTypes) > 0 {
		g.Go(func() (err error) {
			baristaPrices, err = resolver.ResolvePrices(gctx, baristaTypes)
			return err
		})
	}
	if len(kitchenTypes) > 0 {
		g.Go(func() (err error) {
			kitchenPrices, err = resolver.ResolvePrices(gctx, kitchenTypes)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return dao.Order{}, nil, err
	}

	order := dao.Order{
		ID:              newID(),
		OrderSource:     req.Source(),
		Location:        req.StoreLocation(),
		LoyaltyMemberID: req.LoyaltyMember(),
		OrderStatus:     dao.OrderStatusPlaced,
		PlacedAt:        req.PlacedAt(now),
	}

	lines := make([]dao.LineItem, 0, len(baristaTypes)+len(kitchenTypes))
	add := func(types []dao.ItemType, prices dao.PriceTable, barista bool) {
		for _, t := range types {
			lines = append(lines, dao.LineItem{
				ID:             newID(),
				ItemType:       t,
				Name:           t.Name(),
				Price:          prices.PriceOf(t),
				ItemStatus:     dao.ItemStatusNew,
				IsBaristaOrder: barista,
				OrderID:        order.ID,
				LineNo:         len(lines),
			})
		}
	}
	add(baristaTypes, baristaPrices, true)
	add(kitchenTypes, kitchenPrices, false)

	return order, lines, nil
}
