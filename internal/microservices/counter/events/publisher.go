// Package events announces placed orders to the barista and kitchen stations.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"coffeeshop-counter/internal/microservices/counter/domain/dao"
)

const (
	BaristaStation = "barista"
	KitchenStation = "kitchen"

	BaristaRoutingKey = BaristaStation + ".order.placed"
	KitchenRoutingKey = KitchenStation + ".order.placed"

	publishTimeout = 5 * time.Second
)

// TicketPublisher hands a committed order to the stations that prepare it.
type TicketPublisher interface {
	PublishTickets(ctx context.Context, order dao.Order, lines []dao.LineItem) error
}

// Ticket is the message body for one station.
type Ticket struct {
	OrderID         uuid.UUID       `json:"orderId"`
	Source          dao.OrderSource `json:"orderSource"`
	Location        dao.Location    `json:"location"`
	LoyaltyMemberID uuid.UUID       `json:"loyaltyMemberId"`
	PlacedAt        time.Time       `json:"placedAt"`
	Items           []TicketItem    `json:"items"`
}

type TicketItem struct {
	LineItemID uuid.UUID    `json:"lineItemId"`
	ItemType   dao.ItemType `json:"itemType"`
	Name       string       `json:"name"`
}

// amqpPublisher is the part of rabbitmq.Client the publisher needs.
type amqpPublisher interface {
	Publish(ctx context.Context, exchange, key string, body []byte, headers amqp.Table, contentType string, persistent bool) error
}

type AMQPPublisher struct {
	client   amqpPublisher
	exchange string
}

func NewAMQPPublisher(client amqpPublisher, exchange string) *AMQPPublisher {
	return &AMQPPublisher{client: client, exchange: exchange}
}

// PublishTickets sends one persistent message per non-empty station. Both are
// attempted; the returned error joins whatever failed.
func (p *AMQPPublisher) PublishTickets(ctx context.Context, order dao.Order, lines []dao.LineItem) error {
	ctx, span := otel.Tracer("counter/events").Start(ctx, "events.PublishTickets")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", order.ID.String()))

	barista, kitchen := SplitTickets(order, lines)

	var errs []error
	for _, t := range []struct {
		key    string
		ticket *Ticket
	}{
		{BaristaRoutingKey, barista},
		{KitchenRoutingKey, kitchen},
	} {
		if t.ticket == nil {
			continue
		}
		if err := p.publish(ctx, t.key, t.ticket); err != nil {
			errs = append(errs, fmt.Errorf("publish %s: %w", t.key, err))
		}
	}
	err := errors.Join(errs...)
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (p *AMQPPublisher) publish(ctx context.Context, key string, ticket *Ticket) error {
	body, err := json.Marshal(ticket)
	if err != nil {
		return fmt.Errorf("failed to marshal ticket: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	headers := amqp.Table{
		"x-source":   "counter-service",
		"x-order-id": ticket.OrderID.String(),
	}
	return p.client.Publish(ctx, p.exchange, key, body, headers, "application/json", true)
}

// SplitTickets groups line items by station. A station without items gets nil.
func SplitTickets(order dao.Order, lines []dao.LineItem) (barista, kitchen *Ticket) {
	for _, li := range lines {
		item := TicketItem{LineItemID: li.ID, ItemType: li.ItemType, Name: li.Name}
		target := &kitchen
		if li.IsBaristaOrder {
			target = &barista
		}
		if *target == nil {
			*target = &Ticket{
				OrderID:         order.ID,
				Location:        order.Location,
				LoyaltyMemberID: order.LoyaltyMemberID,
				PlacedAt:        order.PlacedAt,
				Source:          order.OrderSource,
			}
		}
		(*target).Items = append((*target).Items, item)
	}
	return barista, kitchen
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishTickets(context.Context, dao.Order, []dao.LineItem) error { return nil }
