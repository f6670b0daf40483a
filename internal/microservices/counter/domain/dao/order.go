package dao

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderSource int

const (
	OrderSourceCounter OrderSource = iota // also used when the request leaves it out
	OrderSourceWeb
)

type Location int

const (
	LocationAtlanta Location = iota
	LocationCharlotte
	LocationRaleigh
)

type OrderStatus int

const (
	OrderStatusUnknown OrderStatus = iota
	OrderStatusPlaced
	OrderStatusInProgress
	OrderStatusCompleted
)

type ItemStatus int

const (
	ItemStatusNew ItemStatus = iota
	ItemStatusInProgress
	ItemStatusCompleted
)

// ItemType is the catalog code of a product (CAPPUCCINO=0, COFFEE_BLACK=1, ...).
type ItemType int

// Name is the display name used while the catalog supplies no names.
func (t ItemType) Name() string { return strconv.Itoa(int(t)) }

// NoLoyaltyMember marks an order placed without a loyalty card.
var NoLoyaltyMember = uuid.Nil

type Order struct {
	ID              uuid.UUID   `db:"id" json:"id"`
	OrderSource     OrderSource `db:"order_source" json:"orderSource"`
	Location        Location    `db:"location" json:"location"`
	LoyaltyMemberID uuid.UUID   `db:"loyalty_member_id" json:"loyaltyMemberId"`
	OrderStatus     OrderStatus `db:"order_status" json:"orderStatus"`
	PlacedAt        time.Time   `db:"placed_at" json:"placedAt"`
	LineItems       []LineItem  `db:"-" json:"orderLines"`
}

type LineItem struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	ItemType       ItemType        `db:"item_type" json:"itemType"`
	Name           string          `db:"name" json:"name"`
	Price          decimal.Decimal `db:"price" json:"price"`
	ItemStatus     ItemStatus      `db:"item_status" json:"itemStatus"`
	IsBaristaOrder bool            `db:"is_barista_order" json:"isBaristaOrder"`
	OrderID        uuid.UUID       `db:"order_id" json:"orderId"`
	LineNo         int             `db:"line_no" json:"-"`
}

// ItemPrice is one row of a catalog answer.
type ItemPrice struct {
	ItemType ItemType        `json:"itemType"`
	Price    decimal.Decimal `json:"price"`
}

// PriceTable resolves item types to prices during aggregation.
type PriceTable map[ItemType]decimal.Decimal

// PriceOf returns the resolved price, or zero when the catalog had no match.
func (p PriceTable) PriceOf(t ItemType) decimal.Decimal {
	if price, ok := p[t]; ok {
		return price
	}
	return decimal.Zero
}
