package dto

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"coffeeshop-counter/internal/microservices/counter/domain"
	"coffeeshop-counter/internal/microservices/counter/domain/dao"
)

type PlaceOrderItem struct {
	ItemType *int `json:"itemType"`
}

// PlaceOrderRequest is the body of POST /v1/api/orders. Every field is optional
// on the wire; Validate decides what a usable order is.
type PlaceOrderRequest struct {
	CommandType     *int             `json:"commandType,omitempty"`
	OrderSource     *int             `json:"orderSource,omitempty"`
	OrderStatus     *int             `json:"orderStatus,omitempty"`
	Location        *int             `json:"location,omitempty"`
	LoyaltyMemberID *uuid.UUID       `json:"loyaltyMemberId,omitempty"`
	BaristaItems    []PlaceOrderItem `json:"baristaItems,omitempty"`
	KitchenItems    []PlaceOrderItem `json:"kitchenItems,omitempty"`
	Timestamp       *time.Time       `json:"timestamp,omitempty"`
}

// Validate rejects orders without items or with items lacking an item type.
func (r PlaceOrderRequest) Validate() error {
	if len(r.BaristaItems) == 0 && len(r.KitchenItems) == 0 {
		return fmt.Errorf("%w: order has no barista or kitchen items", domain.ErrValidation)
	}
	for i, it := range r.BaristaItems {
		if it.ItemType == nil {
			return fmt.Errorf("%w: baristaItems[%d] has no itemType", domain.ErrValidation, i)
		}
	}
	for i, it := range r.KitchenItems {
		if it.ItemType == nil {
			return fmt.Errorf("%w: kitchenItems[%d] has no itemType", domain.ErrValidation, i)
		}
	}
	return nil
}

// ItemTypes returns the codes of items in request order. Call after Validate.
func ItemTypes(items []PlaceOrderItem) []dao.ItemType {
	out := make([]dao.ItemType, 0, len(items))
	for _, it := range items {
		if it.ItemType != nil {
			out = append(out, dao.ItemType(*it.ItemType))
		}
	}
	return out
}

func (r PlaceOrderRequest) Source() dao.OrderSource {
	if r.OrderSource == nil {
		return dao.OrderSourceCounter
	}
	return dao.OrderSource(*r.OrderSource)
}

func (r PlaceOrderRequest) StoreLocation() dao.Location {
	if r.Location == nil {
		return dao.LocationAtlanta
	}
	return dao.Location(*r.Location)
}

func (r PlaceOrderRequest) LoyaltyMember() uuid.UUID {
	if r.LoyaltyMemberID == nil {
		return dao.NoLoyaltyMember
	}
	return *r.LoyaltyMemberID
}

// PlacedAt is the client timestamp in UTC, or now when absent.
func (r PlaceOrderRequest) PlacedAt(now func() time.Time) time.Time {
	if r.Timestamp == nil || r.Timestamp.IsZero() {
		return now().UTC()
	}
	return r.Timestamp.UTC()
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
