package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffeeshop-counter/internal/microservices/counter/domain"
	"coffeeshop-counter/internal/microservices/counter/domain/dao"
)

func intp(v int) *int { return &v }

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     PlaceOrderRequest
		wantErr bool
	}{
		{name: "both absent", req: PlaceOrderRequest{}, wantErr: true},
		{name: "both empty", req: PlaceOrderRequest{BaristaItems: []PlaceOrderItem{}, KitchenItems: []PlaceOrderItem{}}, wantErr: true},
		{name: "barista only", req: PlaceOrderRequest{BaristaItems: []PlaceOrderItem{{ItemType: intp(0)}}}},
		{name: "kitchen only", req: PlaceOrderRequest{KitchenItems: []PlaceOrderItem{{ItemType: intp(7)}}}},
		{name: "missing item type", req: PlaceOrderRequest{KitchenItems: []PlaceOrderItem{{}}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDefaults(t *testing.T) {
	var req PlaceOrderRequest
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))

	assert.Equal(t, dao.OrderSourceCounter, req.Source())
	assert.Equal(t, dao.LocationAtlanta, req.StoreLocation())
	assert.Equal(t, uuid.Nil, req.LoyaltyMember())
	assert.Equal(t, now.UTC(), req.PlacedAt(func() time.Time { return now }))
}

func TestDecodeRequest(t *testing.T) {
	body := `{
		"orderSource": 1,
		"location": 2,
		"loyaltyMemberId": "8b6f7a3e-3a3b-4a53-9d7b-1b2d6f0b6a11",
		"baristaItems": [{"itemType": 0}, {"itemType": 1}],
		"timestamp": "2024-05-01T10:00:00Z"
	}`
	var req PlaceOrderRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	require.NoError(t, req.Validate())

	assert.Equal(t, dao.OrderSourceWeb, req.Source())
	assert.Equal(t, dao.LocationRaleigh, req.StoreLocation())
	assert.Equal(t, "8b6f7a3e-3a3b-4a53-9d7b-1b2d6f0b6a11", req.LoyaltyMember().String())
	assert.Equal(t, []dao.ItemType{0, 1}, ItemTypes(req.BaristaItems))
	assert.Empty(t, ItemTypes(req.KitchenItems))
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), req.PlacedAt(time.Now))
}
