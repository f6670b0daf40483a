package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"coffeeshop-counter/internal/common/logger"
	"coffeeshop-counter/internal/microservices/counter/domain"
	"coffeeshop-counter/internal/microservices/counter/domain/dao"
	"coffeeshop-counter/internal/microservices/counter/domain/dto"
	"coffeeshop-counter/internal/microservices/counter/service"
)

const maxBodyBytes = 1 << 20

type OrderHandler struct {
	service service.OrderServiceInterface
	lg      *logger.Logger
}

func NewOrderHandler(s service.OrderServiceInterface) *OrderHandler {
	return &OrderHandler{service: s, lg: logger.New("counter-http")}
}

// PlaceOrder answers with the new order id as plain text.
func (oh *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceOrderRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	id, err := oh.service.PlaceOrder(r.Context(), req, r.Header.Get(IdempotencyKeyHeader))
	if err != nil {
		code, typ := statusFor(err)
		if code >= http.StatusInternalServerError {
			oh.lg.ErrorContext(r.Context(), "order_place_failed", err, nil)
		}
		writeError(w, code, typ, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, id.String())
}

// ListOrders never fails the request: a broken store yields an empty list.
func (oh *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := oh.service.ListOrders(r.Context())
	if err != nil {
		oh.lg.ErrorContext(r.Context(), "order_list_failed", fmt.Errorf("%w: %w", domain.ErrStoreReadDegraded, err), nil)
		orders = []dao.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}
