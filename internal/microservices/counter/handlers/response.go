package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"coffeeshop-counter/internal/microservices/counter/domain"
	"coffeeshop-counter/internal/microservices/counter/domain/dto"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, typ, message string) {
	writeJSON(w, code, dto.ErrorResponse{Error: typ, Message: message})
}

// statusFor maps a placement error onto its HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, domain.ErrDuplicateInFlight):
		return http.StatusConflict, "duplicate_in_flight"
	case errors.Is(err, domain.ErrCatalogUnavailable):
		return http.StatusBadGateway, "catalog_unavailable"
	case errors.Is(err, domain.ErrPlacementFailed):
		return http.StatusInternalServerError, "placement_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
