package domain

import "errors"

var (
	// ErrValidation rejects an order before any I/O happens.
	ErrValidation = errors.New("validation error")
	// ErrCatalogUnavailable means price resolution failed; no transaction was opened.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrPlacementFailed means the order transaction was rolled back.
	ErrPlacementFailed = errors.New("placement failed")
	// ErrStoreReadDegraded is logged when one order's line items could not be read.
	ErrStoreReadDegraded = errors.New("store read degraded")
	// ErrDuplicateInFlight is returned when an idempotency key is still being placed.
	ErrDuplicateInFlight = errors.New("order with this idempotency key is in flight")
)
