package service

import "errors"

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrInvalidQuantity is returned when a quantity is zero, negative or
	// otherwise unusable for the operation
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrInsufficientStock is returned when FIFO issuance cannot cover the
	// requested quantity from the lots on hand
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrAliasConflict is returned when a scan code is already mapped to a
	// different catalog item
	ErrAliasConflict = errors.New("alias already mapped to another item")

	// ErrSKUFrozen is returned when changing a SKU that already has stock
	// movement history
	ErrSKUFrozen = errors.New("sku cannot change once stock has moved")

	// ErrAlreadyInvoiced is returned when a billing source already appears
	// on an invoice line
	ErrAlreadyInvoiced = errors.New("source already invoiced")

	// ErrInvalidStatusTransition is returned for a backward or unknown
	// invoice or billing state change
	ErrInvalidStatusTransition = errors.New("invalid status transition")

	// ErrNoWarehouse is returned when no warehouse was given and a default
	// cannot be determined
	ErrNoWarehouse = errors.New("warehouse required: no single active warehouse to default to")

	// ErrTimerAlreadyRunning is returned when starting labor while a
	// session is already open for the same worker and work order
	ErrTimerAlreadyRunning = errors.New("a time entry is already running")

	// ErrNoRunningTimer is returned when stopping labor with no open
	// session
	ErrNoRunningTimer = errors.New("no running time entry")

	// ErrLegacyUnavailable is returned when a legacy ticket operation is
	// requested but the legacy store is not configured
	ErrLegacyUnavailable = errors.New("legacy ticket store not available")
)
