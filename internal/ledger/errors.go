package ledger

import (
	"errors"
	"fmt"

	"github.com/Spok95/atk-inventory/internal/domain/requests"
	"github.com/Spok95/atk-inventory/internal/infra/metrics"
)

// The five conditions below are the only errors callers are expected to
// handle; anything else coming out of the service is a storage fault and
// is returned wrapped, not retried.

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

type StockInsufficientError struct {
	ItemID    int64
	Available int64
	Requested int64
}

func (e *StockInsufficientError) Error() string {
	return fmt.Sprintf("insufficient stock for item %d: have %d, need %d", e.ItemID, e.Available, e.Requested)
}

type InvalidTransitionError struct {
	RequestID int64
	From      requests.Status
	Op        string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("request %d is %s, cannot %s", e.RequestID, e.From, e.Op)
}

type NotFoundError struct {
	Kind string
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

type ConflictError struct {
	ItemID       int64
	Requests     int64
	Transactions int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("item %d still referenced by %d request(s) and %d transaction(s)", e.ItemID, e.Requests, e.Transactions)
}

// ErrKind names the taxonomy bucket an error falls into; "error" covers
// storage and other unexpected faults.
func ErrKind(err error) string {
	var (
		ve *ValidationError
		se *StockInsufficientError
		te *InvalidTransitionError
		ne *NotFoundError
		ce *ConflictError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &ve):
		return "validation"
	case errors.As(err, &se):
		return "stock_insufficient"
	case errors.As(err, &te):
		return "invalid_transition"
	case errors.As(err, &ne):
		return "not_found"
	case errors.As(err, &ce):
		return "conflict"
	default:
		return "error"
	}
}

func observe(op string, err error) {
	metrics.ObserveOp(op, ErrKind(err))
}
