package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Spok95/atk-inventory/internal/domain/inventory"
	"github.com/Spok95/atk-inventory/internal/domain/items"
	"github.com/Spok95/atk-inventory/internal/domain/requests"
)

const (
	minNameLen       = 3
	minDepartmentLen = 2

	// DefaultMaxRequestQty is the sanity ceiling for a single request.
	DefaultMaxRequestQty = 1000
)

// Notifier receives best-effort notifications about ledger events.
// Implementations must not block for long and must never fail the
// operation that triggered them.
type Notifier interface {
	RequestSubmitted(ctx context.Context, r requests.Request, it items.Item)
	LowStock(ctx context.Context, it items.Item)
}

// NopNotifier is used when no notification channel is configured.
type NopNotifier struct{}

func (NopNotifier) RequestSubmitted(context.Context, requests.Request, items.Item) {}
func (NopNotifier) LowStock(context.Context, items.Item)                           {}

type Service struct {
	store  Store
	log    *slog.Logger
	notify Notifier
	maxQty int64
}

func New(store Store, log *slog.Logger, notify Notifier, maxRequestQty int64) *Service {
	if notify == nil {
		notify = NopNotifier{}
	}
	if maxRequestQty <= 0 {
		maxRequestQty = DefaultMaxRequestQty
	}
	return &Service{store: store, log: log, notify: notify, maxQty: maxRequestQty}
}

func (s *Service) Store() Store { return s.store }

// SubmitRequest inserts a pending request. Stock is not checked here;
// availability is re-checked at approval time because it may change
// while the request sits in the queue.
func (s *Service) SubmitRequest(ctx context.Context, requesterName, department string, itemID, qty int64, note string) (*requests.Request, error) {
	requesterName = strings.TrimSpace(requesterName)
	department = strings.TrimSpace(department)

	var err error
	defer func() { observe("submit_request", err) }()

	switch {
	case utf8.RuneCountInString(requesterName) < minNameLen:
		err = &ValidationError{Field: "requester_name", Reason: fmt.Sprintf("must be at least %d characters", minNameLen)}
	case utf8.RuneCountInString(department) < minDepartmentLen:
		err = &ValidationError{Field: "department", Reason: fmt.Sprintf("must be at least %d characters", minDepartmentLen)}
	case qty <= 0:
		err = &ValidationError{Field: "qty", Reason: "must be positive"}
	case qty > s.maxQty:
		err = &ValidationError{Field: "qty", Reason: fmt.Sprintf("must not exceed %d", s.maxQty)}
	}
	if err != nil {
		return nil, err
	}

	var out *requests.Request
	var item items.Item
	err = s.store.Atomic(ctx, func(tx Tx) error {
		it, err := tx.GetItemForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if it == nil {
			return &NotFoundError{Kind: "item", ID: itemID}
		}
		item = *it
		r, err := tx.InsertRequest(ctx, requests.Request{
			RequesterName: requesterName,
			Department:    department,
			ItemID:        itemID,
			Qty:           qty,
			Note:          strings.TrimSpace(note),
			Status:        requests.StatusPending,
			RequestedAt:   time.Now(),
		})
		if err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("request submitted", "request_id", out.ID, "item_id", itemID, "qty", qty, "department", department)
	s.notify.RequestSubmitted(ctx, *out, item)
	return out, nil
}

// ApproveRequest moves a pending request to approved, decrements the
// item's stock and appends the matching "out" transaction. The stock
// check and both writes happen inside one Atomic unit so two approvals
// against the same item can never jointly overdraw it.
func (s *Service) ApproveRequest(ctx context.Context, requestID, actorID int64) (*requests.Request, error) {
	var out *requests.Request
	var low *items.Item

	err := s.store.Atomic(ctx, func(tx Tx) error {
		r, err := tx.GetRequestForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if r == nil {
			return &NotFoundError{Kind: "request", ID: requestID}
		}
		if r.Status != requests.StatusPending {
			return &InvalidTransitionError{RequestID: r.ID, From: r.Status, Op: "approve"}
		}
		it, err := tx.GetItemForUpdate(ctx, r.ItemID)
		if err != nil {
			return err
		}
		if it == nil {
			return &NotFoundError{Kind: "item", ID: r.ItemID}
		}
		if it.Stock < r.Qty {
			return &StockInsufficientError{ItemID: it.ID, Available: it.Stock, Requested: r.Qty}
		}

		newStock := it.Stock - r.Qty
		if err := tx.SetItemStock(ctx, it.ID, newStock); err != nil {
			return err
		}
		if _, err := tx.InsertTransaction(ctx, inventory.Transaction{
			ItemID:    it.ID,
			Direction: inventory.DirOut,
			Qty:       -r.Qty,
			Reason:    fmt.Sprintf("request #%d approved", r.ID),
			ActorID:   actorID,
			RequestID: &r.ID,
			CreatedAt: time.Now(),
		}); err != nil {
			return err
		}

		now := time.Now()
		r.Status = requests.StatusApproved
		r.ProcessedAt = &now
		r.ProcessedBy = &actorID
		if err := tx.UpdateRequestDecision(ctx, *r); err != nil {
			return err
		}

		out = r
		it.Stock = newStock
		if it.Status() != items.StatusOK {
			cp := *it
			low = &cp
		}
		return nil
	})
	observe("approve_request", err)
	if err != nil {
		return nil, err
	}

	s.log.Info("request approved", "request_id", out.ID, "item_id", out.ItemID, "qty", out.Qty, "actor_id", actorID)
	if low != nil {
		s.notify.LowStock(ctx, *low)
	}
	return out, nil
}

// RejectRequest moves a pending request to rejected. Stock is untouched.
func (s *Service) RejectRequest(ctx context.Context, requestID, actorID int64, reason string) (*requests.Request, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		err := &ValidationError{Field: "reason", Reason: "must not be empty"}
		observe("reject_request", err)
		return nil, err
	}

	var out *requests.Request
	err := s.store.Atomic(ctx, func(tx Tx) error {
		r, err := tx.GetRequestForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if r == nil {
			return &NotFoundError{Kind: "request", ID: requestID}
		}
		if r.Status != requests.StatusPending {
			return &InvalidTransitionError{RequestID: r.ID, From: r.Status, Op: "reject"}
		}
		now := time.Now()
		r.Status = requests.StatusRejected
		r.ProcessedAt = &now
		r.ProcessedBy = &actorID
		r.RejectReason = reason
		if err := tx.UpdateRequestDecision(ctx, *r); err != nil {
			return err
		}
		out = r
		return nil
	})
	observe("reject_request", err)
	if err != nil {
		return nil, err
	}

	s.log.Info("request rejected", "request_id", out.ID, "actor_id", actorID)
	return out, nil
}

// CompleteRequest marks an approved request as fulfilled. Stock was
// already decremented at approval, so this is bookkeeping only.
func (s *Service) CompleteRequest(ctx context.Context, requestID, actorID int64) (*requests.Request, error) {
	var out *requests.Request
	err := s.store.Atomic(ctx, func(tx Tx) error {
		r, err := tx.GetRequestForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if r == nil {
			return &NotFoundError{Kind: "request", ID: requestID}
		}
		if r.Status != requests.StatusApproved {
			return &InvalidTransitionError{RequestID: r.ID, From: r.Status, Op: "complete"}
		}
		now := time.Now()
		r.Status = requests.StatusCompleted
		r.ProcessedAt = &now
		r.ProcessedBy = &actorID
		if err := tx.UpdateRequestDecision(ctx, *r); err != nil {
			return err
		}
		out = r
		return nil
	})
	observe("complete_request", err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// StockInParams carries the optional supply metadata the original
// stock-in form collects alongside the quantity.
type StockInParams struct {
	Supplier  string
	UnitPrice float64
}

// RecordStockIn increments stock and appends one "in" transaction.
func (s *Service) RecordStockIn(ctx context.Context, itemID, qty int64, reason string, actorID int64, p StockInParams) (*inventory.Transaction, error) {
	if qty <= 0 {
		err := &ValidationError{Field: "qty", Reason: "must be positive"}
		observe("stock_in", err)
		return nil, err
	}
	tr, err := s.apply(ctx, itemID, qty, inventory.DirIn, reason, actorID, p)
	observe("stock_in", err)
	return tr, err
}

// RecordStockOut decrements stock and appends one "out" transaction.
// Fails when qty exceeds the current stock.
func (s *Service) RecordStockOut(ctx context.Context, itemID, qty int64, reason string, actorID int64) (*inventory.Transaction, error) {
	if qty <= 0 {
		err := &ValidationError{Field: "qty", Reason: "must be positive"}
		observe("stock_out", err)
		return nil, err
	}
	tr, err := s.apply(ctx, itemID, -qty, inventory.DirOut, reason, actorID, StockInParams{})
	observe("stock_out", err)
	return tr, err
}

// RecordStockAdjustment sets stock to an absolute value, recording the
// signed delta from the current value so SUM(tx.qty) keeps matching the
// stock column. A no-change adjustment writes nothing.
func (s *Service) RecordStockAdjustment(ctx context.Context, itemID, newValue int64, reason string, actorID int64) (*inventory.Transaction, error) {
	if newValue < 0 {
		err := &ValidationError{Field: "new_value", Reason: "must not be negative"}
		observe("stock_adjust", err)
		return nil, err
	}

	var out *inventory.Transaction
	var low *items.Item
	err := s.store.Atomic(ctx, func(tx Tx) error {
		it, err := tx.GetItemForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if it == nil {
			return &NotFoundError{Kind: "item", ID: itemID}
		}
		delta := newValue - it.Stock
		if delta == 0 {
			return nil
		}
		if err := tx.SetItemStock(ctx, itemID, newValue); err != nil {
			return err
		}
		tr, err := tx.InsertTransaction(ctx, inventory.Transaction{
			ItemID:    itemID,
			Direction: inventory.DirAdjust,
			Qty:       delta,
			Reason:    strings.TrimSpace(reason),
			ActorID:   actorID,
			CreatedAt: time.Now(),
		})
		if err != nil {
			return err
		}
		out = tr
		it.Stock = newValue
		if it.Status() != items.StatusOK {
			cp := *it
			low = &cp
		}
		return nil
	})
	observe("stock_adjust", err)
	if err != nil {
		return nil, err
	}
	if low != nil {
		s.notify.LowStock(ctx, *low)
	}
	return out, nil
}

// apply is the shared atomic unit for stock_in/stock_out: one stock
// update plus exactly one transaction row. delta is signed.
func (s *Service) apply(ctx context.Context, itemID, delta int64, dir inventory.Direction, reason string, actorID int64, p StockInParams) (*inventory.Transaction, error) {
	var out *inventory.Transaction
	var low *items.Item
	err := s.store.Atomic(ctx, func(tx Tx) error {
		it, err := tx.GetItemForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if it == nil {
			return &NotFoundError{Kind: "item", ID: itemID}
		}
		newStock := it.Stock + delta
		if newStock < 0 {
			return &StockInsufficientError{ItemID: itemID, Available: it.Stock, Requested: -delta}
		}
		if err := tx.SetItemStock(ctx, itemID, newStock); err != nil {
			return err
		}
		tr, err := tx.InsertTransaction(ctx, inventory.Transaction{
			ItemID:    itemID,
			Direction: dir,
			Qty:       delta,
			Reason:    strings.TrimSpace(reason),
			ActorID:   actorID,
			Supplier:  strings.TrimSpace(p.Supplier),
			UnitPrice: p.UnitPrice,
			CreatedAt: time.Now(),
		})
		if err != nil {
			return err
		}
		out = tr
		it.Stock = newStock
		if it.Status() != items.StatusOK {
			cp := *it
			low = &cp
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("stock recorded", "item_id", itemID, "direction", string(dir), "delta", delta, "actor_id", actorID)
	if low != nil {
		s.notify.LowStock(ctx, *low)
	}
	return out, nil
}

// CreateItem adds a catalog entry. A positive initial stock goes through
// the same stock-in path as any other receipt so the ledger invariant
// holds from the first row.
func (s *Service) CreateItem(ctx context.Context, name, category, unit string, initialStock, minStock int64, unitPrice float64, actorID int64) (*items.Item, error) {
	name = strings.TrimSpace(name)

	var err error
	defer func() { observe("create_item", err) }()

	switch {
	case name == "":
		err = &ValidationError{Field: "name", Reason: "must not be empty"}
	case strings.TrimSpace(unit) == "":
		err = &ValidationError{Field: "unit", Reason: "must not be empty"}
	case initialStock < 0:
		err = &ValidationError{Field: "stock", Reason: "must not be negative"}
	case minStock < 0:
		err = &ValidationError{Field: "min_stock", Reason: "must not be negative"}
	case unitPrice < 0:
		err = &ValidationError{Field: "unit_price", Reason: "must not be negative"}
	}
	if err != nil {
		return nil, err
	}

	var out *items.Item
	err = s.store.Atomic(ctx, func(tx Tx) error {
		it, err := tx.InsertItem(ctx, items.Item{
			Name:      name,
			Category:  strings.TrimSpace(category),
			Unit:      strings.TrimSpace(unit),
			Stock:     0,
			MinStock:  minStock,
			UnitPrice: unitPrice,
			CreatedAt: time.Now(),
		})
		if err != nil {
			return err
		}
		if initialStock > 0 {
			if err := tx.SetItemStock(ctx, it.ID, initialStock); err != nil {
				return err
			}
			if _, err := tx.InsertTransaction(ctx, inventory.Transaction{
				ItemID:    it.ID,
				Direction: inventory.DirIn,
				Qty:       initialStock,
				Reason:    "initial stock",
				ActorID:   actorID,
				CreatedAt: time.Now(),
			}); err != nil {
				return err
			}
			it.Stock = initialStock
		}
		out = it
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("item created", "item_id", out.ID, "name", out.Name)
	return out, nil
}

// UpdateItem changes descriptive fields only. Stock is never touched
// here; every stock change goes through a transaction-writing path.
func (s *Service) UpdateItem(ctx context.Context, id int64, name, category, unit string, minStock int64, unitPrice float64) (*items.Item, error) {
	name = strings.TrimSpace(name)

	var err error
	defer func() { observe("update_item", err) }()

	switch {
	case name == "":
		err = &ValidationError{Field: "name", Reason: "must not be empty"}
	case minStock < 0:
		err = &ValidationError{Field: "min_stock", Reason: "must not be negative"}
	case unitPrice < 0:
		err = &ValidationError{Field: "unit_price", Reason: "must not be negative"}
	}
	if err != nil {
		return nil, err
	}

	var out *items.Item
	err = s.store.Atomic(ctx, func(tx Tx) error {
		it, err := tx.GetItemForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if it == nil {
			return &NotFoundError{Kind: "item", ID: id}
		}
		it.Name = name
		it.Category = strings.TrimSpace(category)
		it.Unit = strings.TrimSpace(unit)
		it.MinStock = minStock
		it.UnitPrice = unitPrice
		it.UpdatedAt = time.Now()
		if err := tx.UpdateItemInfo(ctx, *it); err != nil {
			return err
		}
		out = it
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteItem removes a catalog entry, refused while any request or
// transaction row still references it.
func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	err := s.store.Atomic(ctx, func(tx Tx) error {
		it, err := tx.GetItemForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if it == nil {
			return &NotFoundError{Kind: "item", ID: id}
		}
		reqs, txs, err := tx.CountItemRefs(ctx, id)
		if err != nil {
			return err
		}
		if reqs > 0 || txs > 0 {
			return &ConflictError{ItemID: id, Requests: reqs, Transactions: txs}
		}
		return tx.DeleteItem(ctx, id)
	})
	observe("delete_item", err)
	if err == nil {
		s.log.Info("item deleted", "item_id", id)
	}
	return err
}
