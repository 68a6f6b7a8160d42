// Package report builds the derived read views: stock status, usage
// aggregations and the dashboard summary. Everything here is computed
// over Store reads so both backends reproduce identical numbers; none
// of it mutates the ledger.
package report

import (
	"context"
	"sort"
	"time"

	"github.com/Spok95/atk-inventory/internal/domain/inventory"
	"github.com/Spok95/atk-inventory/internal/domain/items"
	"github.com/Spok95/atk-inventory/internal/domain/requests"
	"github.com/Spok95/atk-inventory/internal/ledger"
)

type StockRow struct {
	items.Item
	Status items.StockStatus
}

type DepartmentUsage struct {
	Department string
	Requests   int64
	Qty        int64
}

// PeriodUsage sums ledger deltas per calendar month.
type PeriodUsage struct {
	Period string // YYYY-MM
	In     int64
	Out    int64
	Adjust int64
}

type ItemUsage struct {
	ItemID   int64
	Name     string
	Requests int64
	Qty      int64
}

type Summary struct {
	Items    int64
	Requests int64
	Pending  int64
	Low      int64
	Critical int64
}

type Service struct {
	store ledger.Store
}

func New(store ledger.Store) *Service { return &Service{store: store} }

// StockStatus lists the catalog with each item's classification.
func (s *Service) StockStatus(ctx context.Context) ([]StockRow, error) {
	its, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]StockRow, 0, len(its))
	for _, it := range its {
		out = append(out, StockRow{Item: it, Status: it.Status()})
	}
	return out, nil
}

// UsageByDepartment aggregates approved and completed requests in the
// range by department. Pending and rejected requests consumed nothing.
func (s *Service) UsageByDepartment(ctx context.Context, from, to time.Time) ([]DepartmentUsage, error) {
	reqs, err := s.store.ListRequests(ctx, "")
	if err != nil {
		return nil, err
	}
	agg := map[string]*DepartmentUsage{}
	for _, r := range reqs {
		if r.Status != requests.StatusApproved && r.Status != requests.StatusCompleted {
			continue
		}
		if !inRange(r.RequestedAt, from, to) {
			continue
		}
		u, ok := agg[r.Department]
		if !ok {
			u = &DepartmentUsage{Department: r.Department}
			agg[r.Department] = u
		}
		u.Requests++
		u.Qty += r.Qty
	}
	out := make([]DepartmentUsage, 0, len(agg))
	for _, u := range agg {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Qty > out[j].Qty })
	return out, nil
}

// UsageByPeriod groups ledger rows by month; out quantities are
// reported as positive numbers.
func (s *Service) UsageByPeriod(ctx context.Context, from, to time.Time) ([]PeriodUsage, error) {
	txs, err := s.store.ListTransactions(ctx, ledger.TxFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}
	agg := map[string]*PeriodUsage{}
	for _, t := range txs {
		key := t.CreatedAt.Format("2006-01")
		u, ok := agg[key]
		if !ok {
			u = &PeriodUsage{Period: key}
			agg[key] = u
		}
		switch {
		case t.Direction == inventory.DirIn:
			u.In += t.Qty
		case t.Direction == inventory.DirOut:
			u.Out += -t.Qty
		default:
			u.Adjust += t.Qty
		}
	}
	out := make([]PeriodUsage, 0, len(agg))
	for _, u := range agg {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out, nil
}

// TopRequestedItems ranks items by total approved/completed quantity.
func (s *Service) TopRequestedItems(ctx context.Context, from, to time.Time, limit int) ([]ItemUsage, error) {
	reqs, err := s.store.ListRequests(ctx, "")
	if err != nil {
		return nil, err
	}
	its, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(its))
	for _, it := range its {
		names[it.ID] = it.Name
	}

	agg := map[int64]*ItemUsage{}
	for _, r := range reqs {
		if r.Status != requests.StatusApproved && r.Status != requests.StatusCompleted {
			continue
		}
		if !inRange(r.RequestedAt, from, to) {
			continue
		}
		u, ok := agg[r.ItemID]
		if !ok {
			u = &ItemUsage{ItemID: r.ItemID, Name: names[r.ItemID]}
			agg[r.ItemID] = u
		}
		u.Requests++
		u.Qty += r.Qty
	}
	out := make([]ItemUsage, 0, len(agg))
	for _, u := range agg {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Qty != out[j].Qty {
			return out[i].Qty > out[j].Qty
		}
		return out[i].ItemID < out[j].ItemID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Summary backs the admin dashboard counters.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	var sum Summary
	its, err := s.store.ListItems(ctx)
	if err != nil {
		return sum, err
	}
	reqs, err := s.store.ListRequests(ctx, "")
	if err != nil {
		return sum, err
	}
	sum.Items = int64(len(its))
	sum.Requests = int64(len(reqs))
	for _, it := range its {
		switch it.Status() {
		case items.StatusLow:
			sum.Low++
		case items.StatusCritical:
			sum.Critical++
		}
	}
	for _, r := range reqs {
		if r.Status == requests.StatusPending {
			sum.Pending++
		}
	}
	return sum, nil
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}
