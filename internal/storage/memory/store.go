// Package memory is an embedded, process-local implementation of the
// ledger store contracts. It backs the test suite and small single-node
// deployments; the postgres store is the production backend.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Spok95/atk-inventory/internal/domain/inventory"
	"github.com/Spok95/atk-inventory/internal/domain/items"
	"github.com/Spok95/atk-inventory/internal/domain/requests"
	"github.com/Spok95/atk-inventory/internal/domain/users"
	"github.com/Spok95/atk-inventory/internal/ledger"
)

type state struct {
	items    map[int64]items.Item
	requests map[int64]requests.Request
	txs      []inventory.Transaction
	users    map[int64]users.User

	nextItem int64
	nextReq  int64
	nextTx   int64
	nextUser int64
}

func (s *state) clone() *state {
	cp := &state{
		items:    make(map[int64]items.Item, len(s.items)),
		requests: make(map[int64]requests.Request, len(s.requests)),
		txs:      make([]inventory.Transaction, len(s.txs)),
		users:    make(map[int64]users.User, len(s.users)),
		nextItem: s.nextItem,
		nextReq:  s.nextReq,
		nextTx:   s.nextTx,
		nextUser: s.nextUser,
	}
	for k, v := range s.items {
		cp.items[k] = v
	}
	for k, v := range s.requests {
		cp.requests[k] = v
	}
	copy(cp.txs, s.txs)
	for k, v := range s.users {
		cp.users[k] = v
	}
	return cp
}

type Store struct {
	mu sync.RWMutex
	st *state
}

func New() *Store {
	return &Store{st: &state{
		items:    map[int64]items.Item{},
		requests: map[int64]requests.Request{},
		users:    map[int64]users.User{},
		nextItem: 1,
		nextReq:  1,
		nextTx:   1,
		nextUser: 1,
	}}
}

// Atomic serializes all writers under one mutex and commits by swapping
// in a cloned state, so a failed fn leaves nothing behind.
func (s *Store) Atomic(ctx context.Context, fn func(tx ledger.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(&tx{st: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) GetItem(_ context.Context, id int64) (*items.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if it, ok := s.st.items[id]; ok {
		return &it, nil
	}
	return nil, nil
}

func (s *Store) ListItems(_ context.Context) ([]items.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]items.Item, 0, len(s.st.items))
	for _, it := range s.st.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetRequest(_ context.Context, id int64) (*requests.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.st.requests[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (s *Store) ListRequests(_ context.Context, status requests.Status) ([]requests.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []requests.Request
	for _, r := range s.st.requests {
		if status != "" && r.Status != status {
			continue
		}
		out = append(out, r)
	}
	// newest first, matching the request queue view
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) ListTransactions(_ context.Context, f ledger.TxFilter) ([]inventory.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []inventory.Transaction
	for _, t := range s.st.txs {
		if f.ItemID != 0 && t.ItemID != f.ItemID {
			continue
		}
		if !f.From.IsZero() && t.CreatedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && t.CreatedAt.After(f.To) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) SumTransactions(_ context.Context, itemID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum int64
	for _, t := range s.st.txs {
		if t.ItemID == itemID {
			sum += t.Qty
		}
	}
	return sum, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.st.users {
		if u.Username == username {
			cp := u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) CreateUser(_ context.Context, u users.User) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.st.nextUser
	s.st.nextUser++
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	s.st.users[u.ID] = u
	return &u, nil
}

// tx mutates a cloned state; the clone becomes visible only when the
// enclosing Atomic commits.
type tx struct {
	st *state
}

func (t *tx) GetItemForUpdate(_ context.Context, id int64) (*items.Item, error) {
	if it, ok := t.st.items[id]; ok {
		return &it, nil
	}
	return nil, nil
}

func (t *tx) InsertItem(_ context.Context, it items.Item) (*items.Item, error) {
	it.ID = t.st.nextItem
	t.st.nextItem++
	if it.CreatedAt.IsZero() {
		it.CreatedAt = time.Now()
	}
	it.UpdatedAt = it.CreatedAt
	t.st.items[it.ID] = it
	return &it, nil
}

func (t *tx) UpdateItemInfo(_ context.Context, it items.Item) error {
	cur, ok := t.st.items[it.ID]
	if !ok {
		return nil
	}
	it.Stock = cur.Stock // stock changes go through SetItemStock only
	t.st.items[it.ID] = it
	return nil
}

func (t *tx) SetItemStock(_ context.Context, id int64, stock int64) error {
	it, ok := t.st.items[id]
	if !ok {
		return nil
	}
	it.Stock = stock
	it.UpdatedAt = time.Now()
	t.st.items[id] = it
	return nil
}

func (t *tx) DeleteItem(_ context.Context, id int64) error {
	delete(t.st.items, id)
	return nil
}

func (t *tx) CountItemRefs(_ context.Context, itemID int64) (int64, int64, error) {
	var reqs, txs int64
	for _, r := range t.st.requests {
		if r.ItemID == itemID {
			reqs++
		}
	}
	for _, tr := range t.st.txs {
		if tr.ItemID == itemID {
			txs++
		}
	}
	return reqs, txs, nil
}

func (t *tx) InsertRequest(_ context.Context, r requests.Request) (*requests.Request, error) {
	r.ID = t.st.nextReq
	t.st.nextReq++
	if r.RequestedAt.IsZero() {
		r.RequestedAt = time.Now()
	}
	t.st.requests[r.ID] = r
	return &r, nil
}

func (t *tx) GetRequestForUpdate(_ context.Context, id int64) (*requests.Request, error) {
	if r, ok := t.st.requests[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (t *tx) UpdateRequestDecision(_ context.Context, r requests.Request) error {
	t.st.requests[r.ID] = r
	return nil
}

func (t *tx) InsertTransaction(_ context.Context, tr inventory.Transaction) (*inventory.Transaction, error) {
	tr.ID = t.st.nextTx
	t.st.nextTx++
	if tr.CreatedAt.IsZero() {
		tr.CreatedAt = time.Now()
	}
	t.st.txs = append(t.st.txs, tr)
	return &tr, nil
}
