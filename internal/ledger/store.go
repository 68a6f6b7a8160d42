package ledger

import (
	"context"
	"time"

	"github.com/Spok95/atk-inventory/internal/domain/inventory"
	"github.com/Spok95/atk-inventory/internal/domain/items"
	"github.com/Spok95/atk-inventory/internal/domain/requests"
)

// Store is the persistence contract the ledger runs against. Both the
// postgres and the in-memory backend implement it; the ledger never
// assumes anything beyond these methods.
//
// Lookup methods return (nil, nil) when the row does not exist.
type Store interface {
	// Atomic runs fn as one serializable unit. Either every write made
	// through tx is committed, or none is. Two Atomic calls touching the
	// same item must not interleave between a read-for-update and the
	// writes that follow it.
	Atomic(ctx context.Context, fn func(tx Tx) error) error

	GetItem(ctx context.Context, id int64) (*items.Item, error)
	ListItems(ctx context.Context) ([]items.Item, error)
	GetRequest(ctx context.Context, id int64) (*requests.Request, error)
	// ListRequests filters by status; the empty status means all.
	ListRequests(ctx context.Context, status requests.Status) ([]requests.Request, error)
	ListTransactions(ctx context.Context, f TxFilter) ([]inventory.Transaction, error)
	// SumTransactions returns the sum of signed transaction quantities
	// for one item. It exists so the stock invariant can be audited.
	SumTransactions(ctx context.Context, itemID int64) (int64, error)
}

// Tx is the write surface available inside Store.Atomic.
type Tx interface {
	GetItemForUpdate(ctx context.Context, id int64) (*items.Item, error)
	InsertItem(ctx context.Context, it items.Item) (*items.Item, error)
	UpdateItemInfo(ctx context.Context, it items.Item) error
	SetItemStock(ctx context.Context, id int64, stock int64) error
	DeleteItem(ctx context.Context, id int64) error
	// CountItemRefs returns how many request rows and transaction rows
	// reference the item.
	CountItemRefs(ctx context.Context, itemID int64) (reqs int64, txs int64, err error)

	InsertRequest(ctx context.Context, r requests.Request) (*requests.Request, error)
	GetRequestForUpdate(ctx context.Context, id int64) (*requests.Request, error)
	UpdateRequestDecision(ctx context.Context, r requests.Request) error

	InsertTransaction(ctx context.Context, t inventory.Transaction) (*inventory.Transaction, error)
}

type TxFilter struct {
	ItemID int64 // 0 = all items
	From   time.Time
	To     time.Time
}
