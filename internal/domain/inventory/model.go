package inventory

import "time"

type Direction string

const (
	DirIn     Direction = "in"
	DirOut    Direction = "out"
	DirAdjust Direction = "adjust"
)

// Transaction is one append-only ledger row. Qty is always the signed
// delta applied to the item's stock: positive for "in", negative for
// "out", either sign for "adjust". An item's stock equals the sum of
// its transaction Qty values at all times.
type Transaction struct {
	ID        int64     `json:"id"`
	ItemID    int64     `json:"item_id"`
	Direction Direction `json:"direction"`
	Qty       int64     `json:"qty"`
	Reason    string    `json:"reason"`
	ActorID   int64     `json:"actor_id"`
	RequestID *int64    `json:"request_id,omitempty"`
	Supplier  string    `json:"supplier,omitempty"`
	UnitPrice float64   `json:"unit_price,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
