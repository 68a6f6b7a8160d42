package items

import "time"

// StockStatus is the derived classification of an item's stock level
// against its minimum threshold.
type StockStatus string

const (
	StatusCritical StockStatus = "critical"
	StatusLow      StockStatus = "low"
	StatusOK       StockStatus = "ok"
)

type Item struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Unit      string    `json:"unit"`
	Stock     int64     `json:"stock"`
	MinStock  int64     `json:"min_stock"`
	UnitPrice float64   `json:"unit_price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Status classifies the current stock level. Empty stock is critical,
// anything at or below the minimum threshold is low.
func (i Item) Status() StockStatus {
	switch {
	case i.Stock == 0:
		return StatusCritical
	case i.Stock <= i.MinStock:
		return StatusLow
	default:
		return StatusOK
	}
}
