package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is a consumable supply. Stock changes only through debits and
// restocks.
type Item struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Unit      string          `db:"unit" json:"unit"`
	Stock     decimal.Decimal `db:"stock" json:"stock"`
	MinStock  decimal.Decimal `db:"min_stock" json:"min_stock"`
	UnitCost  decimal.Decimal `db:"unit_cost" json:"unit_cost"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// Low reports whether the stock is at or below the minimum threshold.
func (i *Item) Low() bool { return i.Stock.LessThanOrEqual(i.MinStock) }

// Debit removes Quantity units of an item.
type Debit struct {
	ItemID   uuid.UUID       `json:"item_id"`
	Quantity decimal.Decimal `json:"quantity"`
}
