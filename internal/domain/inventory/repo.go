package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, it *Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*Item, error)
	List(ctx context.Context) ([]*Item, error)
	LowStock(ctx context.Context) ([]*Item, error)
	// Debit subtracts qty only when the stock covers it and fails with
	// InsufficientStock otherwise.
	Debit(ctx context.Context, id uuid.UUID, qty decimal.Decimal) error
	Restock(ctx context.Context, id uuid.UUID, qty decimal.Decimal) (*Item, error)
}
