package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/db"
	"github.com/clinic/clinic/internal/platform/telemetry"
)

func insufficient(it *Item, requested decimal.Decimal) error {
	return apperr.InsufficientStock("insufficient stock for %s: requested %s %s, available %s %s",
		it.Name, requested.String(), it.Unit, it.Stock.String(), it.Unit)
}

// Authorize checks a single debit against a stock snapshot.
func Authorize(it *Item, qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return apperr.Validation("quantity for %s must be positive", it.Name)
	}
	if qty.GreaterThan(it.Stock) {
		return insufficient(it, qty)
	}
	return nil
}

// Ledger authorizes and applies stock debits.
type Ledger struct {
	repo    Repository
	tx      db.TxRunner
	metrics *telemetry.Metrics
}

func NewLedger(repo Repository, tx db.TxRunner, metrics *telemetry.Metrics) *Ledger {
	return &Ledger{repo: repo, tx: tx, metrics: metrics}
}

// AuthorizeAll checks debits in order against the current stock, counting
// earlier debits of the same item. It returns the items keyed by id.
func (l *Ledger) AuthorizeAll(ctx context.Context, debits []Debit) (map[uuid.UUID]*Item, error) {
	items := make(map[uuid.UUID]*Item)
	remaining := make(map[uuid.UUID]decimal.Decimal)
	for _, d := range debits {
		it, ok := items[d.ItemID]
		if !ok {
			var err error
			if it, err = l.repo.GetByID(ctx, d.ItemID); err != nil {
				return nil, err
			}
			items[d.ItemID] = it
			remaining[d.ItemID] = it.Stock
		}
		snapshot := *it
		snapshot.Stock = remaining[d.ItemID]
		if err := Authorize(&snapshot, d.Quantity); err != nil {
			l.metrics.StockDebit(err)
			return nil, err
		}
		remaining[d.ItemID] = snapshot.Stock.Sub(d.Quantity)
	}
	return items, nil
}

// Commit applies the debits in order inside one transaction. Each debit is
// guarded by the database so stock cannot go negative even when it changed
// after authorization; in that case nothing is applied.
func (l *Ledger) Commit(ctx context.Context, debits []Debit) error {
	err := l.tx.InTx(ctx, func(ctx context.Context) error {
		for _, d := range debits {
			if err := l.repo.Debit(ctx, d.ItemID, d.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	l.metrics.StockDebit(err)
	return err
}
