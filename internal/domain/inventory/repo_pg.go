package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const itemCols = `id, name, unit, stock, min_stock, unit_cost, created_at, updated_at`

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	if err := row.Scan(&it.ID, &it.Name, &it.Unit, &it.Stock, &it.MinStock, &it.UnitCost,
		&it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *repoPG) Create(ctx context.Context, it *Item) error {
	it.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO inventory_item (id, name, unit, stock, min_stock, unit_cost)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		it.ID, it.Name, it.Unit, it.Stock, it.MinStock, it.UnitCost,
	).Scan(&it.CreatedAt, &it.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	it, err := scanItem(r.conn(ctx).QueryRow(ctx, `SELECT `+itemCols+` FROM inventory_item WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("inventory item %s not found", id)
	}
	return it, err
}

func (r *repoPG) query(ctx context.Context, where string) ([]*Item, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+itemCols+` FROM inventory_item `+where+` ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *repoPG) List(ctx context.Context) ([]*Item, error) {
	return r.query(ctx, "")
}

func (r *repoPG) LowStock(ctx context.Context) ([]*Item, error) {
	return r.query(ctx, "WHERE stock <= min_stock")
}

func (r *repoPG) Debit(ctx context.Context, id uuid.UUID, qty decimal.Decimal) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE inventory_item SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2`, id, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	it, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return insufficient(it, qty)
}

func (r *repoPG) Restock(ctx context.Context, id uuid.UUID, qty decimal.Decimal) (*Item, error) {
	it, err := scanItem(r.conn(ctx).QueryRow(ctx, `
		UPDATE inventory_item SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+itemCols, id, qty))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("inventory item %s not found", id)
	}
	return it, err
}
