package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const entryCols = `id, name, validity_months, price, created_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	if err := row.Scan(&e.ID, &e.Name, &e.ValidityMonths, &e.Price, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repoPG) Create(ctx context.Context, e *Entry) error {
	e.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO catalog_service (id, name, validity_months, price)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		e.ID, e.Name, e.ValidityMonths, e.Price).Scan(&e.CreatedAt)
	if db.IsUniqueViolation(err, "") {
		return apperr.DuplicateRequest("a service named %q already exists", e.Name)
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Entry, error) {
	e, err := scanEntry(r.conn(ctx).QueryRow(ctx, `SELECT `+entryCols+` FROM catalog_service WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("service %s not found", id)
	}
	return e, err
}

func (r *repoPG) list(ctx context.Context, where string) ([]*Entry, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+entryCols+` FROM catalog_service `+where+` ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

func (r *repoPG) List(ctx context.Context) ([]*Entry, error) {
	return r.list(ctx, "")
}

func (r *repoPG) ListWithExpiration(ctx context.Context) ([]*Entry, error) {
	return r.list(ctx, "WHERE validity_months > 0")
}
