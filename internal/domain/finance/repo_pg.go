package finance

import (
	"context"
	"fmt"
	"strings"

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

const postingCols = `id, description, patient_id, amount, cost, posted_on, direction,
	COALESCE(category, ''), COALESCE(payment_method, ''), status, series_id, created_at`

func scanPosting(row pgx.Row) (*Posting, error) {
	var p Posting
	var cost decimal.NullDecimal
	if err := row.Scan(&p.ID, &p.Description, &p.PatientID, &p.Amount, &cost, &p.Date, &p.Direction,
		&p.Category, &p.PaymentMethod, &p.Status, &p.SeriesID, &p.CreatedAt); err != nil {
		return nil, err
	}
	if cost.Valid {
		p.Cost = &cost.Decimal
	}
	return &p, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *repoPG) Create(ctx context.Context, p *Posting) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO financial_posting (id, description, patient_id, amount, cost, posted_on,
			direction, category, payment_method, status, series_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at`,
		p.ID, p.Description, p.PatientID, p.Amount, p.Cost, p.Date,
		p.Direction, nullIfEmpty(p.Category), nullIfEmpty(p.PaymentMethod), p.Status, p.SeriesID,
	).Scan(&p.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Posting, error) {
	p, err := scanPosting(r.conn(ctx).QueryRow(ctx, `SELECT `+postingCols+` FROM financial_posting WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("posting %s not found", id)
	}
	return p, err
}

func where(f Filter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.From != nil {
		add("posted_on >= $%d", *f.From)
	}
	if f.To != nil {
		add("posted_on <= $%d", *f.To)
	}
	if f.Direction != "" {
		add("direction = $%d", f.Direction)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.PatientID != nil {
		add("patient_id = $%d", *f.PatientID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Posting, int, error) {
	w, args := where(f)

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM financial_posting`+w, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + postingCols + ` FROM financial_posting` + w + ` ORDER BY posted_on DESC, description`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	}
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []*Posting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *repoPG) MarkPaid(ctx context.Context, id uuid.UUID) (*Posting, error) {
	p, err := scanPosting(r.conn(ctx).QueryRow(ctx, `
		UPDATE financial_posting SET status = 'paid'
		WHERE id = $1 AND status = 'unpaid'
		RETURNING `+postingCols, id))
	if err == nil {
		return p, nil
	}
	if !db.IsNoRows(err) {
		return nil, err
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, apperr.InvalidTransition("this posting is already paid")
}
