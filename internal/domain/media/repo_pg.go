package media

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

const assetCols = `id, patient_id, kind, stable_path, content_type, caption, taken_on, created_at`

func scanAsset(row pgx.Row) (*Asset, error) {
	var a Asset
	if err := row.Scan(&a.ID, &a.PatientID, &a.Kind, &a.StablePath, &a.ContentType, &a.Caption, &a.TakenOn, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) Create(ctx context.Context, a *Asset) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO media_asset (id, patient_id, kind, stable_path, content_type, caption, taken_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		a.ID, a.PatientID, a.Kind, a.StablePath, a.ContentType, a.Caption, a.TakenOn).Scan(&a.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Asset, error) {
	a, err := scanAsset(r.conn(ctx).QueryRow(ctx, `SELECT `+assetCols+` FROM media_asset WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("media %s not found", id)
	}
	return a, err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, kind string) ([]*Asset, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+assetCols+` FROM media_asset
		WHERE patient_id = $1 AND ($2 = '' OR kind = $2)
		ORDER BY created_at DESC`, patientID, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM media_asset WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("media %s not found", id)
	}
	return nil
}
