package patient

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

// Rows written before the address column existed only carry street.
const patientCols = `id, full_name, birth_date, phone, email, COALESCE(address, street), COALESCE(photo_path, ''), created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	if err := row.Scan(&p.ID, &p.FullName, &p.BirthDate, &p.Phone, &p.Email, &p.Address,
		&p.PhotoPath, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient (id, full_name, birth_date, phone, email, address, photo_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		p.ID, p.FullName, p.BirthDate, p.Phone, p.Email, p.Address, nullIfEmpty(p.PhotoPath),
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("patient %s not found", id)
	}
	return p, err
}

// Update rewrites the canonical columns and clears the legacy street value
// so the row has a single shape afterwards.
func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE patient SET
			full_name = $2, birth_date = $3, phone = $4, email = $5,
			address = $6, street = NULL, photo_path = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		p.ID, p.FullName, p.BirthDate, p.Phone, p.Email, p.Address, nullIfEmpty(p.PhotoPath),
	).Scan(&p.UpdatedAt)
	if db.IsNoRows(err) {
		return apperr.NotFound("patient %s not found", p.ID)
	}
	return err
}

func (r *repoPG) UpdatePhoto(ctx context.Context, id uuid.UUID, photoPath string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE patient SET photo_path = $2, updated_at = NOW() WHERE id = $1`, id, nullIfEmpty(photoPath))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("patient %s not found", id)
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, name string, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM patient WHERE $1 = '' OR full_name ILIKE '%' || $1 || '%'`, name).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+patientCols+` FROM patient
		WHERE $1 = '' OR full_name ILIKE '%' || $1 || '%'
		ORDER BY full_name
		LIMIT $2 OFFSET $3`, name, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		patients = append(patients, p)
	}
	return patients, total, rows.Err()
}
