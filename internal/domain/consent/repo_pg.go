package consent

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/db"
)

const currentIndex = "consent_document_current_uq"

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const docCols = `id, patient_id, doc_type, title, status, issued_at, signed_at, signature_path,
	signed_via, superseded_by, superseded_at`

func scanDocument(row pgx.Row) (*Document, error) {
	var d Document
	if err := row.Scan(&d.ID, &d.PatientID, &d.Type, &d.Title, &d.Status, &d.IssuedAt, &d.SignedAt,
		&d.SignaturePath, &d.SignedVia, &d.SupersededBy, &d.SupersededAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repoPG) Create(ctx context.Context, d *Document) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO consent_document (id, patient_id, doc_type, title, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING issued_at`,
		d.ID, d.PatientID, d.Type, d.Title, d.Status).Scan(&d.IssuedAt)
	if db.IsUniqueViolation(err, currentIndex) {
		return apperr.DuplicateRequest("a document of this type was already requested")
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Document, error) {
	d, err := scanDocument(r.conn(ctx).QueryRow(ctx, `SELECT `+docCols+` FROM consent_document WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("consent document %s not found", id)
	}
	return d, err
}

func (r *repoPG) Current(ctx context.Context, patientID uuid.UUID, docType string) (*Document, error) {
	d, err := scanDocument(r.conn(ctx).QueryRow(ctx, `
		SELECT `+docCols+` FROM consent_document
		WHERE patient_id = $1 AND doc_type = $2 AND superseded_by IS NULL`, patientID, docType))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("no %s document for patient %s", docType, patientID)
	}
	return d, err
}

func (r *repoPG) list(ctx context.Context, query string, args ...interface{}) ([]*Document, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []*Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (r *repoPG) ListCurrent(ctx context.Context, patientID uuid.UUID) ([]*Document, error) {
	return r.list(ctx, `
		SELECT `+docCols+` FROM consent_document
		WHERE patient_id = $1 AND superseded_by IS NULL
		ORDER BY doc_type`, patientID)
}

func (r *repoPG) History(ctx context.Context, patientID uuid.UUID, docType string) ([]*Document, error) {
	return r.list(ctx, `
		SELECT `+docCols+` FROM consent_document
		WHERE patient_id = $1 AND doc_type = $2
		ORDER BY issued_at DESC`, patientID, docType)
}

func (r *repoPG) MarkSigned(ctx context.Context, id uuid.UUID, at time.Time, signaturePath *string, via string) (*Document, error) {
	d, err := scanDocument(r.conn(ctx).QueryRow(ctx, `
		UPDATE consent_document
		SET status = 'signed', signed_at = $2, signature_path = $3, signed_via = $4
		WHERE id = $1 AND status = 'pending' AND superseded_by IS NULL
		RETURNING `+docCols, id, at, signaturePath, via))
	if !db.IsNoRows(err) {
		return d, err
	}
	cur, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return nil, transitionError(cur)
}

func (r *repoPG) Supersede(ctx context.Context, id, by uuid.UUID, at time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE consent_document SET superseded_by = $2, superseded_at = $3
		WHERE id = $1 AND superseded_by IS NULL`, id, by, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.InvalidTransition("this document was already replaced by a newer version")
	}
	return nil
}
