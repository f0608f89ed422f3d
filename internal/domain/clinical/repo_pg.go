package clinical

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/domain/expiration"
	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const eventCols = `id, patient_id, performed_on, title, professional_notes, patient_summary,
	status, kind, expires_on, created_at, updated_at`

func scanEvent(row pgx.Row) (*Event, error) {
	var e Event
	if err := row.Scan(&e.ID, &e.PatientID, &e.PerformedOn, &e.Title, &e.ProfessionalNotes,
		&e.PatientSummary, &e.Status, &e.Kind, &e.ExpiresOn, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repoPG) Create(ctx context.Context, e *Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO clinical_event (id, patient_id, performed_on, title, professional_notes,
			patient_summary, status, kind, expires_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		e.ID, e.PatientID, e.PerformedOn, e.Title, e.ProfessionalNotes,
		e.PatientSummary, e.Status, e.Kind, e.ExpiresOn,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	e, err := scanEvent(r.conn(ctx).QueryRow(ctx, `SELECT `+eventCols+` FROM clinical_event WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("clinical event %s not found", id)
	}
	return e, err
}

func (r *repoPG) Update(ctx context.Context, e *Event) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE clinical_event SET
			performed_on = $2, title = $3, professional_notes = $4, patient_summary = $5,
			status = $6, expires_on = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		e.ID, e.PerformedOn, e.Title, e.ProfessionalNotes, e.PatientSummary, e.Status, e.ExpiresOn,
	).Scan(&e.UpdatedAt)
	if db.IsNoRows(err) {
		return apperr.NotFound("clinical event %s not found", e.ID)
	}
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM clinical_event WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("clinical event %s not found", id)
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Event, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+eventCols+` FROM clinical_event
		WHERE patient_id = $1
		ORDER BY performed_on DESC, created_at DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []*Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *repoPG) ListCandidates(ctx context.Context) ([]expiration.Candidate, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, patient_id, title, performed_on, expires_on FROM clinical_event
		WHERE kind = $1 AND status <> $2`, KindProcedure, StatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []expiration.Candidate
	for rows.Next() {
		var c expiration.Candidate
		if err := rows.Scan(&c.EventID, &c.PatientID, &c.Input.Title, &c.Input.PerformedOn, &c.Input.ExpiresOn); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repoPG) AddConsumption(ctx context.Context, entries []*ConsumptionEntry) error {
	for _, ce := range entries {
		ce.ID = uuid.New()
		if err := r.conn(ctx).QueryRow(ctx, `
			INSERT INTO consumption_entry (id, event_id, item_id, quantity, unit)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at`,
			ce.ID, ce.EventID, ce.ItemID, ce.Quantity, ce.Unit).Scan(&ce.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) ListConsumption(ctx context.Context, eventID uuid.UUID) ([]*ConsumptionEntry, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, event_id, item_id, quantity, unit, created_at FROM consumption_entry
		WHERE event_id = $1 ORDER BY created_at`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*ConsumptionEntry
	for rows.Next() {
		var ce ConsumptionEntry
		if err := rows.Scan(&ce.ID, &ce.EventID, &ce.ItemID, &ce.Quantity, &ce.Unit, &ce.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &ce)
	}
	return out, rows.Err()
}
