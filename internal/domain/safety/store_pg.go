package safety

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/db"
)

type pgStore struct{ pool *pgxpool.Pool }

// NewPGStore keeps questionnaires in the questionnaire JSONB table.
func NewPGStore(pool *pgxpool.Pool) Store { return &pgStore{pool: pool} }

func (s *pgStore) conn(ctx context.Context) db.Querier { return db.Conn(ctx, s.pool) }

func (s *pgStore) Get(ctx context.Context, patientID uuid.UUID, kind string) ([]byte, error) {
	var payload []byte
	err := s.conn(ctx).QueryRow(ctx,
		`SELECT payload FROM questionnaire WHERE patient_id = $1 AND kind = $2`, patientID, kind).Scan(&payload)
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("no %s questionnaire for patient %s", kind, patientID)
	}
	return payload, err
}

func (s *pgStore) Put(ctx context.Context, patientID uuid.UUID, kind string, payload []byte) error {
	_, err := s.conn(ctx).Exec(ctx, `
		INSERT INTO questionnaire (patient_id, kind, payload)
		VALUES ($1, $2, $3)
		ON CONFLICT (patient_id, kind) DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()`,
		patientID, kind, payload)
	return err
}

func (s *pgStore) List(ctx context.Context, patientID uuid.UUID) (map[string][]byte, error) {
	rows, err := s.conn(ctx).Query(ctx, `SELECT kind, payload FROM questionnaire WHERE patient_id = $1`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string][]byte)
	for rows.Next() {
		var kind string
		var payload []byte
		if err := rows.Scan(&kind, &payload); err != nil {
			return nil, err
		}
		out[kind] = payload
	}
	return out, rows.Err()
}

// Close is a no-op; the pool is owned by the caller.
func (s *pgStore) Close() error { return nil }
