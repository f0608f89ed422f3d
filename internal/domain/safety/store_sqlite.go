package safety

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/clinic/clinic/internal/platform/apperr"
)

// SQLiteStore keeps questionnaires in an embedded database file, for
// deployments where the documents live next to the server.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		path = "clinic-questionnaires.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; sqlite serializes anyway.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS questionnaire (
		patient_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		payload BLOB NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (patient_id, kind)
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create questionnaire table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, patientID uuid.UUID, kind string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM questionnaire WHERE patient_id = ? AND kind = ?`, patientID.String(), kind).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("no %s questionnaire for patient %s", kind, patientID)
	}
	return payload, err
}

func (s *SQLiteStore) Put(ctx context.Context, patientID uuid.UUID, kind string, payload []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO questionnaire (patient_id, kind, payload, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (patient_id, kind) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		patientID.String(), kind, payload, time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

func (s *SQLiteStore) List(ctx context.Context, patientID uuid.UUID) (map[string][]byte, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kind, payload FROM questionnaire WHERE patient_id = ?`, patientID.String())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := make(map[string][]byte)
	for rows.Next() {
		var kind string
		var payload []byte
		if err := rows.Scan(&kind, &payload); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out[kind] = payload
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
