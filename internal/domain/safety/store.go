package safety

import (
	"context"

	"github.com/google/uuid"
)

// Store keeps one questionnaire document per (patient, kind). Payloads are
// JSON objects; decoding them is left to the caller.
type Store interface {
	Get(ctx context.Context, patientID uuid.UUID, kind string) ([]byte, error)
	Put(ctx context.Context, patientID uuid.UUID, kind string, payload []byte) error
	// List returns every document of the patient keyed by kind.
	List(ctx context.Context, patientID uuid.UUID) (map[string][]byte, error)
	Close() error
}
