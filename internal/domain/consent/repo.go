package consent

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	// Create fails with DuplicateRequest when the patient already has a
	// current instance of the type.
	Create(ctx context.Context, d *Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*Document, error)
	// Current returns the non-superseded instance of the type or NotFound.
	Current(ctx context.Context, patientID uuid.UUID, docType string) (*Document, error)
	ListCurrent(ctx context.Context, patientID uuid.UUID) ([]*Document, error)
	// History lists every instance of the type, newest first.
	History(ctx context.Context, patientID uuid.UUID, docType string) ([]*Document, error)
	// MarkSigned flips a current pending instance to signed and fails with
	// InvalidTransition otherwise.
	MarkSigned(ctx context.Context, id uuid.UUID, at time.Time, signaturePath *string, via string) (*Document, error)
	Supersede(ctx context.Context, id, by uuid.UUID, at time.Time) error
}
