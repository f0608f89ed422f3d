package clinical

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/domain/expiration"
)

type Repository interface {
	Create(ctx context.Context, e *Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*Event, error)
	Update(ctx context.Context, e *Event) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ListByPatient orders by performed date, newest first.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Event, error)
	// ListCandidates returns every non-cancelled procedure.
	ListCandidates(ctx context.Context) ([]expiration.Candidate, error)

	AddConsumption(ctx context.Context, entries []*ConsumptionEntry) error
	ListConsumption(ctx context.Context, eventID uuid.UUID) ([]*ConsumptionEntry, error)
}
