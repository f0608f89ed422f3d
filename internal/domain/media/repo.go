package media

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Asset) error
	GetByID(ctx context.Context, id uuid.UUID) (*Asset, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, kind string) ([]*Asset, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
