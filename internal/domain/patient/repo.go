package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	UpdatePhoto(ctx context.Context, id uuid.UUID, photoPath string) error
	List(ctx context.Context, name string, limit, offset int) ([]*Patient, int, error)
}
