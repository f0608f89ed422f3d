package catalog

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, e *Entry) error
	GetByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	List(ctx context.Context) ([]*Entry, error)
	// ListWithExpiration returns entries with a positive validity period.
	ListWithExpiration(ctx context.Context) ([]*Entry, error)
}
