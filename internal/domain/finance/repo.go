package finance

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create inserts postings with their IDs preset.
	Create(ctx context.Context, p *Posting) error
	GetByID(ctx context.Context, id uuid.UUID) (*Posting, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*Posting, int, error)
	// MarkPaid flips an unpaid posting to paid and returns it.
	MarkPaid(ctx context.Context, id uuid.UUID) (*Posting, error)
}
