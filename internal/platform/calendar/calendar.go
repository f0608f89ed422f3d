// Package calendar is the scheduling event store the clinic core reads
// upcoming appointments from. It is treated as an opaque collaborator:
// create, update, delete and list by date range.
package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/platform/apperr"
)

type Event struct {
	ID          uuid.UUID `json:"id"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
}

// Mentions reports whether the free-text description or summary names
// needle, case-insensitively.
func (e Event) Mentions(needle string) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(e.Description), needle) ||
		strings.Contains(strings.ToLower(e.Summary), needle)
}

func (e Event) validate() error {
	if strings.TrimSpace(e.Summary) == "" {
		return apperr.Validation("summary is required")
	}
	if e.Start.IsZero() || e.End.IsZero() {
		return apperr.Validation("start and end are required")
	}
	if e.End.Before(e.Start) {
		return apperr.Validation("end must not be before start")
	}
	return nil
}

// Store is the external calendar.
type Store interface {
	Create(ctx context.Context, e *Event) error
	Update(ctx context.Context, e *Event) error
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*Event, error)
	// List returns events overlapping [from, to) ordered by start.
	List(ctx context.Context, from, to time.Time) ([]*Event, error)
}

// Validating wraps a Store and rejects malformed events before they reach it.
type Validating struct {
	Store
}

func (v Validating) Create(ctx context.Context, e *Event) error {
	if err := e.validate(); err != nil {
		return err
	}
	return v.Store.Create(ctx, e)
}

func (v Validating) Update(ctx context.Context, e *Event) error {
	if err := e.validate(); err != nil {
		return err
	}
	return v.Store.Update(ctx, e)
}

func (v Validating) List(ctx context.Context, from, to time.Time) ([]*Event, error) {
	if to.Before(from) {
		return nil, apperr.Validation("range end %s is before start %s", to.Format(time.RFC3339), from.Format(time.RFC3339))
	}
	items, err := v.Store.List(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}
	return items, nil
}
