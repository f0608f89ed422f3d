// Package expiration derives when the effect of a procedure runs out and
// classifies it for display.
package expiration

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/pkg/civil"
)

// DefaultLookahead is the window in which an expiration counts as upcoming.
const DefaultLookahead = 30

// ServiceValidity is one catalog row as seen by the engine.
type ServiceValidity struct {
	Name           string
	ValidityMonths int
}

// Catalog maps a normalized service name to its validity in months.
type Catalog map[string]int

// NewCatalog builds a Catalog, skipping services that never expire. When two
// names normalize to the same key the first one wins.
func NewCatalog(services []ServiceValidity) Catalog {
	c := make(Catalog, len(services))
	for _, s := range services {
		if s.ValidityMonths <= 0 {
			continue
		}
		key := NormalizeName(s.Name)
		if key == "" {
			continue
		}
		if _, ok := c[key]; !ok {
			c[key] = s.ValidityMonths
		}
	}
	return c
}

// NormalizeName trims, case-folds and collapses inner whitespace runs.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// Input is the part of a clinical event the engine reads.
type Input struct {
	Title       string
	PerformedOn time.Time
	ExpiresOn   *time.Time
}

// Compute returns the effective expiration date, or nil when the procedure
// never expires. An explicit expiration always wins over the catalog.
func Compute(in Input, catalog Catalog) *time.Time {
	if in.ExpiresOn != nil {
		d := *in.ExpiresOn
		return &d
	}
	months, ok := catalog[NormalizeName(in.Title)]
	if !ok || months <= 0 {
		return nil
	}
	d := civil.AddMonths(in.PerformedOn, months)
	return &d
}

type Class string

const (
	ClassNone     Class = "none"
	ClassExpired  Class = "expired"
	ClassUpcoming Class = "upcoming"
)

// Classify places an expiration date relative to today: expired before
// today, upcoming within [today, today+lookaheadDays], otherwise none.
func Classify(expiresOn *time.Time, today time.Time, lookaheadDays int) Class {
	if expiresOn == nil {
		return ClassNone
	}
	exp := civil.Truncate(*expiresOn)
	today = civil.Truncate(today)
	switch {
	case exp.Before(today):
		return ClassExpired
	case !exp.After(today.AddDate(0, 0, lookaheadDays)):
		return ClassUpcoming
	default:
		return ClassNone
	}
}

// Item is a classified event.
type Item struct {
	EventID     uuid.UUID  `json:"event_id"`
	PatientID   uuid.UUID  `json:"patient_id"`
	Title       string     `json:"title"`
	PerformedOn time.Time  `json:"performed_on"`
	ExpiresOn   *time.Time `json:"expires_on,omitempty"`
	Class       Class      `json:"class"`
}

// Surfaced keeps expired and upcoming items, ordered by ascending expiration
// with ties broken by event id.
func Surfaced(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.ExpiresOn != nil && (it.Class == ClassExpired || it.Class == ClassUpcoming) {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := *out[i].ExpiresOn, *out[j].ExpiresOn
		if !a.Equal(b) {
			return a.Before(b)
		}
		return out[i].EventID.String() < out[j].EventID.String()
	})
	return out
}

// Evaluate computes and classifies one event.
func Evaluate(eventID, patientID uuid.UUID, in Input, catalog Catalog, today time.Time, lookaheadDays int) Item {
	exp := Compute(in, catalog)
	return Item{
		EventID:     eventID,
		PatientID:   patientID,
		Title:       in.Title,
		PerformedOn: in.PerformedOn,
		ExpiresOn:   exp,
		Class:       Classify(exp, today, lookaheadDays),
	}
}

// Upcoming evaluates candidates and returns the surfaced ones in display
// order.
func Upcoming(candidates []Candidate, catalog Catalog, today time.Time, lookaheadDays int) []Item {
	items := make([]Item, 0, len(candidates))
	for _, c := range candidates {
		items = append(items, Evaluate(c.EventID, c.PatientID, c.Input, catalog, today, lookaheadDays))
	}
	return Surfaced(items)
}

// Candidate is an event that may carry an expiration.
type Candidate struct {
	EventID   uuid.UUID
	PatientID uuid.UUID
	Input     Input
}
