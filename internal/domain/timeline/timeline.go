// Package timeline assembles the read model of one patient record. Nothing
// is cached between calls: every Build reads current inputs and recomputes
// expirations, previews and safety tags.
package timeline

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/clinic/clinic/internal/domain/clinical"
	"github.com/clinic/clinic/internal/domain/consent"
	"github.com/clinic/clinic/internal/domain/expiration"
	"github.com/clinic/clinic/internal/domain/finance"
	"github.com/clinic/clinic/internal/domain/media"
	"github.com/clinic/clinic/internal/domain/patient"
	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/calendar"
	"github.com/clinic/clinic/pkg/civil"
)

type Patients interface {
	View(ctx context.Context, id uuid.UUID) (*patient.View, error)
}

type Events interface {
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*clinical.Event, error)
}

type Catalog interface {
	Catalog(ctx context.Context) (expiration.Catalog, error)
}

type Postings interface {
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*finance.Posting, error)
}

type Documents interface {
	Current(ctx context.Context, patientID uuid.UUID) ([]consent.View, error)
}

type Media interface {
	ListViews(ctx context.Context, patientID uuid.UUID, kind string) ([]media.View, error)
}

type SafetyTags interface {
	Tags(ctx context.Context, patientID uuid.UUID) ([]string, error)
}

// Sources are the collaborators a timeline is read from.
type Sources struct {
	Patients  Patients
	Events    Events
	Catalog   Catalog
	Postings  Postings
	Documents Documents
	Media     Media
	Safety    SafetyTags
	Calendar  calendar.Store
}

// EventEntry is a clinical event with its computed expiration.
type EventEntry struct {
	*clinical.Event
	ComputedExpiresOn *time.Time       `json:"computed_expires_on,omitempty"`
	ExpirationClass   expiration.Class `json:"expiration_class"`
}

// Timeline is the consolidated record. Postings is nil for viewers without
// financial access.
type Timeline struct {
	Patient      *patient.View      `json:"patient"`
	Today        string             `json:"today"`
	SafetyTags   []string           `json:"safety_tags"`
	Events       []EventEntry       `json:"events"`
	Expiring     []expiration.Item  `json:"expiring"`
	Documents    []consent.View     `json:"documents"`
	Media        []media.View       `json:"media"`
	Postings     []*finance.Posting `json:"postings,omitempty"`
	Appointments []*calendar.Event  `json:"appointments"`
}

type Builder struct {
	src           Sources
	lookaheadDays int
	logger        zerolog.Logger
	now           func() time.Time
}

func NewBuilder(src Sources, lookaheadDays int, logger zerolog.Logger) *Builder {
	if lookaheadDays <= 0 {
		lookaheadDays = expiration.DefaultLookahead
	}
	return &Builder{src: src, lookaheadDays: lookaheadDays, logger: logger, now: time.Now}
}

// Build reads every source for the patient and assembles the timeline as
// the viewer is allowed to see it.
func (b *Builder) Build(ctx context.Context, patientID uuid.UUID, viewer auth.Viewer) (*Timeline, error) {
	pv, err := b.src.Patients.View(ctx, patientID)
	if err != nil {
		return nil, err
	}
	today := civil.Truncate(b.now())
	t := &Timeline{Patient: pv, Today: today.Format(civil.DateLayout)}

	var (
		events  []*clinical.Event
		catalog expiration.Catalog
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		events, err = b.src.Events.ListByPatient(gctx, patientID)
		return err
	})
	g.Go(func() (err error) {
		catalog, err = b.src.Catalog.Catalog(gctx)
		return err
	})
	g.Go(func() (err error) {
		t.SafetyTags, err = b.src.Safety.Tags(gctx, patientID)
		return err
	})
	g.Go(func() (err error) {
		t.Documents, err = b.src.Documents.Current(gctx, patientID)
		return err
	})
	g.Go(func() (err error) {
		t.Media, err = b.src.Media.ListViews(gctx, patientID, "")
		return err
	})
	if viewer.CanSeeFinancial() {
		g.Go(func() (err error) {
			t.Postings, err = b.src.Postings.ListByPatient(gctx, patientID)
			if err == nil && t.Postings == nil {
				t.Postings = []*finance.Posting{}
			}
			return err
		})
	}
	g.Go(func() error {
		t.Appointments = b.appointments(gctx, pv, today)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	t.Events, t.Expiring = b.decorate(events, catalog, today, viewer)
	if t.Documents == nil {
		t.Documents = []consent.View{}
	}
	if t.Media == nil {
		t.Media = []media.View{}
	}
	return t, nil
}

// decorate attaches expirations to events in performed-date descending
// order and collects the surfaced ones in ascending expiration order.
func (b *Builder) decorate(events []*clinical.Event, catalog expiration.Catalog, today time.Time, viewer auth.Viewer) ([]EventEntry, []expiration.Item) {
	entries := make([]EventEntry, 0, len(events))
	items := make([]expiration.Item, 0, len(events))
	for _, e := range events {
		if !viewer.CanSeeClinicalNotes() {
			e.ProfessionalNotes = nil
		}
		entry := EventEntry{Event: e, ExpirationClass: expiration.ClassNone}
		if e.Kind == clinical.KindProcedure && e.Status != clinical.StatusCancelled {
			it := expiration.Evaluate(e.ID, e.PatientID, e.ExpirationInput(), catalog, today, b.lookaheadDays)
			entry.ComputedExpiresOn = it.ExpiresOn
			entry.ExpirationClass = it.Class
			items = append(items, it)
		}
		entries = append(entries, entry)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].PerformedOn.After(entries[j].PerformedOn)
	})
	return entries, expiration.Surfaced(items)
}

// appointments lists calendar events in [today, today+lookahead] that name
// the patient. The calendar is external, so a failure only empties the list.
func (b *Builder) appointments(ctx context.Context, pv *patient.View, today time.Time) []*calendar.Event {
	out := []*calendar.Event{}
	if b.src.Calendar == nil {
		return out
	}
	events, err := b.src.Calendar.List(ctx, today, today.AddDate(0, 0, b.lookaheadDays+1))
	if err != nil {
		b.logger.Warn().Err(err).Str("patient_id", pv.ID.String()).Msg("calendar unavailable")
		return out
	}
	for _, e := range events {
		if e.Mentions(pv.FullName) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}
