package clinical

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/domain/expiration"
	"github.com/clinic/clinic/internal/domain/inventory"
	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/db"
	"github.com/clinic/clinic/internal/platform/telemetry"
	"github.com/clinic/clinic/pkg/civil"
)

// StockLedger authorizes and applies the supply debits of an event.
type StockLedger interface {
	AuthorizeAll(ctx context.Context, debits []inventory.Debit) (map[uuid.UUID]*inventory.Item, error)
	Commit(ctx context.Context, debits []inventory.Debit) error
}

// Input is the writable part of an event. On update nil fields are left
// unchanged and an empty expires_on clears the explicit expiration.
type Input struct {
	PerformedOn       *string           `json:"performed_on"`
	Title             *string           `json:"title"`
	ProfessionalNotes *string           `json:"professional_notes"`
	PatientSummary    *string           `json:"patient_summary"`
	Status            *string           `json:"status"`
	ExpiresOn         *string           `json:"expires_on"`
	Consumption       []inventory.Debit `json:"consumption,omitempty"`
}

type Service struct {
	repo    Repository
	ledger  StockLedger
	tx      db.TxRunner
	logger  zerolog.Logger
	metrics *telemetry.Metrics
}

func NewService(repo Repository, ledger StockLedger, tx db.TxRunner, logger zerolog.Logger, metrics *telemetry.Metrics) *Service {
	return &Service{repo: repo, ledger: ledger, tx: tx, logger: logger, metrics: metrics}
}

func parseDate(field, v string) (*time.Time, error) {
	if strings.TrimSpace(v) == "" {
		return nil, nil
	}
	d, err := civil.Parse(v)
	if err != nil {
		return nil, apperr.Validation("%s must be YYYY-MM-DD", field)
	}
	return &d, nil
}

func apply(e *Event, in Input) error {
	if in.Title != nil {
		e.Title = strings.TrimSpace(*in.Title)
	}
	if e.Title == "" {
		return apperr.Validation("title is required")
	}
	if in.PerformedOn != nil {
		d, err := parseDate("performed_on", *in.PerformedOn)
		if err != nil {
			return err
		}
		if d == nil {
			return apperr.Validation("performed_on is required")
		}
		e.PerformedOn = *d
	}
	if e.PerformedOn.IsZero() {
		return apperr.Validation("performed_on is required")
	}
	if in.ExpiresOn != nil {
		d, err := parseDate("expires_on", *in.ExpiresOn)
		if err != nil {
			return err
		}
		e.ExpiresOn = d
	}
	if in.ProfessionalNotes != nil {
		e.ProfessionalNotes = in.ProfessionalNotes
	}
	if in.PatientSummary != nil {
		e.PatientSummary = in.PatientSummary
	}
	if in.Status != nil {
		e.Status = *in.Status
	}
	if e.Status == "" {
		e.Status = StatusCompleted
	}
	if !validStatuses[e.Status] {
		return apperr.Validation("invalid status: %s", e.Status)
	}
	return nil
}

// RecordEvent saves a performed procedure together with the supplies it
// consumed. Stock is authorized and debited first; the event and its
// consumption entries are written afterwards in their own transaction. When
// that second step fails the debits stay applied and the error is
// ReconciliationRequired.
func (s *Service) RecordEvent(ctx context.Context, patientID uuid.UUID, in Input) (*Event, []*ConsumptionEntry, error) {
	if patientID == uuid.Nil {
		return nil, nil, apperr.Validation("patient_id is required")
	}
	e := &Event{PatientID: patientID, Kind: KindProcedure}
	if err := apply(e, in); err != nil {
		return nil, nil, err
	}

	var items map[uuid.UUID]*inventory.Item
	if len(in.Consumption) > 0 {
		var err error
		if items, err = s.ledger.AuthorizeAll(ctx, in.Consumption); err != nil {
			return nil, nil, err
		}
		if err := s.ledger.Commit(ctx, in.Consumption); err != nil {
			return nil, nil, err
		}
	}

	e.ID = uuid.New()
	entries := make([]*ConsumptionEntry, 0, len(in.Consumption))
	for _, d := range in.Consumption {
		entries = append(entries, &ConsumptionEntry{
			EventID:  e.ID,
			ItemID:   d.ItemID,
			Quantity: d.Quantity,
			Unit:     items[d.ItemID].Unit,
		})
	}

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, e); err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return s.repo.AddConsumption(ctx, entries)
	})
	if err != nil && len(entries) > 0 {
		names := make([]string, 0, len(entries))
		arr := zerolog.Arr()
		for _, ce := range entries {
			names = append(names, ce.Quantity.String()+" "+ce.Unit+" "+items[ce.ItemID].Name)
			arr.Dict(zerolog.Dict().
				Str("item_id", ce.ItemID.String()).
				Str("quantity", ce.Quantity.String()))
		}
		s.logger.Error().Err(err).
			Str("patient_id", patientID.String()).
			Str("event_id", e.ID.String()).
			Str("title", e.Title).
			Array("debited", arr).
			Msg("stock debited but clinical event not saved")
		s.metrics.ReconciliationRequired("record_event")
		return nil, nil, apperr.ReconciliationRequired(err,
			"stock was debited (%s) but the event %q was not saved; record it again without supplies or restock manually",
			strings.Join(names, ", "), e.Title)
	}
	if err != nil {
		return nil, nil, err
	}
	return e, entries, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Event, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateEvent applies an explicit edit. Consumption is not touched.
func (s *Service) UpdateEvent(ctx context.Context, id uuid.UUID, in Input) (*Event, error) {
	if len(in.Consumption) > 0 {
		return nil, apperr.Validation("consumption cannot be changed after an event is recorded")
	}
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(e, in); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// DeleteEvent removes the event. Stock consumed by it is not restored.
func (s *Service) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Event, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

func (s *Service) ListConsumption(ctx context.Context, eventID uuid.UUID) ([]*ConsumptionEntry, error) {
	if _, err := s.repo.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.repo.ListConsumption(ctx, eventID)
}

// ListExpirationCandidates feeds the clinic-wide expirations view.
func (s *Service) ListExpirationCandidates(ctx context.Context) ([]expiration.Candidate, error) {
	return s.repo.ListCandidates(ctx)
}

// AppendDocumentEvent records that a document was executed. It joins the
// caller's transaction when ctx carries one.
func (s *Service) AppendDocumentEvent(ctx context.Context, patientID uuid.UUID, title, summary string, at time.Time) (*Event, error) {
	e := &Event{
		PatientID:      patientID,
		PerformedOn:    civil.Truncate(at),
		Title:          title,
		PatientSummary: &summary,
		Status:         StatusCompleted,
		Kind:           KindDocument,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}
