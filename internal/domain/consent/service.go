package consent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/domain/clinical"
	"github.com/clinic/clinic/internal/domain/media"
	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/db"
	"github.com/clinic/clinic/internal/platform/telemetry"
	"github.com/clinic/clinic/pkg/civil"
)

// Timeline receives the clinical event that records a signature.
type Timeline interface {
	AppendDocumentEvent(ctx context.Context, patientID uuid.UUID, title, summary string, at time.Time) (*clinical.Event, error)
}

type Service struct {
	repo     Repository
	timeline Timeline
	media    *media.Service
	tx       db.TxRunner
	metrics  *telemetry.Metrics
	now      func() time.Time
}

func NewService(repo Repository, timeline Timeline, mediaSvc *media.Service, tx db.TxRunner, metrics *telemetry.Metrics) *Service {
	return &Service{repo: repo, timeline: timeline, media: mediaSvc, tx: tx, metrics: metrics, now: time.Now}
}

// transitionError explains why a document can no longer be signed.
func transitionError(d *Document) error {
	switch d.State() {
	case StateSuperseded:
		return apperr.InvalidTransition("this document was replaced by a newer version; sign the current one")
	case StatusSigned:
		return apperr.InvalidTransition("this document was already signed")
	default:
		return apperr.InvalidTransition("this document cannot be signed in state %s", d.State())
	}
}

func resolveTitle(docType, title string) (string, error) {
	def, ok := defaultTitle(docType)
	if !ok {
		return "", apperr.Validation("unknown document type: %s", docType)
	}
	if t := strings.TrimSpace(title); t != "" {
		return t, nil
	}
	return def, nil
}

// RequestSignature issues a pending document. The current instance of the
// type is looked up in the store at call time; the unique index on current
// instances catches a concurrent request that slips past the check.
func (s *Service) RequestSignature(ctx context.Context, patientID uuid.UUID, docType, title string) (*Document, error) {
	d, err := s.requestSignature(ctx, patientID, docType, title)
	s.metrics.ConsentTransition("request", err)
	return d, err
}

func (s *Service) requestSignature(ctx context.Context, patientID uuid.UUID, docType, title string) (*Document, error) {
	if patientID == uuid.Nil {
		return nil, apperr.Validation("patient_id is required")
	}
	title, err := resolveTitle(docType, title)
	if err != nil {
		return nil, err
	}
	cur, err := s.repo.Current(ctx, patientID, docType)
	switch {
	case err == nil && cur.Status == StatusPending:
		return nil, apperr.DuplicateRequest("a document of this type was already requested")
	case err == nil:
		return nil, apperr.InvalidTransition("this document was already signed; reissue it to collect a new signature")
	case !apperr.IsKind(err, apperr.KindNotFound):
		return nil, err
	}

	d := &Document{PatientID: patientID, Type: docType, Title: title, Status: StatusPending}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Sign records a digital signature. The image is stored first; the status
// change and the timeline event are written in one transaction.
func (s *Service) Sign(ctx context.Context, id uuid.UUID, signature media.UploadRequest) (*Document, error) {
	d, err := s.sign(ctx, id, &signature)
	s.metrics.ConsentTransition("sign", err)
	return d, err
}

// MarkSignedViaPrint records that a printed copy was signed by hand.
func (s *Service) MarkSignedViaPrint(ctx context.Context, id uuid.UUID) (*Document, error) {
	d, err := s.sign(ctx, id, nil)
	s.metrics.ConsentTransition("mark_printed", err)
	return d, err
}

func (s *Service) sign(ctx context.Context, id uuid.UUID, signature *media.UploadRequest) (*Document, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.State() != StatusPending {
		return nil, transitionError(d)
	}

	via := SignedViaPrint
	var path *string
	if signature != nil {
		via = SignedViaDigital
		signature.PatientID = d.PatientID
		signature.Kind = media.KindSignature
		p, err := s.media.Store(ctx, *signature)
		if err != nil {
			return nil, err
		}
		path = &p
	}

	at := s.now().UTC()
	var signed *Document
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		if signed, err = s.repo.MarkSigned(ctx, id, at, path, via); err != nil {
			return err
		}
		_, err = s.timeline.AppendDocumentEvent(ctx, d.PatientID,
			"Document signed: "+d.Title, signedSummary(d.Title, via, at), at)
		return err
	})
	if err != nil {
		if path != nil {
			s.media.Discard(ctx, *path)
		}
		return nil, err
	}
	return signed, nil
}

func signedSummary(title, via string, at time.Time) string {
	method := "digitally"
	if via == SignedViaPrint {
		method = "on a printed copy"
	}
	return fmt.Sprintf("%s was signed %s on %s.", title, method, at.Format(civil.DateLayout))
}

// Reissue supersedes the current instance of the type, whatever its status,
// and issues a new pending one.
func (s *Service) Reissue(ctx context.Context, patientID uuid.UUID, docType, title string) (*Document, error) {
	d, err := s.reissue(ctx, patientID, docType, title)
	s.metrics.ConsentTransition("reissue", err)
	return d, err
}

func (s *Service) reissue(ctx context.Context, patientID uuid.UUID, docType, title string) (*Document, error) {
	if patientID == uuid.Nil {
		return nil, apperr.Validation("patient_id is required")
	}
	if _, err := resolveTitle(docType, ""); err != nil {
		return nil, err
	}
	next := &Document{ID: uuid.New(), PatientID: patientID, Type: docType, Status: StatusPending}
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		cur, err := s.repo.Current(ctx, patientID, docType)
		if err != nil && !apperr.IsKind(err, apperr.KindNotFound) {
			return err
		}
		previousTitle := ""
		if cur != nil {
			previousTitle = cur.Title
			if err := s.repo.Supersede(ctx, cur.ID, next.ID, s.now().UTC()); err != nil {
				return err
			}
		}
		if strings.TrimSpace(title) == "" && previousTitle != "" {
			title = previousTitle
		}
		if next.Title, err = resolveTitle(docType, title); err != nil {
			return err
		}
		return s.repo.Create(ctx, next)
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

func (s *Service) view(ctx context.Context, d *Document) View {
	v := View{Document: *d, State: d.State()}
	if d.SignaturePath != nil {
		v.SignatureURL = s.media.Resolver().Resolve(ctx, *d.SignaturePath)
	}
	return v
}

func (s *Service) views(ctx context.Context, docs []*Document) []View {
	out := make([]View, 0, len(docs))
	for _, d := range docs {
		out = append(out, s.view(ctx, d))
	}
	return out
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*View, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	v := s.view(ctx, d)
	return &v, nil
}

// Current returns the most recent non-superseded instance of every type the
// patient has.
func (s *Service) Current(ctx context.Context, patientID uuid.UUID) ([]View, error) {
	docs, err := s.repo.ListCurrent(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, docs), nil
}

func (s *Service) History(ctx context.Context, patientID uuid.UUID, docType string) ([]View, error) {
	if _, ok := defaultTitle(docType); !ok {
		return nil, apperr.Validation("unknown document type: %s", docType)
	}
	docs, err := s.repo.History(ctx, patientID, docType)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, docs), nil
}
