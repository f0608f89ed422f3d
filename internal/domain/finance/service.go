package finance

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/db"
	"github.com/clinic/clinic/internal/platform/telemetry"
	"github.com/clinic/clinic/pkg/civil"
)

// MaxOccurrences bounds a recurring series to ten years of monthly postings.
const MaxOccurrences = 120

type Service struct {
	repo    Repository
	tx      db.TxRunner
	metrics *telemetry.Metrics
}

func NewService(repo Repository, tx db.TxRunner, metrics *telemetry.Metrics) *Service {
	return &Service{repo: repo, tx: tx, metrics: metrics}
}

// EntryRequest is a new financial entry. Occurrences above one make it a
// monthly recurring series starting at Date.
type EntryRequest struct {
	Template
	Date        string `json:"date"`
	Occurrences int    `json:"occurrences"`
}

// Validate checks the request and returns the parsed start date.
func (r *EntryRequest) Validate() (time.Time, error) {
	r.Description = strings.TrimSpace(r.Description)
	if r.Description == "" {
		return time.Time{}, apperr.Validation("description is required")
	}
	if r.Direction != DirectionIncome && r.Direction != DirectionExpense {
		return time.Time{}, apperr.Validation("direction must be income or expense")
	}
	if !r.Amount.IsPositive() {
		return time.Time{}, apperr.Validation("amount must be greater than zero")
	}
	if r.Cost != nil {
		if r.Direction != DirectionIncome {
			return time.Time{}, apperr.Validation("cost applies to income entries only")
		}
		if r.Cost.IsNegative() {
			return time.Time{}, apperr.Validation("cost must not be negative")
		}
	}
	if r.Occurrences == 0 {
		r.Occurrences = 1
	}
	if r.Occurrences < 1 || r.Occurrences > MaxOccurrences {
		return time.Time{}, apperr.Validation("occurrences must be between 1 and %d", MaxOccurrences)
	}
	start, err := civil.Parse(r.Date)
	if err != nil {
		return time.Time{}, apperr.Validation("date must be YYYY-MM-DD")
	}
	return start, nil
}

// RecordEntry expands the request and stores every posting or none.
func (s *Service) RecordEntry(ctx context.Context, req EntryRequest) ([]*Posting, error) {
	start, err := req.Validate()
	if err != nil {
		return nil, err
	}
	postings := Expand(req.Template, start, req.Occurrences)
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		for _, p := range postings {
			if err := s.repo.Create(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.PostingsCreated(req.Direction, len(postings))
	return postings, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Posting, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Posting, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Posting, error) {
	out, _, err := s.repo.List(ctx, Filter{PatientID: &patientID}, 0, 0)
	return out, err
}

func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID) (*Posting, error) {
	return s.repo.MarkPaid(ctx, id)
}

// Summary totals the postings dated in [from, to].
func (s *Service) Summary(ctx context.Context, from, to time.Time) (*Summary, error) {
	from, to = civil.Truncate(from), civil.Truncate(to)
	if to.Before(from) {
		return nil, apperr.Validation("to must not be before from")
	}
	postings, _, err := s.repo.List(ctx, Filter{From: &from, To: &to}, 0, 0)
	if err != nil {
		return nil, err
	}
	return Summarize(postings, from, to), nil
}

// Summarize totals postings without filtering them.
func Summarize(postings []*Posting, from, to time.Time) *Summary {
	sum := &Summary{From: from, To: to, PostingsNum: len(postings)}
	for _, p := range postings {
		switch p.Direction {
		case DirectionIncome:
			sum.Income = sum.Income.Add(p.Amount)
			if p.Status == StatusUnpaid {
				sum.Receivable = sum.Receivable.Add(p.Amount)
			}
		case DirectionExpense:
			sum.Expense = sum.Expense.Add(p.Amount)
			if p.Status == StatusUnpaid {
				sum.Payable = sum.Payable.Add(p.Amount)
			}
		}
		if m, ok := p.Margin(); ok {
			sum.Margin = sum.Margin.Add(m)
		}
	}
	sum.Balance = sum.Income.Sub(sum.Expense)
	return sum
}
