package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/domain/expiration"
	"github.com/clinic/clinic/internal/platform/apperr"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, e *Entry) error {
	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		return apperr.Validation("name is required")
	}
	if e.ValidityMonths != nil && *e.ValidityMonths < 0 {
		return apperr.Validation("validity_months must not be negative")
	}
	if e.Price.IsNegative() {
		return apperr.Validation("price must not be negative")
	}
	return s.repo.Create(ctx, e)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Entry, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Entry, error) {
	return s.repo.List(ctx)
}

// ListServicesWithExpiration returns the validity periods the expiration
// engine looks procedures up in.
func (s *Service) ListServicesWithExpiration(ctx context.Context) ([]expiration.ServiceValidity, error) {
	entries, err := s.repo.ListWithExpiration(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]expiration.ServiceValidity, 0, len(entries))
	for _, e := range entries {
		if !e.Expires() {
			continue
		}
		out = append(out, expiration.ServiceValidity{Name: e.Name, ValidityMonths: *e.ValidityMonths})
	}
	return out, nil
}

// Catalog loads the lookup table used by expiration.Compute.
func (s *Service) Catalog(ctx context.Context) (expiration.Catalog, error) {
	services, err := s.ListServicesWithExpiration(ctx)
	if err != nil {
		return nil, err
	}
	return expiration.NewCatalog(services), nil
}
