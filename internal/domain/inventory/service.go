package inventory

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinic/clinic/internal/platform/apperr"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, it *Item) error {
	it.Name = strings.TrimSpace(it.Name)
	it.Unit = strings.TrimSpace(it.Unit)
	if it.Name == "" {
		return apperr.Validation("name is required")
	}
	if it.Unit == "" {
		return apperr.Validation("unit is required")
	}
	if it.Stock.IsNegative() || it.MinStock.IsNegative() || it.UnitCost.IsNegative() {
		return apperr.Validation("stock, min_stock and unit_cost must not be negative")
	}
	return s.repo.Create(ctx, it)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Item, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Item, error) {
	return s.repo.List(ctx)
}

func (s *Service) LowStock(ctx context.Context) ([]*Item, error) {
	return s.repo.LowStock(ctx)
}

// Restock is the manual stock increment; consumption is never reversed
// automatically.
func (s *Service) Restock(ctx context.Context, id uuid.UUID, qty decimal.Decimal) (*Item, error) {
	if !qty.IsPositive() {
		return nil, apperr.Validation("restock quantity must be positive")
	}
	return s.repo.Restock(ctx, id, qty)
}
