package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/clinic/clinic/internal/platform/apperr"
)

type mockRepo struct {
	items map[uuid.UUID]*Entry
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*Entry)}
}

func (m *mockRepo) Create(_ context.Context, e *Entry) error {
	for _, existing := range m.items {
		if existing.Name == e.Name {
			return apperr.DuplicateRequest("a service named %q already exists", e.Name)
		}
	}
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	m.items[e.ID] = e
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Entry, error) {
	e, ok := m.items[id]
	if !ok {
		return nil, apperr.NotFound("service %s not found", id)
	}
	return e, nil
}

func (m *mockRepo) List(_ context.Context) ([]*Entry, error) {
	var out []*Entry
	for _, e := range m.items {
		out = append(out, e)
	}
	return out, nil
}

func (m *mockRepo) ListWithExpiration(_ context.Context) ([]*Entry, error) {
	var out []*Entry
	for _, e := range m.items {
		if e.Expires() {
			out = append(out, e)
		}
	}
	return out, nil
}

func months(n int) *int { return &n }

func TestService_Create_Validation(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	cases := []*Entry{
		{Name: "  "},
		{Name: "Botox", ValidityMonths: months(-1)},
		{Name: "Botox", Price: decimal.NewFromInt(-5)},
	}
	for i, e := range cases {
		if err := svc.Create(ctx, e); !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("case %d: expected validation error, got %v", i, err)
		}
	}
	if err := svc.Create(ctx, &Entry{Name: " Botox ", ValidityMonths: months(4)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestService_Catalog(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	svc.Create(ctx, &Entry{Name: "Botox", ValidityMonths: months(4)})
	svc.Create(ctx, &Entry{Name: "Consultation"})
	svc.Create(ctx, &Entry{Name: "Peeling", ValidityMonths: months(0)})

	services, err := svc.ListServicesWithExpiration(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(services) != 1 || services[0].Name != "Botox" || services[0].ValidityMonths != 4 {
		t.Errorf("unexpected services: %+v", services)
	}

	cat, err := svc.Catalog(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cat["botox"] != 4 || len(cat) != 1 {
		t.Errorf("unexpected catalog: %v", cat)
	}
}

func TestHandler_Create(t *testing.T) {
	h := NewHandler(NewService(newMockRepo()))
	e := echo.New()
	body := `{"name":"Filler","validity_months":12,"price":"850.00"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.Create(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	err := h.Create(e.NewContext(req, httptest.NewRecorder()))
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate name, got %v", err)
	}
}
