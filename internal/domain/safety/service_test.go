package safety

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/apperr"
)

type memStore struct {
	mu   sync.Mutex
	docs map[uuid.UUID]map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[uuid.UUID]map[string][]byte)}
}

func (m *memStore) Get(_ context.Context, pid uuid.UUID, kind string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.docs[pid][kind]
	if !ok {
		return nil, apperr.NotFound("no %s questionnaire for patient %s", kind, pid)
	}
	return raw, nil
}

func (m *memStore) Put(_ context.Context, pid uuid.UUID, kind string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docs[pid] == nil {
		m.docs[pid] = make(map[string][]byte)
	}
	m.docs[pid][kind] = payload
	return nil
}

func (m *memStore) List(_ context.Context, pid uuid.UUID) (map[string][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]byte)
	for k, v := range m.docs[pid] {
		out[k] = v
	}
	return out, nil
}

func (m *memStore) Close() error { return nil }

func testLogger() zerolog.Logger { return zerolog.Nop() }

func TestService_SaveStoresCanonicalShape(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, testLogger())
	pid := uuid.New()

	if _, err := svc.Save(context.Background(), pid, KindHealth, []byte(`{"medication":"aspirin","pregnant":"yes"}`)); err != nil {
		t.Fatal(err)
	}
	var stored map[string]interface{}
	json.Unmarshal(store.docs[pid][KindHealth], &stored)
	if stored["medications"] != "aspirin" || stored["pregnancy"] != true {
		t.Errorf("expected canonical fields, got %v", stored)
	}
	if _, ok := stored["medication"]; ok {
		t.Error("legacy key must not be stored")
	}
}

func TestService_TagsSkipsUnreadable(t *testing.T) {
	store := newMemStore()
	pid := uuid.New()
	store.Put(context.Background(), pid, KindHealth, []byte(`not json`))
	store.Put(context.Background(), pid, KindAesthetic, []byte(`{"prior_filler":true}`))

	var logs bytes.Buffer
	svc := NewService(store, zerolog.New(&logs))
	tags, err := svc.Tags(context.Background(), pid)
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 1 || tags[0] != "Prior filler" {
		t.Errorf("unexpected tags %q", tags)
	}
	if !strings.Contains(logs.String(), "skipping unreadable questionnaire") {
		t.Error("expected a warning for the unreadable document")
	}
}

func TestService_Tags_NoQuestionnaires(t *testing.T) {
	svc := NewService(newMemStore(), testLogger())
	tags, err := svc.Tags(context.Background(), uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 0 {
		t.Errorf("expected no tags, got %q", tags)
	}
}

func TestService_Get_UnknownKind(t *testing.T) {
	svc := NewService(newMemStore(), testLogger())
	if _, err := svc.Get(context.Background(), uuid.New(), "dental"); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestHandler_PutAndTags(t *testing.T) {
	h := NewHandler(NewService(newMemStore(), testLogger()))
	e := echo.New()
	pid := uuid.New()

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"keloid":true,"allergies":"iodine"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id", "kind")
	c.SetParamValues(pid.String(), KindHealth)
	if err := h.Put(c); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(pid.String())
	if err := h.Tags(c); err != nil {
		t.Fatalf("Tags: %v", err)
	}
	var body struct {
		Tags []string `json:"tags"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if len(body.Tags) != 2 || body.Tags[0] != "Keloid tendency" || body.Tags[1] != "Allergic to: iodine" {
		t.Errorf("unexpected tags %q", body.Tags)
	}
}

func TestHandler_Put_InvalidKind(t *testing.T) {
	h := NewHandler(NewService(newMemStore(), testLogger()))
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{}`)), httptest.NewRecorder())
	c.SetParamNames("id", "kind")
	c.SetParamValues(uuid.New().String(), "dental")
	err := h.Put(c)
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}
