package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/config"
	"github.com/clinic/clinic/internal/platform/blobstore"
)

func runPreview(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := postingsCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"preview"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestPostingsPreview(t *testing.T) {
	out, err := runPreview(t, "--description", "Rent", "--amount", "2500", "--start", "2024-01-31", "--occurrences", "3", "--paid")
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	for _, want := range []string{
		"2024-01-31 Rent (1/3)",
		"2024-02-29 Rent (2/3)",
		"2024-03-31 Rent (3/3)",
		"2500.00",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, " paid") {
		t.Errorf("recurring expenses must preview as unpaid:\n%s", out)
	}
}

func TestPostingsPreview_InvalidAmount(t *testing.T) {
	if _, err := runPreview(t, "--description", "Rent", "--amount", "lots"); err == nil {
		t.Fatal("expected error for invalid amount")
	}
}

func TestPostingsPreview_Validation(t *testing.T) {
	if _, err := runPreview(t, "--description", "Rent", "--amount", "10", "--direction", "transfer"); err == nil {
		t.Fatal("expected error for invalid direction")
	}
}

func TestNewBlobStore_MemoryServesSignedLinks(t *testing.T) {
	e := echo.New()
	cfg := &config.Config{Port: "8000", BlobDriver: "memory"}
	store, err := newBlobStore(context.Background(), cfg, e)
	if err != nil {
		t.Fatalf("newBlobStore: %v", err)
	}
	ctx := context.Background()
	path, err := store.PutObject(ctx, "patients/p1/photo/a.png", strings.NewReader("png"), "image/png")
	if err != nil {
		t.Fatal(err)
	}
	link, err := store.PresignGet(ctx, path, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if !blobstore.IsAccessURL(link) || !strings.HasPrefix(link, "http://localhost:8000/blobs/") {
		t.Fatalf("unexpected link %q", link)
	}

	req := httptest.NewRequest(http.MethodGet, strings.TrimPrefix(link, "http://localhost:8000"), nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "png" {
		t.Fatalf("expected blob body, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestMigrationsDir(t *testing.T) {
	cfg := &config.Config{MigrationsDir: "/srv/clinic/migrations"}

	up, _, err := migrateCmd().Find([]string{"up"})
	if err != nil {
		t.Fatal(err)
	}
	if got := migrationsDir(up, cfg); got != "/srv/clinic/migrations" {
		t.Errorf("expected MIGRATIONS_DIR, got %q", got)
	}
	if got := migrationsDir(up, &config.Config{}); got != "./migrations" {
		t.Errorf("expected built-in default, got %q", got)
	}
	if err := up.Flags().Set("dir", "./other"); err != nil {
		t.Fatal(err)
	}
	if got := migrationsDir(up, cfg); got != "./other" {
		t.Errorf("expected --dir to win, got %q", got)
	}
}
