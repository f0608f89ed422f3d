package expiration

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/pkg/civil"
)

func testCatalog() Catalog {
	return NewCatalog([]ServiceValidity{
		{Name: "Botox", ValidityMonths: 4},
		{Name: "Hyaluronic  Acid Filler", ValidityMonths: 12},
		{Name: "Peeling", ValidityMonths: 0},
		{Name: "botox", ValidityMonths: 99},
	})
}

func TestCompute_CatalogMatch(t *testing.T) {
	tests := []struct {
		title     string
		performed time.Time
		want      *time.Time
	}{
		{"Botox", civil.Date(2024, time.March, 10), ptr(civil.Date(2024, time.July, 10))},
		{"  BOTOX ", civil.Date(2024, time.October, 31), ptr(civil.Date(2025, time.February, 28))},
		{"hyaluronic acid   filler", civil.Date(2024, time.February, 29), ptr(civil.Date(2025, time.February, 28))},
		{"Peeling", civil.Date(2024, time.March, 10), nil},
		{"Consultation", civil.Date(2024, time.March, 10), nil},
	}
	cat := testCatalog()
	for _, tt := range tests {
		got := Compute(Input{Title: tt.title, PerformedOn: tt.performed}, cat)
		if (got == nil) != (tt.want == nil) || (got != nil && !got.Equal(*tt.want)) {
			t.Errorf("Compute(%q, %s) = %v, want %v", tt.title, tt.performed.Format(civil.DateLayout), fmtDate(got), fmtDate(tt.want))
		}
	}
}

func TestCompute_AllValidities(t *testing.T) {
	start := civil.Date(2023, time.January, 31)
	for m := 1; m <= 36; m++ {
		cat := NewCatalog([]ServiceValidity{{Name: "x", ValidityMonths: m}})
		got := Compute(Input{Title: "x", PerformedOn: start}, cat)
		if got == nil {
			t.Fatalf("months=%d: expected expiration", m)
		}
		if want := civil.AddMonths(start, m); !got.Equal(want) {
			t.Errorf("months=%d: got %s, want %s", m, fmtDate(got), want.Format(civil.DateLayout))
		}
		if got.Day() > civil.DaysInMonth(got.Year(), got.Month()) {
			t.Errorf("months=%d: day overflow %s", m, fmtDate(got))
		}
	}
}

func TestCompute_ExplicitWins(t *testing.T) {
	explicit := civil.Date(2030, time.January, 1)
	for _, cat := range []Catalog{nil, testCatalog()} {
		for _, title := range []string{"Botox", "Unknown"} {
			got := Compute(Input{Title: title, PerformedOn: civil.Date(2024, 1, 1), ExpiresOn: &explicit}, cat)
			if got == nil || !got.Equal(explicit) {
				t.Errorf("title %q: expected explicit date, got %v", title, fmtDate(got))
			}
			if got == &explicit {
				t.Error("expected a copy, not the caller's pointer")
			}
		}
	}
}

func TestClassify(t *testing.T) {
	today := civil.Date(2024, time.June, 15)
	tests := []struct {
		exp  *time.Time
		want Class
	}{
		{nil, ClassNone},
		{ptr(civil.Date(2024, time.June, 14)), ClassExpired},
		{ptr(civil.Date(2024, time.June, 15)), ClassUpcoming},
		{ptr(civil.Date(2024, time.July, 15)), ClassUpcoming},
		{ptr(civil.Date(2024, time.July, 16)), ClassNone},
	}
	for _, tt := range tests {
		if got := Classify(tt.exp, today, DefaultLookahead); got != tt.want {
			t.Errorf("Classify(%s) = %s, want %s", fmtDate(tt.exp), got, tt.want)
		}
	}
}

func TestClassify_IgnoresClock(t *testing.T) {
	today := time.Date(2024, time.June, 15, 23, 59, 0, 0, time.UTC)
	exp := civil.Date(2024, time.June, 15)
	if got := Classify(&exp, today, 30); got != ClassUpcoming {
		t.Errorf("expected same-day expiration to be upcoming, got %s", got)
	}
}

func TestSurfaced_SortsAscending(t *testing.T) {
	a, b := uuid.MustParse("00000000-0000-0000-0000-00000000000a"), uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	items := []Item{
		{EventID: uuid.New(), ExpiresOn: ptr(civil.Date(2024, 7, 1)), Class: ClassUpcoming},
		{EventID: b, ExpiresOn: ptr(civil.Date(2024, 6, 1)), Class: ClassExpired},
		{EventID: uuid.New(), Class: ClassNone},
		{EventID: a, ExpiresOn: ptr(civil.Date(2024, 6, 1)), Class: ClassExpired},
		{EventID: uuid.New(), ExpiresOn: ptr(civil.Date(2025, 1, 1)), Class: ClassNone},
	}
	got := Surfaced(items)
	if len(got) != 3 {
		t.Fatalf("expected 3 surfaced items, got %d", len(got))
	}
	if got[0].EventID != a || got[1].EventID != b {
		t.Errorf("expected tie broken by id: %v %v", got[0].EventID, got[1].EventID)
	}
	if !got[2].ExpiresOn.Equal(civil.Date(2024, 7, 1)) {
		t.Errorf("expected latest last, got %s", fmtDate(got[2].ExpiresOn))
	}
}

func TestNewCatalog_FirstNameWins(t *testing.T) {
	cat := testCatalog()
	want := Catalog{"botox": 4, "hyaluronic acid filler": 12}
	if !reflect.DeepEqual(cat, want) {
		t.Errorf("NewCatalog = %v, want %v", cat, want)
	}
}

func ptr(t time.Time) *time.Time { return &t }

func fmtDate(t *time.Time) string {
	if t == nil {
		return "<none>"
	}
	return t.Format(civil.DateLayout)
}
