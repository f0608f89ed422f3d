package finance

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/clinic/clinic/pkg/civil"
)

func rent(paid bool) Template {
	return Template{Description: "Rent", Amount: decimal.NewFromInt(2500), Direction: DirectionExpense, Paid: paid}
}

func TestExpand_CalendarMonths(t *testing.T) {
	got := Expand(rent(false), civil.Date(2024, 1, 31), 3)
	want := []struct {
		date string
		desc string
	}{
		{"2024-01-31", "Rent (1/3)"},
		{"2024-02-29", "Rent (2/3)"},
		{"2024-03-31", "Rent (3/3)"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d postings, got %d", len(want), len(got))
	}
	for i, w := range want {
		if d := got[i].Date.Format(civil.DateLayout); d != w.date {
			t.Errorf("posting %d: expected date %s, got %s", i, w.date, d)
		}
		if got[i].Description != w.desc {
			t.Errorf("posting %d: expected %q, got %q", i, w.desc, got[i].Description)
		}
	}
}

func TestExpand_NoDriftAfterShortMonth(t *testing.T) {
	got := Expand(rent(false), civil.Date(2023, 11, 30), 4)
	dates := []string{"2023-11-30", "2023-12-30", "2024-01-30", "2024-02-29"}
	for i, d := range dates {
		if g := got[i].Date.Format(civil.DateLayout); g != d {
			t.Errorf("posting %d: expected %s, got %s", i, d, g)
		}
	}
}

func TestExpand_Series(t *testing.T) {
	got := Expand(rent(false), civil.Date(2024, 5, 10), 12)
	if len(got) != 12 {
		t.Fatalf("expected 12 postings, got %d", len(got))
	}
	series := got[0].SeriesID
	if series == nil {
		t.Fatal("expected a series id")
	}
	seen := map[string]bool{}
	for _, p := range got {
		if p.SeriesID == nil || *p.SeriesID != *series {
			t.Error("every posting must share the series id")
		}
		if seen[p.ID.String()] {
			t.Error("posting ids must be unique")
		}
		seen[p.ID.String()] = true
	}
	if last := got[11].Date.Format(civil.DateLayout); last != "2025-04-10" {
		t.Errorf("expected last posting on 2025-04-10, got %s", last)
	}
}

func TestExpand_Single(t *testing.T) {
	got := Expand(rent(true), civil.Date(2024, 5, 10), 1)
	if len(got) != 1 {
		t.Fatalf("expected one posting, got %d", len(got))
	}
	if got[0].Description != "Rent" || got[0].SeriesID != nil {
		t.Errorf("single posting must not be suffixed or grouped: %+v", got[0])
	}
	if got[0].Status != StatusPaid {
		t.Errorf("single posting must honor the paid flag, got %s", got[0].Status)
	}
}

func TestExpand_ZeroOccurrences(t *testing.T) {
	if got := Expand(rent(false), civil.Date(2024, 5, 10), 0); len(got) != 1 {
		t.Fatalf("expected one posting, got %d", len(got))
	}
}

func TestExpand_Status(t *testing.T) {
	tests := []struct {
		name      string
		direction string
		paid      bool
		n         int
		want      []string
	}{
		{"recurring expense ignores paid", DirectionExpense, true, 3, []string{StatusUnpaid, StatusUnpaid, StatusUnpaid}},
		{"recurring income paid first only", DirectionIncome, true, 3, []string{StatusPaid, StatusUnpaid, StatusUnpaid}},
		{"recurring income unpaid", DirectionIncome, false, 2, []string{StatusUnpaid, StatusUnpaid}},
		{"single expense paid", DirectionExpense, true, 1, []string{StatusPaid}},
		{"single expense unpaid", DirectionExpense, false, 1, []string{StatusUnpaid}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := Template{Description: "x", Amount: decimal.NewFromInt(1), Direction: tt.direction, Paid: tt.paid}
			got := Expand(tmpl, civil.Date(2024, 1, 1), tt.n)
			for i, w := range tt.want {
				if got[i].Status != w {
					t.Errorf("posting %d: expected %s, got %s", i, w, got[i].Status)
				}
			}
		})
	}
}

func TestMargin(t *testing.T) {
	cost := decimal.RequireFromString("120.50")
	p := &Posting{Direction: DirectionIncome, Amount: decimal.NewFromInt(400), Cost: &cost}
	m, ok := p.Margin()
	if !ok || !m.Equal(decimal.RequireFromString("279.50")) {
		t.Errorf("expected margin 279.50, got %s (%v)", m, ok)
	}
	p.Direction = DirectionExpense
	if _, ok := p.Margin(); ok {
		t.Error("expense postings have no margin")
	}
}
