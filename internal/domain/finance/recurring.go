package finance

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/pkg/civil"
)

// Expand turns a template into occurrences monthly postings starting at
// start. Months are added on the calendar, clamping to the last day, and
// always from start so a Jan 31 series runs Jan 31, Feb 29, Mar 31.
//
// With more than one occurrence every description gets a " (k/n)" suffix and
// the postings share a series id. A recurring expense is always unpaid; a
// recurring income honors the paid flag on its first posting only. A single
// posting honors the flag as given.
func Expand(t Template, start time.Time, occurrences int) []*Posting {
	if occurrences < 1 {
		occurrences = 1
	}
	start = civil.Truncate(start)

	var series *uuid.UUID
	if occurrences > 1 {
		id := uuid.New()
		series = &id
	}

	out := make([]*Posting, 0, occurrences)
	for k := 0; k < occurrences; k++ {
		p := &Posting{
			ID:            uuid.New(),
			Description:   t.Description,
			PatientID:     t.PatientID,
			Amount:        t.Amount,
			Cost:          t.Cost,
			Date:          civil.AddMonths(start, k),
			Direction:     t.Direction,
			Category:      t.Category,
			PaymentMethod: t.PaymentMethod,
			Status:        initialStatus(t, k, occurrences),
			SeriesID:      series,
		}
		if occurrences > 1 {
			p.Description = fmt.Sprintf("%s (%d/%d)", t.Description, k+1, occurrences)
		}
		out = append(out, p)
	}
	return out
}

func initialStatus(t Template, k, n int) string {
	paid := t.Paid
	if n > 1 && (t.Direction == DirectionExpense || k > 0) {
		paid = false
	}
	if paid {
		return StatusPaid
	}
	return StatusUnpaid
}
