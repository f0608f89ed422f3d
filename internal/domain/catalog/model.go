package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Entry is a billable service. ValidityMonths is how long the effect of the
// procedure lasts; nil or zero means it never expires.
type Entry struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	Name           string          `db:"name" json:"name"`
	ValidityMonths *int            `db:"validity_months" json:"validity_months,omitempty"`
	Price          decimal.Decimal `db:"price" json:"price"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

func (e *Entry) Expires() bool {
	return e.ValidityMonths != nil && *e.ValidityMonths > 0
}
