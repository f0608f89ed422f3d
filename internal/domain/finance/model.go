package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DirectionIncome  = "income"
	DirectionExpense = "expense"

	StatusPaid   = "paid"
	StatusUnpaid = "unpaid"
)

// Posting is one dated financial entry. Postings expanded from the same
// recurring template share a SeriesID.
type Posting struct {
	ID            uuid.UUID        `db:"id" json:"id"`
	Description   string           `db:"description" json:"description"`
	PatientID     *uuid.UUID       `db:"patient_id" json:"patient_id,omitempty"`
	Amount        decimal.Decimal  `db:"amount" json:"amount"`
	Cost          *decimal.Decimal `db:"cost" json:"cost,omitempty"`
	Date          time.Time        `db:"posted_on" json:"date"`
	Direction     string           `db:"direction" json:"direction"`
	Category      string           `db:"category" json:"category,omitempty"`
	PaymentMethod string           `db:"payment_method" json:"payment_method,omitempty"`
	Status        string           `db:"status" json:"status"`
	SeriesID      *uuid.UUID       `db:"series_id" json:"series_id,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
}

// Margin is amount minus cost for income postings that carry a cost.
func (p *Posting) Margin() (decimal.Decimal, bool) {
	if p.Direction != DirectionIncome || p.Cost == nil {
		return decimal.Zero, false
	}
	return p.Amount.Sub(*p.Cost), true
}

// Template is the entry as typed by the operator, before expansion.
type Template struct {
	Description   string           `json:"description"`
	PatientID     *uuid.UUID       `json:"patient_id,omitempty"`
	Amount        decimal.Decimal  `json:"amount"`
	Cost          *decimal.Decimal `json:"cost,omitempty"`
	Direction     string           `json:"direction"`
	Category      string           `json:"category,omitempty"`
	PaymentMethod string           `json:"payment_method,omitempty"`
	Paid          bool             `json:"paid"`
}

// Filter narrows a posting listing. Zero values are ignored.
type Filter struct {
	From      *time.Time
	To        *time.Time
	Direction string
	Status    string
	PatientID *uuid.UUID
}

// Summary totals the postings dated inside a range.
type Summary struct {
	From        time.Time       `json:"from"`
	To          time.Time       `json:"to"`
	Income      decimal.Decimal `json:"income"`
	Expense     decimal.Decimal `json:"expense"`
	Balance     decimal.Decimal `json:"balance"`
	Margin      decimal.Decimal `json:"margin"`
	Receivable  decimal.Decimal `json:"receivable"`
	Payable     decimal.Decimal `json:"payable"`
	PostingsNum int             `json:"postings"`
}
