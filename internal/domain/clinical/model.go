package clinical

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinic/clinic/internal/domain/expiration"
)

const (
	KindProcedure = "procedure"
	KindDocument  = "document"

	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

var validStatuses = map[string]bool{StatusCompleted: true, StatusCancelled: true}

// Event is one entry of a patient's procedure history. Document events are
// written by the system when a consent is signed.
type Event struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	PatientID         uuid.UUID  `db:"patient_id" json:"patient_id"`
	PerformedOn       time.Time  `db:"performed_on" json:"performed_on"`
	Title             string     `db:"title" json:"title"`
	ProfessionalNotes *string    `db:"professional_notes" json:"professional_notes,omitempty"`
	PatientSummary    *string    `db:"patient_summary" json:"patient_summary,omitempty"`
	Status            string     `db:"status" json:"status"`
	Kind              string     `db:"kind" json:"kind"`
	ExpiresOn         *time.Time `db:"expires_on" json:"expires_on,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// ExpirationInput is the part of the event the expiration engine reads.
func (e *Event) ExpirationInput() expiration.Input {
	return expiration.Input{Title: e.Title, PerformedOn: e.PerformedOn, ExpiresOn: e.ExpiresOn}
}

// ConsumptionEntry links an event to the supplies it used.
type ConsumptionEntry struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	EventID   uuid.UUID       `db:"event_id" json:"event_id"`
	ItemID    uuid.UUID       `db:"item_id" json:"item_id"`
	Quantity  decimal.Decimal `db:"quantity" json:"quantity"`
	Unit      string          `db:"unit" json:"unit"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}
