package consent

import (
	"time"

	"github.com/google/uuid"
)

// Document types offered by the clinic.
const (
	TypeTreatment     = "treatment"
	TypeProcedureRisk = "procedure_risk"
	TypeImageUse      = "image_use"
	TypeDataPrivacy   = "data_privacy"
	TypePostCare      = "post_care"
	TypeAnesthesia    = "anesthesia"
)

// Types lists the document types in display order with their default
// titles.
var Types = []struct {
	Type  string
	Title string
}{
	{TypeTreatment, "Treatment consent"},
	{TypeProcedureRisk, "Procedure risk acknowledgement"},
	{TypeImageUse, "Image use authorization"},
	{TypeDataPrivacy, "Data privacy consent"},
	{TypePostCare, "Post-procedure care instructions"},
	{TypeAnesthesia, "Anesthesia consent"},
}

func defaultTitle(docType string) (string, bool) {
	for _, t := range Types {
		if t.Type == docType {
			return t.Title, true
		}
	}
	return "", false
}

// Stored statuses. Superseded is derived from SupersededBy.
const (
	StatusPending    = "pending"
	StatusSigned     = "signed"
	StateSuperseded  = "superseded"
	SignedViaDigital = "digital"
	SignedViaPrint   = "print"
)

// Document is one issued instance of a consent form for a patient.
type Document struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	Type          string     `db:"doc_type" json:"type"`
	Title         string     `db:"title" json:"title"`
	Status        string     `db:"status" json:"status"`
	IssuedAt      time.Time  `db:"issued_at" json:"issued_at"`
	SignedAt      *time.Time `db:"signed_at" json:"signed_at,omitempty"`
	SignaturePath *string    `db:"signature_path" json:"signature_path,omitempty"`
	SignedVia     *string    `db:"signed_via" json:"signed_via,omitempty"`
	SupersededBy  *uuid.UUID `db:"superseded_by" json:"superseded_by,omitempty"`
	SupersededAt  *time.Time `db:"superseded_at" json:"superseded_at,omitempty"`
}

// State is the status shown to users: pending, signed or superseded.
func (d *Document) State() string {
	if d.SupersededBy != nil {
		return StateSuperseded
	}
	return d.Status
}

// View is a document with its state and signature preview for one request.
type View struct {
	Document
	State        string `json:"state"`
	SignatureURL string `json:"signature_url,omitempty"`
}
