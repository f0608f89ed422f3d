package media

import (
	"time"

	"github.com/google/uuid"
)

const (
	KindPhoto         = "photo"
	KindClinicalPhoto = "clinical_photo"
	KindSignature     = "signature"
	KindDocument      = "document"
)

var validKinds = map[string]bool{
	KindPhoto: true, KindClinicalPhoto: true, KindSignature: true, KindDocument: true,
}

// Asset references a stored binary object. StablePath is the only reference
// that is ever persisted.
type Asset struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patient_id"`
	Kind        string     `db:"kind" json:"kind"`
	StablePath  string     `db:"stable_path" json:"stable_path"`
	ContentType *string    `db:"content_type" json:"content_type,omitempty"`
	Caption     *string    `db:"caption" json:"caption,omitempty"`
	TakenOn     *time.Time `db:"taken_on" json:"taken_on,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// View pairs an asset with an access URL resolved for the current request.
// It is never stored.
type View struct {
	Asset
	PreviewURL string `json:"preview_url,omitempty"`
}
