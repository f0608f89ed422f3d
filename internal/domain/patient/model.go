package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patient table. Address is already normalized from the
// legacy street column when read.
type Patient struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	FullName  string     `db:"full_name" json:"full_name"`
	BirthDate *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Phone     *string    `db:"phone" json:"phone,omitempty"`
	Email     *string    `db:"email" json:"email,omitempty"`
	Address   *string    `db:"address" json:"address,omitempty"`
	PhotoPath string     `db:"photo_path" json:"photo_path,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// View is a patient with the photo preview resolved for one request.
type View struct {
	Patient
	PhotoURL string `json:"photo_url,omitempty"`
}

// Input carries the writable fields of a create or update request. Nil
// fields are left unchanged on update. A photo_url sent back by a client is
// a preview and is never read.
type Input struct {
	FullName  *string `json:"full_name"`
	BirthDate *string `json:"birth_date"`
	Phone     *string `json:"phone"`
	Email     *string `json:"email"`
	Address   *string `json:"address"`
	PhotoPath *string `json:"photo_path"`
}
