package models

import (
	"time"

	"github.com/google/uuid"
)

// Assignment links a patient to a clinician. The pair is unique together; a
// patient may have multiple clinicians and vice versa.
type Assignment struct {
	PatientID        uuid.UUID
	ClinicianID      uuid.UUID
	CreatedAt        time.Time
	CreatedByAdminID uuid.UUID
}
