package models

import (
	"time"

	"github.com/google/uuid"
)

// Participant is one roster row ingested for a registration.
type Participant struct {
	ID             uuid.UUID `json:"id"`
	RegistrationID uuid.UUID `json:"registration_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Contact        string    `json:"contact"`
	Degree         string    `json:"degree"`
	Branch         string    `json:"branch"`
	Year           int       `json:"year"`
	Percentage     float64   `json:"percentage"`
	CreatedAt      time.Time `json:"created_at"`
}
