package models

import (
	"time"

	"github.com/google/uuid"
)

// Trainer is a directory entry for trainers assignable to modules.
type Trainer struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Contact   string    `json:"contact,omitempty"`
	Expertise string    `json:"expertise,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
