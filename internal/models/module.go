package models

import (
	"time"

	"github.com/google/uuid"
)

// TrainingModule statuses.
const (
	ModuleStatusProposed  = "proposed"
	ModuleStatusConfirmed = "confirmed"
	ModuleStatusCompleted = "completed"
)

// CourseBatch is one course/headcount pair inside a training module.
type CourseBatch struct {
	Course string `json:"course"`
	Count  int    `json:"count"`
}

// TrainingModule is a confirmed training engagement for a registered college:
// batches, financials, dates, MoU state and assigned trainers.
type TrainingModule struct {
	ID             uuid.UUID     `json:"id"`
	RegistrationID *uuid.UUID    `json:"registration_id,omitempty"`
	Representative string        `json:"representative"`
	Status         string        `json:"status"`
	Batches        []CourseBatch `json:"batches"`
	Financials     float64       `json:"financials"`
	Dates          string        `json:"dates"`
	MouSigned      bool          `json:"mou_signed"`
	Notes          string        `json:"notes,omitempty"`
	TrainerIDs     []uuid.UUID   `json:"trainer_ids"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}
