package models

import "time"

type EmployeeStatus string

const (
	PendingEmployeeStatus    EmployeeStatus = "PENDING"
	OnboardingEmployeeStatus EmployeeStatus = "ONBOARDING"
	CompletedEmployeeStatus  EmployeeStatus = "COMPLETED"
	FailedEmployeeStatus     EmployeeStatus = "FAILED"
)

// Employee is a person being onboarded. Status is mutated only by the
// workflow state machine as a side effect of workflow transitions.
type Employee struct {
	ID           int64          `json:"id" db:"id"`
	Name         string         `json:"name" db:"name"`
	Email        string         `json:"email" db:"email"` // unique
	Role         string         `json:"role" db:"role"`
	Department   string         `json:"department" db:"department"`
	StartDate    time.Time      `json:"start_date" db:"start_date"`
	ManagerEmail string         `json:"manager_email,omitempty" db:"manager_email"`
	BuddyEmail   string         `json:"buddy_email,omitempty" db:"buddy_email"`
	Jurisdiction string         `json:"jurisdiction" db:"jurisdiction"` // e.g. "US", "UK", "DE"
	Status       EmployeeStatus `json:"status" db:"status"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}
