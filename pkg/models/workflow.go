package models

import "time"

type WorkflowStatus string

const (
	PendingWorkflowStatus          WorkflowStatus = "PENDING"
	RunningWorkflowStatus          WorkflowStatus = "RUNNING"
	PausedWorkflowStatus           WorkflowStatus = "PAUSED"
	AwaitingApprovalWorkflowStatus WorkflowStatus = "AWAITING_APPROVAL"
	CompletedWorkflowStatus        WorkflowStatus = "COMPLETED"
	FailedWorkflowStatus           WorkflowStatus = "FAILED"
)

// Active reports whether the workflow is still making (or can make) progress.
// An employee may have at most one active workflow at a time.
func (s WorkflowStatus) Active() bool {
	switch s {
	case PendingWorkflowStatus, RunningWorkflowStatus, PausedWorkflowStatus, AwaitingApprovalWorkflowStatus:
		return true
	}
	return false
}

// Workflow is one onboarding run for exactly one employee. It owns an
// ordered list of steps, materialized from the step catalog at creation.
type Workflow struct {
	ID          int64          `json:"id" db:"id"`
	EmployeeID  int64          `json:"employee_id" db:"employee_id"`
	Status      WorkflowStatus `json:"status" db:"status"`
	ErrorMsg    string         `json:"error,omitempty" db:"error_msg"`
	StartedAt   *time.Time     `json:"started_at,omitempty" db:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	Steps       []Step         `json:"steps,omitempty"` // populated at runtime, ordered by step_order
}
