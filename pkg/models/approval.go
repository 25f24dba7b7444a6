package models

import "time"

type ApprovalStatus string

const (
	PendingApprovalStatus           ApprovalStatus = "PENDING"
	ApprovedApprovalStatus          ApprovalStatus = "APPROVED"
	RejectedApprovalStatus          ApprovalStatus = "REJECTED"
	RevisionRequestedApprovalStatus ApprovalStatus = "REVISION_REQUESTED"
)

// ApprovalRequest tracks human review of exactly one generated document.
// Its status and the document's status are kept in lockstep by the
// approval coordinator.
type ApprovalRequest struct {
	ID         int64          `json:"id" db:"id"`
	EmployeeID int64          `json:"employee_id" db:"employee_id"`
	DocumentID int64          `json:"document_id" db:"document_id"`
	Status     ApprovalStatus `json:"status" db:"status"`
	ReviewerID string         `json:"reviewer_id,omitempty" db:"reviewer_id"`
	Comments   string         `json:"comments,omitempty" db:"comments"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
	ReviewedAt *time.Time     `json:"reviewed_at,omitempty" db:"reviewed_at"`
}
