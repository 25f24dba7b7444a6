package storage

import (
	"time"

	"github.com/pkg/errors"

	"github.com/zerotouch/onboard/pkg/models"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the durable storage operations the onboarding engine needs.
// Begin returns a transactional Store; the read-then-act sequences in the
// approval coordinator rely on it for serialization.
type Store interface {
	Begin() (Store, error)
	Commit() error
	Rollback() error
	Close() error

	// Employee operations
	SaveEmployee(e models.Employee) (int64, error)
	GetEmployee(id int64) (models.Employee, error)
	GetEmployeeByEmail(email string) (models.Employee, error)
	ListEmployees() ([]models.Employee, error)
	UpdateEmployeeStatus(id int64, status models.EmployeeStatus) error
	DeleteEmployee(id int64) error

	// Workflow operations
	SaveWorkflow(w models.Workflow) (int64, error)
	GetWorkflow(id int64) (models.Workflow, error)
	GetWorkflowStatus(id int64) (models.WorkflowStatus, error)
	GetActiveWorkflowByEmployee(employeeID int64) (models.Workflow, error)
	GetLatestWorkflowByEmployee(employeeID int64) (models.Workflow, error)
	UpdateWorkflowStatus(id int64, status models.WorkflowStatus) error
	// CompareAndSwapWorkflowStatus transitions from->to atomically and
	// reports whether this call performed the transition.
	CompareAndSwapWorkflowStatus(id int64, from, to models.WorkflowStatus) (bool, error)
	MarkWorkflowStarted(id int64, at time.Time) error
	MarkWorkflowFinished(id int64, status models.WorkflowStatus, errMsg string, at time.Time) error
	// ResetWorkflow puts a workflow back to PENDING with no error message
	// and no completion timestamp; used by retry.
	ResetWorkflow(id int64) error

	// Step operations
	SaveStep(s models.Step) (int64, error)
	GetSteps(workflowID int64) ([]models.Step, error)
	MarkStepRunning(id int64, at time.Time) error
	MarkStepCompleted(id int64, result string, at time.Time) error
	MarkStepFailed(id int64, errMsg string, at time.Time) error
	ResetStep(id int64) error

	// Document operations
	SaveDocument(d models.Document) (int64, error)
	GetDocument(id int64) (models.Document, error)
	ListDocumentsByEmployee(employeeID int64) ([]models.Document, error)
	UpdateDocumentStatus(id int64, status models.DocumentStatus, approvedBy string, approvedAt *time.Time) error
	UpdateDocumentContent(id int64, content string) error

	// Approval operations
	SaveApproval(a models.ApprovalRequest) (int64, error)
	GetApproval(id int64) (models.ApprovalRequest, error)
	ListApprovals(status models.ApprovalStatus) ([]models.ApprovalRequest, error)
	ListApprovalsByEmployee(employeeID int64) ([]models.ApprovalRequest, error)
	CountPendingApprovals(employeeID int64) (int, error)
	UpdateApprovalDecision(id int64, status models.ApprovalStatus, reviewerID, comments string, at time.Time) error

	// Jurisdiction template operations
	SaveJurisdictionTemplate(t models.JurisdictionTemplate) (int64, error)
	GetJurisdictionTemplate(code string, kind models.DocumentKind) (models.JurisdictionTemplate, error)

	// Policy chunk operations (RAG corpus)
	SavePolicyChunk(c models.PolicyChunk) (int64, error)
	ListPolicyChunks() ([]models.PolicyChunk, error)
}
