package service

import (
	"time"

	"github.com/pkg/errors"

	"github.com/zerotouch/onboard/pkg/models"
	"github.com/zerotouch/onboard/pkg/storage"
)

// ErrAlreadyDecided is returned when a decision is requested for an approval
// request that is no longer PENDING.
var ErrAlreadyDecided = errors.New("approval request already decided")

// Resumer continues a gated workflow's execution after the last pending
// approval clears. It must not block the caller.
type Resumer func(workflowID int64)

// ApprovalService keeps documents and their approval requests in lockstep
// and decides when a gated workflow may resume. The approve path runs its
// read-then-act sequence (decision, document update, zero-pending recheck,
// status flip) inside one transaction so two near-simultaneous approvals
// can never both resume the workflow.
type ApprovalService struct {
	store   storage.Store
	logger  Logger
	resumer Resumer
}

func NewApprovalService(store storage.Store, logger Logger) *ApprovalService {
	return &ApprovalService{
		store:  store,
		logger: logger,
	}
}

// SetResumer installs the continuation hook invoked when an approval clears
// the gate. Wired after construction to break the service cycle with the
// workflow service.
func (s *ApprovalService) SetResumer(r Resumer) {
	s.resumer = r
}

// Register creates a PENDING approval request for the document and marks the
// document as awaiting review.
func (s *ApprovalService) Register(employeeID, documentID int64) (models.ApprovalRequest, error) {
	tx, err := s.store.Begin()
	if err != nil {
		return models.ApprovalRequest{}, err
	}
	approval := models.ApprovalRequest{
		EmployeeID: employeeID,
		DocumentID: documentID,
		Status:     models.PendingApprovalStatus,
		CreatedAt:  time.Now(),
	}
	id, err := tx.SaveApproval(approval)
	if err != nil {
		_ = tx.Rollback()
		return models.ApprovalRequest{}, errors.Wrap(err, "save approval request")
	}
	if err := tx.UpdateDocumentStatus(documentID, models.PendingApprovalDocumentStatus, "", nil); err != nil {
		_ = tx.Rollback()
		return models.ApprovalRequest{}, errors.Wrap(err, "mark document pending approval")
	}
	if err := tx.Commit(); err != nil {
		return models.ApprovalRequest{}, err
	}
	approval.ID = id
	return approval, nil
}

// Approve records the decision and, when it was the last pending approval
// for the employee, flips the gated workflow back to RUNNING and fires the
// resumer. The returned bool reports whether this call resumed a workflow.
func (s *ApprovalService) Approve(approvalID int64, reviewerID, comments string) (bool, error) {
	tx, err := s.store.Begin()
	if err != nil {
		return false, err
	}

	approval, err := tx.GetApproval(approvalID)
	if err != nil {
		_ = tx.Rollback()
		return false, err
	}
	if approval.Status != models.PendingApprovalStatus {
		_ = tx.Rollback()
		return false, nil
	}

	now := time.Now()
	if err := tx.UpdateApprovalDecision(approvalID, models.ApprovedApprovalStatus, reviewerID, comments, now); err != nil {
		_ = tx.Rollback()
		return false, errors.Wrap(err, "record approval decision")
	}
	if err := tx.UpdateDocumentStatus(approval.DocumentID, models.ApprovedDocumentStatus, reviewerID, &now); err != nil {
		_ = tx.Rollback()
		return false, errors.Wrap(err, "approve document")
	}

	pending, err := tx.CountPendingApprovals(approval.EmployeeID)
	if err != nil {
		_ = tx.Rollback()
		return false, errors.Wrap(err, "count pending approvals")
	}

	var resumeID int64
	if pending == 0 {
		w, err := tx.GetLatestWorkflowByEmployee(approval.EmployeeID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			_ = tx.Rollback()
			return false, errors.Wrap(err, "load gated workflow")
		}
		if err == nil && w.Status == models.AwaitingApprovalWorkflowStatus {
			swapped, err := tx.CompareAndSwapWorkflowStatus(w.ID, models.AwaitingApprovalWorkflowStatus, models.RunningWorkflowStatus)
			if err != nil {
				_ = tx.Rollback()
				return false, errors.Wrap(err, "resume gated workflow")
			}
			if swapped {
				resumeID = w.ID
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}

	if resumeID != 0 {
		s.logger.Infof("Approval %d cleared the gate, resuming workflow %d", approvalID, resumeID)
		if s.resumer != nil {
			s.resumer(resumeID)
		}
		return true, nil
	}
	return false, nil
}

// Reject records a rejection and reverts the document to DRAFT for manual
// edit or regeneration. The workflow stays gated.
func (s *ApprovalService) Reject(approvalID int64, reviewerID, comments string) error {
	return s.decline(approvalID, reviewerID, comments, models.RejectedApprovalStatus)
}

// RequestRevision records a revision request and reverts the document to
// DRAFT. The workflow stays gated.
func (s *ApprovalService) RequestRevision(approvalID int64, reviewerID, comments string) error {
	return s.decline(approvalID, reviewerID, comments, models.RevisionRequestedApprovalStatus)
}

func (s *ApprovalService) decline(approvalID int64, reviewerID, comments string, status models.ApprovalStatus) error {
	tx, err := s.store.Begin()
	if err != nil {
		return err
	}
	approval, err := tx.GetApproval(approvalID)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if approval.Status != models.PendingApprovalStatus {
		_ = tx.Rollback()
		return ErrAlreadyDecided
	}
	if err := tx.UpdateApprovalDecision(approvalID, status, reviewerID, comments, time.Now()); err != nil {
		_ = tx.Rollback()
		return errors.Wrap(err, "record approval decision")
	}
	if err := tx.UpdateDocumentStatus(approval.DocumentID, models.DraftDocumentStatus, "", nil); err != nil {
		_ = tx.Rollback()
		return errors.Wrap(err, "revert document to draft")
	}
	return tx.Commit()
}

// Get returns one approval request.
func (s *ApprovalService) Get(id int64) (models.ApprovalRequest, error) {
	return s.store.GetApproval(id)
}

// List returns approval requests, filtered to one status when given.
func (s *ApprovalService) List(status models.ApprovalStatus) ([]models.ApprovalRequest, error) {
	return s.store.ListApprovals(status)
}

// ListByEmployee returns all approval requests for one employee.
func (s *ApprovalService) ListByEmployee(employeeID int64) ([]models.ApprovalRequest, error) {
	return s.store.ListApprovalsByEmployee(employeeID)
}
