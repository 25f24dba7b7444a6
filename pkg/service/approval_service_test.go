package service_test

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/zerotouch/onboard/pkg/models"
	"github.com/zerotouch/onboard/pkg/service"
	"github.com/zerotouch/onboard/pkg/storage"
)

func seedDraftDocument(t *testing.T, s stack, employeeID int64) models.Document {
	t.Helper()
	id, err := s.store.SaveDocument(models.Document{
		EmployeeID:  employeeID,
		Kind:        models.NDADocument,
		Content:     "draft nda",
		Status:      models.DraftDocumentStatus,
		Version:     1,
		GeneratedAt: time.Now(),
	})
	assert.NoError(t, err)
	doc, err := s.store.GetDocument(id)
	assert.NoError(t, err)
	return doc
}

func TestApprovalLifecycle(t *testing.T) {
	t.Run("RegisterLocksDocumentAndApprovalInStep", func(t *testing.T) {
		s := newMockStack(t, false)
		employee := createEmployee(t, s)
		doc := seedDraftDocument(t, s, employee.ID)

		approval, err := s.approvals.Register(employee.ID, doc.ID)
		assert.NoError(t, err)
		assert.Equal(t, models.PendingApprovalStatus, approval.Status)

		updated, err := s.store.GetDocument(doc.ID)
		assert.NoError(t, err)
		assert.Equal(t, models.PendingApprovalDocumentStatus, updated.Status)
	})

	t.Run("ApproveStampsReviewer", func(t *testing.T) {
		s := newMockStack(t, false)
		employee := createEmployee(t, s)
		doc := seedDraftDocument(t, s, employee.ID)
		approval, err := s.approvals.Register(employee.ID, doc.ID)
		assert.NoError(t, err)

		resumed, err := s.approvals.Approve(approval.ID, "hr-lead", "ship it")
		assert.NoError(t, err)
		assert.False(t, resumed, "no gated workflow to resume")

		decided, err := s.approvals.Get(approval.ID)
		assert.NoError(t, err)
		assert.Equal(t, models.ApprovedApprovalStatus, decided.Status)
		assert.Equal(t, "hr-lead", decided.ReviewerID)
		assert.Equal(t, "ship it", decided.Comments)
		assert.NotNil(t, decided.ReviewedAt)

		updated, err := s.store.GetDocument(doc.ID)
		assert.NoError(t, err)
		assert.Equal(t, models.ApprovedDocumentStatus, updated.Status)
		assert.Equal(t, "hr-lead", updated.ApprovedBy)
		assert.NotNil(t, updated.ApprovedAt)
	})

	t.Run("ApproveTwiceIsNoOp", func(t *testing.T) {
		s := newMockStack(t, false)
		employee := createEmployee(t, s)
		doc := seedDraftDocument(t, s, employee.ID)
		approval, err := s.approvals.Register(employee.ID, doc.ID)
		assert.NoError(t, err)

		_, err = s.approvals.Approve(approval.ID, "hr-lead", "first")
		assert.NoError(t, err)
		first, err := s.approvals.Get(approval.ID)
		assert.NoError(t, err)

		resumed, err := s.approvals.Approve(approval.ID, "someone-else", "second")
		assert.NoError(t, err)
		assert.False(t, resumed)

		second, err := s.approvals.Get(approval.ID)
		assert.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("RejectRevertsDocumentToDraft", func(t *testing.T) {
		s := newMockStack(t, false)
		employee := createEmployee(t, s)
		doc := seedDraftDocument(t, s, employee.ID)
		approval, err := s.approvals.Register(employee.ID, doc.ID)
		assert.NoError(t, err)

		assert.NoError(t, s.approvals.Reject(approval.ID, "hr-lead", "wrong clauses"))

		decided, err := s.approvals.Get(approval.ID)
		assert.NoError(t, err)
		assert.Equal(t, models.RejectedApprovalStatus, decided.Status)

		updated, err := s.store.GetDocument(doc.ID)
		assert.NoError(t, err)
		assert.Equal(t, models.DraftDocumentStatus, updated.Status)

		// deciding again is refused
		err = s.approvals.Reject(approval.ID, "hr-lead", "again")
		assert.True(t, errors.Is(err, service.ErrAlreadyDecided))
	})

	t.Run("RejectDoesNotResumeGatedWorkflow", func(t *testing.T) {
		s := newMockStack(t, false)
		employee := createEmployee(t, s)
		wfID, err := s.store.SaveWorkflow(models.Workflow{
			EmployeeID: employee.ID,
			Status:     models.AwaitingApprovalWorkflowStatus,
			CreatedAt:  time.Now(),
		})
		assert.NoError(t, err)
		doc := seedDraftDocument(t, s, employee.ID)
		approval, err := s.approvals.Register(employee.ID, doc.ID)
		assert.NoError(t, err)

		assert.NoError(t, s.approvals.RequestRevision(approval.ID, "hr-lead", "tone it down"))

		status, err := s.store.GetWorkflowStatus(wfID)
		assert.NoError(t, err)
		assert.Equal(t, models.AwaitingApprovalWorkflowStatus, status)
	})

	t.Run("UnknownApproval", func(t *testing.T) {
		s := newMockStack(t, false)
		_, err := s.approvals.Approve(99, "hr-lead", "")
		assert.True(t, errors.Is(err, storage.ErrNotFound))
		assert.True(t, errors.Is(s.approvals.Reject(99, "hr-lead", ""), storage.ErrNotFound))
	})
}

func TestDocumentEditRoundTrip(t *testing.T) {
	s := newMockStack(t, false)
	employee := createEmployee(t, s)
	doc := seedDraftDocument(t, s, employee.ID)

	edited, err := s.documents.UpdateContent(doc.ID, "revised nda")
	assert.NoError(t, err)
	assert.Equal(t, "revised nda", edited.Content)
	assert.Equal(t, doc.Version+1, edited.Version)

	edited, err = s.documents.UpdateContent(doc.ID, "revised nda v2")
	assert.NoError(t, err)
	assert.Equal(t, doc.Version+2, edited.Version)

	_, err = s.documents.UpdateContent(doc.ID, "")
	assert.Error(t, err)

	_, err = s.documents.UpdateContent(404, "content")
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}
