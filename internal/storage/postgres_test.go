package storage_test

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	internal_storage "github.com/zerotouch/onboard/internal/storage"
	"github.com/zerotouch/onboard/internal/testutil"
	"github.com/zerotouch/onboard/pkg/models"
	"github.com/zerotouch/onboard/pkg/storage"
)

func TestPostgresStore(t *testing.T) {
	testDB := testutil.SetupTestDB(t)
	defer testDB.Teardown(t)

	// Helper to create a transactional store rolled back after each case
	newTxStore := func(t *testing.T) storage.Store {
		store, err := internal_storage.NewPostgresStore(testDB.ConnStr)
		assert.NoError(t, err)
		txStore, err := store.Begin()
		assert.NoError(t, err)
		t.Cleanup(func() { _ = txStore.Rollback() })
		return txStore
	}

	saveEmployee := func(t *testing.T, store storage.Store) int64 {
		id, err := store.SaveEmployee(models.Employee{
			Name:         "Grace Hopper",
			Email:        "grace@example.com",
			Role:         "Engineer",
			Department:   "Engineering",
			StartDate:    time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			Jurisdiction: "US",
			Status:       models.PendingEmployeeStatus,
			CreatedAt:    time.Now(),
			UpdatedAt:    time.Now(),
		})
		assert.NoError(t, err)
		return id
	}

	saveWorkflow := func(t *testing.T, store storage.Store, employeeID int64, status models.WorkflowStatus) int64 {
		id, err := store.SaveWorkflow(models.Workflow{
			EmployeeID: employeeID,
			Status:     status,
			CreatedAt:  time.Now(),
		})
		assert.NoError(t, err)
		return id
	}

	t.Run("EmployeeRoundTrip", func(t *testing.T) {
		store := newTxStore(t)
		id := saveEmployee(t, store)

		e, err := store.GetEmployee(id)
		assert.NoError(t, err)
		assert.Equal(t, "grace@example.com", e.Email)
		assert.Equal(t, models.PendingEmployeeStatus, e.Status)

		byEmail, err := store.GetEmployeeByEmail("grace@example.com")
		assert.NoError(t, err)
		assert.Equal(t, id, byEmail.ID)

		assert.NoError(t, store.UpdateEmployeeStatus(id, models.OnboardingEmployeeStatus))
		e, err = store.GetEmployee(id)
		assert.NoError(t, err)
		assert.Equal(t, models.OnboardingEmployeeStatus, e.Status)

		_, err = store.GetEmployee(id + 1000)
		assert.True(t, errors.Is(err, storage.ErrNotFound))
	})

	t.Run("WorkflowLifecycle", func(t *testing.T) {
		store := newTxStore(t)
		employeeID := saveEmployee(t, store)
		wfID := saveWorkflow(t, store, employeeID, models.PendingWorkflowStatus)

		active, err := store.GetActiveWorkflowByEmployee(employeeID)
		assert.NoError(t, err)
		assert.Equal(t, wfID, active.ID)

		started := time.Now().Truncate(time.Second)
		assert.NoError(t, store.MarkWorkflowStarted(wfID, started))

		// marking started records the timestamp only, blocked states must
		// survive an attaching execution loop
		status, err := store.GetWorkflowStatus(wfID)
		assert.NoError(t, err)
		assert.Equal(t, models.PendingWorkflowStatus, status)

		assert.NoError(t, store.UpdateWorkflowStatus(wfID, models.RunningWorkflowStatus))

		// started_at is set once and kept on later calls
		assert.NoError(t, store.MarkWorkflowStarted(wfID, started.Add(time.Hour)))
		wf, err := store.GetWorkflow(wfID)
		assert.NoError(t, err)
		assert.NotNil(t, wf.StartedAt)
		assert.WithinDuration(t, started, *wf.StartedAt, time.Second)

		assert.NoError(t, store.MarkWorkflowFinished(wfID, models.FailedWorkflowStatus, "boom", time.Now()))
		wf, err = store.GetWorkflow(wfID)
		assert.NoError(t, err)
		assert.Equal(t, models.FailedWorkflowStatus, wf.Status)
		assert.Equal(t, "boom", wf.ErrorMsg)
		assert.NotNil(t, wf.CompletedAt)

		_, err = store.GetActiveWorkflowByEmployee(employeeID)
		assert.True(t, errors.Is(err, storage.ErrNotFound))

		assert.NoError(t, store.ResetWorkflow(wfID))
		wf, err = store.GetWorkflow(wfID)
		assert.NoError(t, err)
		assert.Equal(t, models.PendingWorkflowStatus, wf.Status)
		assert.Empty(t, wf.ErrorMsg)
		assert.Nil(t, wf.CompletedAt)
	})

	t.Run("CompareAndSwapWorkflowStatus", func(t *testing.T) {
		store := newTxStore(t)
		employeeID := saveEmployee(t, store)
		wfID := saveWorkflow(t, store, employeeID, models.AwaitingApprovalWorkflowStatus)

		swapped, err := store.CompareAndSwapWorkflowStatus(wfID, models.AwaitingApprovalWorkflowStatus, models.RunningWorkflowStatus)
		assert.NoError(t, err)
		assert.True(t, swapped)

		// second swap finds the old status gone
		swapped, err = store.CompareAndSwapWorkflowStatus(wfID, models.AwaitingApprovalWorkflowStatus, models.RunningWorkflowStatus)
		assert.NoError(t, err)
		assert.False(t, swapped)
	})

	t.Run("StepLifecycle", func(t *testing.T) {
		store := newTxStore(t)
		employeeID := saveEmployee(t, store)
		wfID := saveWorkflow(t, store, employeeID, models.PendingWorkflowStatus)

		kinds := []models.StepKind{models.ParseDataStep, models.DetectJurisdictionStep, models.NDAStep}
		for i, kind := range kinds {
			_, err := store.SaveStep(models.Step{
				WorkflowID: wfID,
				Kind:       kind,
				StepOrder:  i + 1,
				Status:     models.PendingStepStatus,
			})
			assert.NoError(t, err)
		}

		steps, err := store.GetSteps(wfID)
		assert.NoError(t, err)
		assert.Len(t, steps, 3)
		assert.Equal(t, models.ParseDataStep, steps[0].Kind)

		assert.NoError(t, store.MarkStepRunning(steps[0].ID, time.Now()))
		assert.NoError(t, store.MarkStepCompleted(steps[0].ID, `{"ok":true}`, time.Now()))
		assert.NoError(t, store.MarkStepFailed(steps[1].ID, "bad input", time.Now()))

		steps, err = store.GetSteps(wfID)
		assert.NoError(t, err)
		assert.Equal(t, models.CompletedStepStatus, steps[0].Status)
		assert.Equal(t, `{"ok":true}`, steps[0].Result)
		assert.NotNil(t, steps[0].CompletedAt)
		assert.Equal(t, models.FailedStepStatus, steps[1].Status)
		assert.Equal(t, "bad input", steps[1].ErrorMsg)

		assert.NoError(t, store.ResetStep(steps[1].ID))
		steps, err = store.GetSteps(wfID)
		assert.NoError(t, err)
		assert.Equal(t, models.PendingStepStatus, steps[1].Status)
		assert.Empty(t, steps[1].ErrorMsg)
		assert.Nil(t, steps[1].StartedAt)
	})

	t.Run("DocumentsAndApprovals", func(t *testing.T) {
		store := newTxStore(t)
		employeeID := saveEmployee(t, store)

		docID, err := store.SaveDocument(models.Document{
			EmployeeID:   employeeID,
			Kind:         models.NDADocument,
			Jurisdiction: "US",
			Content:      "draft",
			Status:       models.DraftDocumentStatus,
			Version:      1,
			GeneratedAt:  time.Now(),
		})
		assert.NoError(t, err)

		assert.NoError(t, store.UpdateDocumentContent(docID, "draft v2"))
		doc, err := store.GetDocument(docID)
		assert.NoError(t, err)
		assert.Equal(t, "draft v2", doc.Content)
		assert.Equal(t, 2, doc.Version)

		approvalID, err := store.SaveApproval(models.ApprovalRequest{
			EmployeeID: employeeID,
			DocumentID: docID,
			Status:     models.PendingApprovalStatus,
			CreatedAt:  time.Now(),
		})
		assert.NoError(t, err)

		pending, err := store.CountPendingApprovals(employeeID)
		assert.NoError(t, err)
		assert.Equal(t, 1, pending)

		now := time.Now()
		assert.NoError(t, store.UpdateApprovalDecision(approvalID, models.ApprovedApprovalStatus, "hr-lead", "ok", now))
		assert.NoError(t, store.UpdateDocumentStatus(docID, models.ApprovedDocumentStatus, "hr-lead", &now))

		pending, err = store.CountPendingApprovals(employeeID)
		assert.NoError(t, err)
		assert.Equal(t, 0, pending)

		approval, err := store.GetApproval(approvalID)
		assert.NoError(t, err)
		assert.Equal(t, models.ApprovedApprovalStatus, approval.Status)
		assert.Equal(t, "hr-lead", approval.ReviewerID)
		assert.NotNil(t, approval.ReviewedAt)

		doc, err = store.GetDocument(docID)
		assert.NoError(t, err)
		assert.Equal(t, models.ApprovedDocumentStatus, doc.Status)
		assert.Equal(t, "hr-lead", doc.ApprovedBy)
	})

	t.Run("JurisdictionTemplatesAndPolicyChunks", func(t *testing.T) {
		store := newTxStore(t)

		_, err := store.SaveJurisdictionTemplate(models.JurisdictionTemplate{
			JurisdictionCode:  "UK",
			JurisdictionName:  "United Kingdom",
			DocumentKind:      models.NDADocument,
			TemplateContent:   "UK NDA terms",
			LegalRequirements: `["governing law: England and Wales"]`,
		})
		assert.NoError(t, err)

		tmpl, err := store.GetJurisdictionTemplate("UK", models.NDADocument)
		assert.NoError(t, err)
		assert.Equal(t, "UK NDA terms", tmpl.TemplateContent)

		_, err = store.GetJurisdictionTemplate("FR", models.NDADocument)
		assert.True(t, errors.Is(err, storage.ErrNotFound))

		_, err = store.SavePolicyChunk(models.PolicyChunk{Source: "handbook", Text: "laptops are provisioned by IT"})
		assert.NoError(t, err)
		chunks, err := store.ListPolicyChunks()
		assert.NoError(t, err)
		assert.Len(t, chunks, 1)
	})

	t.Run("DeleteEmployeeCascades", func(t *testing.T) {
		store := newTxStore(t)
		employeeID := saveEmployee(t, store)
		wfID := saveWorkflow(t, store, employeeID, models.PendingWorkflowStatus)

		assert.NoError(t, store.DeleteEmployee(employeeID))
		_, err := store.GetWorkflow(wfID)
		assert.True(t, errors.Is(err, storage.ErrNotFound))
	})
}
