package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/zerotouch/onboard/internal/llm"
	"github.com/zerotouch/onboard/pkg/models"
	"github.com/zerotouch/onboard/pkg/service"
	"github.com/zerotouch/onboard/pkg/storage"
)

func TestStreamRunUnknownWorkflow(t *testing.T) {
	s := newMockStack(t, true)

	var events []service.Event
	for event := range s.workflows.StreamRun(context.Background(), 12345) {
		events = append(events, event)
	}
	assert.Len(t, events, 1)
	assert.Equal(t, service.EventError, events[0].Type)
	assert.Contains(t, events[0].Message, "not found")
}

func TestStreamRunObservesFullPipeline(t *testing.T) {
	s := newMockStack(t, true)
	employee := createEmployee(t, s)
	wf, err := s.workflows.Create(employee.ID)
	assert.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	approved := false
	var events []service.Event
	for event := range s.workflows.StreamRun(ctx, wf.ID) {
		events = append(events, event)
		if event.Type == service.EventApprovalGate && !approved {
			approved = true
			go func() {
				pending, err := s.approvals.List(models.PendingApprovalStatus)
				assert.NoError(t, err)
				for _, approval := range pending {
					_, err := s.approvals.Approve(approval.ID, "hr-lead", "")
					assert.NoError(t, err)
				}
			}()
		}
	}

	assert.True(t, approved, "stream never reported the approval gate")
	assert.NotEmpty(t, events)
	assert.Equal(t, service.EventInit, events[0].Type)
	assert.Equal(t, service.EventDone, events[len(events)-1].Type)

	started := map[models.StepKind]bool{}
	completed := map[models.StepKind]bool{}
	for _, event := range events {
		assert.False(t, event.Timestamp.IsZero())
		switch event.Type {
		case service.EventTaskStart:
			assert.False(t, completed[event.StepKind], "step %s started after completing", event.StepKind)
			started[event.StepKind] = true
		case service.EventTaskDone:
			assert.True(t, started[event.StepKind], "step %s completed without starting", event.StepKind)
			completed[event.StepKind] = true
		case service.EventError:
			t.Fatalf("unexpected error event: %s", event.Message)
		}
	}
	for _, entry := range service.Catalog() {
		assert.True(t, completed[entry.Kind], "no completion event for step %s", entry.Kind)
	}

	// persisted outcome matches the non-streaming run
	status, err := s.store.GetWorkflowStatus(wf.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.CompletedWorkflowStatus, status)
}

func TestStreamRunKeepsChannelAliveWhileGated(t *testing.T) {
	s := newMockStack(t, false)
	employee := createEmployee(t, s)
	wf, err := s.workflows.Create(employee.ID)
	assert.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gateEvents := 0
	for event := range s.workflows.StreamRun(ctx, wf.ID) {
		if event.Type == service.EventApprovalGate {
			gateEvents++
			if gateEvents >= 3 {
				cancel()
			}
		}
	}
	assert.GreaterOrEqual(t, gateEvents, 3, "gated stream must emit periodic liveness events")

	// the interrupted loop left durable state intact
	status, err := s.store.GetWorkflowStatus(wf.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.AwaitingApprovalWorkflowStatus, status)
}

// collectEvents drains a stream until the channel closes.
func collectEvents(events <-chan service.Event) []service.Event {
	var out []service.Event
	for event := range events {
		out = append(out, event)
	}
	return out
}

func TestStreamRunClosesWithTerminalEvent(t *testing.T) {
	t.Run("CompletedWorkflow", func(t *testing.T) {
		s := newMockStack(t, true)
		employee := createEmployee(t, s)
		wf, err := s.workflows.Create(employee.ID)
		assert.NoError(t, err)

		go func() {
			assert.NoError(t, s.workflows.Run(context.Background(), wf.ID))
		}()
		waitForStatus(t, s.store, wf.ID, models.AwaitingApprovalWorkflowStatus)
		pending, err := s.approvals.List(models.PendingApprovalStatus)
		assert.NoError(t, err)
		for _, approval := range pending {
			_, err := s.approvals.Approve(approval.ID, "hr-lead", "")
			assert.NoError(t, err)
		}
		waitForStatus(t, s.store, wf.ID, models.CompletedWorkflowStatus)

		events := collectEvents(s.workflows.StreamRun(context.Background(), wf.ID))
		assert.NotEmpty(t, events)
		assert.Equal(t, service.EventDone, events[len(events)-1].Type)
		assert.Contains(t, events[len(events)-1].Message, "completed")
	})

	t.Run("FailedWorkflow", func(t *testing.T) {
		store := storage.NewMockStore()
		s := newStack(t, store, &failingClient{trigger: "non-disclosure", mock: llm.NewMockClient()}, false)
		employee := createEmployee(t, s)
		wf, err := s.workflows.Create(employee.ID)
		assert.NoError(t, err)
		assert.Error(t, s.workflows.Run(context.Background(), wf.ID))
		waitForStatus(t, s.store, wf.ID, models.FailedWorkflowStatus)

		events := collectEvents(s.workflows.StreamRun(context.Background(), wf.ID))
		assert.NotEmpty(t, events)
		assert.Equal(t, service.EventError, events[len(events)-1].Type)
	})

	t.Run("WorkflowWithLiveLoop", func(t *testing.T) {
		s := newMockStack(t, false)
		employee := createEmployee(t, s)
		wf, err := s.workflows.Create(employee.ID)
		assert.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- s.workflows.Run(ctx, wf.ID) }()
		waitForStatus(t, s.store, wf.ID, models.AwaitingApprovalWorkflowStatus)

		events := collectEvents(s.workflows.StreamRun(context.Background(), wf.ID))
		assert.Len(t, events, 1)
		assert.Equal(t, service.EventError, events[0].Type)
		assert.Contains(t, events[0].Message, "already in progress")

		cancel()
		assert.NoError(t, <-done)
	})
}

func TestRunFailsOnIncompleteEmployeeRecord(t *testing.T) {
	s := newMockStack(t, true)

	// bypass the employee service validation to exercise the parse step
	id, err := s.store.SaveEmployee(models.Employee{
		Name:      "No Role",
		Email:     "norole@example.com",
		StartDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		Status:    models.PendingEmployeeStatus,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	})
	assert.NoError(t, err)

	wf, err := s.workflows.Create(id)
	assert.NoError(t, err)
	err = s.workflows.Run(context.Background(), wf.ID)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing required fields")

	steps, err := s.store.GetSteps(wf.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.FailedStepStatus, steps[0].Status)

	status, err := s.store.GetWorkflowStatus(wf.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.FailedWorkflowStatus, status)
}

func TestCatalog(t *testing.T) {
	catalog := service.Catalog()
	assert.Len(t, catalog, 10)
	assert.Equal(t, models.ParseDataStep, catalog[0].Kind)
	assert.Equal(t, models.EquipmentRequestStep, catalog[9].Kind)

	gated := 0
	for _, entry := range catalog {
		if entry.RequiresApproval {
			gated++
		}
	}
	assert.Equal(t, 4, gated)
	assert.Equal(t, models.OfferLetterStep, service.GateKind())
}

func TestEmployeeService(t *testing.T) {
	t.Run("ValidationAndDuplicates", func(t *testing.T) {
		s := newMockStack(t, true)

		_, err := s.employees.Create(models.Employee{Name: "Nobody"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "missing or invalid employee fields")

		created := createEmployee(t, s)
		assert.Equal(t, models.PendingEmployeeStatus, created.Status)
		assert.Equal(t, "US", created.Jurisdiction)

		_, err = s.employees.Create(models.Employee{
			Name:       "Ada Clone",
			Email:      created.Email,
			Role:       "Engineer",
			Department: "Engineering",
			StartDate:  created.StartDate,
		})
		assert.True(t, errors.Is(err, service.ErrEmailTaken))
	})

	t.Run("DeleteCascades", func(t *testing.T) {
		s := newMockStack(t, true)
		employee := createEmployee(t, s)
		wf, err := s.workflows.Create(employee.ID)
		assert.NoError(t, err)

		assert.NoError(t, s.employees.Delete(employee.ID))
		_, err = s.employees.Get(employee.ID)
		assert.True(t, errors.Is(err, storage.ErrNotFound))
		_, err = s.workflows.Get(wf.ID)
		assert.True(t, errors.Is(err, storage.ErrNotFound))
	})
}
