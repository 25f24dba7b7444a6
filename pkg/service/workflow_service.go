package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/zerotouch/onboard/pkg/models"
	"github.com/zerotouch/onboard/pkg/storage"
)

var (
	// ErrWorkflowActive is returned when an employee already has a workflow
	// in an active status.
	ErrWorkflowActive = errors.New("employee already has an active workflow")
	// ErrInvalidTransition is returned when an operation is requested from a
	// status it is not valid in.
	ErrInvalidTransition = errors.New("invalid workflow state transition")
)

const defaultPollInterval = 2 * time.Second

// WorkflowService is the workflow state machine. It materializes steps from
// the catalog, drives the execution loop, and owns the PENDING, RUNNING,
// PAUSED, AWAITING_APPROVAL, COMPLETED and FAILED transitions.
type WorkflowService struct {
	store        storage.Store
	executor     *Executor
	logger       Logger
	pollInterval time.Duration

	mu     sync.Mutex
	active map[int64]bool
}

func NewWorkflowService(store storage.Store, executor *Executor, logger Logger) *WorkflowService {
	return &WorkflowService{
		store:        store,
		executor:     executor,
		logger:       logger,
		pollInterval: defaultPollInterval,
		active:       make(map[int64]bool),
	}
}

// SetPollInterval overrides how often a gated loop re-reads workflow status.
func (s *WorkflowService) SetPollInterval(d time.Duration) {
	s.pollInterval = d
}

// Create materializes a new workflow for the employee with one PENDING step
// per catalog entry, in catalog order. It refuses to create a second active
// workflow for the same employee.
func (s *WorkflowService) Create(employeeID int64) (models.Workflow, error) {
	if _, err := s.store.GetEmployee(employeeID); err != nil {
		return models.Workflow{}, err
	}
	existing, err := s.store.GetActiveWorkflowByEmployee(employeeID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return models.Workflow{}, err
	}
	if err == nil {
		return models.Workflow{}, errors.Wrapf(ErrWorkflowActive, "workflow %d is %s", existing.ID, existing.Status)
	}

	tx, err := s.store.Begin()
	if err != nil {
		return models.Workflow{}, err
	}
	w := models.Workflow{
		EmployeeID: employeeID,
		Status:     models.PendingWorkflowStatus,
		CreatedAt:  time.Now(),
	}
	id, err := tx.SaveWorkflow(w)
	if err != nil {
		_ = tx.Rollback()
		return models.Workflow{}, errors.Wrap(err, "save workflow")
	}
	for i, entry := range Catalog() {
		step := models.Step{
			WorkflowID:       id,
			Kind:             entry.Kind,
			StepOrder:        i + 1,
			Status:           models.PendingStepStatus,
			RequiresApproval: entry.RequiresApproval,
		}
		if _, err := tx.SaveStep(step); err != nil {
			_ = tx.Rollback()
			return models.Workflow{}, errors.Wrapf(err, "save step %s", entry.Kind)
		}
	}
	if err := tx.Commit(); err != nil {
		return models.Workflow{}, err
	}
	s.logger.Infof("Created workflow %d for employee %d with %d steps", id, employeeID, len(Catalog()))
	return s.Get(id)
}

// Get returns a workflow with its steps populated in step order.
func (s *WorkflowService) Get(id int64) (models.Workflow, error) {
	w, err := s.store.GetWorkflow(id)
	if err != nil {
		return models.Workflow{}, err
	}
	steps, err := s.store.GetSteps(id)
	if err != nil {
		return models.Workflow{}, err
	}
	w.Steps = steps
	return w, nil
}

// LatestByEmployee returns the employee's most recent workflow with steps.
func (s *WorkflowService) LatestByEmployee(employeeID int64) (models.Workflow, error) {
	w, err := s.store.GetLatestWorkflowByEmployee(employeeID)
	if err != nil {
		return models.Workflow{}, err
	}
	return s.Get(w.ID)
}

// Run drives the execution loop for one workflow. At most one loop is live
// per workflow id in this process; a second concurrent call is a no-op.
// The loop skips COMPLETED and SKIPPED steps, so re-invoking Run after a
// gate, a pause or a retry never re-executes finished work.
func (s *WorkflowService) Run(ctx context.Context, workflowID int64) error {
	return s.run(ctx, workflowID, nil)
}

// RunAsync dispatches Run on a supervised goroutine. A failed run still
// persists FAILED workflow and employee status before the goroutine exits.
func (s *WorkflowService) RunAsync(workflowID int64) {
	go func() {
		if err := s.Run(context.Background(), workflowID); err != nil {
			s.logger.Errorf("Background run of workflow %d failed: %v", workflowID, err)
		}
	}()
}

// Resumer adapts RunAsync to the approval coordinator's continuation hook.
func (s *WorkflowService) Resumer() Resumer {
	return func(workflowID int64) {
		s.RunAsync(workflowID)
	}
}

func (s *WorkflowService) acquire(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active[id] {
		return false
	}
	s.active[id] = true
	return true
}

func (s *WorkflowService) release(id int64) {
	s.mu.Lock()
	delete(s.active, id)
	s.mu.Unlock()
}

func (s *WorkflowService) run(ctx context.Context, workflowID int64, sink eventSink) error {
	if !s.acquire(workflowID) {
		s.logger.Infof("Workflow %d already has a live execution loop, skipping", workflowID)
		emit(sink, Event{Type: EventError, Message: "Execution already in progress"})
		return nil
	}
	defer s.release(workflowID)

	w, err := s.store.GetWorkflow(workflowID)
	if err != nil {
		return err
	}
	switch w.Status {
	case models.CompletedWorkflowStatus:
		emit(sink, Event{Type: EventDone, Message: "Onboarding workflow already completed"})
		return nil
	case models.FailedWorkflowStatus:
		emit(sink, Event{Type: EventError, Message: "Workflow has failed, retry it to run again"})
		return errors.Wrap(ErrInvalidTransition, "workflow is FAILED, call retry first")
	}

	employee, err := s.store.GetEmployee(w.EmployeeID)
	if err != nil {
		return err
	}

	now := time.Now()
	if w.Status == models.PendingWorkflowStatus || w.Status == models.RunningWorkflowStatus {
		if err := s.store.UpdateWorkflowStatus(workflowID, models.RunningWorkflowStatus); err != nil {
			return err
		}
	}
	if err := s.store.MarkWorkflowStarted(workflowID, now); err != nil {
		return err
	}
	if err := s.store.UpdateEmployeeStatus(employee.ID, models.OnboardingEmployeeStatus); err != nil {
		return err
	}
	emit(sink, Event{Type: EventInit, Message: fmt.Sprintf("Starting onboarding for %s", employee.Name)})

	steps, err := s.store.GetSteps(workflowID)
	if err != nil {
		return err
	}

	for _, step := range steps {
		if step.Status == models.CompletedStepStatus || step.Status == models.SkippedStepStatus {
			continue
		}

		proceed, err := s.waitWhileBlocked(ctx, workflowID, sink)
		if err != nil {
			return err
		}
		if !proceed {
			return nil
		}

		if err := s.store.MarkStepRunning(step.ID, time.Now()); err != nil {
			return err
		}
		emit(sink, Event{
			Type:       EventTaskStart,
			Message:    fmt.Sprintf("Executing step %d/%d: %s", step.StepOrder, len(steps), step.Kind),
			StepKind:   step.Kind,
			StepStatus: models.RunningStepStatus,
		})

		result, execErr := s.executor.Execute(ctx, step, employee)
		if execErr != nil {
			return s.failRun(workflowID, employee.ID, step, execErr, sink)
		}
		if err := s.store.MarkStepCompleted(step.ID, result, time.Now()); err != nil {
			return err
		}
		s.logger.Infof("Workflow %d step %s completed", workflowID, step.Kind)
		emit(sink, Event{
			Type:       EventTaskDone,
			Message:    fmt.Sprintf("Step %s completed", step.Kind),
			StepKind:   step.Kind,
			StepStatus: models.CompletedStepStatus,
		})

		if step.Kind == GateKind() {
			gated, err := s.enterGate(workflowID, employee.ID, sink)
			if err != nil {
				return err
			}
			if gated {
				proceed, err := s.waitWhileBlocked(ctx, workflowID, sink)
				if err != nil {
					return err
				}
				if !proceed {
					return nil
				}
			}
		}
	}

	if err := s.store.MarkWorkflowFinished(workflowID, models.CompletedWorkflowStatus, "", time.Now()); err != nil {
		return err
	}
	if err := s.store.UpdateEmployeeStatus(employee.ID, models.CompletedEmployeeStatus); err != nil {
		return err
	}
	s.logger.Infof("Workflow %d completed", workflowID)
	emit(sink, Event{Type: EventDone, Message: "Onboarding workflow completed"})
	return nil
}

// enterGate flips the workflow to AWAITING_APPROVAL when the employee has
// outstanding approvals. With zero pending approvals the loop continues
// without gating.
func (s *WorkflowService) enterGate(workflowID, employeeID int64, sink eventSink) (bool, error) {
	pending, err := s.store.CountPendingApprovals(employeeID)
	if err != nil {
		return false, err
	}
	if pending == 0 {
		return false, nil
	}
	swapped, err := s.store.CompareAndSwapWorkflowStatus(workflowID, models.RunningWorkflowStatus, models.AwaitingApprovalWorkflowStatus)
	if err != nil {
		return false, err
	}
	if swapped {
		s.logger.Infof("Workflow %d awaiting %d document approvals", workflowID, pending)
		emit(sink, Event{
			Type:    EventApprovalGate,
			Message: fmt.Sprintf("Waiting for %d document approvals", pending),
		})
	}
	return true, nil
}

// waitWhileBlocked polls the durable status until the workflow is RUNNING
// again. It returns proceed=false when the context is cancelled or a
// terminal status is observed; the loop then exits leaving persisted state
// as is. The transition out of PAUSED or AWAITING_APPROVAL is made by a
// different actor, so each iteration re-reads from the store.
func (s *WorkflowService) waitWhileBlocked(ctx context.Context, workflowID int64, sink eventSink) (bool, error) {
	for {
		status, err := s.store.GetWorkflowStatus(workflowID)
		if err != nil {
			return false, err
		}
		switch status {
		case models.RunningWorkflowStatus, models.PendingWorkflowStatus:
			return true, nil
		case models.PausedWorkflowStatus:
			emit(sink, Event{Type: EventNote, Message: "Workflow paused, waiting for resume"})
		case models.AwaitingApprovalWorkflowStatus:
			emit(sink, Event{Type: EventApprovalGate, Message: "Waiting for document approvals"})
		default:
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, nil
		case <-time.After(s.pollInterval):
		}
	}
}

func (s *WorkflowService) failRun(workflowID, employeeID int64, step models.Step, execErr error, sink eventSink) error {
	now := time.Now()
	if err := s.store.MarkStepFailed(step.ID, execErr.Error(), now); err != nil {
		return err
	}
	if err := s.store.MarkWorkflowFinished(workflowID, models.FailedWorkflowStatus, execErr.Error(), now); err != nil {
		return err
	}
	if err := s.store.UpdateEmployeeStatus(employeeID, models.FailedEmployeeStatus); err != nil {
		return err
	}
	s.logger.Errorf("Workflow %d failed at step %s: %v", workflowID, step.Kind, execErr)
	emit(sink, Event{
		Type:       EventError,
		Message:    fmt.Sprintf("Step %s failed: %v", step.Kind, execErr),
		StepKind:   step.Kind,
		StepStatus: models.FailedStepStatus,
	})
	return errors.Wrapf(execErr, "step %s", step.Kind)
}

// Pause halts the workflow before its next step. Valid from PENDING or
// RUNNING; the live loop observes the pause before starting another step
// and never aborts mid-step.
func (s *WorkflowService) Pause(workflowID int64) error {
	for _, from := range []models.WorkflowStatus{models.RunningWorkflowStatus, models.PendingWorkflowStatus} {
		swapped, err := s.store.CompareAndSwapWorkflowStatus(workflowID, from, models.PausedWorkflowStatus)
		if err != nil {
			return err
		}
		if swapped {
			s.logger.Infof("Workflow %d paused", workflowID)
			return nil
		}
	}
	if _, err := s.store.GetWorkflow(workflowID); err != nil {
		return err
	}
	return errors.Wrap(ErrInvalidTransition, "pause is valid only from PENDING or RUNNING")
}

// Resume flips a PAUSED or AWAITING_APPROVAL workflow back to RUNNING. A
// live loop picks the transition up on its next poll; otherwise the caller
// must re-invoke Run.
func (s *WorkflowService) Resume(workflowID int64) error {
	for _, from := range []models.WorkflowStatus{models.PausedWorkflowStatus, models.AwaitingApprovalWorkflowStatus} {
		swapped, err := s.store.CompareAndSwapWorkflowStatus(workflowID, from, models.RunningWorkflowStatus)
		if err != nil {
			return err
		}
		if swapped {
			s.logger.Infof("Workflow %d resumed", workflowID)
			return nil
		}
	}
	if _, err := s.store.GetWorkflow(workflowID); err != nil {
		return err
	}
	return errors.Wrap(ErrInvalidTransition, "resume is valid only from PAUSED or AWAITING_APPROVAL")
}

// Retry resets a FAILED workflow so Run can make progress again. Only
// FAILED steps go back to PENDING; COMPLETED steps keep their results and
// timestamps.
func (s *WorkflowService) Retry(workflowID int64) error {
	w, err := s.store.GetWorkflow(workflowID)
	if err != nil {
		return err
	}
	if w.Status != models.FailedWorkflowStatus {
		return errors.Wrap(ErrInvalidTransition, "retry is valid only from FAILED")
	}

	tx, err := s.store.Begin()
	if err != nil {
		return err
	}
	steps, err := tx.GetSteps(workflowID)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	for _, step := range steps {
		if step.Status != models.FailedStepStatus {
			continue
		}
		if err := tx.ResetStep(step.ID); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "reset step %s", step.Kind)
		}
	}
	if err := tx.ResetWorkflow(workflowID); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.logger.Infof("Workflow %d reset for retry", workflowID)
	return nil
}
