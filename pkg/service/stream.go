package service

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/zerotouch/onboard/pkg/models"
	"github.com/zerotouch/onboard/pkg/storage"
)

// EventType tags one entry on a workflow's live event stream.
type EventType string

const (
	EventInit         EventType = "init"
	EventTaskStart    EventType = "task_start"
	EventNote         EventType = "reasoning_note"
	EventTaskDone     EventType = "task_done"
	EventError        EventType = "error"
	EventApprovalGate EventType = "approval_gate"
	EventDone         EventType = "done"
)

// Event is one observable moment of a workflow run.
type Event struct {
	Type       EventType         `json:"type"`
	Message    string            `json:"message"`
	Timestamp  time.Time         `json:"timestamp"`
	StepKind   models.StepKind   `json:"step_kind,omitempty"`
	StepStatus models.StepStatus `json:"step_status,omitempty"`
}

// eventSink receives run events. A nil sink means nobody is observing.
type eventSink func(Event)

// emit timestamps and delivers an event when a sink is attached.
func emit(sink eventSink, e Event) {
	if sink == nil {
		return
	}
	e.Timestamp = time.Now()
	sink(e)
}

// StreamRun runs the workflow and returns a channel of ordered events
// observing it. Streaming is an observability overlay over the same loop
// Run uses: the persisted side effects are identical. The channel stays
// alive with periodic gate events while the workflow is blocked and always
// closes after a terminal done or error event. An unknown workflow yields a
// single error event. Cancelling ctx stops delivery and lets the loop exit
// at its next suspension point; persisted state stays valid either way.
func (s *WorkflowService) StreamRun(ctx context.Context, workflowID int64) <-chan Event {
	events := make(chan Event, 16)

	if _, err := s.store.GetWorkflow(workflowID); err != nil {
		go func() {
			defer close(events)
			msg := "workflow not found"
			if !errors.Is(err, storage.ErrNotFound) {
				msg = err.Error()
			}
			events <- Event{Type: EventError, Message: msg, Timestamp: time.Now()}
		}()
		return events
	}

	sink := func(e Event) {
		select {
		case events <- e:
		case <-ctx.Done():
		}
	}

	go func() {
		defer close(events)
		if err := s.run(ctx, workflowID, sink); err != nil {
			s.logger.Errorf("Streamed run of workflow %d failed: %v", workflowID, err)
		}
	}()
	return events
}
