// Package events defines the change notifications the console store dispatches to
// its subscribers.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every console event.
const Topic = "flowbuilder.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Template collection events.
	TemplateCreatedEvent EventType = "template.created"
	TemplateUpdatedEvent EventType = "template.updated"
	TemplateDeletedEvent EventType = "template.deleted"

	// Workflow document events.
	WorkflowCreatedEvent EventType = "workflow.created"
	WorkflowUpdatedEvent EventType = "workflow.updated"
	WorkflowDeletedEvent EventType = "workflow.deleted"

	// Auto-save outcome.
	WorkflowSavedEvent      EventType = "workflow.saved"
	WorkflowSaveFailedEvent EventType = "workflow.save_failed"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Metadata:  make(map[string]any),
	}
}

// TemplateChanged reports a create, update or delete of an activity template.
type TemplateChanged struct {
	BaseEvent

	TemplateID string `json:"template_id"`
	Name       string `json:"name,omitempty"`
}

func (e TemplateChanged) GetType() EventType {
	return e.Type
}

// WorkflowChanged reports an edit of a workflow document. Command names the edit;
// RemovedNodes lists nodes deleted by it, cascades included.
type WorkflowChanged struct {
	BaseEvent

	WorkflowID   string   `json:"workflow_id"`
	Command      string   `json:"command,omitempty"`
	NodeID       string   `json:"node_id,omitempty"`
	RemovedNodes []string `json:"removed_nodes,omitempty"`
}

func (e WorkflowChanged) GetType() EventType {
	return e.Type
}

// WorkflowSaved reports the outcome of an auto-save. Banner is the user-facing
// message of a failed save.
type WorkflowSaved struct {
	BaseEvent

	WorkflowID string `json:"workflow_id"`
	Banner     string `json:"banner,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (e WorkflowSaved) GetType() EventType {
	return e.Type
}

// NewTemplateChanged builds a template event of the given type.
func NewTemplateChanged(eventType EventType, templateID, name string) TemplateChanged {
	return TemplateChanged{BaseEvent: NewBaseEvent(eventType), TemplateID: templateID, Name: name}
}

// NewWorkflowChanged builds a workflow event of the given type.
func NewWorkflowChanged(eventType EventType, workflowID string) WorkflowChanged {
	return WorkflowChanged{BaseEvent: NewBaseEvent(eventType), WorkflowID: workflowID}
}

// NewWorkflowSaved builds the auto-save outcome event; a nil err means success.
func NewWorkflowSaved(workflowID string, err error, banner string) WorkflowSaved {
	if err == nil {
		return WorkflowSaved{BaseEvent: NewBaseEvent(WorkflowSavedEvent), WorkflowID: workflowID}
	}

	return WorkflowSaved{
		BaseEvent:  NewBaseEvent(WorkflowSaveFailedEvent),
		WorkflowID: workflowID,
		Banner:     banner,
		Error:      err.Error(),
	}
}
