package services

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dukex/flowbuilder/pkg/eventbus"
	"github.com/dukex/flowbuilder/pkg/events"
	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/otelhelper"
	"github.com/dukex/flowbuilder/pkg/persistence"
	"github.com/dukex/flowbuilder/pkg/workflow"
)

// Studio is the in-memory store of the console. It holds the template and workflow
// collections, serializes every edit, replaces the edited document as a whole,
// notifies subscribers and saves the new document to storage.
//
// Documents returned by Studio are shared snapshots and must not be modified.
type Studio struct {
	mu sync.RWMutex

	store     persistence.Persistence
	publisher eventbus.EventPublisher
	tracer    trace.Tracer
	logger    *slog.Logger
	validate  *validator.Validate
	now       func() time.Time
	newNodeID func() string

	templates []*models.ActivityTemplate
	workflows []*models.Workflow
	banner    string
	loaded    bool
	// created is set once the trigger bootstrap has run.
	created bool
}

// Option configures a Studio.
type Option func(*Studio)

// WithPublisher sends change events to p.
func WithPublisher(p eventbus.EventPublisher) Option {
	return func(s *Studio) { s.publisher = p }
}

// WithTracer records auto-save spans on t.
func WithTracer(t trace.Tracer) Option {
	return func(s *Studio) { s.tracer = t }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Studio) { s.logger = logger }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Studio) { s.now = now }
}

// WithNodeIDs replaces the node id generator.
func WithNodeIDs(fn func() string) Option {
	return func(s *Studio) { s.newNodeID = fn }
}

// NewStudio creates an empty store over the given storage. Call Load to fill it.
func NewStudio(store persistence.Persistence, opts ...Option) *Studio {
	s := &Studio{
		store:    store,
		tracer:   otelhelper.NoopTracer(),
		logger:   slog.Default(),
		validate: models.NewValidator(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With("module", "studio")

	return s
}

// HealthCheck checks the health of the persistence layer.
func (s *Studio) HealthCheck(ctx context.Context) (string, bool) {
	if s.store == nil {
		return "Persistence layer not initialized", false
	}

	err := s.store.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// Load replaces both collections with the storage contents and runs the trigger
// bootstrap on the first successful load. On failure the collections are left
// empty, the banner is set and the error is returned.
func (s *Studio) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.banner = ""
	s.loaded = false

	templates, err := s.store.Templates(ctx)
	if err != nil {
		return s.loadFailed(ctx, persistence.NounTemplates, err)
	}

	workflows, err := s.store.Workflows(ctx)
	if err != nil {
		return s.loadFailed(ctx, persistence.NounWorkflows, err)
	}

	s.templates = templates
	s.workflows = workflows
	s.loaded = true

	s.logger.InfoContext(ctx, "Loaded console documents", "templates", len(templates), "workflows", len(workflows))

	if !s.created {
		s.created = true
		s.bootstrapTrigger(ctx)
	}

	return nil
}

func (s *Studio) loadFailed(ctx context.Context, noun string, err error) error {
	s.templates = []*models.ActivityTemplate{}
	s.workflows = []*models.Workflow{}

	opErr := asOperationError(persistence.VerbLoad, noun, "", err)
	s.banner = opErr.Message()
	s.logger.ErrorContext(ctx, "Failed to load console documents", "error", opErr.Detail())

	return opErr
}

// Loaded reports whether the last Load succeeded.
func (s *Studio) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loaded
}

// Banner returns the message of the most recent storage failure, or "".
func (s *Studio) Banner() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.banner
}

// DismissBanner clears the banner.
func (s *Studio) DismissBanner() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.banner = ""
}

// Templates returns the templates in load order.
func (s *Studio) Templates() []*models.ActivityTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.templates)
}

// Template returns one template.
func (s *Studio) Template(id string) (*models.ActivityTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.lookupTemplate(id)
	if !ok {
		return nil, &ServiceError{Op: "Template", Code: "TEMPLATE_NOT_FOUND", Err: ErrTemplateNotFound}
	}

	return t, nil
}

func (s *Studio) lookupTemplate(id string) (*models.ActivityTemplate, bool) {
	i := slices.IndexFunc(s.templates, func(t *models.ActivityTemplate) bool { return t.ID == id })
	if i < 0 {
		return nil, false
	}

	return s.templates[i], true
}

// Workflows returns every workflow.
func (s *Studio) Workflows() []*models.Workflow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.workflows)
}

// Workflow returns one workflow.
func (s *Studio) Workflow(id string) (*models.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, wf, ok := s.lookupWorkflow(id)
	if !ok {
		return nil, &ServiceError{Op: "Workflow", Code: "WORKFLOW_NOT_FOUND", Err: ErrWorkflowNotFound}
	}

	return wf, nil
}

func (s *Studio) lookupWorkflow(id string) (int, *models.Workflow, bool) {
	i := slices.IndexFunc(s.workflows, func(w *models.Workflow) bool { return w.ID == id })
	if i < 0 {
		return -1, nil, false
	}

	return i, s.workflows[i], true
}

// CreateWorkflowRequest contains the metadata of a new workflow.
type CreateWorkflowRequest struct {
	Name        string `json:"name"        validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Owner       string `json:"owner"`
}

// CreateWorkflow stores a new empty workflow, then adds it to memory. A storage
// failure leaves memory untouched and is returned.
func (s *Studio) CreateWorkflow(ctx context.Context, req CreateWorkflowRequest) (*models.Workflow, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, NewValidationError("CreateWorkflow", "INVALID_WORKFLOW", err.Error(), ErrWorkflowNameRequired)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wf := workflow.New(req.Name, req.Description, s.now().UTC())
	wf.Owner = req.Owner

	if err := s.store.SaveWorkflow(ctx, wf); err != nil {
		return nil, s.storageFailed(ctx, persistence.VerbCreate, persistence.NounWorkflow, wf.ID, err)
	}

	s.workflows = append(slices.Clone(s.workflows), wf)
	s.publish(ctx, wf.ID, events.NewWorkflowChanged(events.WorkflowCreatedEvent, wf.ID))

	return wf, nil
}

// UpdateWorkflowRequest patches workflow metadata; nil fields are kept.
type UpdateWorkflowRequest struct {
	Name        *string `json:"name"        validate:"omitnil,min=1,max=200"`
	Description *string `json:"description" validate:"omitnil,max=2000"`
}

// UpdateWorkflow changes the workflow's name or description and auto-saves.
func (s *Studio) UpdateWorkflow(ctx context.Context, id string, req UpdateWorkflowRequest) (*models.Workflow, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, NewValidationError("UpdateWorkflow", "INVALID_WORKFLOW", err.Error(), ErrInvalidRequest)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, current, ok := s.lookupWorkflow(id)
	if !ok {
		return nil, &ServiceError{Op: "UpdateWorkflow", Code: "WORKFLOW_NOT_FOUND", Err: ErrWorkflowNotFound}
	}

	next := current.Clone()
	if req.Name != nil {
		next.Name = *req.Name
	}

	if req.Description != nil {
		next.Description = *req.Description
	}

	next.UpdatedAt = s.now().UTC()

	s.swap(i, next)
	s.publish(ctx, id, events.NewWorkflowChanged(events.WorkflowUpdatedEvent, id))
	s.autoSave(ctx, next, "UpdateWorkflow")

	return next, nil
}

// DeleteWorkflow removes the workflow from storage, then from memory.
func (s *Studio) DeleteWorkflow(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, _, ok := s.lookupWorkflow(id); !ok {
		return &ServiceError{Op: "DeleteWorkflow", Code: "WORKFLOW_NOT_FOUND", Err: ErrWorkflowNotFound}
	}

	if err := s.store.DeleteWorkflow(ctx, id); err != nil {
		return s.storageFailed(ctx, persistence.VerbDelete, persistence.NounWorkflow, id, err)
	}

	s.workflows = slices.DeleteFunc(slices.Clone(s.workflows), func(w *models.Workflow) bool { return w.ID == id })
	s.publish(ctx, id, events.NewWorkflowChanged(events.WorkflowDeletedEvent, id))

	return nil
}

// Execute applies cmd to a copy of the workflow, swaps the copy in, notifies
// subscribers and auto-saves. A command error leaves the workflow unchanged. A save
// failure is logged, published and shown in the banner but not returned: memory
// stays ahead of storage.
func (s *Studio) Execute(ctx context.Context, workflowID string, cmd workflow.Command) (*models.Workflow, workflow.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, current, ok := s.lookupWorkflow(workflowID)
	if !ok {
		return nil, workflow.Result{}, &ServiceError{Op: cmd.Name(), Code: "WORKFLOW_NOT_FOUND", Err: ErrWorkflowNotFound}
	}

	next, result, err := workflow.Apply(current, cmd, s.env())
	if err != nil {
		return current, workflow.Result{}, &ServiceError{Op: cmd.Name(), Code: "COMMAND_REJECTED", Err: err}
	}

	s.swap(i, next)

	changed := events.NewWorkflowChanged(events.WorkflowUpdatedEvent, workflowID)
	changed.Command = cmd.Name()
	changed.NodeID = result.NodeID
	changed.RemovedNodes = result.RemovedNodes
	s.publish(ctx, workflowID, changed)

	s.autoSave(ctx, next, cmd.Name())

	return next, result, nil
}

func (s *Studio) env() workflow.Env {
	return workflow.Env{
		Templates: func(id string) (*models.ActivityTemplate, bool) { return s.lookupTemplate(id) },
		NewNodeID: s.newNodeID,
		Now:       s.now,
	}
}

// swap replaces the workflow at index i in a fresh slice so earlier snapshots
// returned by Workflows keep their contents.
func (s *Studio) swap(i int, wf *models.Workflow) {
	workflows := slices.Clone(s.workflows)
	workflows[i] = wf
	s.workflows = workflows
}

func (s *Studio) autoSave(ctx context.Context, wf *models.Workflow, command string) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "studio.auto_save",
		attribute.String(otelhelper.WorkflowIDKey, wf.ID),
		attribute.String(otelhelper.WorkflowNameKey, wf.Name),
		attribute.String(otelhelper.CommandKey, command),
	)
	defer span.End()

	// Backends may stamp the document they are given; readers share wf.
	err := s.store.SaveWorkflow(ctx, wf.Clone())
	if err != nil {
		opErr := asOperationError(persistence.VerbUpdate, persistence.NounWorkflow, wf.ID, err)
		otelhelper.SetError(span, opErr, attribute.String(otelhelper.OperationKey, persistence.VerbUpdate))

		s.banner = opErr.Message()
		s.logger.ErrorContext(ctx, "Auto-save failed", "workflow_id", wf.ID, "command", command, "error", opErr.Detail())
		s.publish(ctx, wf.ID, events.NewWorkflowSaved(wf.ID, opErr, opErr.Message()))

		return
	}

	s.logger.DebugContext(ctx, "Auto-saved workflow", "workflow_id", wf.ID, "command", command)
	s.publish(ctx, wf.ID, events.NewWorkflowSaved(wf.ID, nil, ""))
}

// storageFailed records a failed collection change and returns it to the caller.
func (s *Studio) storageFailed(ctx context.Context, verb, noun, id string, err error) error {
	opErr := asOperationError(verb, noun, id, err)
	s.banner = opErr.Message()
	s.logger.ErrorContext(ctx, "Storage operation failed", "error", opErr.Detail())

	return opErr
}

func (s *Studio) publish(ctx context.Context, key string, event eventbus.Event) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(ctx, key, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

// asOperationError keeps storage errors that already carry a verb and noun, and
// wraps the rest.
func asOperationError(verb, noun, id string, err error) *persistence.OperationError {
	var opErr *persistence.OperationError
	if errors.As(err, &opErr) {
		return opErr
	}

	return persistence.NewOperationError(verb, noun, id, err)
}
