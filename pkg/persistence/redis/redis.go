// Package redis provides Redis persistence: one hash per collection, keyed by
// document id, holding the JSON document.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/persistence"
)

const defaultPrefix = "flowbuilder"

// Persistence implements persistence.Persistence on a Redis server.
type Persistence struct {
	client goredis.UniversalClient
	logger *slog.Logger
	prefix string
}

// NewPersistence connects to the server described by a redis:// URL. The optional
// "prefix" query parameter namespaces the keys.
func NewPersistence(ctx context.Context, logger *slog.Logger, redisURL string) (*Persistence, error) {
	parsed, err := url.Parse(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	prefix := parsed.Query().Get("prefix")
	if prefix == "" {
		prefix = defaultPrefix
	}

	query := parsed.Query()
	query.Del("prefix")
	parsed.RawQuery = query.Encode()

	opts, err := goredis.ParseURL(parsed.String())
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	p := NewWithClient(goredis.NewClient(opts), logger, prefix)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := p.client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.InfoContext(ctx, "Connected to Redis", "addr", opts.Addr, "db", opts.DB)

	return p, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client goredis.UniversalClient, logger *slog.Logger, prefix string) *Persistence {
	return &Persistence{client: client, logger: logger, prefix: strings.TrimSuffix(prefix, ":")}
}

func (p *Persistence) key(collection string) string {
	return p.prefix + ":" + collection
}

// Close closes the client.
func (p *Persistence) Close(_ context.Context) error {
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}

// HealthCheck pings the server.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

func (p *Persistence) Templates(ctx context.Context) ([]*models.ActivityTemplate, error) {
	templates, err := all[models.ActivityTemplate](ctx, p.client, p.key("templates"))
	if err != nil {
		return nil, persistence.NewOperationError(persistence.VerbLoad, persistence.NounTemplates, "", err)
	}

	persistence.SortTemplates(templates)

	return templates, nil
}

func (p *Persistence) TemplateByID(ctx context.Context, id string) (*models.ActivityTemplate, error) {
	template, err := get[models.ActivityTemplate](ctx, p.client, p.key("templates"), id)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			err = persistence.ErrTemplateNotFound
		}

		return nil, persistence.NewOperationError(persistence.VerbLoad, persistence.NounTemplate, id, err)
	}

	return template, nil
}

func (p *Persistence) SaveTemplate(ctx context.Context, template *models.ActivityTemplate) error {
	verb := persistence.VerbUpdate

	if template.ID == "" {
		template.ID = uuid.NewString()
		verb = persistence.VerbCreate
	}

	now := time.Now().UTC()
	if template.CreatedAt.IsZero() {
		template.CreatedAt = now
	}

	template.UpdatedAt = now

	if err := put(ctx, p.client, p.key("templates"), template.ID, template); err != nil {
		return persistence.NewOperationError(verb, persistence.NounTemplate, template.ID, err)
	}

	return nil
}

func (p *Persistence) DeleteTemplate(ctx context.Context, id string) error {
	if err := p.client.HDel(ctx, p.key("templates"), id).Err(); err != nil {
		return persistence.NewOperationError(persistence.VerbDelete, persistence.NounTemplate, id, err)
	}

	return nil
}

func (p *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	workflows, err := all[models.Workflow](ctx, p.client, p.key("workflows"))
	if err != nil {
		return nil, persistence.NewOperationError(persistence.VerbLoad, persistence.NounWorkflows, "", err)
	}

	persistence.SortWorkflows(workflows)

	return workflows, nil
}

func (p *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	workflow, err := get[models.Workflow](ctx, p.client, p.key("workflows"), id)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			err = persistence.ErrWorkflowNotFound
		}

		return nil, persistence.NewOperationError(persistence.VerbLoad, persistence.NounWorkflow, id, err)
	}

	return workflow, nil
}

func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	verb := persistence.VerbUpdate

	if workflow.ID == "" {
		workflow.ID = uuid.NewString()
		verb = persistence.VerbCreate
	}

	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	if workflow.UpdatedAt.IsZero() {
		workflow.UpdatedAt = now
	}

	if err := put(ctx, p.client, p.key("workflows"), workflow.ID, workflow); err != nil {
		return persistence.NewOperationError(verb, persistence.NounWorkflow, workflow.ID, err)
	}

	return nil
}

func (p *Persistence) DeleteWorkflow(ctx context.Context, id string) error {
	if err := p.client.HDel(ctx, p.key("workflows"), id).Err(); err != nil {
		return persistence.NewOperationError(persistence.VerbDelete, persistence.NounWorkflow, id, err)
	}

	return nil
}

func all[T any](ctx context.Context, client goredis.UniversalClient, key string) ([]*T, error) {
	fields, err := client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*T, 0, len(fields))

	for id, raw := range fields {
		var doc T
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", id, err)
		}

		out = append(out, &doc)
	}

	return out, nil
}

func get[T any](ctx context.Context, client goredis.UniversalClient, key, id string) (*T, error) {
	raw, err := client.HGet(ctx, key, id).Bytes()
	if err != nil {
		return nil, err
	}

	var doc T
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", id, err)
	}

	return &doc, nil
}

func put(ctx context.Context, client goredis.UniversalClient, key, id string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", id, err)
	}

	return client.HSet(ctx, key, id, data).Err()
}
