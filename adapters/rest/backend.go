// Package rest maps a remote JSON resource onto the model lifecycle.
//
// Wire contract, for a model named Widget with source /widgets:
//
//	GET    /widgets        list, a JSON array of objects
//	GET    /widgets/{pk}   one object
//	POST   /widgets        {"widget": {...all columns}}
//	PUT    /widgets/{pk}   {"widget": {...changed columns}}
//	DELETE /widgets/{pk}
//
// The server offers no filtering, so Where on a REST model fetches the
// whole collection and matches the declared columns locally.
package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/artpar/basemodel/adapters/remote"
	"github.com/artpar/basemodel/core/convention"
	"github.com/artpar/basemodel/domain/model"
	"github.com/artpar/basemodel/ports"
)

// Config configures a REST backend.
type Config struct {
	// Source is the collection path. Defaults to the pluralized
	// resource key, "/widgets" for Widget.
	Source string

	// Name is the model name. The request envelope key is derived from it.
	Name string

	// PrimaryKey defaults to "id".
	PrimaryKey string

	// Columns must be declared: the backend cannot infer them.
	Columns []string

	// Connection is used when set. Otherwise ConnectionName is looked up in
	// Registry, and without a name the registry default is used.
	Connection     ports.Caller
	ConnectionName string
	Registry       *remote.Registry

	// Logger defaults to a no-op logger.
	Logger *zerolog.Logger
}

// Backend issues REST calls for one resource.
type Backend struct {
	schema   *model.Schema
	source   string
	resource string

	conn     ports.Caller
	connName string
	registry *remote.Registry

	logger zerolog.Logger
}

// New creates a REST backend.
func New(cfg Config) (*Backend, error) {
	if cfg.Name == "" {
		return nil, errors.New("rest: model name is required")
	}
	source := cfg.Source
	if source == "" {
		source = convention.CollectionPath(cfg.Name)
	}
	if len(cfg.Columns) == 0 {
		return nil, fmt.Errorf("rest: %s columns: %w", cfg.Name, model.ErrUnimplemented)
	}

	registry := cfg.Registry
	if registry == nil {
		registry = remote.DefaultRegistry
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Backend{
		schema:   model.NewSchema(cfg.Name, cfg.PrimaryKey, cfg.Columns...),
		source:   strings.TrimSuffix(source, "/"),
		resource: convention.ResourceKey(cfg.Name),
		conn:     cfg.Connection,
		connName: cfg.ConnectionName,
		registry: registry,
		logger:   logger.With().Str("model", cfg.Name).Logger(),
	}, nil
}

// Schema returns the declared schema.
func (b *Backend) Schema() *model.Schema {
	return b.schema
}

// Source returns the collection path.
func (b *Backend) Source() string {
	return b.source
}

// ResourceKey returns the request envelope key.
func (b *Backend) ResourceKey() string {
	return b.resource
}

// New returns an empty record.
func (b *Backend) New() *model.Record {
	return model.NewRecord(b.schema)
}

// Connection resolves the caller used for the next request.
// The result is not cached, so connections registered later are picked up.
func (b *Backend) Connection() (ports.Caller, error) {
	if b.conn != nil {
		return b.conn, nil
	}

	var (
		c   *remote.Connection
		err error
	)
	if b.connName != "" {
		c, err = b.registry.Get(b.connName)
	} else {
		c, err = b.registry.Default()
	}
	if err != nil {
		return nil, &remote.ConnectionError{Model: b.schema.Name, Name: b.connName}
	}
	return c, nil
}

// Dataset fetches the collection.
func (b *Backend) Dataset(ctx context.Context) ([]*model.Record, error) {
	result, err := b.call(ctx, http.MethodGet, b.source, nil)
	if err != nil {
		return nil, err
	}

	items, ok := result.([]any)
	if !ok {
		if result == nil {
			return []*model.Record{}, nil
		}
		return nil, fmt.Errorf("rest: GET %s: expected a list, got %T", b.source, result)
	}

	out := make([]*model.Record, 0, len(items))
	for i, item := range items {
		values, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("rest: GET %s: item %d is %T, not an object", b.source, i, item)
		}
		out = append(out, b.load(values))
	}
	return out, nil
}

// Lookup fetches one entity. A 404 is model.ErrNotFound.
func (b *Backend) Lookup(ctx context.Context, pk any) (*model.Record, error) {
	result, err := b.call(ctx, http.MethodGet, b.memberPath(pk), nil)
	if remote.IsNotFound(err) {
		return nil, fmt.Errorf("%w: %s %v", model.ErrNotFound, b.schema.Name, pk)
	}
	if err != nil {
		return nil, err
	}

	values, ok := b.unwrap(result)
	if !ok {
		return nil, fmt.Errorf("rest: GET %s: expected an object, got %T", b.memberPath(pk), result)
	}
	return b.load(values), nil
}

// Persist creates a new entity with every column, or updates an existing
// one with its changed columns.
func (b *Backend) Persist(ctx context.Context, r *model.Record) error {
	if r.IsNew() {
		return b.create(ctx, r)
	}
	return b.update(ctx, r, r.Changed())
}

// PersistColumns saves r sending only cols on update.
func (b *Backend) PersistColumns(ctx context.Context, r *model.Record, cols []string) error {
	if r.IsNew() {
		return b.create(ctx, r)
	}
	return b.update(ctx, r, cols)
}

// PersistAll saves r sending every column on update.
func (b *Backend) PersistAll(ctx context.Context, r *model.Record) error {
	return b.PersistColumns(ctx, r, b.schema.Columns())
}

// Remove deletes the entity.
func (b *Backend) Remove(ctx context.Context, r *model.Record) error {
	_, err := b.call(ctx, http.MethodDelete, b.memberPath(r.PK()), nil)
	if remote.IsNotFound(err) {
		return fmt.Errorf("%w: %s %v", model.ErrNotFound, b.schema.Name, r.PK())
	}
	return err
}

func (b *Backend) create(ctx context.Context, r *model.Record) error {
	result, err := b.call(ctx, http.MethodPost, b.source, b.envelope(model.Attributes(r)))
	if err != nil {
		return err
	}
	b.absorb(r, result)
	return nil
}

func (b *Backend) update(ctx context.Context, r *model.Record, cols []string) error {
	attrs := model.Pick(r, cols)
	if len(attrs) == 0 {
		b.logger.Debug().Interface("pk", r.PK()).Msg("nothing to update")
		return nil
	}

	_, err := b.call(ctx, http.MethodPut, b.memberPath(r.PK()), b.envelope(attrs))
	return err
}

func (b *Backend) call(ctx context.Context, method, path string, payload any) (any, error) {
	conn, err := b.Connection()
	if err != nil {
		return nil, err
	}
	return conn.Call(ctx, method, path, payload, nil)
}

func (b *Backend) envelope(attrs model.Values) map[string]any {
	return map[string]any{b.resource: map[string]any(attrs)}
}

// absorb stores the server's representation of a created entity, if it
// sent one, so the assigned primary key is known.
func (b *Backend) absorb(r *model.Record, result any) {
	values, ok := b.unwrap(result)
	if !ok {
		return
	}
	for k, v := range values {
		if b.schema.Has(k) {
			r.Store(k, v)
		}
	}
}

// unwrap accepts both {"widget": {...}} and a bare object.
func (b *Backend) unwrap(result any) (map[string]any, bool) {
	m, ok := result.(map[string]any)
	if !ok {
		return nil, false
	}
	if inner, ok := m[b.resource].(map[string]any); ok && len(m) == 1 {
		return inner, true
	}
	return m, true
}

func (b *Backend) load(values map[string]any) *model.Record {
	r := b.New()
	r.Replace(values)
	return r
}

func (b *Backend) memberPath(pk any) string {
	return b.source + "/" + url.PathEscape(fmt.Sprint(pk))
}

// Ensure interface compliance.
var _ ports.Backend[*model.Record] = (*Backend)(nil)
