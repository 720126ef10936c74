// Package memory provides an in-memory backend.
// It is the stub persistence strategy: records live in a map for the
// lifetime of the Backend.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/artpar/basemodel/adapters/idgen"
	"github.com/artpar/basemodel/domain/model"
	"github.com/artpar/basemodel/ports"
)

// Config configures an in-memory backend.
type Config struct {
	Name       string
	PrimaryKey string
	Columns    []string

	// IDs assigns primary keys to new records. Defaults to idgen.UUID.
	IDs ports.IDGenerator
}

// Backend stores records in memory.
type Backend struct {
	mu     sync.RWMutex
	schema *model.Schema
	ids    ports.IDGenerator
	rows   map[string]model.Values // by formatted pk
	order  []string
}

// New creates an empty in-memory backend.
func New(cfg Config) *Backend {
	ids := cfg.IDs
	if ids == nil {
		ids = idgen.UUID{}
	}

	return &Backend{
		schema: model.NewSchema(cfg.Name, cfg.PrimaryKey, cfg.Columns...),
		ids:    ids,
		rows:   make(map[string]model.Values),
	}
}

// Schema returns the backend schema.
func (b *Backend) Schema() *model.Schema {
	return b.schema
}

// New returns an empty record.
func (b *Backend) New() *model.Record {
	return model.NewRecord(b.schema)
}

// Dataset returns a copy of every stored record in insertion order.
func (b *Backend) Dataset(ctx context.Context) ([]*model.Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]*model.Record, 0, len(b.order))
	for _, k := range b.order {
		out = append(out, b.load(b.rows[k]))
	}
	return out, nil
}

// Lookup returns the record stored under pk.
func (b *Backend) Lookup(ctx context.Context, pk any) (*model.Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	row, ok := b.rows[key(pk)]
	if !ok {
		return nil, model.ErrNotFound
	}
	return b.load(row), nil
}

// Persist stores the record. New records get a generated primary key;
// records with a key are upserted.
func (b *Backend) Persist(ctx context.Context, r *model.Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if r.IsNew() {
		r.Store(b.schema.PrimaryKey, b.ids.New())
	}

	k := key(r.PK())
	if _, exists := b.rows[k]; !exists {
		b.order = append(b.order, k)
	}
	b.rows[k] = r.Values()
	return nil
}

// Remove deletes the record.
func (b *Backend) Remove(ctx context.Context, r *model.Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	k := key(r.PK())
	if _, ok := b.rows[k]; !ok {
		return model.ErrNotFound
	}

	delete(b.rows, k)
	for i, o := range b.order {
		if o == k {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len returns the number of stored records.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.rows)
}

// Clear removes all records (for testing).
func (b *Backend) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rows = make(map[string]model.Values)
	b.order = nil
}

func (b *Backend) load(row model.Values) *model.Record {
	r := model.NewRecord(b.schema)
	r.Replace(row)
	return r
}

func key(pk any) string {
	return fmt.Sprint(pk)
}

// Ensure interface compliance.
var _ ports.Backend[*model.Record] = (*Backend)(nil)
