// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"

	"github.com/artpar/basemodel/domain/model"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// Caller issues a single logical REST call.
// Implementations own header defaults, retries and response decoding.
type Caller interface {
	// Call sends method to path. GET payloads become query parameters,
	// other payloads become the JSON body. JSON responses are returned
	// decoded (map[string]any or []any); anything else as a string.
	Call(ctx context.Context, method, path string, payload any, headers map[string]string) (any, error)
}

// -----------------------------------------------------------------------------
// Persistence Ports
// -----------------------------------------------------------------------------

// Backend is the persistence strategy behind a model type.
// Every operation the model core treats as backend-specific lives here,
// so a backend missing one of them does not compile.
type Backend[T model.Entity] interface {
	// Schema returns the columns shared by every entity of this backend.
	Schema() *model.Schema

	// New returns an empty, unsaved entity.
	New() T

	// Dataset materializes every entity the backend holds.
	Dataset(ctx context.Context) ([]T, error)

	// Lookup finds one entity by primary key.
	// Returns model.ErrNotFound when it does not exist.
	Lookup(ctx context.Context, pk any) (T, error)

	// Persist inserts the entity if it is new, otherwise updates it.
	Persist(ctx context.Context, e T) error

	// Remove deletes the entity.
	Remove(ctx context.Context, e T) error
}
