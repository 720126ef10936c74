// Package app contains the Repository, which runs the model lifecycle
// (validation, hooks, persistence) on top of a backend.
package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/artpar/basemodel/domain/model"
	"github.com/artpar/basemodel/ports"
)

// Hooks are optional lifecycle callbacks. Nil hooks are skipped.
// Save and destroy hooks abort the pipeline by returning an error.
type Hooks[T model.Entity] struct {
	BeforeValidation func(ctx context.Context, e T)
	Validate         func(ctx context.Context, e T, errs *model.Errors)
	AfterValidation  func(ctx context.Context, e T)

	BeforeSave func(ctx context.Context, e T) error
	AfterSave  func(ctx context.Context, e T) error

	BeforeDestroy func(ctx context.Context, e T) error
	AfterDestroy  func(ctx context.Context, e T) error
}

// Repository exposes the CRUD surface of one model type.
type Repository[T model.Entity] struct {
	backend ports.Backend[T]
	hooks   Hooks[T]
	logger  zerolog.Logger
}

// NewRepository creates a repository over backend.
func NewRepository[T model.Entity](backend ports.Backend[T], logger zerolog.Logger) *Repository[T] {
	return &Repository[T]{
		backend: backend,
		logger:  logger,
	}
}

// Use installs lifecycle hooks, replacing any previous set.
func (r *Repository[T]) Use(hooks Hooks[T]) *Repository[T] {
	r.hooks = hooks
	return r
}

// Backend returns the underlying backend.
func (r *Repository[T]) Backend() ports.Backend[T] {
	return r.backend
}

// Schema returns the model schema.
func (r *Repository[T]) Schema() *model.Schema {
	return r.backend.Schema()
}

// New builds an unsaved entity from values. Unknown columns are ignored and
// the change set is empty afterwards.
func (r *Repository[T]) New(values model.Values) (T, error) {
	e := r.backend.New()
	if err := model.Assign(e, values); err != nil {
		var zero T
		return zero, err
	}
	e.Base().ClearChanges()
	return e, nil
}

// Create builds an entity from values and saves it.
func (r *Repository[T]) Create(ctx context.Context, values model.Values) (T, error) {
	e, err := r.New(values)
	if err != nil {
		return e, err
	}
	if err := r.Save(ctx, e); err != nil {
		return e, err
	}
	return e, nil
}

// Valid runs the validation hooks and reports whether no errors were recorded.
func (r *Repository[T]) Valid(ctx context.Context, e T) bool {
	errs := e.Base().Errors()
	errs.Reset()

	if r.hooks.BeforeValidation != nil {
		r.hooks.BeforeValidation(ctx, e)
	}
	if r.hooks.Validate != nil {
		r.hooks.Validate(ctx, e, errs)
	}
	if r.hooks.AfterValidation != nil {
		r.hooks.AfterValidation(ctx, e)
	}

	return errs.Len() == 0
}

// Save validates the entity, then inserts or updates it.
// An invalid entity never reaches the backend.
func (r *Repository[T]) Save(ctx context.Context, e T) error {
	if !r.Valid(ctx, e) {
		return &model.ValidationError{
			Model:    r.Schema().Name,
			Failures: e.Base().Errors().All(),
		}
	}

	if r.hooks.BeforeSave != nil {
		if err := r.hooks.BeforeSave(ctx, e); err != nil {
			return err
		}
	}

	if err := r.backend.Persist(ctx, e); err != nil {
		return err
	}

	if r.hooks.AfterSave != nil {
		if err := r.hooks.AfterSave(ctx, e); err != nil {
			return err
		}
	}

	e.Base().ClearChanges()

	r.logger.Debug().
		Str("model", r.Schema().Name).
		Interface("pk", e.Base().PK()).
		Msg("saved")
	return nil
}

// Update applies values and saves.
func (r *Repository[T]) Update(ctx context.Context, e T, values model.Values) error {
	if err := model.Assign(e, values); err != nil {
		return err
	}
	return r.Save(ctx, e)
}

// Destroy removes the entity through the backend.
func (r *Repository[T]) Destroy(ctx context.Context, e T) error {
	if r.hooks.BeforeDestroy != nil {
		if err := r.hooks.BeforeDestroy(ctx, e); err != nil {
			return err
		}
	}

	if err := r.backend.Remove(ctx, e); err != nil {
		return err
	}

	if r.hooks.AfterDestroy != nil {
		if err := r.hooks.AfterDestroy(ctx, e); err != nil {
			return err
		}
	}

	r.logger.Debug().
		Str("model", r.Schema().Name).
		Interface("pk", e.Base().PK()).
		Msg("destroyed")
	return nil
}

// Refresh reloads the entity's attributes from the backend.
// Pending changes are discarded.
func (r *Repository[T]) Refresh(ctx context.Context, e T) error {
	fresh, err := r.backend.Lookup(ctx, e.Base().PK())
	if err != nil {
		return err
	}

	if inv, ok := any(e).(model.Invalidator); ok {
		inv.Invalidate()
	}
	e.Base().Replace(fresh.Base().Values())
	return nil
}

// All materializes the full dataset.
func (r *Repository[T]) All(ctx context.Context) ([]T, error) {
	return r.backend.Dataset(ctx)
}

// Where returns the entities matching every filter by exact equality.
// No matches is an empty result, not an error.
func (r *Repository[T]) Where(ctx context.Context, filters model.Filters) ([]T, error) {
	all, err := r.backend.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	if len(filters) == 0 {
		return all, nil
	}

	matched := make([]T, 0, len(all))
	for _, e := range all {
		if model.Match(e, filters) {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

// Find returns the first entity matching filters.
func (r *Repository[T]) Find(ctx context.Context, filters model.Filters) (T, bool, error) {
	var zero T
	matched, err := r.Where(ctx, filters)
	if err != nil || len(matched) == 0 {
		return zero, false, err
	}
	return matched[0], true, nil
}

// FindPK looks an entity up by primary key. A missing entity is (zero, false, nil).
func (r *Repository[T]) FindPK(ctx context.Context, pk any) (T, bool, error) {
	var zero T
	if pk == nil {
		return zero, false, nil
	}

	e, err := r.backend.Lookup(ctx, pk)
	if errors.Is(err, model.ErrNotFound) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}
	return e, true, nil
}

// WithPK looks an entity up by primary key and fails with model.ErrNotFound
// when it does not exist.
func (r *Repository[T]) WithPK(ctx context.Context, pk any) (T, error) {
	e, ok, err := r.FindPK(ctx, pk)
	if err != nil {
		return e, err
	}
	if !ok {
		return e, model.ErrNotFound
	}
	return e, nil
}

// First returns the first entity of the dataset.
func (r *Repository[T]) First(ctx context.Context) (T, bool, error) {
	return r.Find(ctx, nil)
}

// MustFirst returns the first entity or model.ErrNotFound.
func (r *Repository[T]) MustFirst(ctx context.Context) (T, error) {
	e, ok, err := r.First(ctx)
	if err != nil {
		return e, err
	}
	if !ok {
		return e, model.ErrNotFound
	}
	return e, nil
}
