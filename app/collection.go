package app

import (
	"context"

	"github.com/artpar/basemodel/domain/model"
)

// Collection is a type-erased view of a Repository, for callers that handle
// models configured at runtime (the CLI, bootstrap).
type Collection interface {
	Name() string
	Columns() []string
	All(ctx context.Context) ([]model.Entity, error)
	Where(ctx context.Context, filters model.Filters) ([]model.Entity, error)
	FindPK(ctx context.Context, pk any) (model.Entity, bool, error)
}

// Erase wraps a typed repository as a Collection.
func Erase[T model.Entity](r *Repository[T]) Collection {
	return erased[T]{repo: r}
}

type erased[T model.Entity] struct {
	repo *Repository[T]
}

func (c erased[T]) Name() string {
	return c.repo.Schema().Name
}

func (c erased[T]) Columns() []string {
	return c.repo.Schema().Columns()
}

func (c erased[T]) All(ctx context.Context) ([]model.Entity, error) {
	return c.Where(ctx, nil)
}

func (c erased[T]) Where(ctx context.Context, filters model.Filters) ([]model.Entity, error) {
	items, err := c.repo.Where(ctx, filters)
	if err != nil {
		return nil, err
	}
	out := make([]model.Entity, len(items))
	for i, e := range items {
		out[i] = e
	}
	return out, nil
}

func (c erased[T]) FindPK(ctx context.Context, pk any) (model.Entity, bool, error) {
	e, ok, err := c.repo.FindPK(ctx, pk)
	if err != nil || !ok {
		return nil, false, err
	}
	return e, true, nil
}
