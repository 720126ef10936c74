package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/artpar/basemodel/adapters/idgen"
	"github.com/artpar/basemodel/adapters/memory"
	"github.com/artpar/basemodel/domain/model"
)

func newBackend() *memory.Backend {
	return memory.New(memory.Config{
		Name:    "Widget",
		Columns: []string{"name", "color"},
		IDs:     idgen.NewSequential("w"),
	})
}

func TestBackend_New(t *testing.T) {
	b := newBackend()

	if b.Len() != 0 {
		t.Errorf("new backend should be empty, got %d", b.Len())
	}
	if got := b.Schema().Columns(); len(got) != 3 || got[0] != "id" {
		t.Errorf("Columns = %v, want [id name color]", got)
	}
	if !b.New().IsNew() {
		t.Error("New() record should be new")
	}
}

func TestBackend_PersistAssignsID(t *testing.T) {
	b := newBackend()
	ctx := context.Background()

	r := b.New()
	r.Set("name", "bolt")
	if err := b.Persist(ctx, r); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	if r.PK() != "w1" {
		t.Errorf("PK = %v, want w1", r.PK())
	}
	if r.IsNew() {
		t.Error("record should not be new after Persist")
	}

	got, err := b.Lookup(ctx, "w1")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if v, _ := got.Get("name"); v != "bolt" {
		t.Errorf("name = %v, want bolt", v)
	}
	if len(got.Changed()) != 0 {
		t.Errorf("looked up record has changes: %v", got.Changed())
	}
}

func TestBackend_PersistUpdates(t *testing.T) {
	b := newBackend()
	ctx := context.Background()

	r := b.New()
	r.Set("name", "bolt")
	b.Persist(ctx, r)

	r.Set("color", "red")
	if err := b.Persist(ctx, r); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	if b.Len() != 1 {
		t.Errorf("Len = %d, want 1", b.Len())
	}
	got, _ := b.Lookup(ctx, r.PK())
	if v, _ := got.Get("color"); v != "red" {
		t.Errorf("color = %v, want red", v)
	}
}

func TestBackend_PersistExplicitKey(t *testing.T) {
	b := newBackend()
	ctx := context.Background()

	r := b.New()
	r.Set("id", 42)
	if err := b.Persist(ctx, r); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	if _, err := b.Lookup(ctx, 42); err != nil {
		t.Errorf("Lookup(42) failed: %v", err)
	}
}

func TestBackend_DatasetOrder(t *testing.T) {
	b := newBackend()
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		r := b.New()
		r.Set("name", name)
		b.Persist(ctx, r)
	}

	all, err := b.Dataset(ctx)
	if err != nil {
		t.Fatalf("Dataset failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	for i, want := range []string{"a", "b", "c"} {
		if v, _ := all[i].Get("name"); v != want {
			t.Errorf("all[%d].name = %v, want %s", i, v, want)
		}
	}
}

func TestBackend_Remove(t *testing.T) {
	b := newBackend()
	ctx := context.Background()

	r := b.New()
	b.Persist(ctx, r)

	if err := b.Remove(ctx, r); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := b.Lookup(ctx, r.PK()); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Lookup after Remove error = %v, want ErrNotFound", err)
	}
	if err := b.Remove(ctx, r); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("second Remove error = %v, want ErrNotFound", err)
	}

	all, _ := b.Dataset(ctx)
	if len(all) != 0 {
		t.Errorf("Dataset after Remove has %d records", len(all))
	}
}

func TestBackend_Clear(t *testing.T) {
	b := newBackend()
	b.Persist(context.Background(), b.New())
	b.Clear()

	if b.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", b.Len())
	}
}
