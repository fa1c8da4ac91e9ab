package store

import (
	"context"
	"errors"
	"testing"
)

type note struct {
	ID  string `json:"id"`
	Key string `json:"key"`
	Val string `json:"val"`
}

func (n *note) RecordID() string { return n.ID }

func TestMemoryAppendAndGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory[*note](func(n *note) string { return n.Key })

	if err := m.Append(ctx, &note{ID: "1", Key: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := m.Append(ctx, &note{ID: "1", Key: "b"}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate id should fail with ErrDuplicate, got %v", err)
	}
	if err := m.Append(ctx, &note{ID: "2", Key: "a"}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate unique key should fail with ErrDuplicate, got %v", err)
	}

	got, err := m.GetByID(ctx, "1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Key != "a" {
		t.Errorf("got %+v", got)
	}
	if _, err := m.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing id should fail with ErrNotFound, got %v", err)
	}
}

func TestMemoryUpdate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory[*note](nil)

	if err := m.UpdateByID(ctx, &note{ID: "1"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("update of absent record should fail with ErrNotFound, got %v", err)
	}
	if err := m.Append(ctx, &note{ID: "1", Val: "v1"}); err != nil {
		t.Fatal(err)
	}
	if err := m.UpdateByID(ctx, &note{ID: "1", Val: "v2"}); err != nil {
		t.Fatal(err)
	}
	got, _ := m.GetByID(ctx, "1")
	if got.Val != "v2" {
		t.Errorf("update should replace the snapshot, got %+v", got)
	}
}

func TestMemoryListOrder(t *testing.T) {
	ctx := context.Background()
	m := NewMemory[*note](nil)
	for _, id := range []string{"c", "a", "b"} {
		if err := m.Append(ctx, &note{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	all, err := m.ListAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"c", "a", "b"}
	for i, n := range all {
		if n.ID != want[i] {
			t.Fatalf("insertion order not preserved: %v", all)
		}
	}
}
