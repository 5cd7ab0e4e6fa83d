package store

import (
	"context"
	"testing"
)

func TestMemorySaveAndLoad(t *testing.T) {
	ms := NewMemoryStore()
	ctx := context.Background()

	in := Task{ID: "t9", Title: "Read chapter 4", Subject: "History", Status: "pending"}
	if err := ms.Save(ctx, KeyTasks, []Task{in}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	var out []Task
	found, err := ms.Load(ctx, KeyTasks, &out)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !found {
		t.Fatal("expected key to be found")
	}
	if len(out) != 1 || out[0].ID != "t9" || out[0].Status != "pending" {
		t.Errorf("loaded value does not match saved value: %+v", out)
	}
}

func TestMemoryLoadMissingKey(t *testing.T) {
	ms := NewMemoryStore()

	var out []Task
	found, err := ms.Load(context.Background(), KeyTasks, &out)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if found {
		t.Error("expected missing key to report found=false")
	}
	if ms.Len() != 0 {
		t.Errorf("missing key was created by Load, len=%d", ms.Len())
	}
}

func TestMemoryDelete(t *testing.T) {
	ms := NewMemoryStore()
	ctx := context.Background()

	if err := ms.Save(ctx, KeyPulse, SeedPulse()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := ms.Delete(ctx, KeyPulse); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	var out []PulseItem
	found, err := ms.Load(ctx, KeyPulse, &out)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if found {
		t.Error("expected deleted key to be absent")
	}
}

func TestMemoryLoadCopiesValue(t *testing.T) {
	ms := NewMemoryStore()
	ctx := context.Background()

	if err := ms.Save(ctx, KeyPosts, []Post{{ID: "p1", Likes: 1}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	var first []Post
	if _, err := ms.Load(ctx, KeyPosts, &first); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	first[0].Likes = 99

	var second []Post
	if _, err := ms.Load(ctx, KeyPosts, &second); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if second[0].Likes != 1 {
		t.Errorf("mutating a loaded value leaked into the store: likes=%d", second[0].Likes)
	}
}
