package storage

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"testing"
)

func newTestStorage(t *testing.T) *LocalStorage {
	t.Helper()
	store, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	return store
}

func TestLocalPutGetRoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	data := []byte("segment bytes")
	if err := store.Put(ctx, "segments/view-a/abc.seg", data); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx, "segments/view-a/abc.seg")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("round trip mismatch: %q", got)
	}
}

func TestLocalGetMissingObject(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.Get(context.Background(), "segments/nope.seg")
	if !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestLocalPutOverwrites(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	if err := store.Put(ctx, "resources/x", []byte("old")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(ctx, "resources/x", []byte("new")); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	got, err := store.Get(ctx, "resources/x")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "new" {
		t.Errorf("expected overwritten content, got %q", got)
	}
}

func TestLocalExistsAndDelete(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	if err := store.Put(ctx, "resources/x", []byte("data")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	ok, err := store.Exists(ctx, "resources/x")
	if err != nil || !ok {
		t.Fatalf("expected object to exist (ok=%v err=%v)", ok, err)
	}

	if err := store.Delete(ctx, "resources/x"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	ok, err = store.Exists(ctx, "resources/x")
	if err != nil || ok {
		t.Errorf("expected object gone (ok=%v err=%v)", ok, err)
	}

	// Deleting again is not an error.
	if err := store.Delete(ctx, "resources/x"); err != nil {
		t.Errorf("Delete should be idempotent, got %v", err)
	}
}

func TestLocalListObjectsByPrefix(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	seed := map[string][]byte{
		"segments/view-a/1.seg": []byte("a"),
		"segments/view-a/2.seg": []byte("b"),
		"segments/view-b/3.seg": []byte("c"),
		"resources/abcd":        []byte("d"),
	}
	for p, data := range seed {
		if err := store.Put(ctx, p, data); err != nil {
			t.Fatalf("Put %s failed: %v", p, err)
		}
	}

	objects, err := store.ListObjects(ctx, "segments/")
	if err != nil {
		t.Fatalf("ListObjects failed: %v", err)
	}
	sort.Strings(objects)
	want := []string{
		"segments/view-a/1.seg",
		"segments/view-a/2.seg",
		"segments/view-b/3.seg",
	}
	if len(objects) != len(want) {
		t.Fatalf("expected %d objects, got %v", len(want), objects)
	}
	for i, p := range want {
		if objects[i] != p {
			t.Errorf("object %d: expected %s, got %s", i, p, objects[i])
		}
	}
}

func TestLocalListObjectsMissingPrefix(t *testing.T) {
	store := newTestStorage(t)

	objects, err := store.ListObjects(context.Background(), "segments/")
	if err != nil {
		t.Fatalf("ListObjects on empty prefix failed: %v", err)
	}
	if len(objects) != 0 {
		t.Errorf("expected empty list, got %v", objects)
	}
}

func TestLocalCancelledContext(t *testing.T) {
	store := newTestStorage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Put(ctx, "resources/x", []byte("data")); err == nil {
		t.Error("expected error from cancelled context")
	}
	if _, err := store.Get(ctx, "resources/x"); err == nil {
		t.Error("expected error from cancelled context")
	}
}
