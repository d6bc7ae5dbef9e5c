package processor

import (
	"bytes"
	"context"
	"testing"

	"github.com/replaykit/replaykit/internal/executor"
	"github.com/replaykit/replaykit/internal/recorder"
	"github.com/replaykit/replaykit/internal/storage"
	"github.com/replaykit/replaykit/internal/telemetry"
	"github.com/replaykit/replaykit/pkg/types"
)

type recordingSink struct {
	persisted []string
}

func (s *recordingSink) ResourcePersisted(res types.Resource, objectPath string) {
	s.persisted = append(s.persisted, res.ID)
}

func newResourceHarness(t *testing.T) (*ResourceProcessor, *storage.LocalStorage, *recordingSink, *executor.Serial) {
	t.Helper()
	bg := executor.NewSerial("test-bg")
	t.Cleanup(bg.Close)
	store, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	sink := &recordingSink{}
	p := NewResourceProcessor(bg, store, sink, telemetry.NopLogger{}, telemetry.NewPipelineStats())
	return p, store, sink, bg
}

func TestResourceProcessorPersistsBlob(t *testing.T) {
	p, store, sink, bg := newResourceHarness(t)

	res := recorder.NewResource([]byte("image bytes"), "image/png")
	p.Submit([]types.Resource{res})
	bg.Sync(func() {})

	data, err := store.Get(context.Background(), ResourceObjectPath(res.ID))
	if err != nil {
		t.Fatalf("expected blob at %s: %v", ResourceObjectPath(res.ID), err)
	}
	if !bytes.Equal(data, []byte("image bytes")) {
		t.Errorf("stored blob differs from input")
	}
	if len(sink.persisted) != 1 || sink.persisted[0] != res.ID {
		t.Errorf("sink should see exactly one persist, got %v", sink.persisted)
	}
}

func TestResourceProcessorDeduplicatesByContent(t *testing.T) {
	p, _, sink, bg := newResourceHarness(t)

	// Same content submitted from different captures produces one persist.
	a := recorder.NewResource([]byte("shared icon"), "image/png")
	b := recorder.NewResource([]byte("shared icon"), "image/png")
	if a.ID != b.ID {
		t.Fatalf("identical content must hash identically: %s != %s", a.ID, b.ID)
	}

	p.Submit([]types.Resource{a})
	p.Submit([]types.Resource{b})
	p.Submit([]types.Resource{a, b})
	bg.Sync(func() {})

	if len(sink.persisted) != 1 {
		t.Errorf("expected 1 persist for duplicate content, got %d", len(sink.persisted))
	}
}

func TestResourceProcessorDistinctContent(t *testing.T) {
	p, _, sink, bg := newResourceHarness(t)

	a := recorder.NewResource([]byte("icon a"), "image/png")
	b := recorder.NewResource([]byte("icon b"), "image/png")

	p.Submit([]types.Resource{a, b})
	bg.Sync(func() {})

	if len(sink.persisted) != 2 {
		t.Errorf("expected 2 persists for distinct content, got %d", len(sink.persisted))
	}
}

type failingStorage struct {
	*storage.LocalStorage
	failures int
}

func (f *failingStorage) Put(ctx context.Context, objectPath string, data []byte) error {
	if f.failures > 0 {
		f.failures--
		return storage.ErrPutFailed
	}
	return f.LocalStorage.Put(ctx, objectPath, data)
}

func TestResourceProcessorRetriesAfterFailedPersist(t *testing.T) {
	bg := executor.NewSerial("test-bg")
	t.Cleanup(bg.Close)
	local, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	store := &failingStorage{LocalStorage: local, failures: 1}
	sink := &recordingSink{}
	p := NewResourceProcessor(bg, store, sink, telemetry.NopLogger{}, telemetry.NewPipelineStats())

	res := recorder.NewResource([]byte("flaky"), "image/png")

	// First attempt fails; the hash must not enter the dedup set, so a later
	// capture of the same content persists it.
	p.Submit([]types.Resource{res})
	p.Submit([]types.Resource{res})
	bg.Sync(func() {})

	if len(sink.persisted) != 1 {
		t.Errorf("expected the retry to persist, got %d persists", len(sink.persisted))
	}
}
