package processor

import (
	"context"
	"fmt"

	"github.com/replaykit/replaykit/internal/executor"
	"github.com/replaykit/replaykit/internal/storage"
	"github.com/replaykit/replaykit/internal/telemetry"
	"github.com/replaykit/replaykit/pkg/types"
)

// ResourceSink is notified when a new resource blob has been persisted, so
// the upload catalog can track it. Called only on the background queue.
type ResourceSink interface {
	ResourcePersisted(res types.Resource, objectPath string)
}

// ResourceProcessor persists extracted resource blobs exactly once per
// content hash. The dedup set lives for the process lifetime and is never
// evicted within a session: resource identity churn is low relative to the
// memory budget.
type ResourceProcessor struct {
	bg    *executor.Serial
	store storage.ObjectStorage
	sink  ResourceSink
	log   telemetry.Logger
	stats *telemetry.PipelineStats

	// Owned by the background queue.
	seen map[string]struct{}
}

// NewResourceProcessor creates a resource processor. sink may be nil.
func NewResourceProcessor(bg *executor.Serial, store storage.ObjectStorage, sink ResourceSink, log telemetry.Logger, stats *telemetry.PipelineStats) *ResourceProcessor {
	return &ResourceProcessor{
		bg:    bg,
		store: store,
		sink:  sink,
		log:   log,
		stats: stats,
		seen:  make(map[string]struct{}),
	}
}

// Submit hands extracted resources to the background queue. Callers submit
// after the corresponding snapshot so relative ordering is preserved.
func (p *ResourceProcessor) Submit(resources []types.Resource) bool {
	if len(resources) == 0 {
		return true
	}
	return p.bg.Submit(func() {
		p.process(resources)
	})
}

// process runs on the background queue.
func (p *ResourceProcessor) process(resources []types.Resource) {
	for _, res := range resources {
		if _, ok := p.seen[res.ID]; ok {
			p.stats.ResourceDeduped()
			continue
		}

		objectPath := ResourceObjectPath(res.ID)
		if err := p.store.Put(context.Background(), objectPath, res.Data); err != nil {
			// Persistence failures are logged, not retried here; the hash
			// stays out of the dedup set so a later capture may persist it.
			p.log.Errorf("resource processor: failed to persist %s: %v", res.ID, err)
			continue
		}

		p.seen[res.ID] = struct{}{}
		p.stats.ResourcePersisted()
		if p.sink != nil {
			p.sink.ResourcePersisted(res, objectPath)
		}
	}
}

// ResourceObjectPath returns the storage path of a resource blob.
func ResourceObjectPath(id string) string {
	return fmt.Sprintf("resources/%s", id)
}
