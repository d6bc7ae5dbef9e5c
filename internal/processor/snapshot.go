package processor

import (
	"github.com/replaykit/replaykit/internal/executor"
	"github.com/replaykit/replaykit/internal/rum"
	"github.com/replaykit/replaykit/internal/telemetry"
	"github.com/replaykit/replaykit/pkg/types"
)

// RecordWriter consumes the records the snapshot processor emits. Implemented
// by the segment writer; called only on the background queue.
type RecordWriter interface {
	Write(rec types.Record, ctx types.RUMContext)
}

// SnapshotProcessor turns captured snapshots into full or incremental
// records. The first snapshot seen for a view produces a full record; each
// subsequent one produces the identifier-keyed structural diff against the
// previous snapshot of that view. Diff state resets on view change: there is
// never an incremental record across views.
type SnapshotProcessor struct {
	bg     *executor.Serial
	writer RecordWriter
	bus    *rum.Bus
	log    telemetry.Logger
	stats  *telemetry.PipelineStats

	// Owned by the background queue; never read or written elsewhere.
	lastByView map[string]types.Snapshot
	activeView string
}

// NewSnapshotProcessor creates a processor emitting to the given writer.
func NewSnapshotProcessor(bg *executor.Serial, writer RecordWriter, bus *rum.Bus, log telemetry.Logger, stats *telemetry.PipelineStats) *SnapshotProcessor {
	return &SnapshotProcessor{
		bg:         bg,
		writer:     writer,
		bus:        bus,
		log:        log,
		stats:      stats,
		lastByView: make(map[string]types.Snapshot),
	}
}

// Submit hands a snapshot to the background queue; fire-and-forget, never
// blocks the caller. Returns false if the pipeline is shutting down.
func (p *SnapshotProcessor) Submit(snap types.Snapshot, ctx types.RUMContext) bool {
	return p.bg.Submit(func() {
		p.process(snap, ctx)
	})
}

// process runs on the background queue.
func (p *SnapshotProcessor) process(snap types.Snapshot, ctx types.RUMContext) {
	if snap.ViewID != p.activeView {
		// No incremental diff across views: drop state for both the view we
		// left and any stale state for the one we entered.
		delete(p.lastByView, p.activeView)
		delete(p.lastByView, snap.ViewID)
		p.activeView = snap.ViewID
	}

	rec := types.Record{
		Timestamp:     snap.Timestamp,
		ApplicationID: ctx.ApplicationID,
		SessionID:     ctx.SessionID,
		ViewID:        snap.ViewID,
	}

	last, seen := p.lastByView[snap.ViewID]
	if !seen {
		rec.Type = types.RecordTypeFull
		rec.Full = &types.FullPayload{Nodes: snap.Nodes}
	} else {
		muts := Diff(last.Nodes, snap.Nodes)
		if len(muts) == 0 {
			// Nothing changed since the previous tick.
			p.lastByView[snap.ViewID] = snap
			return
		}
		rec.Type = types.RecordTypeIncremental
		rec.Incremental = &types.IncrementalPayload{Mutations: muts}
	}

	p.writer.Write(rec, ctx)
	p.lastByView[snap.ViewID] = snap
	p.bus.PublishReplayAvailable(snap.ViewID)
}
