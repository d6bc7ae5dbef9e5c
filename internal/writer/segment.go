package writer

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/golang/snappy"

	"github.com/replaykit/replaykit/internal/storage"
	"github.com/replaykit/replaykit/internal/telemetry"
	"github.com/replaykit/replaykit/pkg/types"
)

// ClosedSegment describes one immutable, persisted segment handed to the
// upload layer.
type ClosedSegment struct {
	ID              types.SegmentID
	ApplicationID   string
	SessionID       string
	ViewID          string
	ObjectPath      string
	StartMs         int64
	EndMs           int64
	RecordCount     int
	RawBytes        int64
	CompressedBytes int64
	Privacy         types.PrivacyLevel
}

// SegmentConsumer receives closed segments. Implemented by the upload
// catalog registration; called on the background queue.
type SegmentConsumer interface {
	SegmentClosed(seg ClosedSegment)
}

// openSegment is one in-flight segment. Open segments are mutable state
// owned exclusively by the background queue.
type openSegment struct {
	id      types.SegmentID
	app     string
	session string
	view    string
	buf     bytes.Buffer // framed records
	firstMs int64
	lastMs  int64
	count   int
}

// Config holds the writer's budgets.
type Config struct {
	// MaxBytes bounds the framed (uncompressed) size of one segment.
	MaxBytes int64
	// MaxSpan bounds lastRecordTime - firstRecordTime within one segment.
	MaxSpan time.Duration
	// Privacy is recorded on closed segments for upload metadata.
	Privacy types.PrivacyLevel
}

// SegmentWriter maintains at most one open segment per view, enforcing the
// size and time budgets. All methods run on the background queue.
//
// One documented exception to the size budget: a record whose framed size
// alone exceeds MaxBytes is written into its own segment, which will exceed
// the budget and is closed immediately. Records are never fragmented -
// backends expect complete records.
type SegmentWriter struct {
	cfg      Config
	store    storage.ObjectStorage
	consumer SegmentConsumer
	gen      *types.SegmentIDGenerator
	log      telemetry.Logger
	stats    *telemetry.PipelineStats

	open       map[string]*openSegment
	activeView string
}

// New creates a segment writer. consumer may be nil.
func New(cfg Config, store storage.ObjectStorage, consumer SegmentConsumer, log telemetry.Logger, stats *telemetry.PipelineStats) *SegmentWriter {
	return &SegmentWriter{
		cfg:      cfg,
		store:    store,
		consumer: consumer,
		gen:      types.NewSegmentIDGenerator(),
		log:      log,
		stats:    stats,
		open:     make(map[string]*openSegment),
	}
}

// Write appends a record to the view's segment, closing and rotating first
// when a budget would be exceeded. A view change force-closes the previous
// view's segment even when under budget: a segment never straddles two views.
func (w *SegmentWriter) Write(rec types.Record, ctx types.RUMContext) {
	framed, err := encodeRecord(rec)
	if err != nil {
		// Malformed payload: drop the record, keep processing.
		w.log.Errorf("segment writer: failed to serialize record: %v", err)
		w.stats.RecordDropped()
		return
	}

	view := rec.ViewID
	if w.activeView != "" && w.activeView != view {
		w.CloseView(w.activeView)
	}
	w.activeView = view

	seg := w.open[view]
	if seg != nil && w.wouldExceedBudget(seg, rec.Timestamp, len(framed)) {
		w.closeSegment(seg)
		delete(w.open, view)
		seg = nil
	}

	if seg == nil {
		id, err := w.gen.Generate()
		if err != nil {
			w.log.Errorf("segment writer: failed to generate segment id: %v", err)
			w.stats.RecordDropped()
			return
		}
		seg = &openSegment{
			id:      id,
			app:     ctx.ApplicationID,
			session: ctx.SessionID,
			view:    view,
			firstMs: rec.Timestamp,
		}
		w.open[view] = seg
	}

	seg.buf.Write(framed)
	seg.lastMs = rec.Timestamp
	seg.count++
	w.stats.RecordWritten()

	// A single record may exceed the budget on its own; its segment is
	// closed right away so the oversize unit becomes visible to upload.
	if int64(seg.buf.Len()) >= w.cfg.MaxBytes {
		w.closeSegment(seg)
		delete(w.open, view)
	}
}

// wouldExceedBudget reports whether appending a record of the given framed
// size and timestamp would push the segment past a budget.
func (w *SegmentWriter) wouldExceedBudget(seg *openSegment, timestampMs int64, framedLen int) bool {
	if int64(seg.buf.Len()+framedLen) > w.cfg.MaxBytes {
		return true
	}
	if timestampMs-seg.firstMs > w.cfg.MaxSpan.Milliseconds() {
		return true
	}
	return false
}

// CloseView force-closes the open segment for a view, if any.
func (w *SegmentWriter) CloseView(viewID string) {
	if seg, ok := w.open[viewID]; ok {
		w.closeSegment(seg)
		delete(w.open, viewID)
	}
}

// CloseAll force-closes every open segment. Called on app backgrounding and
// on coordinator stop; partial segments flush cleanly.
func (w *SegmentWriter) CloseAll() {
	for view, seg := range w.open {
		w.closeSegment(seg)
		delete(w.open, view)
	}
	w.activeView = ""
}

// OpenViews returns the views with an open segment. Diagnostics only.
func (w *SegmentWriter) OpenViews() []string {
	views := make([]string, 0, len(w.open))
	for view := range w.open {
		views = append(views, view)
	}
	return views
}

// closeSegment compresses and persists a segment, then hands it to the
// consumer. A persistence failure discards the segment: retry is the upload
// layer's concern, not ours, and replay is best-effort.
func (w *SegmentWriter) closeSegment(seg *openSegment) {
	if seg.count == 0 {
		return
	}

	compressed := snappy.Encode(nil, seg.buf.Bytes())
	objectPath := SegmentObjectPath(seg.view, seg.id)

	if err := w.store.Put(context.Background(), objectPath, compressed); err != nil {
		w.log.Errorf("segment writer: failed to persist segment %s: %v", seg.id, err)
		w.stats.SegmentDiscarded()
		return
	}

	w.stats.SegmentClosed()
	w.log.Debugf("segment writer: closed segment %s view=%s records=%d raw=%d compressed=%d",
		seg.id, seg.view, seg.count, seg.buf.Len(), len(compressed))

	if w.consumer != nil {
		w.consumer.SegmentClosed(ClosedSegment{
			ID:              seg.id,
			ApplicationID:   seg.app,
			SessionID:       seg.session,
			ViewID:          seg.view,
			ObjectPath:      objectPath,
			StartMs:         seg.firstMs,
			EndMs:           seg.lastMs,
			RecordCount:     seg.count,
			RawBytes:        int64(seg.buf.Len()),
			CompressedBytes: int64(len(compressed)),
			Privacy:         w.cfg.Privacy,
		})
	}
}

// SegmentObjectPath returns the storage path of a segment object.
func SegmentObjectPath(viewID string, id types.SegmentID) string {
	return fmt.Sprintf("segments/%s/%s.seg", viewID, id)
}
