package telemetry

import (
	"sync"
	"time"
)

// PipelineStats tracks pipeline health counters for internal diagnostics.
// All methods are O(1) and thread-safe; the counters are advisory and never
// influence pipeline behavior.
type PipelineStats struct {
	mu sync.RWMutex

	ticksFired          int64
	ticksSkipped        int64
	snapshotsCaptured   int64
	placeholderNodes    int64
	recordsWritten      int64
	recordsDropped      int64
	segmentsClosed      int64
	segmentsDiscarded   int64
	resourcesPersisted  int64
	resourcesDeduped    int64
	uploadsSucceeded    int64
	uploadsFailed       int64
	lastSnapshotAt      time.Time
	lastSegmentClosedAt time.Time
}

// NewPipelineStats creates a new counter set.
func NewPipelineStats() *PipelineStats {
	return &PipelineStats{}
}

func (s *PipelineStats) TickFired() {
	s.mu.Lock()
	s.ticksFired++
	s.mu.Unlock()
}

func (s *PipelineStats) TickSkipped() {
	s.mu.Lock()
	s.ticksSkipped++
	s.mu.Unlock()
}

func (s *PipelineStats) SnapshotCaptured(placeholders int) {
	s.mu.Lock()
	s.snapshotsCaptured++
	s.placeholderNodes += int64(placeholders)
	s.lastSnapshotAt = time.Now()
	s.mu.Unlock()
}

func (s *PipelineStats) RecordWritten() {
	s.mu.Lock()
	s.recordsWritten++
	s.mu.Unlock()
}

func (s *PipelineStats) RecordDropped() {
	s.mu.Lock()
	s.recordsDropped++
	s.mu.Unlock()
}

func (s *PipelineStats) SegmentClosed() {
	s.mu.Lock()
	s.segmentsClosed++
	s.lastSegmentClosedAt = time.Now()
	s.mu.Unlock()
}

func (s *PipelineStats) SegmentDiscarded() {
	s.mu.Lock()
	s.segmentsDiscarded++
	s.mu.Unlock()
}

func (s *PipelineStats) ResourcePersisted() {
	s.mu.Lock()
	s.resourcesPersisted++
	s.mu.Unlock()
}

func (s *PipelineStats) ResourceDeduped() {
	s.mu.Lock()
	s.resourcesDeduped++
	s.mu.Unlock()
}

func (s *PipelineStats) UploadSucceeded() {
	s.mu.Lock()
	s.uploadsSucceeded++
	s.mu.Unlock()
}

func (s *PipelineStats) UploadFailed() {
	s.mu.Lock()
	s.uploadsFailed++
	s.mu.Unlock()
}

// StatsSnapshot is a point-in-time copy of all counters.
type StatsSnapshot struct {
	TicksFired         int64
	TicksSkipped       int64
	SnapshotsCaptured  int64
	PlaceholderNodes   int64
	RecordsWritten     int64
	RecordsDropped     int64
	SegmentsClosed     int64
	SegmentsDiscarded  int64
	ResourcesPersisted int64
	ResourcesDeduped   int64
	UploadsSucceeded   int64
	UploadsFailed      int64
}

// Snapshot returns a consistent copy of the counters.
func (s *PipelineStats) Snapshot() StatsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StatsSnapshot{
		TicksFired:         s.ticksFired,
		TicksSkipped:       s.ticksSkipped,
		SnapshotsCaptured:  s.snapshotsCaptured,
		PlaceholderNodes:   s.placeholderNodes,
		RecordsWritten:     s.recordsWritten,
		RecordsDropped:     s.recordsDropped,
		SegmentsClosed:     s.segmentsClosed,
		SegmentsDiscarded:  s.segmentsDiscarded,
		ResourcesPersisted: s.resourcesPersisted,
		ResourcesDeduped:   s.resourcesDeduped,
		UploadsSucceeded:   s.uploadsSucceeded,
		UploadsFailed:      s.uploadsFailed,
	}
}
