package writer

import (
	"context"
	"path"
	"strings"

	"github.com/replaykit/replaykit/internal/storage"
	"github.com/replaykit/replaykit/internal/telemetry"
	"github.com/replaykit/replaykit/pkg/types"
)

// Recover scans the spool for segment objects a previous run persisted but
// never registered for upload (crash between persist and register) and hands
// them back to the consumer. known reports whether a segment id is already
// tracked. Undecodable objects are deleted: they can never be uploaded.
func Recover(ctx context.Context, store storage.ObjectStorage, known func(id string) bool, consumer SegmentConsumer, log telemetry.Logger) {
	paths, err := store.ListObjects(ctx, "segments/")
	if err != nil {
		log.Warnf("segment recovery: failed to list spool: %v", err)
		return
	}

	recovered := 0
	for _, objectPath := range paths {
		seg, ok := recoverOne(ctx, store, objectPath, known, log)
		if !ok {
			continue
		}
		consumer.SegmentClosed(seg)
		recovered++
	}

	if recovered > 0 {
		log.Infof("segment recovery: re-registered %d orphaned segment(s)", recovered)
	}
}

func recoverOne(ctx context.Context, store storage.ObjectStorage, objectPath string, known func(id string) bool, log telemetry.Logger) (ClosedSegment, bool) {
	// Spool layout: segments/<view>/<segment id>.seg
	base := path.Base(objectPath)
	idStr := strings.TrimSuffix(base, ".seg")
	id, err := types.ParseSegmentID(idStr)
	if err != nil {
		return ClosedSegment{}, false
	}
	if known(idStr) {
		return ClosedSegment{}, false
	}

	data, err := store.Get(ctx, objectPath)
	if err != nil {
		log.Warnf("segment recovery: failed to read %s: %v", objectPath, err)
		return ClosedSegment{}, false
	}

	records, err := DecodeSegment(data)
	if err != nil {
		log.Warnf("segment recovery: discarding corrupt segment %s: %v", objectPath, err)
		_ = store.Delete(ctx, objectPath)
		return ClosedSegment{}, false
	}

	first, last := records[0], records[len(records)-1]
	return ClosedSegment{
		ID:              id,
		ApplicationID:   first.ApplicationID,
		SessionID:       first.SessionID,
		ViewID:          first.ViewID,
		ObjectPath:      objectPath,
		StartMs:         first.Timestamp,
		EndMs:           last.Timestamp,
		RecordCount:     len(records),
		CompressedBytes: int64(len(data)),
	}, true
}
