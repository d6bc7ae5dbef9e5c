package upload

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/replaykit/replaykit/internal/catalog"
	replayerr "github.com/replaykit/replaykit/internal/errors"
	"github.com/replaykit/replaykit/internal/storage"
	"github.com/replaykit/replaykit/internal/telemetry"
)

// Uploader drains the catalog on an interval: pending blobs are read back
// from storage, wrapped into intake requests, and shipped. Per-entry failures
// are isolated; a failed entry stays pending and is retried on the next pass.
type Uploader struct {
	catalog   *catalog.Catalog
	store     storage.ObjectStorage
	builder   *RequestBuilder
	client    *http.Client
	interval  time.Duration
	batchSize int
	log       telemetry.Logger
	stats     *telemetry.PipelineStats
}

// NewUploader creates an uploader. client may be nil, in which case a default
// client with a request timeout is used.
func NewUploader(cat *catalog.Catalog, store storage.ObjectStorage, builder *RequestBuilder, client *http.Client, interval time.Duration, batchSize int, log telemetry.Logger, stats *telemetry.PipelineStats) *Uploader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 20
	}
	return &Uploader{
		catalog:   cat,
		store:     store,
		builder:   builder,
		client:    client,
		interval:  interval,
		batchSize: batchSize,
		log:       log,
		stats:     stats,
	}
}

// Run starts the upload loop and blocks until ctx is cancelled. On shutdown
// it makes one final drain pass so already-closed segments get their chance
// to ship.
func (u *Uploader) Run(ctx context.Context) {
	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.Background(), u.interval)
			u.flushOnce(drainCtx)
			cancel()
			return
		case <-ticker.C:
			u.flushOnce(ctx)
		}
	}
}

// flushOnce ships one batch of pending segments and resources.
func (u *Uploader) flushOnce(ctx context.Context) {
	for _, kind := range []catalog.Kind{catalog.KindSegment, catalog.KindResource} {
		entries, err := u.catalog.Pending(ctx, kind, u.batchSize)
		if err != nil {
			u.log.Errorf("uploader: failed to read pending %ss: %v", kind, err)
			continue
		}
		for _, e := range entries {
			if err := u.uploadOne(ctx, e); err != nil {
				u.log.Warnf("uploader: %s %s failed: %v", e.Kind, e.ID, err)
				u.stats.UploadFailed()
				if !replayerr.IsRetryable(err) {
					// A deterministic failure never ships; drop the entry
					// instead of retrying it on every pass.
					if err := u.catalog.MarkUploaded(ctx, e.ID); err != nil {
						u.log.Errorf("uploader: failed to drop %s: %v", e.ID, err)
					}
				}
				continue
			}
			u.stats.UploadSucceeded()
		}
	}
}

// uploadOne ships a single entry and marks it uploaded on success.
func (u *Uploader) uploadOne(ctx context.Context, e catalog.Entry) error {
	blob, err := u.store.Get(ctx, e.ObjectPath)
	if err != nil {
		if err == storage.ErrObjectNotFound {
			// The blob is gone; drop the catalog entry rather than retrying
			// forever.
			u.log.Warnf("uploader: blob for %s missing, dropping entry", e.ID)
			return u.catalog.MarkUploaded(ctx, e.ID)
		}
		return replayerr.NewUploadError(replayerr.CodeUploadFailed, "failed to read blob", err)
	}

	var req *http.Request
	switch e.Kind {
	case catalog.KindResource:
		req, err = u.builder.BuildResource(ctx, e, blob)
	default:
		req, err = u.builder.BuildSegment(ctx, e, blob)
	}
	if err != nil {
		return replayerr.NewUploadError(replayerr.CodeRequestBuildFailed, "failed to build request", err)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return replayerr.NewUploadError(replayerr.CodeUploadFailed, "request failed", err)
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return replayerr.New(replayerr.ErrCategoryUpload, statusCode(resp.StatusCode),
			fmt.Sprintf("intake returned %s", resp.Status))
	}

	return u.catalog.MarkUploaded(ctx, e.ID)
}

// statusCode classifies an intake response. A client error is a verdict on
// the payload and will not change on retry; 408 and 429 are transient.
func statusCode(status int) string {
	if status >= 400 && status < 500 && status != http.StatusRequestTimeout && status != http.StatusTooManyRequests {
		return replayerr.CodeUploadRejected
	}
	return replayerr.CodeUploadFailed
}
