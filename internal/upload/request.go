// Package upload turns persisted segments and resources into intake requests
// and ships them on a background loop. All network transmission, batching,
// and retry live here; the recording pipeline only ever hands this package
// closed, immutable units through the catalog.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/replaykit/replaykit/internal/catalog"
)

// segmentMetadata is the intake-facing description of one uploaded segment.
type segmentMetadata struct {
	SegmentID     string `json:"segment_id"`
	ApplicationID string `json:"application_id"`
	SessionID     string `json:"session_id"`
	ViewID        string `json:"view_id"`
	RecordCount   int    `json:"record_count"`
	StartMs       int64  `json:"start"`
	EndMs         int64  `json:"end"`
	RawSize       int64  `json:"raw_size"`
	Privacy       string `json:"privacy"`
	Compression   string `json:"compression"`
}

// resourceMetadata is the intake-facing description of one uploaded resource.
type resourceMetadata struct {
	ResourceID    string `json:"resource_id"`
	ApplicationID string `json:"application_id,omitempty"`
	ContentType   string `json:"content_type"`
}

// RequestBuilder builds multipart intake requests. The endpoint is the
// configured default unless the host set a custom override.
type RequestBuilder struct {
	endpoint string
}

// NewRequestBuilder creates a builder targeting the given endpoint.
func NewRequestBuilder(endpoint string) *RequestBuilder {
	return &RequestBuilder{endpoint: endpoint}
}

// Endpoint returns the intake endpoint this builder targets.
func (b *RequestBuilder) Endpoint() string {
	return b.endpoint
}

// BuildSegment builds the upload request for one closed segment blob.
func (b *RequestBuilder) BuildSegment(ctx context.Context, e catalog.Entry, blob []byte) (*http.Request, error) {
	meta := segmentMetadata{
		SegmentID:     e.ID,
		ApplicationID: e.ApplicationID,
		SessionID:     e.SessionID,
		ViewID:        e.ViewID,
		RecordCount:   e.RecordCount,
		StartMs:       e.StartMs,
		EndMs:         e.EndMs,
		RawSize:       e.SizeBytes,
		Privacy:       e.Privacy,
		Compression:   "snappy",
	}
	return b.build(ctx, "segment", e.ID+".seg", blob, meta)
}

// BuildResource builds the upload request for one resource blob.
func (b *RequestBuilder) BuildResource(ctx context.Context, e catalog.Entry, blob []byte) (*http.Request, error) {
	meta := resourceMetadata{
		ResourceID:    e.ID,
		ApplicationID: e.ApplicationID,
		ContentType:   e.ContentType,
	}
	return b.build(ctx, "resource", e.ID, blob, meta)
}

// build assembles a two-part multipart/form-data request: the blob under the
// given field name and an "event" part carrying the JSON metadata.
func (b *RequestBuilder) build(ctx context.Context, field, filename string, blob []byte, meta interface{}) (*http.Request, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s part: %w", field, err)
	}
	if _, err := part.Write(blob); err != nil {
		return nil, fmt.Errorf("failed to write %s part: %w", field, err)
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := mw.WriteField("event", string(metaJSON)); err != nil {
		return nil, fmt.Errorf("failed to write metadata part: %w", err)
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req, nil
}
