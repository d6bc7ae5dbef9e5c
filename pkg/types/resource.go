package types

// Resource is a content-addressed binary blob (typically image bytes)
// referenced by identifier from node content. The identifier is the hex form
// of the content hash, so identical content always yields the same resource.
// Resources have a lifecycle independent of segments: persisted once,
// referenced many times.
type Resource struct {
	ID          string `json:"id"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}
