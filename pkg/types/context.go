package types

// RUMContext is the immutable application/session/view identity captured at
// tick time and copied into each record header. A zero ViewID or SessionID
// means RUM has no active view and recording must withhold.
type RUMContext struct {
	ApplicationID string `json:"application_id"`
	SessionID     string `json:"session_id"`
	ViewID        string `json:"view_id"`
	Timestamp     int64  `json:"timestamp"` // unix milliseconds
}

// IsValid reports whether the context identifies an active session and view.
func (c RUMContext) IsValid() bool {
	return c.ApplicationID != "" && c.SessionID != "" && c.ViewID != ""
}
