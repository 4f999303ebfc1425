package models

import "time"

// LogEntry is one line of the request log. It is written before the
// request is handled, so it carries no outcome.
type LogEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	Method     string    `json:"method"`
	URL        string    `json:"url"`
	RequestID  string    `json:"request_id,omitempty"`
	RemoteAddr string    `json:"remote_addr,omitempty"`
}
