// Package models defines the records persisted by the server stores.
package models

import "time"

// FileRecord is the metadata that governs access to one stored file.
// Filename doubles as the content-store key.
type FileRecord struct {
	Filename string `json:"filename"`
	// Password holds a bcrypt hash, or the plaintext for records carried
	// over from the original layout.
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"created_at"`
}
