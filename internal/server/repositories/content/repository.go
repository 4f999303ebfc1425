// Package content stores the raw bytes of each file, keyed by filename.
package content

import "context"

// Repository is the content store contract shared by all backends.
//
// Read and Delete return common.ErrNotFound for an unknown filename.
// Storage failures are wrapped with common.ErrIO.
type Repository interface {
	// Write creates or replaces the content of filename.
	Write(ctx context.Context, filename string, content []byte) error
	Read(ctx context.Context, filename string) ([]byte, error)
	Delete(ctx context.Context, filename string) error
	Exists(ctx context.Context, filename string) (bool, error)
	// List returns every stored filename exactly once, in no particular order.
	List(ctx context.Context) ([]string, error)
}
