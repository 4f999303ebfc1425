// Package metadata stores FileRecords: the password and creation time of
// every stored file, keyed by filename.
package metadata

import (
	"context"

	"github.com/dmitrijs2005/gophfiles/internal/server/models"
)

// Repository is the metadata store contract shared by all backends.
//
// Find and Remove return common.ErrNotFound for an unknown filename;
// Insert returns common.ErrAlreadyExists for a duplicate one. Insert and
// Remove are durable when they return.
type Repository interface {
	// List returns every record in insertion order.
	List(ctx context.Context) ([]*models.FileRecord, error)
	Find(ctx context.Context, filename string) (*models.FileRecord, error)
	Insert(ctx context.Context, record *models.FileRecord) error
	Remove(ctx context.Context, filename string) error
}
