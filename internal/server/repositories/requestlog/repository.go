// Package requestlog is the append-only audit trail of inbound requests.
package requestlog

import (
	"context"

	"github.com/dmitrijs2005/gophfiles/internal/server/models"
)

type Repository interface {
	// Append durably records entry.
	Append(ctx context.Context, entry *models.LogEntry) error
}
