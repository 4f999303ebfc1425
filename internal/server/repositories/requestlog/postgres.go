package requestlog

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophfiles/internal/dbx"
	"github.com/dmitrijs2005/gophfiles/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Append(ctx context.Context, entry *models.LogEntry) error {
	query := `
		INSERT INTO request_log (logged_at, method, url, request_id, remote_addr)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.Timestamp, entry.Method, entry.URL, entry.RequestID, entry.RemoteAddr)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
