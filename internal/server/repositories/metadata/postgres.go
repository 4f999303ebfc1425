package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophfiles/internal/common"
	"github.com/dmitrijs2005/gophfiles/internal/dbx"
	"github.com/dmitrijs2005/gophfiles/internal/server/models"
)

// PostgresRepository implements the metadata store over a dbx.DBTX
// (*sql.DB or *sql.Tx). The schema lives in the migrations package.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.FileRecord, error) {
	query := `SELECT filename, password, created_at FROM file_records ORDER BY seq`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select file records: %w", err)
	}
	defer rows.Close()

	result := make([]*models.FileRecord, 0)
	for rows.Next() {
		var item models.FileRecord
		if err := rows.Scan(&item.Filename, &item.Password, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Find(ctx context.Context, filename string) (*models.FileRecord, error) {
	query := `SELECT filename, password, created_at FROM file_records WHERE filename = $1`

	rec := &models.FileRecord{}
	err := r.db.QueryRowContext(ctx, query, filename).Scan(&rec.Filename, &rec.Password, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, record *models.FileRecord) error {
	query := `
		INSERT INTO file_records (filename, password, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (filename) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query, record.Filename, record.Password, record.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrAlreadyExists
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *PostgresRepository) Remove(ctx context.Context, filename string) error {
	query := `DELETE FROM file_records WHERE filename = $1`
	res, err := r.db.ExecContext(ctx, query, filename)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
