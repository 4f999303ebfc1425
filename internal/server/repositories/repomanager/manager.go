// Package repomanager opens the storage backends selected in the server
// config and owns their lifecycle.
package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/dmitrijs2005/gophfiles/internal/dirlock"
	"github.com/dmitrijs2005/gophfiles/internal/filex"
	"github.com/dmitrijs2005/gophfiles/internal/logging"
	"github.com/dmitrijs2005/gophfiles/internal/server/config"
	"github.com/dmitrijs2005/gophfiles/internal/server/repositories/content"
	"github.com/dmitrijs2005/gophfiles/internal/server/repositories/metadata"
	"github.com/dmitrijs2005/gophfiles/internal/server/repositories/requestlog"
)

// File names inside the data directory.
const (
	ContentDir     = "files"
	MetadataFile   = "createdFiles.json"
	MetadataBolt   = "metadata.db"
	RequestLogFile = "server.log.json"
)

// RepositoryManager vends the three stores used by the server.
type RepositoryManager interface {
	Metadata() metadata.Repository
	Content() content.Repository
	RequestLog() requestlog.Repository
	Close() error
}

var newS3Repository = func(ctx context.Context, opts content.S3Options) (content.Repository, error) {
	return content.NewS3Repository(ctx, opts)
}

// Manager is the RepositoryManager built from a config.Config.
type Manager struct {
	metadata   metadata.Repository
	content    content.Repository
	requestLog requestlog.Repository

	lock    *dirlock.Lock
	db      *sql.DB
	closers []io.Closer
	log     logging.Logger
}

// New prepares the data directory, locks it and opens every configured
// backend. On error everything opened so far is closed again.
func New(ctx context.Context, cfg *config.Config, log logging.Logger) (m *Manager, err error) {
	dir, err := filex.EnsureDir(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	lock, err := dirlock.Acquire(dir)
	if err != nil {
		return nil, fmt.Errorf("lock data dir %s: %w", dir, err)
	}

	m = &Manager{lock: lock, log: log}
	defer func() {
		if err != nil {
			m.Close() //nolint:errcheck
			m = nil
		}
	}()

	if m.metadata, err = m.openMetadata(ctx, cfg, dir); err != nil {
		return m, err
	}
	if m.content, err = m.openContent(ctx, cfg, dir); err != nil {
		return m, err
	}
	if m.requestLog, err = m.openRequestLog(ctx, cfg, dir); err != nil {
		return m, err
	}

	log.Info(ctx, "storage ready",
		"data_dir", dir,
		"metadata", cfg.MetadataBackend,
		"content", cfg.ContentBackend,
		"request_log", cfg.RequestLogBackend)
	return m, nil
}

func (m *Manager) openMetadata(ctx context.Context, cfg *config.Config, dir string) (metadata.Repository, error) {
	switch cfg.MetadataBackend {
	case config.BackendJSON, "":
		return metadata.NewJSONRepository(filepath.Join(dir, MetadataFile))
	case config.BackendBolt:
		r, err := metadata.NewBoltRepository(filepath.Join(dir, MetadataBolt))
		if err != nil {
			return nil, err
		}
		m.closers = append(m.closers, r)
		return r, nil
	case config.BackendPostgres:
		db, err := m.database(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		return metadata.NewPostgresRepository(db), nil
	}
	return nil, fmt.Errorf("unknown metadata backend %q", cfg.MetadataBackend)
}

func (m *Manager) openContent(ctx context.Context, cfg *config.Config, dir string) (content.Repository, error) {
	switch cfg.ContentBackend {
	case config.BackendLocal, "":
		return content.NewLocalRepository(filepath.Join(dir, ContentDir))
	case config.BackendS3:
		return newS3Repository(ctx, content.S3Options{
			RootUser:     cfg.S3RootUser,
			RootPassword: cfg.S3RootPassword,
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
			Prefix:       cfg.S3Prefix,
		})
	}
	return nil, fmt.Errorf("unknown content backend %q", cfg.ContentBackend)
}

func (m *Manager) openRequestLog(ctx context.Context, cfg *config.Config, dir string) (requestlog.Repository, error) {
	switch cfg.RequestLogBackend {
	case config.BackendJSON, "":
		r, err := requestlog.NewJSONRepository(filepath.Join(dir, RequestLogFile))
		if err != nil {
			return nil, err
		}
		m.closers = append(m.closers, r)
		return r, nil
	case config.BackendPostgres:
		db, err := m.database(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		return requestlog.NewPostgresRepository(db), nil
	}
	return nil, fmt.Errorf("unknown request log backend %q", cfg.RequestLogBackend)
}

// database opens and migrates the shared connection pool on first use.
func (m *Manager) database(ctx context.Context, dsn string) (*sql.DB, error) {
	if m.db != nil {
		return m.db, nil
	}
	db, err := openDB(dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	m.db = db
	return db, nil
}

func (m *Manager) Metadata() metadata.Repository     { return m.metadata }
func (m *Manager) Content() content.Repository       { return m.content }
func (m *Manager) RequestLog() requestlog.Repository { return m.requestLog }

// Close releases backends, the database pool and finally the directory lock.
func (m *Manager) Close() error {
	var errs []error
	for i := len(m.closers) - 1; i >= 0; i-- {
		errs = append(errs, m.closers[i].Close())
	}
	m.closers = nil
	if m.db != nil {
		errs = append(errs, m.db.Close())
		m.db = nil
	}
	errs = append(errs, m.lock.Release())
	return errors.Join(errs...)
}
