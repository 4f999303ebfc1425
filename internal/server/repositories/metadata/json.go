package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/dmitrijs2005/gophfiles/internal/common"
	"github.com/dmitrijs2005/gophfiles/internal/filex"
	"github.com/dmitrijs2005/gophfiles/internal/server/models"
)

// JSONRepository keeps all records in one JSON array on disk, the layout
// of createdFiles.json. The array is cached in memory and the whole file is
// rewritten atomically on every change.
type JSONRepository struct {
	mu      sync.RWMutex
	path    string
	records []*models.FileRecord
}

// NewJSONRepository opens the metadata file at path, creating it as an
// empty array if it does not exist.
func NewJSONRepository(path string) (*JSONRepository, error) {
	if err := filex.EnsureFile(path, []byte("[]")); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	records := make([]*models.FileRecord, 0)
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("decode metadata %s: %w", path, err)
		}
	}

	return &JSONRepository{path: path, records: records}, nil
}

func (r *JSONRepository) List(ctx context.Context) ([]*models.FileRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.FileRecord, 0, len(r.records))
	for _, rec := range r.records {
		c := *rec
		result = append(result, &c)
	}
	return result, nil
}

func (r *JSONRepository) Find(ctx context.Context, filename string) (*models.FileRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexOf(filename); i >= 0 {
		c := *r.records[i]
		return &c, nil
	}
	return nil, common.ErrNotFound
}

func (r *JSONRepository) Insert(ctx context.Context, record *models.FileRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(record.Filename) >= 0 {
		return common.ErrAlreadyExists
	}

	c := *record
	next := make([]*models.FileRecord, len(r.records), len(r.records)+1)
	copy(next, r.records)
	next = append(next, &c)

	if err := r.persist(next); err != nil {
		return err
	}
	r.records = next
	return nil
}

func (r *JSONRepository) Remove(ctx context.Context, filename string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(filename)
	if i < 0 {
		return common.ErrNotFound
	}

	next := make([]*models.FileRecord, 0, len(r.records)-1)
	next = append(next, r.records[:i]...)
	next = append(next, r.records[i+1:]...)

	if err := r.persist(next); err != nil {
		return err
	}
	r.records = next
	return nil
}

func (r *JSONRepository) indexOf(filename string) int {
	for i, rec := range r.records {
		if rec.Filename == filename {
			return i
		}
	}
	return -1
}

func (r *JSONRepository) persist(records []*models.FileRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := filex.WriteFileAtomic(r.path, data, 0o640); err != nil {
		return fmt.Errorf("%w: persist metadata: %w", common.ErrIO, err)
	}
	return nil
}
