package requestlog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/gophfiles/internal/common"
	"github.com/dmitrijs2005/gophfiles/internal/filex"
	"github.com/dmitrijs2005/gophfiles/internal/server/models"
)

// JSONRepository keeps the log as one JSON array in a file
// (server.log.json). Entries are spliced in front of the closing bracket,
// so an append costs one write regardless of the log size and the file is
// always a valid array between appends.
type JSONRepository struct {
	mu sync.Mutex
	f  *os.File
	// end is the offset just past the last entry (or past "[" when empty).
	end int64
	n   int
}

func NewJSONRepository(path string) (*JSONRepository, error) {
	if err := filex.EnsureFile(path, []byte("[]")); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open request log: %w", err)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read request log: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		data = []byte("[]")
		if _, err := f.WriteAt(data, 0); err != nil {
			f.Close()
			return nil, fmt.Errorf("seed request log: %w", err)
		}
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		f.Close()
		return nil, fmt.Errorf("decode request log %s: %w", path, err)
	}

	closing := bytes.LastIndexByte(data, ']')
	if closing < 0 {
		f.Close()
		return nil, fmt.Errorf("request log %s is not a JSON array", path)
	}
	end := len(bytes.TrimRight(data[:closing], " \t\r\n"))

	return &JSONRepository{f: f, end: int64(end), n: len(entries)}, nil
}

func (r *JSONRepository) Append(ctx context.Context, entry *models.LogEntry) error {
	b, err := json.MarshalIndent(entry, "  ", "  ")
	if err != nil {
		return fmt.Errorf("encode log entry: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var buf bytes.Buffer
	if r.n > 0 {
		buf.WriteByte(',')
	}
	buf.WriteString("\n  ")
	buf.Write(b)
	buf.WriteString("\n]")

	if _, err := r.f.WriteAt(buf.Bytes(), r.end); err != nil {
		return fmt.Errorf("%w: append request log: %w", common.ErrIO, err)
	}
	size := r.end + int64(buf.Len())
	if err := r.f.Truncate(size); err != nil {
		return fmt.Errorf("%w: truncate request log: %w", common.ErrIO, err)
	}
	if err := r.f.Sync(); err != nil {
		return fmt.Errorf("%w: sync request log: %w", common.ErrIO, err)
	}

	r.end = size - 2
	r.n++
	return nil
}

func (r *JSONRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.f.Close()
}
