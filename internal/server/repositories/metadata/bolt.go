package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/gophfiles/internal/common"
	"github.com/dmitrijs2005/gophfiles/internal/server/models"
	bolt "go.etcd.io/bbolt"
)

var filesBucket = []byte("files")

// boltRecord is the stored value; Seq preserves insertion order because
// bolt iterates keys in byte order.
type boltRecord struct {
	models.FileRecord
	Seq uint64 `json:"seq"`
}

// BoltRepository stores records in an embedded bbolt database, one key per
// filename. Every write is a committed bolt transaction.
type BoltRepository struct {
	db *bolt.DB
}

func NewBoltRepository(path string) (*BoltRepository, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(filesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &BoltRepository{db: db}, nil
}

func (r *BoltRepository) List(ctx context.Context) ([]*models.FileRecord, error) {
	var stored []boltRecord
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(filesBucket).ForEach(func(k, v []byte) error {
			var rec boltRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode %q: %w", k, err)
			}
			stored = append(stored, rec)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list metadata: %w", common.ErrIO, err)
	}

	sort.Slice(stored, func(i, j int) bool { return stored[i].Seq < stored[j].Seq })

	result := make([]*models.FileRecord, 0, len(stored))
	for i := range stored {
		result = append(result, &stored[i].FileRecord)
	}
	return result, nil
}

func (r *BoltRepository) Find(ctx context.Context, filename string) (*models.FileRecord, error) {
	var rec boltRecord
	err := r.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(filesBucket).Get([]byte(filename))
		if v == nil {
			return common.ErrNotFound
		}
		return json.Unmarshal(v, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec.FileRecord, nil
}

func (r *BoltRepository) Insert(ctx context.Context, record *models.FileRecord) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(filesBucket)
		key := []byte(record.Filename)
		if b.Get(key) != nil {
			return common.ErrAlreadyExists
		}

		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		v, err := json.Marshal(boltRecord{FileRecord: *record, Seq: seq})
		if err != nil {
			return err
		}
		return b.Put(key, v)
	})
}

func (r *BoltRepository) Remove(ctx context.Context, filename string) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(filesBucket)
		key := []byte(filename)
		if b.Get(key) == nil {
			return common.ErrNotFound
		}
		return b.Delete(key)
	})
}

// Close releases the database file lock.
func (r *BoltRepository) Close() error {
	return r.db.Close()
}
