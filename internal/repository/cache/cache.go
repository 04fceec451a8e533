package cache

import (
	"context"
	"crypto/sha512"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/samber/lo"
	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"

	"github.com/oshokin/excel-form-extractor/internal/logger"
)

const (
	// fileMode is the permission of the cache file.
	fileMode os.FileMode = 0o600
	// openTimeout bounds waiting for the file lock held by another process.
	openTimeout = time.Second
)

var bucketExtractions = []byte("extractions")

// ErrNotFound is returned when no usable entry exists for a key.
var ErrNotFound = errors.New("cache entry not found")

// Entry is a cached extraction.
type Entry struct {
	// Payload is the extraction encoded as JSON.
	Payload []byte `msgpack:"payload"`
	// StoredAt is when the entry was written.
	StoredAt time.Time `msgpack:"stored_at"`
	// Producer identifies the extractor build that computed the payload.
	Producer string `msgpack:"producer"`
}

// Repository stores and loads extraction results.
type Repository interface {
	Get(ctx context.Context, key []byte) (*Entry, error)
	Put(ctx context.Context, key, payload []byte) error
	Close() error
}

// BoltRepository is a Repository backed by a bbolt file.
type BoltRepository struct {
	db       *bbolt.DB
	producer string
	now      func() time.Time
}

// Key derives the cache key for a workbook and a set of company names.
// The order and duplicates of company names do not matter.
func Key(workbook []byte, companyNames []string) []byte {
	names := lo.Uniq(companyNames)
	slices.Sort(names)

	hasher := sha512.New()
	hasher.Write(workbook)

	for _, name := range names {
		hasher.Write([]byte{0})
		hasher.Write([]byte(name))
	}

	return hasher.Sum(nil)
}

// Open opens the cache file at path. Entries written by a different producer
// are treated as missing. An unreadable file is removed and recreated.
func Open(ctx context.Context, path, producer string) (*BoltRepository, error) {
	path = filepath.Clean(path)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	options := &bbolt.Options{Timeout: openTimeout}

	db, err := bbolt.Open(path, fileMode, options)
	if errors.Is(err, berrors.ErrInvalid) ||
		errors.Is(err, berrors.ErrChecksum) ||
		errors.Is(err, berrors.ErrVersionMismatch) {
		logger.WarnKV(ctx, "Removing invalid cache file", "path", path, "error", err)

		if err = os.Remove(path); err != nil {
			return nil, fmt.Errorf("remove invalid cache file: %w", err)
		}

		db, err = bbolt.Open(path, fileMode, options)
	}

	if err != nil {
		return nil, fmt.Errorf("open cache file: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketExtractions)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache bucket: %w", err)
	}

	return &BoltRepository{
		db:       db,
		producer: producer,
		now:      time.Now,
	}, nil
}

// Get returns the entry for key.
func (r *BoltRepository) Get(_ context.Context, key []byte) (*Entry, error) {
	var raw []byte

	err := r.db.View(func(tx *bbolt.Tx) error {
		if value := tx.Bucket(bucketExtractions).Get(key); value != nil {
			raw = slices.Clone(value)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if raw == nil {
		return nil, ErrNotFound
	}

	var entry Entry
	if err = msgpack.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("decode cache entry: %w", err)
	}

	if entry.Producer != r.producer {
		return nil, ErrNotFound
	}

	return &entry, nil
}

// Put stores payload under key.
func (r *BoltRepository) Put(_ context.Context, key, payload []byte) error {
	raw, err := msgpack.Marshal(&Entry{
		Payload:  payload,
		StoredAt: r.now().UTC(),
		Producer: r.producer,
	})
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	return r.db.Batch(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketExtractions).Put(key, raw)
	})
}

// Prune removes entries stored before cutoff or written by another producer.
func (r *BoltRepository) Prune(_ context.Context, cutoff time.Time) (int, error) {
	removed := 0

	err := r.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketExtractions)

		var stale [][]byte

		err := bucket.ForEach(func(key, value []byte) error {
			var entry Entry
			if err := msgpack.Unmarshal(value, &entry); err != nil ||
				entry.Producer != r.producer || entry.StoredAt.Before(cutoff) {
				stale = append(stale, slices.Clone(key))
			}

			return nil
		})
		if err != nil {
			return err
		}

		for _, key := range stale {
			if err = bucket.Delete(key); err != nil {
				return err
			}
		}

		removed = len(stale)

		return nil
	})

	return removed, err
}

// Close closes the cache file.
func (r *BoltRepository) Close() error {
	return r.db.Close()
}
