package repository

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

var (
	bucketRealms    = []byte("realms")
	bucketUsers     = []byte("users")
	bucketUsernames = []byte("usernames")
	bucketSchemas   = []byte("schemas")
	bucketYears     = []byte("schema_years")
	bucketEvents    = []byte("events")
	bucketMatches   = []byte("matches")
	bucketReports   = []byte("reports")

	allBuckets = [][]byte{ //nolint:gochecknoglobals // bucket layout
		bucketRealms, bucketUsers, bucketUsernames, bucketSchemas,
		bucketYears, bucketEvents, bucketMatches, bucketReports,
	}
)

// keySep separates components of composite keys. Event, match and team key
// validation rules out NUL.
const keySep = 0x00

// BoltStore is a Store backed by a single bbolt file. Every mutation runs in
// one read-write transaction, which bbolt serializes, so upserts are atomic.
type BoltStore struct {
	db *bbolt.DB
}

var _ Store = (*BoltStore)(nil)

// NewBoltStore opens (creating if needed) the database at path.
func NewBoltStore(ctx context.Context, path string, opts ...Option) (*BoltStore, error) {
	const op = "repository.new_bolt_store"
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: o.openTimeout})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &BoltStore{db: db}, nil
}

// Close releases the database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) view(ctx context.Context, fn func(tx *bbolt.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(fn)
}

func (s *BoltStore) update(ctx context.Context, fn func(tx *bbolt.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(fn)
}

func idKey(id int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(id))
	return k
}

func compositeKey(parts ...string) []byte {
	var buf bytes.Buffer
	for _, p := range parts {
		buf.WriteString(p)
		buf.WriteByte(keySep)
	}
	return buf.Bytes()
}

func putJSON(b *bbolt.Bucket, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}

func getJSON[T any](b *bbolt.Bucket, key []byte) (T, error) {
	var out T
	v := b.Get(key)
	if v == nil {
		return out, ErrNotFound
	}
	if err := json.Unmarshal(v, &out); err != nil {
		return out, err
	}
	return out, nil
}

// listJSON decodes every value whose key starts with prefix, in key order.
func listJSON[T any](b *bbolt.Bucket, prefix []byte) ([]T, error) {
	out := []T{}
	c := b.Cursor()
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		var item T
		if err := json.Unmarshal(v, &item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// deletePrefix removes every key starting with prefix.
func deletePrefix(b *bbolt.Bucket, prefix []byte) error {
	var keys [][]byte
	c := b.Cursor()
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		keys = append(keys, append([]byte(nil), k...))
	}
	for _, k := range keys {
		if err := b.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

func nextID(b *bbolt.Bucket) (int64, error) {
	seq, err := b.NextSequence()
	if err != nil {
		return 0, err
	}
	return int64(seq), nil
}
