// Package storage provides database abstractions.
package storage

import "errors"

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("key not found")

// Writer is the write half of a DB. Batches implement it too, so code that
// stages mutations can target either.
type Writer interface {
	Put(key, value []byte) error
	Delete(key []byte) error
}

// Reader is the read half of a DB.
type Reader interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	// ForEach iterates over all keys with the given prefix in ascending
	// key order. The callback receives a copy of the key and value.
	// Return a non-nil error from fn to stop iteration early.
	ForEach(prefix []byte, fn func(key, value []byte) error) error
}

// DB is the interface for key-value storage.
type DB interface {
	Reader
	Writer
	Close() error
}

// Batch buffers writes and applies them together on Commit.
type Batch interface {
	Writer
	Commit() error
}

// Batcher is implemented by databases that can commit a batch atomically.
type Batcher interface {
	NewBatch() Batch
}

// NewBatch returns an atomic batch when db supports one, and a buffered
// best-effort batch otherwise.
func NewBatch(db DB) Batch {
	if b, ok := db.(Batcher); ok {
		return b.NewBatch()
	}
	return &fallbackBatch{db: db}
}

type batchOp struct {
	key   []byte
	value []byte // nil means delete
}

func newPut(key, value []byte) batchOp {
	k := make([]byte, len(key))
	copy(k, key)
	v := make([]byte, len(value))
	copy(v, value)
	return batchOp{key: k, value: v}
}

func newDelete(key []byte) batchOp {
	k := make([]byte, len(key))
	copy(k, key)
	return batchOp{key: k}
}

// fallbackBatch buffers writes and applies them non-atomically
// when the DB doesn't support batching.
type fallbackBatch struct {
	db  DB
	ops []batchOp
}

func (fb *fallbackBatch) Put(key, value []byte) error {
	fb.ops = append(fb.ops, newPut(key, value))
	return nil
}

func (fb *fallbackBatch) Delete(key []byte) error {
	fb.ops = append(fb.ops, newDelete(key))
	return nil
}

func (fb *fallbackBatch) Commit() error {
	for _, op := range fb.ops {
		if op.value == nil {
			if err := fb.db.Delete(op.key); err != nil {
				return err
			}
		} else {
			if err := fb.db.Put(op.key, op.value); err != nil {
				return err
			}
		}
	}
	fb.ops = nil
	return nil
}
