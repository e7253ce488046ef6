package storage

// PrefixDB is a view of a DB restricted to keys under a fixed prefix.
// Collections, mocks and the ledger each get one over the shared root.
type PrefixDB struct {
	inner  DB
	prefix []byte
}

// NewPrefixDB returns the view of inner under prefix.
func NewPrefixDB(inner DB, prefix []byte) *PrefixDB {
	return &PrefixDB{inner: inner, prefix: join(nil, prefix)}
}

// join returns a fresh slice holding prefix followed by key.
func join(prefix, key []byte) []byte {
	out := make([]byte, len(prefix)+len(key))
	copy(out, prefix)
	copy(out[len(prefix):], key)
	return out
}

func (p *PrefixDB) Get(key []byte) ([]byte, error) {
	return p.inner.Get(join(p.prefix, key))
}

func (p *PrefixDB) Put(key, value []byte) error {
	return p.inner.Put(join(p.prefix, key), value)
}

func (p *PrefixDB) Delete(key []byte) error {
	return p.inner.Delete(join(p.prefix, key))
}

func (p *PrefixDB) Has(key []byte) (bool, error) {
	return p.inner.Has(join(p.prefix, key))
}

// ForEach iterates keys under prefix inside the namespace. fn sees keys
// with the namespace stripped.
func (p *PrefixDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	n := len(p.prefix)
	return p.inner.ForEach(join(p.prefix, prefix), func(key, value []byte) error {
		return fn(key[n:], value)
	})
}

// Close is a no-op; the root DB owns the lifecycle.
func (p *PrefixDB) Close() error {
	return nil
}

// NewBatch returns a batch over the root's batch when it has one, so a
// commit stays atomic across namespaces.
func (p *PrefixDB) NewBatch() Batch {
	batcher, ok := p.inner.(Batcher)
	if !ok {
		return &fallbackBatch{db: p}
	}
	return &prefixBatch{root: p.inner, inner: batcher.NewBatch(), prefix: p.prefix}
}

// Within returns a writer that stages into the same commit as w but under
// the namespace of db. ok is false unless w is a batch of a PrefixDB that
// shares db's root.
func Within(w Writer, db DB) (Writer, bool) {
	pb, ok := w.(*prefixBatch)
	if !ok {
		return nil, false
	}
	pdb, ok := db.(*PrefixDB)
	if !ok || pdb.inner != pb.root {
		return nil, false
	}
	return &prefixBatch{root: pb.root, inner: pb.inner, prefix: pdb.prefix}, true
}

type prefixBatch struct {
	root   DB
	inner  Batch
	prefix []byte
}

func (pb *prefixBatch) Put(key, value []byte) error {
	return pb.inner.Put(join(pb.prefix, key), value)
}

func (pb *prefixBatch) Delete(key []byte) error {
	return pb.inner.Delete(join(pb.prefix, key))
}

func (pb *prefixBatch) Commit() error {
	return pb.inner.Commit()
}
