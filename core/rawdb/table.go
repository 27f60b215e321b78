// table.go provides namespace-isolated tables by key prefixing, so the user
// and provider registries and the commitment store can share one physical
// database without key collisions.
package rawdb

// Registry and store namespaces.
const (
	UserRegistryNamespace     = "user/"
	ProviderRegistryNamespace = "provider/"
	StoreNamespace            = "store/"
)

// Table wraps a Database, prepending a fixed prefix to every key. Batches
// created from a Table are backed by a batch of the underlying database and
// keep its atomicity.
type Table struct {
	db     Database
	prefix []byte
}

// NewTable creates a new Table with the given prefix over the backing store.
func NewTable(db Database, prefix string) *Table {
	return &Table{
		db:     db,
		prefix: []byte(prefix),
	}
}

// prefixKey prepends the table prefix to the given key.
func (t *Table) prefixKey(key []byte) []byte {
	prefixed := make([]byte, len(t.prefix)+len(key))
	copy(prefixed, t.prefix)
	copy(prefixed[len(t.prefix):], key)
	return prefixed
}

func (t *Table) Has(key []byte) (bool, error) {
	return t.db.Has(t.prefixKey(key))
}

func (t *Table) Get(key []byte) ([]byte, error) {
	return t.db.Get(t.prefixKey(key))
}

func (t *Table) Put(key, value []byte) error {
	return t.db.Put(t.prefixKey(key), value)
}

func (t *Table) Delete(key []byte) error {
	return t.db.Delete(t.prefixKey(key))
}

// Close is a no-op for Table; the owner closes the underlying store.
func (t *Table) Close() error {
	return nil
}

// Prefix returns the prefix string used by this table.
func (t *Table) Prefix() string {
	return string(t.prefix)
}

// NewBatch creates a batch that prefixes keys and defers to a batch of the
// backing store.
func (t *Table) NewBatch() Batch {
	return &tableBatch{table: t, inner: t.db.NewBatch()}
}

// NewIterator returns an iterator over this table's namespace. Keys are
// returned with the table prefix stripped.
func (t *Table) NewIterator(prefix []byte) Iterator {
	return &tableIterator{
		inner:  t.db.NewIterator(t.prefixKey(prefix)),
		prefix: len(t.prefix),
	}
}

type tableBatch struct {
	table *Table
	inner Batch
}

func (b *tableBatch) Put(key, value []byte) error {
	return b.inner.Put(b.table.prefixKey(key), value)
}

func (b *tableBatch) Delete(key []byte) error {
	return b.inner.Delete(b.table.prefixKey(key))
}

func (b *tableBatch) ValueSize() int { return b.inner.ValueSize() }

func (b *tableBatch) Write() error { return b.inner.Write() }

func (b *tableBatch) Reset() { b.inner.Reset() }

type tableIterator struct {
	inner  Iterator
	prefix int
}

func (it *tableIterator) Next() bool { return it.inner.Next() }

func (it *tableIterator) Key() []byte {
	key := it.inner.Key()
	if len(key) < it.prefix {
		return nil
	}
	return key[it.prefix:]
}

func (it *tableIterator) Value() []byte { return it.inner.Value() }

func (it *tableIterator) Error() error { return it.inner.Error() }

func (it *tableIterator) Release() { it.inner.Release() }

var _ Database = (*Table)(nil)
