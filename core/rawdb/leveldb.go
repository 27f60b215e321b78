package rawdb

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/syndtr/goleveldb/leveldb"
	lerrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/eth2030/preconf/log"
)

const (
	// minCache is the minimum amount of memory in megabytes to allocate to
	// leveldb read and write caching, split half and half.
	minCache = 16

	// minHandles is the minimum number of files handles to allocate to the
	// open database files.
	minHandles = 16
)

// LevelDB is a persistent key-value store backed by goleveldb.
type LevelDB struct {
	fn  string
	db  *leveldb.DB
	log *log.Logger
}

// NewLevelDB opens (or creates) a LevelDB database at file. A corrupted
// database is recovered in place before being returned.
func NewLevelDB(file string, cache, handles int) (*LevelDB, error) {
	if cache < minCache {
		cache = minCache
	}
	if handles < minHandles {
		handles = minHandles
	}
	logger := log.Default().Module("rawdb").With("path", file)
	logger.Info("Allocated cache and file handles", "cache_mb", cache, "handles", handles)

	options := &opt.Options{
		Filter:                 filter.NewBloomFilter(10),
		OpenFilesCacheCapacity: handles,
		BlockCacheCapacity:     cache / 2 * opt.MiB,
		WriteBuffer:            cache / 4 * opt.MiB,
	}
	db, err := leveldb.OpenFile(file, options)
	var corrupted *lerrors.ErrCorrupted
	if errors.As(err, &corrupted) {
		logger.Warn("Database corrupted, recovering", "err", err)
		db, err = leveldb.RecoverFile(file, nil)
	}
	if errors.Is(err, syscall.EWOULDBLOCK) || errors.Is(err, storage.ErrLocked) {
		return nil, fmt.Errorf("rawdb: open leveldb %s: %w: %w", file, ErrLocked, err)
	}
	if err != nil {
		return nil, fmt.Errorf("rawdb: open leveldb %s: %w", file, err)
	}
	return &LevelDB{fn: file, db: db, log: logger}, nil
}

// Path returns the directory the database lives in.
func (db *LevelDB) Path() string { return db.fn }

func (db *LevelDB) Has(key []byte) (bool, error) {
	return db.db.Has(key, nil)
}

func (db *LevelDB) Get(key []byte) ([]byte, error) {
	val, err := db.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (db *LevelDB) Put(key, value []byte) error {
	return db.db.Put(key, value, nil)
}

func (db *LevelDB) Delete(key []byte) error {
	return db.db.Delete(key, nil)
}

func (db *LevelDB) Close() error {
	if err := db.db.Close(); err != nil {
		db.log.Error("Failed to close database", "err", err)
		return err
	}
	db.log.Info("Database closed")
	return nil
}

// NewBatch returns a batch committed with a single leveldb write.
func (db *LevelDB) NewBatch() Batch {
	return &levelBatch{db: db.db, b: new(leveldb.Batch)}
}

// NewIterator iterates over the subset of keys carrying prefix.
func (db *LevelDB) NewIterator(prefix []byte) Iterator {
	return db.db.NewIterator(util.BytesPrefix(prefix), nil)
}

type levelBatch struct {
	db   *leveldb.DB
	b    *leveldb.Batch
	size int
}

func (b *levelBatch) Put(key, value []byte) error {
	b.b.Put(key, value)
	b.size += len(key) + len(value)
	return nil
}

func (b *levelBatch) Delete(key []byte) error {
	b.b.Delete(key)
	b.size += len(key)
	return nil
}

func (b *levelBatch) ValueSize() int { return b.size }

func (b *levelBatch) Write() error { return b.db.Write(b.b, nil) }

func (b *levelBatch) Reset() {
	b.b.Reset()
	b.size = 0
}

var _ Database = (*LevelDB)(nil)
