package rawdb

import (
	"errors"
	"testing"
)

func TestLevelDB_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	db, err := NewLevelDB(dir, 0, 0)
	if err != nil {
		t.Fatalf("NewLevelDB: %v", err)
	}
	b := db.NewBatch()
	b.Put([]byte("a"), []byte("1"))
	b.Put([]byte("b"), []byte("2"))
	if err := b.Write(); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err = NewLevelDB(dir, 0, 0)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	got, err := db.Get([]byte("b"))
	if err != nil || string(got) != "2" {
		t.Fatalf("Get b = %q, %v", got, err)
	}
	if _, err := db.Get([]byte("c")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing: err = %v, want ErrNotFound", err)
	}
	if db.Path() != dir {
		t.Fatalf("Path = %s, want %s", db.Path(), dir)
	}
}

func TestLevelDB_IteratorPrefix(t *testing.T) {
	db, err := NewLevelDB(t.TempDir(), 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	for _, k := range []string{"b2", "a1", "b1", "c1"} {
		db.Put([]byte(k), []byte(k))
	}
	db.Delete([]byte("c1"))

	it := db.NewIterator([]byte("b"))
	defer it.Release()
	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	if len(keys) != 2 || keys[0] != "b1" || keys[1] != "b2" {
		t.Fatalf("keys = %v", keys)
	}
	if ok, _ := db.Has([]byte("c1")); ok {
		t.Fatal("deleted key still present")
	}
}

func TestLevelDB_LockedByOtherHandle(t *testing.T) {
	dir := t.TempDir()
	db, err := NewLevelDB(dir, 0, 0)
	if err != nil {
		t.Fatalf("NewLevelDB: %v", err)
	}
	defer db.Close()

	if _, err := NewLevelDB(dir, 0, 0); !errors.Is(err, ErrLocked) {
		t.Fatalf("second open: err = %v, want ErrLocked", err)
	}
}
