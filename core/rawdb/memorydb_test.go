package rawdb

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestMemoryDB_GetMissing(t *testing.T) {
	db := NewMemoryDB()
	if _, err := db.Get([]byte("missing")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing: err = %v, want ErrNotFound", err)
	}
	if ok, _ := db.Has([]byte("missing")); ok {
		t.Fatal("Has reported a missing key")
	}
}

func TestMemoryDB_ValuesAreCopied(t *testing.T) {
	db := NewMemoryDB()
	val := []byte("value")
	db.Put([]byte("k"), val)
	val[0] = 'X'

	got, _ := db.Get([]byte("k"))
	if !bytes.Equal(got, []byte("value")) {
		t.Fatalf("stored value aliased caller buffer: %q", got)
	}
	got[0] = 'Y'
	again, _ := db.Get([]byte("k"))
	if !bytes.Equal(again, []byte("value")) {
		t.Fatalf("returned value aliased stored buffer: %q", again)
	}
}

func TestMemoryDB_Closed(t *testing.T) {
	db := NewMemoryDB()
	db.Close()
	if err := db.Put([]byte("k"), []byte("v")); err == nil {
		t.Fatal("Put on closed database succeeded")
	}
	b := db.NewBatch()
	b.Put([]byte("k"), []byte("v"))
	if err := b.Write(); err == nil {
		t.Fatal("batch Write on closed database succeeded")
	}
}

func TestMemoryDB_BatchNotVisibleUntilWrite(t *testing.T) {
	db := NewMemoryDB()
	db.Put([]byte("gone"), []byte("x"))

	b := db.NewBatch()
	b.Put([]byte("a"), []byte("1"))
	b.Put([]byte("b"), []byte("22"))
	b.Delete([]byte("gone"))
	if b.ValueSize() != len("a1")+len("b22")+len("gone") {
		t.Fatalf("ValueSize = %d", b.ValueSize())
	}
	if ok, _ := db.Has([]byte("a")); ok {
		t.Fatal("batch write visible before Write")
	}
	if err := b.Write(); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if ok, _ := db.Has([]byte("gone")); ok {
		t.Fatal("batched delete not applied")
	}
	if db.Len() != 2 {
		t.Fatalf("Len = %d, want 2", db.Len())
	}

	b.Reset()
	if b.ValueSize() != 0 {
		t.Fatal("Reset did not clear size")
	}
}

func TestMemoryDB_IteratorPrefixOrder(t *testing.T) {
	db := NewMemoryDB()
	for _, k := range []string{"p3", "q1", "p1", "p2"} {
		db.Put([]byte(k), []byte("v"+k))
	}
	it := db.NewIterator([]byte("p"))
	defer it.Release()

	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
		if want := "v" + string(it.Key()); string(it.Value()) != want {
			t.Fatalf("value for %s = %s", it.Key(), it.Value())
		}
	}
	if fmt.Sprint(keys) != "[p1 p2 p3]" {
		t.Fatalf("keys = %v", keys)
	}
	if it.Error() != nil {
		t.Fatal(it.Error())
	}
}

func TestMemoryDB_ConcurrentAccess(t *testing.T) {
	db := NewMemoryDB()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				key := []byte(fmt.Sprintf("k-%d-%d", i, j))
				db.Put(key, key)
				db.Get(key)
			}
		}(i)
	}
	wg.Wait()
	if db.Len() != 400 {
		t.Fatalf("Len = %d, want 400", db.Len())
	}
}

func TestTable_Isolation(t *testing.T) {
	db := NewMemoryDB()
	users := NewTable(db, UserRegistryNamespace)
	providers := NewTable(db, ProviderRegistryNamespace)

	users.Put([]byte("k"), []byte("user"))
	providers.Put([]byte("k"), []byte("provider"))

	got, _ := users.Get([]byte("k"))
	if string(got) != "user" {
		t.Fatalf("user table value = %q", got)
	}
	got, _ = providers.Get([]byte("k"))
	if string(got) != "provider" {
		t.Fatalf("provider table value = %q", got)
	}
	raw, _ := db.Get([]byte(UserRegistryNamespace + "k"))
	if string(raw) != "user" {
		t.Fatalf("raw key not prefixed, got %q", raw)
	}
}

func TestTable_BatchAndIterator(t *testing.T) {
	db := NewMemoryDB()
	tbl := NewTable(db, StoreNamespace)

	b := tbl.NewBatch()
	b.Put([]byte("x1"), []byte("a"))
	b.Put([]byte("x2"), []byte("b"))
	if db.Len() != 0 {
		t.Fatal("table batch leaked writes before Write")
	}
	if err := b.Write(); err != nil {
		t.Fatalf("Write: %v", err)
	}
	db.Put([]byte("x3"), []byte("outside"))

	it := tbl.NewIterator([]byte("x"))
	defer it.Release()
	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	if fmt.Sprint(keys) != "[x1 x2]" {
		t.Fatalf("keys = %v", keys)
	}
}

func TestTable_BatchFailsAtomically(t *testing.T) {
	db := NewMemoryDB()
	tbl := NewTable(db, StoreNamespace)
	b := tbl.NewBatch()
	b.Put([]byte("a"), []byte("1"))
	b.Put([]byte("b"), []byte("2"))

	db.Close()
	if err := b.Write(); err == nil {
		t.Fatal("Write on closed database succeeded")
	}
}
