// Package hashtable implements the keyspace's chained hash table with
// progressive rehashing, so a resize never costs more than a bounded
// number of bucket-entry moves on any single operation.
package hashtable

import "hash/maphash"

// MaxLoadFactor is the primary table's size/bucket-count ratio that
// triggers a resize.
const MaxLoadFactor = 8

// MaxRehashWork bounds how many bucket entries a single mutating call
// migrates from the secondary table into the primary one.
const MaxRehashWork = 128

type entry struct {
	hash  uint64
	key   string
	value []byte
}

// innerTable is a plain chained hash table with a power-of-two bucket
// count.
type innerTable struct {
	buckets [][]entry
	mask    uint64
	size    int
}

func newInnerTable(bucketCount int) *innerTable {
	if bucketCount <= 0 || bucketCount&(bucketCount-1) != 0 {
		panic("hashtable: bucket count must be a power of two")
	}
	return &innerTable{
		buckets: make([][]entry, bucketCount),
		mask:    uint64(bucketCount - 1),
	}
}

func (t *innerTable) bucketFor(hash uint64) int {
	return int(hash & t.mask)
}

func (t *innerTable) get(hash uint64, key string) ([]byte, bool) {
	for _, e := range t.buckets[t.bucketFor(hash)] {
		if e.hash == hash && e.key == key {
			return e.value, true
		}
	}
	return nil, false
}

// set overwrites an existing entry's value or appends a new one. Returns
// true if a new entry was inserted (so the caller can track size).
func (t *innerTable) set(hash uint64, key string, value []byte) (inserted bool) {
	pos := t.bucketFor(hash)
	bucket := t.buckets[pos]

	for i := range bucket {
		if bucket[i].hash == hash && bucket[i].key == key {
			bucket[i].value = value
			return false
		}
	}

	t.buckets[pos] = append(bucket, entry{hash: hash, key: key, value: value})
	t.size++
	return true
}

func (t *innerTable) del(hash uint64, key string) bool {
	pos := t.bucketFor(hash)
	bucket := t.buckets[pos]

	for i := range bucket {
		if bucket[i].hash == hash && bucket[i].key == key {
			last := len(bucket) - 1
			bucket[i] = bucket[last]
			t.buckets[pos] = bucket[:last]
			t.size--
			return true
		}
	}
	return false
}

// Table is the incrementally-rehashing keyspace: a primary table that is
// always present, and an optional secondary table holding the entries not
// yet migrated out of a resize in progress.
//
// No key is ever present in both tables at once: a resize moves (not
// copies) the old primary into the secondary slot, so every subsequent
// Set lands only in the new, empty primary and drops any older copy of the
// key still left in the secondary; Del and migration both pop from the
// secondary as they find entries.
type Table struct {
	primary   *innerTable
	secondary *innerTable
	cursor    int
	seed      maphash.Seed

	resizes int // observational; surfaced through server stats
}

// New creates a table with the given initial bucket count, which must be
// a power of two.
func New(initialBuckets int) *Table {
	return &Table{
		primary: newInnerTable(initialBuckets),
		seed:    maphash.MakeSeed(),
	}
}

func (t *Table) hash(key string) uint64 {
	return maphash.String(t.seed, key)
}

// Get looks up key, checking the primary table first and falling back to
// the secondary (if a resize is in progress).
func (t *Table) Get(key string) ([]byte, bool) {
	h := t.hash(key)

	if v, ok := t.primary.get(h, key); ok {
		return v, true
	}
	if t.secondary != nil {
		return t.secondary.get(h, key)
	}
	return nil, false
}

// Set inserts or overwrites key in the primary table (removing any older
// copy from the secondary), starts a resize if the load factor threshold
// is exceeded, and performs one bounded migration quantum.
func (t *Table) Set(key string, value []byte) {
	h := t.hash(key)
	t.primary.set(h, key, value)
	if t.secondary != nil {
		t.secondary.del(h, key)
	}

	if t.primary.size/len(t.primary.buckets) > MaxLoadFactor {
		t.startResizing()
	}

	t.helpResizing()
}

// Del removes key from whichever table holds it. Returns whether a
// removal occurred.
func (t *Table) Del(key string) bool {
	h := t.hash(key)

	removed := t.primary.del(h, key)
	if !removed && t.secondary != nil {
		removed = t.secondary.del(h, key)
	}

	t.helpResizing()
	return removed
}

// Len returns the total number of distinct keys currently stored.
func (t *Table) Len() int {
	n := t.primary.size
	if t.secondary != nil {
		n += t.secondary.size
	}
	return n
}

// Resizing reports whether a rehash is currently in progress.
func (t *Table) Resizing() bool {
	return t.secondary != nil
}

// ResizeCount reports how many resizes have started over the table's
// lifetime, for introspection only.
func (t *Table) ResizeCount() int {
	return t.resizes
}

func (t *Table) startResizing() {
	newBucketCount := len(t.primary.buckets) * 2
	old := t.primary
	t.primary = newInnerTable(newBucketCount)
	t.secondary = old
	t.cursor = 0
	t.resizes++
}

// helpResizing migrates up to MaxRehashWork entries out of the secondary
// table, walking bucket by bucket from the cursor.
func (t *Table) helpResizing() {
	if t.secondary == nil {
		return
	}

	work := 0
	for t.cursor < len(t.secondary.buckets) {
		bucket := t.secondary.buckets[t.cursor]
		if len(bucket) == 0 {
			t.cursor++
			continue
		}

		for len(bucket) > 0 {
			last := len(bucket) - 1
			e := bucket[last]
			bucket = bucket[:last]

			t.primary.set(e.hash, e.key, e.value)
			t.secondary.size--
			work++

			if work >= MaxRehashWork {
				t.secondary.buckets[t.cursor] = bucket
				return
			}
		}

		t.secondary.buckets[t.cursor] = bucket
		t.cursor++
	}

	// Every bucket has been drained.
	t.secondary = nil
	t.cursor = 0
}
