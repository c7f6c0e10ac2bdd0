package value

// Table is the Lua table: a hybrid array/hash associative structure.
// Integer keys k with 1 <= k <= len(array)+1 at the time of the write
// live in the array part; everything else lives in the hash part. This
// mirrors LuaTable's arr/hash split in luatypes.py, generalized to grow
// the array part on demand instead of fixing its size up front.
type Table struct {
	array []Value
	hash  map[Value]Value

	// hashKeys is the hash part's keys in insertion order: appended the
	// first time a key is written, removed when the key is deleted
	// (Set to nil, or absorbed into the array by migrateFromHash).
	// Next/nextHash walk this slice instead of range-ing hash directly,
	// since Go deliberately randomizes map iteration order per range
	// and pairs/TFORLOOP need a stable walk across repeated next(t, k)
	// calls.
	hashKeys []Value
}

// NewTable creates an empty table, optionally pre-sizing its array and
// hash parts (arrSize/hashSize are hints from NEWTABLE's decoded
// operands; both may be zero).
func NewTable(arrSize, hashSize int) *Table {
	t := &Table{}
	if arrSize > 0 {
		t.array = make([]Value, 0, arrSize)
	}
	if hashSize > 0 {
		t.hash = make(map[Value]Value, hashSize)
		t.hashKeys = make([]Value, 0, hashSize)
	}
	return t
}

// arrayIndex returns the 0-based array-part slot for key, and whether
// key currently maps into the array part (as opposed to the hash part).
func (t *Table) arrayIndex(key Value) (int, bool) {
	if key.kind != KindNumber {
		return 0, false
	}
	n := key.number
	i := int64(n)
	if float64(i) != n || i < 1 {
		return 0, false
	}
	return int(i - 1), true
}

// Get implements GETTABLE's table-indexing semantics.
func (t *Table) Get(key Value) Value {
	if idx, ok := t.arrayIndex(key); ok && idx < len(t.array) {
		return t.array[idx]
	}
	if t.hash == nil {
		return Nil
	}
	v, ok := t.hash[key]
	if !ok {
		return Nil
	}
	return v
}

// Set implements SETTABLE's table-indexing semantics. Assigning nil to
// an existing key removes it from the hash part; the array part keeps a
// Nil hole in place (mirroring Lua's border-shifting table semantics,
// where removing from the middle of the array doesn't compact it).
func (t *Table) Set(key Value, val Value) {
	if idx, ok := t.arrayIndex(key); ok {
		switch {
		case idx < len(t.array):
			t.array[idx] = val
			return
		case idx == len(t.array):
			t.array = append(t.array, val)
			t.migrateFromHash()
			return
		}
	}
	if val.IsNil() {
		if t.hash != nil {
			if _, ok := t.hash[key]; ok {
				delete(t.hash, key)
				t.removeHashKey(key)
			}
		}
		return
	}
	if t.hash == nil {
		t.hash = make(map[Value]Value)
	}
	if _, exists := t.hash[key]; !exists {
		t.hashKeys = append(t.hashKeys, key)
	}
	t.hash[key] = val
}

// removeHashKey drops key from the insertion-order slice.
func (t *Table) removeHashKey(key Value) {
	for i, k := range t.hashKeys {
		if Equals(k, key) {
			t.hashKeys = append(t.hashKeys[:i], t.hashKeys[i+1:]...)
			return
		}
	}
}

// migrateFromHash pulls any hash entries that now continue the array
// part (because a prior Set just extended it) into the array, the way
// Lua's table rehash absorbs newly-contiguous integer keys.
func (t *Table) migrateFromHash() {
	if t.hash == nil {
		return
	}
	for {
		key := Number(float64(len(t.array) + 1))
		v, ok := t.hash[key]
		if !ok {
			return
		}
		delete(t.hash, key)
		t.removeHashKey(key)
		t.array = append(t.array, v)
	}
}

// Len implements the `#` operator. Any valid "border" is an acceptable
// answer per Lua 5.1's own underspecification; this returns len(array)
// in the common case where the last array slot is non-nil, and
// otherwise binary-searches the array part for a border, matching the
// reference implementation's luaH_getn.
func (t *Table) Len() int {
	n := len(t.array)
	if n == 0 || !t.array[n-1].IsNil() {
		return n
	}
	lo, hi := 0, n
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if t.array[mid-1].IsNil() {
			hi = mid
		} else {
			lo = mid
		}
	}
	return lo
}

// Next implements the `next` builtin's iteration order: array part
// first in index order, then hash part in insertion order. A zero
// Value key starts iteration. Returns ok=false once iteration is
// exhausted.
func (t *Table) Next(key Value) (k, v Value, ok bool) {
	startArray := 0
	if !key.IsNil() {
		if idx, isArr := t.arrayIndex(key); isArr && idx < len(t.array) {
			startArray = idx + 1
		} else {
			return t.nextHash(key)
		}
	}
	for i := startArray; i < len(t.array); i++ {
		if !t.array[i].IsNil() {
			return Number(float64(i + 1)), t.array[i], true
		}
	}
	return t.nextHash(Nil)
}

// nextHash returns the hash entry following after (Nil meaning "first"),
// walking the table's stable insertion-order key slice rather than
// re-ranging the map, so repeated next(t, k) calls driving pairs/
// TFORLOOP see every key exactly once regardless of Go's randomized
// map iteration order.
func (t *Table) nextHash(after Value) (Value, Value, bool) {
	if t.hash == nil {
		return Nil, Nil, false
	}
	start := 0
	if !after.IsNil() {
		found := -1
		for i, k := range t.hashKeys {
			if Equals(k, after) {
				found = i
				break
			}
		}
		if found < 0 {
			return Nil, Nil, false
		}
		start = found + 1
	}
	if start >= len(t.hashKeys) {
		return Nil, Nil, false
	}
	k := t.hashKeys[start]
	return k, t.hash[k], true
}
