package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableArrayPart(t *testing.T) {
	tbl := NewTable(0, 0)
	tbl.Set(Number(1), String("a"))
	tbl.Set(Number(2), String("b"))
	tbl.Set(Number(3), String("c"))

	assert.Equal(t, "a", tbl.Get(Number(1)).AsString())
	assert.Equal(t, "b", tbl.Get(Number(2)).AsString())
	assert.Equal(t, "c", tbl.Get(Number(3)).AsString())
	assert.Equal(t, 3, tbl.Len())
}

func TestTableHashPart(t *testing.T) {
	tbl := NewTable(0, 0)
	tbl.Set(String("name"), String("lua"))
	assert.Equal(t, "lua", tbl.Get(String("name")).AsString())
	assert.True(t, tbl.Get(String("missing")).IsNil())
}

func TestTableOutOfOrderIntegerKeysStillArray(t *testing.T) {
	tbl := NewTable(0, 0)
	tbl.Set(Number(2), String("b"))
	tbl.Set(Number(1), String("a"))
	assert.Equal(t, "a", tbl.Get(Number(1)).AsString())
	assert.Equal(t, "b", tbl.Get(Number(2)).AsString())
}

func TestTableNonPositiveOrFractionalKeyGoesToHash(t *testing.T) {
	tbl := NewTable(0, 0)
	tbl.Set(Number(0), String("zero"))
	tbl.Set(Number(-1), String("neg"))
	tbl.Set(Number(1.5), String("frac"))
	assert.Equal(t, "zero", tbl.Get(Number(0)).AsString())
	assert.Equal(t, "neg", tbl.Get(Number(-1)).AsString())
	assert.Equal(t, "frac", tbl.Get(Number(1.5)).AsString())
	assert.Equal(t, 0, tbl.Len())
}

func TestTableSetNilDeletesHashEntry(t *testing.T) {
	tbl := NewTable(0, 0)
	tbl.Set(String("k"), String("v"))
	tbl.Set(String("k"), Nil)
	assert.True(t, tbl.Get(String("k")).IsNil())
}

func TestTableLenWithTrailingHole(t *testing.T) {
	tbl := NewTable(0, 0)
	tbl.Set(Number(1), String("a"))
	tbl.Set(Number(2), String("b"))
	tbl.Set(Number(3), String("c"))
	tbl.Set(Number(3), Nil)
	// t[3] is now nil, so the only border is 2: Len shrinks to the
	// preceding non-nil slot.
	n := tbl.Len()
	assert.Equal(t, 2, n)
}

func TestTableNextIteratesArrayThenHash(t *testing.T) {
	tbl := NewTable(0, 0)
	tbl.Set(Number(1), String("a"))
	tbl.Set(Number(2), String("b"))
	tbl.Set(String("x"), String("y"))

	seen := map[string]bool{}
	k, v, ok := tbl.Next(Nil)
	for ok {
		seen[k.ToString()+"="+v.ToString()] = true
		k, v, ok = tbl.Next(k)
	}
	assert.True(t, seen["1=a"])
	assert.True(t, seen["2=b"])
	assert.True(t, seen["x=y"])
	assert.Len(t, seen, 3)
}

// TestTableNextHashPartIsStableAcrossRepeatedCalls drives next(t, k)
// the way pairs/TFORLOOP do: each call starts fresh from the key the
// previous call returned. With several hash keys, re-ranging the
// underlying map on every call (rather than walking a stable
// insertion-order slice) would intermittently skip or revisit keys
// since Go randomizes map iteration order per range. Repeating the
// full walk many times catches that nondeterminism instead of passing
// by luck on a single run.
func TestTableNextHashPartIsStableAcrossRepeatedCalls(t *testing.T) {
	tbl := NewTable(0, 0)
	tbl.Set(String("a"), Number(1))
	tbl.Set(String("b"), Number(2))
	tbl.Set(String("c"), Number(3))
	tbl.Set(String("d"), Number(4))

	for attempt := 0; attempt < 50; attempt++ {
		seen := map[string]float64{}
		k, v, ok := tbl.Next(Nil)
		for ok {
			seen[k.AsString()] = v.AsNumber()
			k, v, ok = tbl.Next(k)
		}
		assert.Len(t, seen, 4, "attempt %d", attempt)
		assert.Equal(t, float64(1), seen["a"])
		assert.Equal(t, float64(2), seen["b"])
		assert.Equal(t, float64(3), seen["c"])
		assert.Equal(t, float64(4), seen["d"])
	}
}

// TestTableNextHashOrderMatchesInsertionOrder asserts the documented
// "arbitrary but stable ... via a side slice" order is specifically
// insertion order, not merely *some* stable order.
func TestTableNextHashOrderMatchesInsertionOrder(t *testing.T) {
	tbl := NewTable(0, 0)
	tbl.Set(String("first"), Number(1))
	tbl.Set(String("second"), Number(2))
	tbl.Set(String("third"), Number(3))

	var order []string
	k, _, ok := tbl.Next(Nil)
	for ok {
		order = append(order, k.AsString())
		k, _, ok = tbl.Next(k)
	}
	assert.Equal(t, []string{"first", "second", "third"}, order)
}
