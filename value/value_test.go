package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruthy(t *testing.T) {
	assert.False(t, Nil.Truthy())
	assert.False(t, Bool(false).Truthy())
	assert.True(t, Bool(true).Truthy())
	assert.True(t, Number(0).Truthy())
	assert.True(t, String("").Truthy())
}

func TestToString(t *testing.T) {
	assert.Equal(t, "nil", Nil.ToString())
	assert.Equal(t, "true", Bool(true).ToString())
	assert.Equal(t, "false", Bool(false).ToString())
	assert.Equal(t, "3", Number(3).ToString())
	assert.Equal(t, "3.5", Number(3.5).ToString())
	assert.Equal(t, "hi", String("hi").ToString())
}

func TestToNumber(t *testing.T) {
	n, ok := String("42").ToNumber()
	require.True(t, ok)
	assert.Equal(t, 42.0, n.AsNumber())

	n, ok = String("  3.5  ").ToNumber()
	require.True(t, ok)
	assert.Equal(t, 3.5, n.AsNumber())

	_, ok = String("not a number").ToNumber()
	assert.False(t, ok)

	_, ok = Bool(true).ToNumber()
	assert.False(t, ok)

	n, ok = Number(7).ToNumber()
	require.True(t, ok)
	assert.Equal(t, 7.0, n.AsNumber())
}

func TestArithmeticHappyPath(t *testing.T) {
	r, err := Add(Number(2), Number(3))
	require.NoError(t, err)
	assert.Equal(t, 5.0, r.AsNumber())

	r, err = Sub(Number(5), Number(2))
	require.NoError(t, err)
	assert.Equal(t, 3.0, r.AsNumber())

	r, err = Mul(Number(4), Number(3))
	require.NoError(t, err)
	assert.Equal(t, 12.0, r.AsNumber())

	r, err = Div(Number(10), Number(4))
	require.NoError(t, err)
	assert.Equal(t, 2.5, r.AsNumber())

	r, err = Pow(Number(2), Number(10))
	require.NoError(t, err)
	assert.Equal(t, 1024.0, r.AsNumber())
}

func TestModFlooredDivision(t *testing.T) {
	r, err := Mod(Number(-5), Number(3))
	require.NoError(t, err)
	assert.Equal(t, 1.0, r.AsNumber())
}

func TestArithmeticOnNilRaises(t *testing.T) {
	_, err := Add(Nil, Number(1))
	require.Error(t, err)
	var typeErr *TypeError
	require.ErrorAs(t, err, &typeErr)
}

func TestArithmeticMismatchedKindsRaises(t *testing.T) {
	_, err := Add(Number(1), String("x"))
	require.Error(t, err)
}

func TestArithmeticOnBooleanRaises(t *testing.T) {
	_, err := Add(Bool(true), Bool(true))
	require.Error(t, err)
}

func TestUnm(t *testing.T) {
	r, err := Unm(Number(4))
	require.NoError(t, err)
	assert.Equal(t, -4.0, r.AsNumber())

	_, err = Unm(String("x"))
	require.Error(t, err)
}

func TestLen(t *testing.T) {
	r, err := Len(String("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5.0, r.AsNumber())

	_, err = Len(Number(3))
	require.Error(t, err)

	tbl := NewTable(0, 0)
	tbl.Set(Number(1), String("a"))
	tbl.Set(Number(2), String("b"))
	r, err = Len(FromTable(tbl))
	require.NoError(t, err)
	assert.Equal(t, 2.0, r.AsNumber())
}

func TestConcat(t *testing.T) {
	r, err := Concat(String("a"), String("b"))
	require.NoError(t, err)
	assert.Equal(t, "ab", r.AsString())

	r, err = Concat(String("n="), Number(3))
	require.NoError(t, err)
	assert.Equal(t, "n=3", r.AsString())

	_, err = Concat(String("a"), Bool(true))
	require.Error(t, err)
}

func TestEqualsAcrossKinds(t *testing.T) {
	assert.True(t, Equals(Number(1), Number(1)))
	assert.False(t, Equals(Number(1), String("1")))
	assert.True(t, Equals(Nil, Nil))
	assert.False(t, Equals(Nil, Bool(false)))

	t1 := NewTable(0, 0)
	assert.True(t, Equals(FromTable(t1), FromTable(t1)))
	assert.False(t, Equals(FromTable(t1), FromTable(NewTable(0, 0))))
}

func TestOrdering(t *testing.T) {
	lt, err := LessThan(Number(1), Number(2))
	require.NoError(t, err)
	assert.True(t, lt)

	lt, err = LessThan(String("a"), String("b"))
	require.NoError(t, err)
	assert.True(t, lt)

	_, err = LessThan(Number(1), String("a"))
	require.Error(t, err)
}
