package host

import (
	"testing"

	"github.com/lua51vm/lua51vm/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvironmentGetSet(t *testing.T) {
	env := NewEnvironment()
	assert.True(t, env.Get("x").IsNil())

	env.Set("x", value.Number(42))
	assert.Equal(t, 42.0, env.Get("x").AsNumber())
}

func TestRegisterAndCall(t *testing.T) {
	env := NewEnvironment()
	env.Register("double", func(args []value.Value) ([]value.Value, error) {
		return []value.Value{value.Number(args[0].AsNumber() * 2)}, nil
	})

	fn := env.Get("double")
	require.True(t, fn.IsCallable())
	res, err := fn.AsHostFunc().Call([]value.Value{value.Number(21)})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, 42.0, res[0].AsNumber())
}

func TestArgError(t *testing.T) {
	err := NewArgError("double", 1, "number expected, got string")
	assert.Equal(t, "bad argument #1 to 'double' (number expected, got string)", err.Error())
}

func TestHostFuncIdentityComparable(t *testing.T) {
	f1 := NewFunc("f", func(args []value.Value) ([]value.Value, error) { return nil, nil })
	f2 := NewFunc("f", func(args []value.Value) ([]value.Value, error) { return nil, nil })
	assert.True(t, value.Equals(f1.Value(), f1.Value()))
	assert.False(t, value.Equals(f1.Value(), f2.Value()))
}
