package scope_test

import (
	"testing"

	"github.com/flint-lang/flintc/pkg/scope"
	"github.com/stretchr/testify/require"
)

func TestArenaResolveWithoutShadowing(t *testing.T) {
	a := scope.NewArena()
	root := a.Push(0, false)
	a.Declare(root, "a", "i32")
	a.Declare(root, "b", "str")

	binding, ok := a.Resolve(root, "a")
	require.True(t, ok)
	require.Equal(t, "i32", binding.Type)

	binding, ok = a.Resolve(root, "b")
	require.True(t, ok)
	require.Equal(t, "str", binding.Type)

	_, ok = a.Resolve(root, "missing")
	require.False(t, ok, "expected 'missing' to not resolve")
}

func TestArenaResolveThroughParentChain(t *testing.T) {
	a := scope.NewArena()
	root := a.Push(0, false)
	a.Declare(root, "outer", "i32")

	child := a.Push(root, true)
	a.Declare(child, "inner", "bool")

	binding, ok := a.Resolve(child, "outer")
	require.True(t, ok, "expected child scope to resolve 'outer' through its parent")
	require.Equal(t, "i32", binding.Type)

	binding, ok = a.Resolve(child, "inner")
	require.True(t, ok)
	require.Equal(t, "bool", binding.Type)

	_, ok = a.Resolve(root, "inner")
	require.False(t, ok, "expected the parent scope to not see a child-declared variable")
}

func TestArenaShadowing(t *testing.T) {
	a := scope.NewArena()
	root := a.Push(0, false)
	a.Declare(root, "x", "i32")

	child := a.Push(root, true)
	a.Declare(child, "x", "str")

	binding, ok := a.Resolve(child, "x")
	require.True(t, ok)
	require.Equal(t, "str", binding.Type, "expected the child's declaration to shadow the parent's")

	binding, ok = a.Resolve(root, "x")
	require.True(t, ok)
	require.Equal(t, "i32", binding.Type, "expected the parent's own 'x' to be unaffected")
}

func TestArenaDeclaringScopeIDIsFixed(t *testing.T) {
	a := scope.NewArena()
	root := a.Push(0, false)
	child := a.Push(root, true)
	a.Declare(child, "y", "f64")

	binding, ok := a.Resolve(child, "y")
	require.True(t, ok)
	require.Equal(t, child, binding.DeclaringScopeID)
}

func TestArenaScopeIDsAreUniqueAndOrdered(t *testing.T) {
	a := scope.NewArena()
	first := a.Push(0, false)
	second := a.Push(first, true)
	third := a.Push(first, true)

	require.NotEqual(t, first, second)
	require.NotEqual(t, second, third)
	require.NotEqual(t, first, third)
	require.Less(t, first, second)
	require.Less(t, second, third)
	require.Equal(t, 3, a.Len())
}
