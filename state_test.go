package reactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapIdempotent(t *testing.T) {
	data := map[string]any{"a": 1}
	v1 := Wrap(data)
	v2 := Wrap(v1)

	assert.Same(t, v1, v2, "wrap(wrap(x)) must return the identical view")
}

func TestWrapDispatchesByShape(t *testing.T) {
	obj, ok := Wrap(map[string]any{"a": 1}).(*Object)
	assert.True(t, ok)
	assert.Equal(t, 1, obj.Get("a"))

	arr, ok := Wrap([]any{1, 2}).(*Array)
	assert.True(t, ok)
	assert.Equal(t, 2, arr.Len())
}

func TestWrapNonContainerIsInitViolation(t *testing.T) {
	out := Wrap(42)
	assert.Equal(t, 42, out, "a non-container value is returned unchanged")
}

func TestFlatDoesNotBoxChildren(t *testing.T) {
	out := Flat(map[string]any{"child": map[string]any{"n": 1}})
	obj := out.(*Object)

	_, isObject := obj.Get("child").(*Object)
	assert.False(t, isObject, "Flat must leave nested containers unboxed")
}

func TestImmutableRejectsWrites(t *testing.T) {
	out := Immutable(map[string]any{"a": 1})
	obj := out.(*Object)
	assert.Error(t, obj.Set("a", 2))
}
