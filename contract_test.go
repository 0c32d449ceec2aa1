package reactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritableObjectAllowList(t *testing.T) {
	imm := newObject(map[string]any{"a": 1, "b": 2}, NewOptions(WithImmutable(true)))

	w, err := Writable(imm, "a")
	require.NoError(t, err)

	require.NoError(t, w.(*ObjectContract).Set("a", 10))
	assert.Equal(t, 10, imm.Get("a"))

	err = w.(*ObjectContract).Set("b", 20)
	assert.Error(t, err)
	assert.Equal(t, 2, imm.Get("b"))

	var violation *StateViolation
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, KindContractViolation, violation.Kind)
}

func TestWritableNoAllowListPermitsEverything(t *testing.T) {
	imm := newObject(map[string]any{"a": 1}, NewOptions(WithImmutable(true)))

	w, err := Writable(imm)
	require.NoError(t, err)

	require.NoError(t, w.(*ObjectContract).Set("a", 99))
	assert.Equal(t, 99, imm.Get("a"))
}

func TestWritableDict(t *testing.T) {
	imm := newDict(map[any]any{"a": 1}, NewOptions(WithImmutable(true)))

	w, err := Writable(imm, "clear")
	require.NoError(t, err)
	dc := w.(*DictContract)

	err = dc.Set("a", 2)
	assert.Error(t, err, "set is not in the allow-list")

	require.NoError(t, dc.Clear())
	assert.Equal(t, 0, imm.Len())
}
