package reactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryBackwardForward(t *testing.T) {
	obj := newObject(map[string]any{"v": 0}, NewOptions())
	h := NewHistory(obj, WithDebounce(0), WithManualTick(true))
	defer h.Destroy()

	require.NoError(t, obj.Set("v", 1))
	h.Flush()
	require.NoError(t, obj.Set("v", 2))
	h.Flush()

	assert.True(t, h.Backward())
	assert.Equal(t, 1, obj.Get("v"))

	assert.True(t, h.Backward())
	assert.Equal(t, 0, obj.Get("v"))
	assert.False(t, h.Backward())

	assert.True(t, h.Forward())
	assert.Equal(t, 1, obj.Get("v"))

	assert.True(t, h.Forward())
	assert.Equal(t, 2, obj.Get("v"))
}

func TestHistoryCoalescesWithinWindow(t *testing.T) {
	obj := newObject(map[string]any{"v": 0}, NewOptions())
	h := NewHistory(obj, WithManualTick(true))
	defer h.Destroy()

	require.NoError(t, obj.Set("v", 1))
	require.NoError(t, obj.Set("v", 2))
	require.NoError(t, obj.Set("v", 3))
	h.Flush()

	assert.Len(t, h.BackwardList(), 1, "same key-path writes in one window coalesce into one entry")

	assert.True(t, h.Backward())
	assert.Equal(t, 0, obj.Get("v"), "coalesced entry restores the pre-window value")
}

func TestHistoryResettable(t *testing.T) {
	obj := newObject(map[string]any{"v": 0}, NewOptions())
	h := NewHistory(obj, WithManualTick(true), WithResettable(true))
	defer h.Destroy()

	require.NoError(t, obj.Set("v", 5))
	h.Flush()

	h.Reset()
	assert.Equal(t, 0, obj.Get("v"))
	assert.False(t, h.CanBackward())
}

func TestHistoryArraySpliceUndo(t *testing.T) {
	arr := newArray([]any{1, 2, 3}, NewOptions())
	h := NewHistory(arr, WithManualTick(true))
	defer h.Destroy()

	_, err := arr.Splice(1, 1, "x", "y")
	require.NoError(t, err)
	h.Flush()

	assert.Equal(t, []any{1, "x", "y", 3}, arr.Items())
	assert.True(t, h.Backward())
	assert.Equal(t, []any{1, 2, 3}, arr.Items())
}

func TestHistoryDumpYAML(t *testing.T) {
	obj := newObject(map[string]any{"v": 0}, NewOptions())
	h := NewHistory(obj, WithManualTick(true))
	defer h.Destroy()

	require.NoError(t, obj.Set("v", 1))
	h.Flush()

	out, err := h.DumpYAML()
	require.NoError(t, err)
	assert.Contains(t, out, "value:")
	assert.Contains(t, out, "backward:")
	assert.Contains(t, out, "type: set")
}
