package reactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotDeepCopy(t *testing.T) {
	obj := newObject(map[string]any{"a": 1, "child": map[string]any{"n": "x"}}, NewOptions())

	snap := Snapshot(obj).(map[string]any)
	assert.Equal(t, 1, snap["a"])

	child := snap["child"].(map[string]any)
	assert.Equal(t, "x", child["n"])

	require.NoError(t, obj.Get("child").(*Object).Set("n", "y"))
	assert.Equal(t, "x", child["n"], "snapshot must not alias the live container")
}

func TestSnapshotDoesNotTrack(t *testing.T) {
	obj := newObject(map[string]any{"a": 1}, NewOptions(WithObservable(true)))
	var notified int
	o := NewObserver(func(ChangeEvent) { notified++ })

	o.Run(func() { Snapshot(obj) })

	require.NoError(t, obj.Set("a", 2))
	assert.Equal(t, 0, notified, "Snapshot reads must not register a dependency")
}

func TestStringifyProducesJSON(t *testing.T) {
	obj := newObject(map[string]any{"a": 1}, NewOptions())

	s, err := Stringify(obj)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, s)
}
