package reactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserverTracksOnlyReadKeys(t *testing.T) {
	obj := newObject(map[string]any{"a": 1, "b": 2}, NewOptions(WithObservable(true)))

	var notified int
	var lastEvent ChangeEvent
	o := NewObserver(func(ev ChangeEvent) {
		notified++
		lastEvent = ev
	})

	o.Run(func() { obj.Get("a") })

	require.NoError(t, obj.Set("b", 20))
	assert.Equal(t, 0, notified, "mutating an untracked key must not notify")

	require.NoError(t, obj.Set("a", 10))
	assert.Equal(t, 1, notified)
	assert.Equal(t, OpSet, lastEvent.Type)
	assert.Equal(t, []Key{"a"}, lastEvent.Keys)
}

func TestCircularMutationPanics(t *testing.T) {
	obj := newObject(map[string]any{"a": 1}, NewOptions(WithObservable(true)))
	o := NewObserver(nil)

	assert.Panics(t, func() {
		o.Run(func() {
			obj.Get("a")
			_ = obj.Set("a", 2)
		})
	})
}

func TestObserverDestroyDetaches(t *testing.T) {
	obj := newObject(map[string]any{"a": 1}, NewOptions(WithObservable(true)))
	var notified int
	o := NewObserver(func(ChangeEvent) { notified++ })

	o.Run(func() { obj.Get("a") })
	o.Destroy()

	require.NoError(t, obj.Set("a", 2))
	assert.Equal(t, 0, notified, "a destroyed observer must not be notified")
}

func TestUntrackSuppressesTracking(t *testing.T) {
	obj := newObject(map[string]any{"a": 1}, NewOptions(WithObservable(true)))
	var notified int
	o := NewObserver(func(ChangeEvent) { notified++ })

	o.Run(func() {
		Untrack(func() any { return obj.Get("a") })
	})

	require.NoError(t, obj.Set("a", 2))
	assert.Equal(t, 0, notified, "reads inside Untrack must not be recorded")
}
