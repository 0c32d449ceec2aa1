package reactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeFiresInitThenMutations(t *testing.T) {
	obj := newObject(map[string]any{"count": 0}, NewOptions())

	var events []ChangeEvent
	unsubscribe := Subscribe(obj, func(_ View, ev ChangeEvent) { events = append(events, ev) })
	defer unsubscribe()

	require.NoError(t, obj.Set("count", 1))
	require.NoError(t, obj.Set("count", 1))

	require.Len(t, events, 2)
	assert.Equal(t, OpInit, events[0].Type)
	assert.Equal(t, OpSet, events[1].Type)
}

func TestUnsubscribeDetaches(t *testing.T) {
	obj := newObject(map[string]any{"count": 0}, NewOptions())

	var calls int
	unsubscribe := Subscribe(obj, func(_ View, ev ChangeEvent) { calls++ })
	unsubscribe()

	require.NoError(t, obj.Set("count", 1))
	assert.Equal(t, 1, calls, "only the initial synchronous call should have happened")
}

func TestPipeObjectForwardsSnapshotOnChangeAndInit(t *testing.T) {
	source := newObject(map[string]any{"count": 1}, NewOptions())
	target := newObject(map[string]any{}, NewOptions())

	unsubscribe, err := Pipe(source, target)
	require.NoError(t, err)
	defer unsubscribe()

	assert.Equal(t, 1, target.Get("count"), "Pipe should write an initial snapshot immediately")

	require.NoError(t, source.Set("count", 2))
	assert.Equal(t, 2, target.Get("count"))
}

func TestPipeAppliesTransformInOrder(t *testing.T) {
	source := newObject(map[string]any{"n": 1}, NewOptions())
	target := newObject(map[string]any{}, NewOptions())

	double := func(v any) any {
		m := v.(map[string]any)
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[k] = val
		}
		out["n"] = out["n"].(int) * 2
		return out
	}

	unsubscribe, err := Pipe(source, target, double)
	require.NoError(t, err)
	defer unsubscribe()

	assert.Equal(t, 2, target.Get("n"))

	require.NoError(t, source.Set("n", 5))
	assert.Equal(t, 10, target.Get("n"))
}

func TestPipeArrayReplacesTargetContents(t *testing.T) {
	source := newArray([]any{1, 2, 3}, NewOptions())
	target := newArray([]any{}, NewOptions())

	unsubscribe, err := Pipe(source, target)
	require.NoError(t, err)
	defer unsubscribe()

	assert.Equal(t, []any{1, 2, 3}, target.Items())

	_, err = source.Push(4)
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2, 3, 4}, target.Items())
}

// fakeView satisfies View without being one of the four recognized
// container kinds, for exercising Pipe's operand-kind validation.
type fakeView struct{}

func (fakeView) Raw() any            { return nil }
func (fakeView) metadata() *Metadata { return newMetadata(KindRecord, NewOptions()) }

func TestPipeRejectsNonContainerOperands(t *testing.T) {
	target := newObject(map[string]any{}, NewOptions())

	_, err := Pipe(fakeView{}, target)
	require.Error(t, err, "a non-container source should be rejected before subscribing")

	source := newObject(map[string]any{}, NewOptions())
	_, err = Pipe(source, fakeView{})
	require.Error(t, err, "a non-container target should be rejected before subscribing")
}

func TestPipeUnsubscribeStopsForwarding(t *testing.T) {
	source := newObject(map[string]any{"count": 1}, NewOptions())
	target := newObject(map[string]any{}, NewOptions())

	unsubscribe, err := Pipe(source, target)
	require.NoError(t, err)
	unsubscribe()

	require.NoError(t, source.Set("count", 99))
	assert.Equal(t, 1, target.Get("count"), "target should not update after unsubscribe")
}

func TestEffectRerunsOnTrackedChange(t *testing.T) {
	obj := newObject(map[string]any{"a": 1, "b": 2}, NewOptions(WithObservable(true)))

	var runs int
	var lastA any
	stop := Effect(func() func() {
		runs++
		lastA = obj.Get("a")
		return nil
	})
	defer stop()

	require.NoError(t, obj.Set("b", 20))
	assert.Equal(t, 1, runs, "mutating an untracked key should not re-run the effect")

	require.NoError(t, obj.Set("a", 10))
	assert.Equal(t, 2, runs)
	assert.Equal(t, 10, lastA)
}
