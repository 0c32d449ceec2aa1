package reactor

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// HistoryOptions configures a History engine.
type HistoryOptions struct {
	MaxHistory int
	DebounceMs int
	Resettable bool
	// Manual disables the internal time.AfterFunc timer; the caller drives
	// coalescing explicitly via Tick, an escape hatch for platforms with no
	// reliable timer.
	Manual bool
}

func defaultHistoryOptions() HistoryOptions {
	return HistoryOptions{MaxHistory: 100, DebounceMs: 100}
}

// historyEntry is one coalesced batch of events, pushed as a single unit
// onto backward/forward so one undo call reverses one debounce window's
// worth of mutation, not one event.
type historyEntry struct {
	events []ChangeEvent
}

// History is a debounced, bounded undo/redo log over a view's change
// stream. It is itself not a View: it observes one and exposes
// backward/forward/reset/clear/destroy plus the can* queries and list
// accessors the control object names.
type History struct {
	mu sync.Mutex

	view    View
	opts    HistoryOptions
	initial any

	backward []historyEntry
	forward  []historyEntry
	pending  []ChangeEvent
	busy     bool

	timer       *time.Timer
	unsubscribe func()
	destroyed   bool
}

// NewHistory attaches a History to view, taking an initial snapshot for a
// later Reset and subscribing at the root to buffer incoming events.
func NewHistory(view View, opts ...func(*HistoryOptions)) *History {
	o := defaultHistoryOptions()
	for _, apply := range opts {
		apply(&o)
	}
	h := &History{view: view, opts: o, initial: Snapshot(view)}
	h.unsubscribe = Subscribe(view, h.onEvent)
	return h
}

func WithMaxHistory(n int) func(*HistoryOptions) {
	return func(o *HistoryOptions) { o.MaxHistory = n }
}
func WithDebounce(ms int) func(*HistoryOptions) {
	return func(o *HistoryOptions) { o.DebounceMs = ms }
}
func WithResettable(v bool) func(*HistoryOptions) {
	return func(o *HistoryOptions) { o.Resettable = v }
}
func WithManualTick(v bool) func(*HistoryOptions) {
	return func(o *HistoryOptions) { o.Manual = v }
}

func (h *History) onEvent(_ View, ev ChangeEvent) {
	if ev.Type == OpInit {
		return
	}
	h.mu.Lock()
	if h.busy || h.destroyed {
		h.mu.Unlock()
		return
	}
	h.pending = append(h.pending, ev)
	manual := h.opts.Manual
	debounce := h.opts.DebounceMs
	h.mu.Unlock()

	if manual {
		return
	}
	h.scheduleFlush(debounce)
}

func (h *History) scheduleFlush(debounceMs int) {
	h.mu.Lock()
	if h.timer != nil {
		h.timer.Stop()
	}
	h.timer = time.AfterFunc(time.Duration(debounceMs)*time.Millisecond, h.flush)
	h.mu.Unlock()
}

// Tick drives coalescing explicitly instead of relying on time.AfterFunc,
// for a host loop that schedules its own ticks. It flushes whatever is
// buffered, exactly as Flush does; now is not consulted, so DebounceMs is
// not applied to Tick.
func (h *History) Tick(now time.Time) {
	h.Flush()
}

// Flush coalesces whatever is currently buffered into one history entry,
// pushes it onto backward, and clears forward.
func (h *History) Flush() {
	h.mu.Lock()
	if len(h.pending) == 0 {
		h.mu.Unlock()
		return
	}
	pending := h.pending
	h.pending = nil
	h.mu.Unlock()

	coalesced := coalesceEvents(pending)

	h.mu.Lock()
	h.backward = append(h.backward, historyEntry{events: coalesced})
	if h.opts.MaxHistory > 0 && len(h.backward) > h.opts.MaxHistory {
		h.backward = h.backward[len(h.backward)-h.opts.MaxHistory:]
	}
	h.forward = nil
	h.mu.Unlock()
}

// coalesceEvents merges set events on an identical key-path, keeping the
// first event's Prev and the last event's Value at the first event's
// position. Only sets separated by nothing but other sets are merged; every
// other event is kept as recorded, in order, since its inverse depends on
// its own payload.
func coalesceEvents(events []ChangeEvent) []ChangeEvent {
	out := make([]ChangeEvent, 0, len(events))
	setAt := make(map[string]int)
	for _, ev := range events {
		if ev.Type != OpSet {
			setAt = make(map[string]int)
			out = append(out, ev)
			continue
		}
		k := fmt.Sprint(ev.Keys)
		if i, ok := setAt[k]; ok {
			out[i].Value = ev.Value
			continue
		}
		setAt[k] = len(out)
		out = append(out, ev)
	}
	return out
}

// Backward pops the most recent entry off backward, applies the inverse of
// each of its events (in reverse order), and pushes the entry onto forward.
func (h *History) Backward() bool {
	h.mu.Lock()
	if len(h.backward) == 0 {
		h.mu.Unlock()
		return false
	}
	entry := h.backward[len(h.backward)-1]
	h.backward = h.backward[:len(h.backward)-1]
	h.busy = true
	h.mu.Unlock()

	for i := len(entry.events) - 1; i >= 0; i-- {
		invertEvent(h.view, entry.events[i])
	}

	h.mu.Lock()
	h.busy = false
	h.forward = append(h.forward, entry)
	h.mu.Unlock()
	return true
}

// Forward pops the most recent entry off forward, replays each of its
// events in original order, and pushes the entry back onto backward.
func (h *History) Forward() bool {
	h.mu.Lock()
	if len(h.forward) == 0 {
		h.mu.Unlock()
		return false
	}
	entry := h.forward[len(h.forward)-1]
	h.forward = h.forward[:len(h.forward)-1]
	h.busy = true
	h.mu.Unlock()

	for _, ev := range entry.events {
		replayEvent(h.view, ev)
	}

	h.mu.Lock()
	h.busy = false
	h.backward = append(h.backward, entry)
	h.mu.Unlock()
	return true
}

// Reset deep-assigns the construction-time snapshot back into view and
// clears both lists. A no-op when the history was not built Resettable.
func (h *History) Reset() {
	h.mu.Lock()
	if !h.opts.Resettable {
		h.mu.Unlock()
		return
	}
	h.busy = true
	h.mu.Unlock()

	resetView(h.view, h.initial)

	h.mu.Lock()
	h.busy = false
	h.backward = nil
	h.forward = nil
	h.mu.Unlock()
}

// Clear drops both lists without touching the view.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.backward = nil
	h.forward = nil
	h.pending = nil
}

// Destroy unsubscribes from view and stops the debounce timer.
func (h *History) Destroy() {
	h.mu.Lock()
	if h.destroyed {
		h.mu.Unlock()
		return
	}
	h.destroyed = true
	if h.timer != nil {
		h.timer.Stop()
	}
	unsubscribe := h.unsubscribe
	h.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (h *History) CanBackward() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.backward) > 0
}

func (h *History) CanForward() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.forward) > 0
}

func (h *History) CanReset() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.opts.Resettable
}

func (h *History) BackwardList() []ChangeEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]ChangeEvent, 0, len(h.backward))
	for _, e := range h.backward {
		out = append(out, e.events...)
	}
	return out
}

func (h *History) ForwardList() []ChangeEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]ChangeEvent, 0, len(h.forward))
	for _, e := range h.forward {
		out = append(out, e.events...)
	}
	return out
}

// historyDump is the shape DumpYAML renders: the tracked value plus the
// operation shape (not the raw Prev/Value payloads, which may hold boxed
// containers unsafe to reflect over) of each stack.
type historyDump struct {
	Value    any      `yaml:"value"`
	Backward []dumpOp `yaml:"backward"`
	Forward  []dumpOp `yaml:"forward"`
}

type dumpOp struct {
	Type Op    `yaml:"type"`
	Keys []Key `yaml:"keys,omitempty"`
}

// DumpYAML renders the current value and the undo/redo stack shape as YAML,
// a human-readable structural dump for inspecting a tracked graph outside
// of Stringify's JSON.
func (h *History) DumpYAML() (string, error) {
	h.mu.Lock()
	backward := append([]historyEntry(nil), h.backward...)
	forward := append([]historyEntry(nil), h.forward...)
	h.mu.Unlock()

	dump := historyDump{
		Value:    Snapshot(h.view),
		Backward: dumpOps(backward),
		Forward:  dumpOps(forward),
	}
	b, err := yaml.Marshal(dump)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func dumpOps(entries []historyEntry) []dumpOp {
	out := make([]dumpOp, 0, len(entries))
	for _, e := range entries {
		for _, ev := range e.events {
			out = append(out, dumpOp{Type: ev.Type, Keys: ev.Keys})
		}
	}
	return out
}

// dropLast returns keys with its final element removed, or keys unchanged
// if already empty — used to find the container an event happened in
// regardless of whether the event also carries a trailing positional or key
// element (both Fill's [start] and Set's [key] drop cleanly the same way).
func dropLast(keys []Key) []Key {
	if len(keys) == 0 {
		return keys
	}
	return keys[:len(keys)-1]
}

func navigate(root View, path []Key) (View, bool) {
	cur := root
	for _, k := range path {
		var child any
		var ok bool
		switch t := cur.(type) {
		case *Object:
			ks, kok := k.(string)
			if !kok || !t.Has(ks) {
				return nil, false
			}
			child, ok = t.Get(ks), true
		case *Array:
			i, kok := k.(int)
			if !kok || i < 0 || i >= t.Len() {
				return nil, false
			}
			child, ok = t.Get(i), true
		case *Dict:
			if !t.Has(k) {
				return nil, false
			}
			child, ok = t.Get(k), true
		default:
			return nil, false
		}
		if !ok {
			return nil, false
		}
		view, isView := child.(View)
		if !isView {
			return nil, false
		}
		cur = view
	}
	return cur, true
}

func historyFailed(ev ChangeEvent, reason string) {
	defaultLog.Warn("reactor: history could not apply event, skipping",
		slog.String("type", string(ev.Type)), slog.String("reason", reason))
}

// replaceArrayContents replaces arr's entire contents with target as a
// single splice, the shared mechanism sort/reverse/fill/copyWithin undo and
// redo both use since their events carry full before/after snapshots
// rather than a description of the element-wise change.
func replaceArrayContents(arr *Array, target []any) {
	arr.Splice(0, arr.Len(), target...)
}

func resetView(view View, snapshot any) {
	switch t := view.(type) {
	case *Object:
		snap, _ := snapshot.(map[string]any)
		for _, k := range t.Keys() {
			if _, ok := snap[k]; !ok {
				t.Delete(k)
			}
		}
		t.Assign(snap)
	case *Array:
		snap, _ := snapshot.([]any)
		replaceArrayContents(t, snap)
	case *Dict:
		snap, _ := snapshot.(map[any]any)
		t.Clear()
		for k, v := range snap {
			t.Set(k, v)
		}
	case *Collection:
		snap, _ := snapshot.([]any)
		t.Clear()
		for _, v := range snap {
			t.Add(v)
		}
	}
}

// invertEvent applies ev's inverse against the container it resolves to
// under root. Unresolvable paths (the container's shape changed since the
// event was recorded) are a logged no-op, never a partial application.
func invertEvent(root View, ev ChangeEvent) {
	switch ev.Type {
	case OpAssign, OpClear:
		container, ok := navigate(root, dropLast(ev.Keys))
		if !ok {
			historyFailed(ev, "container path no longer resolves")
			return
		}
		invertStructural(container, ev)
	case OpSort, OpReverse, OpFill, OpCopyWithin, OpPush, OpPop, OpShift, OpUnshift, OpSplice:
		container, ok := navigate(root, dropLast(ev.Keys))
		if !ok {
			historyFailed(ev, "container path no longer resolves")
			return
		}
		arr, ok := container.(*Array)
		if !ok {
			historyFailed(ev, "container is no longer an array")
			return
		}
		invertArrayOp(arr, ev)
	case OpSet, OpDelete, OpAdd:
		if len(ev.Keys) == 0 {
			historyFailed(ev, "keyed event with no key")
			return
		}
		container, ok := navigate(root, dropLast(ev.Keys))
		if !ok {
			historyFailed(ev, "container path no longer resolves")
			return
		}
		invertKeyed(container, ev.Keys[len(ev.Keys)-1], ev)
	}
}

// replayEvent re-applies ev's original mutation, the redo half of forward.
func replayEvent(root View, ev ChangeEvent) {
	switch ev.Type {
	case OpAssign, OpClear:
		container, ok := navigate(root, dropLast(ev.Keys))
		if !ok {
			historyFailed(ev, "container path no longer resolves")
			return
		}
		replayStructural(container, ev)
	case OpSort, OpReverse, OpFill, OpCopyWithin, OpPush, OpPop, OpShift, OpUnshift, OpSplice:
		container, ok := navigate(root, dropLast(ev.Keys))
		if !ok {
			historyFailed(ev, "container path no longer resolves")
			return
		}
		arr, ok := container.(*Array)
		if !ok {
			historyFailed(ev, "container is no longer an array")
			return
		}
		replayArrayOp(arr, ev)
	case OpSet, OpDelete, OpAdd:
		if len(ev.Keys) == 0 {
			historyFailed(ev, "keyed event with no key")
			return
		}
		container, ok := navigate(root, dropLast(ev.Keys))
		if !ok {
			historyFailed(ev, "container path no longer resolves")
			return
		}
		replayKeyed(container, ev.Keys[len(ev.Keys)-1], ev)
	}
}

func invertKeyed(container View, key Key, ev ChangeEvent) {
	switch t := container.(type) {
	case *Object:
		k, _ := key.(string)
		if ev.Type == OpDelete {
			t.Set(k, ev.Prev)
			return
		}
		if isUndefined(ev.Prev) {
			t.Delete(k)
		} else {
			t.Set(k, ev.Prev)
		}
	case *Array:
		i, _ := key.(int)
		t.Set(i, ev.Prev)
	case *Dict:
		switch ev.Type {
		case OpDelete:
			t.Set(key, ev.Prev)
		case OpAdd:
			t.Delete(key)
		default:
			if isUndefined(ev.Prev) {
				t.Delete(key)
			} else {
				t.Set(key, ev.Prev)
			}
		}
	case *Collection:
		switch ev.Type {
		case OpAdd:
			t.Delete(ev.Value)
		case OpDelete:
			t.Add(ev.Prev)
		}
	}
}

func replayKeyed(container View, key Key, ev ChangeEvent) {
	switch t := container.(type) {
	case *Object:
		k, _ := key.(string)
		if ev.Type == OpDelete {
			t.Delete(k)
			return
		}
		t.Set(k, ev.Value)
	case *Array:
		i, _ := key.(int)
		t.Set(i, ev.Value)
	case *Dict:
		if ev.Type == OpDelete {
			t.Delete(key)
			return
		}
		t.Set(key, ev.Value)
	case *Collection:
		switch ev.Type {
		case OpAdd:
			t.Add(ev.Value)
		case OpDelete:
			t.Delete(ev.Prev)
		}
	}
}

func invertStructural(container View, ev ChangeEvent) {
	switch t := container.(type) {
	case *Object:
		if ev.Type != OpAssign {
			return
		}
		prevSnap, ok := ev.Prev.(map[string]any)
		if !ok {
			return
		}
		for k, v := range prevSnap {
			if isUndefined(v) {
				t.Delete(k)
			} else {
				t.Set(k, v)
			}
		}
	case *Dict:
		if ev.Type != OpClear {
			return
		}
		entries, _ := ev.Prev.([]DictEntry)
		for _, e := range entries {
			t.Set(e.Key, e.Value)
		}
	case *Collection:
		if ev.Type != OpClear {
			return
		}
		members, _ := ev.Prev.([]any)
		for _, m := range members {
			t.Add(m)
		}
	}
}

func replayStructural(container View, ev ChangeEvent) {
	switch t := container.(type) {
	case *Object:
		if ev.Type != OpAssign {
			return
		}
		newSnap, ok := ev.Value.(map[string]any)
		if !ok {
			return
		}
		t.Assign(newSnap)
	case *Dict:
		if ev.Type == OpClear {
			t.Clear()
		}
	case *Collection:
		if ev.Type == OpClear {
			t.Clear()
		}
	}
}

func invertArrayOp(arr *Array, ev ChangeEvent) {
	switch ev.Type {
	case OpSort, OpReverse, OpFill, OpCopyWithin:
		before, ok := ev.Prev.([]any)
		if ok {
			replaceArrayContents(arr, before)
		}
	case OpPush:
		invertPush(arr, ev)
	case OpPop:
		arr.Push(ev.Prev)
	case OpShift:
		arr.Unshift(ev.Prev)
	case OpUnshift:
		items, _ := ev.Value.([]any)
		arr.Splice(0, len(items))
	case OpSplice:
		info, ok := ev.Value.(*SpliceInfo)
		if ok {
			arr.Splice(info.Start, len(info.Inserted), info.Removed...)
		}
	}
}

func replayArrayOp(arr *Array, ev ChangeEvent) {
	switch ev.Type {
	case OpSort, OpReverse, OpFill, OpCopyWithin:
		after, ok := ev.Value.([]any)
		if ok {
			replaceArrayContents(arr, after)
		}
	case OpPush:
		replayPush(arr, ev)
	case OpPop:
		arr.Pop()
	case OpShift:
		arr.Shift()
	case OpUnshift:
		items, _ := ev.Value.([]any)
		arr.Unshift(items...)
	case OpSplice:
		info, ok := ev.Value.(*SpliceInfo)
		if ok {
			arr.Splice(info.Start, len(info.Removed), info.Inserted...)
		}
	}
}

// invertPush distinguishes the three push event shapes OrderedArray and
// Array can each emit: a plain append (Prev is Undefined, pop the tail), a
// single ordered insert (Prev is orderedInsertMarker, remove by index), or
// a bulk ordered re-sort (Prev is the full before-snapshot, restore it).
func invertPush(arr *Array, ev ChangeEvent) {
	switch prev := ev.Prev.(type) {
	case orderedInsertMarker:
		idx, _ := firstKey(ev.Keys)
		arr.Splice(idx, 1)
	case []any:
		replaceArrayContents(arr, prev)
	default:
		items, _ := ev.Value.([]any)
		for range items {
			arr.Pop()
		}
	}
}

func replayPush(arr *Array, ev ChangeEvent) {
	switch prev := ev.Prev.(type) {
	case orderedInsertMarker:
		items, _ := ev.Value.([]any)
		idx, _ := firstKey(ev.Keys)
		if len(items) > 0 {
			arr.Splice(idx, 0, items[0])
		}
	case []any:
		after, ok := ev.Value.([]any)
		if ok {
			replaceArrayContents(arr, after)
		}
	default:
		items, _ := ev.Value.([]any)
		arr.Push(items...)
	}
}

func firstKey(keys []Key) (int, bool) {
	if len(keys) == 0 {
		return 0, false
	}
	i, ok := keys[0].(int)
	return i, ok
}
