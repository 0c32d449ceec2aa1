package reactor

import "sort"

// orderedPushThreshold is the default heuristic cutoff: a push of at most
// this many items is inserted one at a time via binary search; a larger
// batch is appended and the whole array is re-sorted instead (worked
// example: push(4) on a 3-element array binary-searches; push of 6 items
// bulk-sorts).
const orderedPushThreshold = 5

// OrderedArray wraps an Array, keeping it sorted by compare across pushes.
// Every other Array method (Set, Splice, ...) is exposed unchanged and does
// not re-sort; only Push is special-cased.
type OrderedArray struct {
	*Array
	compare func(a, b any) int
}

// Ordered boxes items into an Array kept sorted by compare as items are
// pushed.
func Ordered(items []any, compare func(a, b any) int, opts ...Option) *OrderedArray {
	o := NewOptions(opts...)
	sorted := append([]any(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool { return compare(sorted[i], sorted[j]) < 0 })
	arr := newArray(sorted, o)
	return &OrderedArray{Array: arr, compare: compare}
}

// Push inserts items in sorted position. A single item (or a batch at or
// below orderedPushThreshold) is inserted via binary search per item,
// preserving index stability for the untouched remainder, and emits one push
// event per inserted item; a larger batch is
// appended in bulk and the array fully re-sorted, since re-sorting is
// cheaper than threshold-many individual insertions at that size.
func (o *OrderedArray) Push(items ...any) (int, error) {
	if err := o.checkMutable(false); err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return o.Len(), nil
	}
	if len(items) <= orderedPushThreshold {
		for _, v := range items {
			if err := o.insertSorted(v); err != nil {
				return 0, err
			}
		}
		return o.Len(), nil
	}
	return o.bulkInsert(items)
}

// insertSorted locates v's sorted position via binary search and inserts it
// directly into the raw slice, emitting a single push event tagged as an
// ordered insert (via orderedInsertMarker) so History inverts it by removing
// at its recorded index instead of by popping the tail. Array.Splice is not reused here because it
// emits its own splice event, and a mutation must emit exactly one event.
func (o *OrderedArray) insertSorted(v any) error {
	raw := o.Array.raw
	boxed := o.Array.boxIncoming([]any{v})[0]

	raw.mu.Lock()
	current := raw.items
	idx := sort.Search(len(current), func(i int) bool {
		return o.compare(exposeChild(current[i]), v) >= 0
	})
	oldTail := append([]any(nil), current[idx:]...)
	items := make([]any, 0, len(current)+1)
	items = append(items, current[:idx]...)
	items = append(items, boxed)
	items = append(items, current[idx:]...)
	raw.items = items
	raw.mu.Unlock()

	if child, ok := asRawChild(boxed); ok {
		link(raw, idx, child)
	}
	o.Array.reindexLinks(idx, oldTail, idx+1)

	emit(raw.meta, raw, ChangeEvent{
		Type:  OpPush,
		Keys:  []Key{idx},
		Prev:  orderedInsertMarker{},
		Value: []any{boxed},
	})
	return nil
}

// bulkInsert appends items then fully re-sorts, emitting a single push event
// carrying the before/after snapshot as History's restore point — the
// append and the sort are done directly on the raw slice rather than via
// Array.Push/Array.Sort so only one event is emitted for the whole batch.
func (o *OrderedArray) bulkInsert(items []any) (int, error) {
	raw := o.Array.raw
	boxed := o.Array.boxIncoming(items)

	raw.mu.Lock()
	before := append([]any(nil), raw.items...)
	raw.items = append(raw.items, boxed...)
	sortSlice(raw.items, o.compare)
	after := append([]any(nil), raw.items...)
	n := len(raw.items)
	raw.mu.Unlock()

	unlinkSpan(raw, 0, before)
	linkSpan(raw, 0, after)

	emit(raw.meta, raw, ChangeEvent{
		Type:  OpPush,
		Prev:  before,
		Value: after,
	})
	return n, nil
}
