package reactor

import "sync"

// rawArray is the boxed raw container behind an Array view; boxing gives
// the array a stable identity independent of Go slice reallocation on
// growth (see rawRecord's doc comment for the same rationale).
type rawArray struct {
	mu    sync.Mutex
	items []any
	meta  *Metadata
}

func (a *rawArray) metadata() *Metadata { return a.meta }

func newRawArray(items []any, opts Options) *rawArray {
	a := &rawArray{items: items}
	a.meta = newMetadata(KindArray, opts)
	return a
}

// Array is the reactive view over an ordered, index-addressed sequence.
type Array struct {
	raw *rawArray
}

func boxArray(items []any, opts Options) *rawArray {
	a := newRawArray(items, opts)
	view := &Array{raw: a}
	a.meta.view = view
	if opts.Recursive {
		for i, v := range a.items {
			boxed := normalizeChild(opts, v)
			a.items[i] = boxed
			link(a, i, boxed)
		}
	}
	return a
}

func newArray(items []any, opts Options) *Array {
	return boxArray(items, opts).meta.view.(*Array)
}

func (a *Array) Raw() any            { return a.raw }
func (a *Array) metadata() *Metadata { return a.raw.meta }

func (a *Array) Get(i int) any {
	a.raw.mu.Lock()
	if i < 0 || i >= len(a.raw.items) {
		a.raw.mu.Unlock()
		return nil
	}
	v := a.raw.items[i]
	a.raw.mu.Unlock()
	recordRead(a.raw.meta, a.raw, i)
	return exposeChild(v)
}

func (a *Array) Len() int {
	a.raw.mu.Lock()
	defer a.raw.mu.Unlock()
	recordRead(a.raw.meta, a.raw, collectionMutations)
	return len(a.raw.items)
}

func (a *Array) Items() []any {
	a.raw.mu.Lock()
	defer a.raw.mu.Unlock()
	recordRead(a.raw.meta, a.raw, collectionMutations)
	out := make([]any, len(a.raw.items))
	for i, v := range a.raw.items {
		out[i] = exposeChild(v)
	}
	return out
}

func (a *Array) Set(i int, value any) error { return a.setWith(i, value, false) }

func (a *Array) setWith(i int, value any, bypassImmutable bool) error {
	meta := a.raw.meta
	meta.mu.Lock()
	immutable := meta.options.Immutable
	strict := meta.options.Strict
	recursive := meta.options.Recursive
	schema := meta.schema
	meta.mu.Unlock()

	if immutable && !bypassImmutable && !immutableBypassed() {
		v := &StateViolation{Kind: KindReadOnlyViolation, Message: "write on immutable array", Key: i}
		reportViolation(false, v)
		return v
	}
	checkCircularMutation(a.raw)

	a.raw.mu.Lock()
	if i < 0 || i >= len(a.raw.items) {
		a.raw.mu.Unlock()
		v := &StateViolation{Kind: KindTrapMisuse, Message: "index out of range", Key: i}
		reportViolation(false, v)
		return v
	}
	old := a.raw.items[i]
	if isSameValue(old, value) {
		a.raw.mu.Unlock()
		return nil
	}
	next := value
	if recursive {
		next = normalizeChild(meta.options, value)
	}
	if schema != nil {
		coerced, err := schema.Parse(next)
		if err != nil {
			a.raw.mu.Unlock()
			v := &StateViolation{Kind: KindSchemaViolation, Message: err.Error(), Key: i, Err: err}
			reportViolation(strict, v)
			return v
		}
		next = coerced
	}
	a.raw.items[i] = next
	a.raw.mu.Unlock()

	if oldChild, ok := asRawChild(old); ok {
		relink(a.raw, i, oldChild, firstOrNil(asRawChild(next)))
	} else if newChild, ok := asRawChild(next); ok {
		link(a.raw, i, newChild)
	}

	emit(meta, a.raw, ChangeEvent{Type: OpSet, Keys: []Key{i}, Prev: old, Value: next})
	return nil
}

// checkMutable enforces immutability/circular-mutation for every array
// mutation method. bypassImmutable is consulted alongside the ambient
// withImmutableBypass flag so both a direct bool and an ArrayContract
// wrapping its delegated call in withImmutableBypass (which has no bool to
// thread through nine separate methods) can let an allow-listed write
// through an otherwise-immutable base.
func (a *Array) checkMutable(bypassImmutable bool) error {
	meta := a.raw.meta
	meta.mu.Lock()
	immutable := meta.options.Immutable
	meta.mu.Unlock()
	if immutable && !bypassImmutable && !immutableBypassed() {
		v := &StateViolation{Kind: KindReadOnlyViolation, Message: "mutation on immutable array"}
		reportViolation(false, v)
		return v
	}
	checkCircularMutation(a.raw)
	return nil
}

// boxIncoming normalizes and, when recursive, links a batch of values being
// inserted into the array, returning the values to actually store.
func (a *Array) boxIncoming(values []any) []any {
	meta := a.raw.meta
	meta.mu.Lock()
	recursive := meta.options.Recursive
	opts := meta.options
	meta.mu.Unlock()
	if !recursive {
		return values
	}
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = normalizeChild(opts, v)
	}
	return out
}

// reindexLinks fixes up parent back-edges for a contiguous run of slots a
// structural mutation moved or overwrote. oldSpan holds the values that used
// to occupy oldFrom, oldFrom+1, ... (captured before the mutation) and is
// unlinked at those indices first; the same-length run now living at
// newFrom, newFrom+1, ... in the live array is linked second. Calling this
// for every repositioned or overwritten span is what keeps a child from
// accumulating a second, stale edge at its previous index alongside the
// correct one.
func (a *Array) reindexLinks(oldFrom int, oldSpan []any, newFrom int) {
	unlinkSpan(a.raw, oldFrom, oldSpan)
	a.raw.mu.Lock()
	end := newFrom + len(oldSpan)
	if end > len(a.raw.items) {
		end = len(a.raw.items)
	}
	items := append([]any(nil), a.raw.items[newFrom:end]...)
	a.raw.mu.Unlock()
	linkSpan(a.raw, newFrom, items)
}

func (a *Array) Push(items ...any) (int, error) {
	if err := a.checkMutable(false); err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return a.Len(), nil
	}
	boxed := a.boxIncoming(items)
	a.raw.mu.Lock()
	start := len(a.raw.items)
	a.raw.items = append(a.raw.items, boxed...)
	n := len(a.raw.items)
	a.raw.mu.Unlock()
	for i, v := range boxed {
		if child, ok := asRawChild(v); ok {
			link(a.raw, start+i, child)
		}
	}
	emit(a.raw.meta, a.raw, ChangeEvent{Type: OpPush, Keys: []Key{start}, Prev: Undefined, Value: boxed})
	return n, nil
}

func (a *Array) Pop() (any, error) {
	if err := a.checkMutable(false); err != nil {
		return nil, err
	}
	a.raw.mu.Lock()
	n := len(a.raw.items)
	if n == 0 {
		a.raw.mu.Unlock()
		return nil, nil
	}
	removed := a.raw.items[n-1]
	a.raw.items = a.raw.items[:n-1]
	a.raw.mu.Unlock()
	if child, ok := asRawChild(removed); ok {
		unlink(a.raw, n-1, child)
	}
	emit(a.raw.meta, a.raw, ChangeEvent{Type: OpPop, Keys: []Key{n - 1}, Prev: removed, Value: Undefined})
	return exposeChild(removed), nil
}

func (a *Array) Shift() (any, error) {
	if err := a.checkMutable(false); err != nil {
		return nil, err
	}
	a.raw.mu.Lock()
	if len(a.raw.items) == 0 {
		a.raw.mu.Unlock()
		return nil, nil
	}
	removed := a.raw.items[0]
	oldTail := append([]any(nil), a.raw.items[1:]...)
	a.raw.items = append([]any(nil), a.raw.items[1:]...)
	a.raw.mu.Unlock()
	if child, ok := asRawChild(removed); ok {
		unlink(a.raw, 0, child)
	}
	a.reindexLinks(1, oldTail, 0)
	emit(a.raw.meta, a.raw, ChangeEvent{Type: OpShift, Keys: []Key{0}, Prev: removed, Value: Undefined})
	return exposeChild(removed), nil
}

func (a *Array) Unshift(items ...any) (int, error) {
	if err := a.checkMutable(false); err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return a.Len(), nil
	}
	boxed := a.boxIncoming(items)
	a.raw.mu.Lock()
	oldTail := append([]any(nil), a.raw.items...)
	a.raw.items = append(append([]any(nil), boxed...), a.raw.items...)
	n := len(a.raw.items)
	a.raw.mu.Unlock()
	linkSpan(a.raw, 0, boxed)
	a.reindexLinks(0, oldTail, len(boxed))
	emit(a.raw.meta, a.raw, ChangeEvent{Type: OpUnshift, Keys: []Key{0}, Prev: Undefined, Value: boxed})
	return n, nil
}

// Splice removes deleteCount items starting at start and inserts ins in
// their place, returning the removed items. Emits exactly one event whose
// payload is a SpliceInfo carrying both sides so History can invert it.
func (a *Array) Splice(start, deleteCount int, ins ...any) ([]any, error) {
	if err := a.checkMutable(false); err != nil {
		return nil, err
	}
	a.raw.mu.Lock()
	n := len(a.raw.items)
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	if deleteCount < 0 {
		deleteCount = 0
	}
	if start+deleteCount > n {
		deleteCount = n - start
	}
	if deleteCount == 0 && len(ins) == 0 {
		a.raw.mu.Unlock()
		return nil, nil
	}
	removed := append([]any(nil), a.raw.items[start:start+deleteCount]...)
	a.raw.mu.Unlock()

	boxedIns := a.boxIncoming(ins)

	a.raw.mu.Lock()
	tail := append([]any(nil), a.raw.items[start+deleteCount:]...)
	head := append([]any(nil), a.raw.items[:start]...)
	a.raw.items = append(append(head, boxedIns...), tail...)
	a.raw.mu.Unlock()

	unlinkSpan(a.raw, start, removed)
	linkSpan(a.raw, start, boxedIns)
	a.reindexLinks(start+deleteCount, tail, start+len(boxedIns))

	emit(a.raw.meta, a.raw, ChangeEvent{
		Type: OpSplice,
		Keys: []Key{start},
		Prev: nil,
		Value: &SpliceInfo{Start: start, Removed: removed, Inserted: boxedIns},
	})
	for i, v := range removed {
		removed[i] = exposeChild(v)
	}
	return removed, nil
}

func (a *Array) Sort(compare func(x, y any) int) error {
	if err := a.checkMutable(false); err != nil {
		return err
	}
	a.raw.mu.Lock()
	if len(a.raw.items) <= 1 {
		a.raw.mu.Unlock()
		return nil
	}
	before := append([]any(nil), a.raw.items...)
	sortSlice(a.raw.items, compare)
	after := append([]any(nil), a.raw.items...)
	a.raw.mu.Unlock()
	a.reindexLinks(0, before, 0)
	emit(a.raw.meta, a.raw, ChangeEvent{Type: OpSort, Prev: before, Value: after})
	return nil
}

func (a *Array) Reverse() error {
	if err := a.checkMutable(false); err != nil {
		return err
	}
	a.raw.mu.Lock()
	n := len(a.raw.items)
	if n <= 1 {
		a.raw.mu.Unlock()
		return nil
	}
	before := append([]any(nil), a.raw.items...)
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		a.raw.items[i], a.raw.items[j] = a.raw.items[j], a.raw.items[i]
	}
	after := append([]any(nil), a.raw.items...)
	a.raw.mu.Unlock()
	a.reindexLinks(0, before, 0)
	emit(a.raw.meta, a.raw, ChangeEvent{Type: OpReverse, Prev: before, Value: after})
	return nil
}

func (a *Array) Fill(value any, start, end int) error {
	if err := a.checkMutable(false); err != nil {
		return err
	}
	boxedVal := a.boxIncoming([]any{value})[0]
	a.raw.mu.Lock()
	n := len(a.raw.items)
	if start < 0 {
		start = 0
	}
	if end > n || end < 0 {
		end = n
	}
	if start >= end {
		a.raw.mu.Unlock()
		return nil
	}
	before := append([]any(nil), a.raw.items...)
	oldSpan := append([]any(nil), a.raw.items[start:end]...)
	for i := start; i < end; i++ {
		a.raw.items[i] = boxedVal
	}
	after := append([]any(nil), a.raw.items...)
	a.raw.mu.Unlock()
	a.reindexLinks(start, oldSpan, start)
	emit(a.raw.meta, a.raw, ChangeEvent{Type: OpFill, Keys: []Key{start}, Prev: before, Value: after})
	return nil
}

func (a *Array) CopyWithin(target, start, end int) error {
	if err := a.checkMutable(false); err != nil {
		return err
	}
	a.raw.mu.Lock()
	n := len(a.raw.items)
	if target < 0 {
		target = 0
	}
	if start < 0 {
		start = 0
	}
	if end > n || end < 0 {
		end = n
	}
	count := end - start
	if count <= 0 || target >= n || target == start {
		a.raw.mu.Unlock()
		return nil
	}
	if target+count > n {
		count = n - target
	}
	before := append([]any(nil), a.raw.items...)
	oldSpan := append([]any(nil), a.raw.items[target:target+count]...)
	chunk := append([]any(nil), a.raw.items[start:start+count]...)
	copy(a.raw.items[target:target+count], chunk)
	after := append([]any(nil), a.raw.items...)
	a.raw.mu.Unlock()
	a.reindexLinks(target, oldSpan, target)
	emit(a.raw.meta, a.raw, ChangeEvent{Type: OpCopyWithin, Keys: []Key{target}, Prev: before, Value: after})
	return nil
}

