package reactor

import "sync"

// rawDict is the boxed raw container behind a Dict view: a Map-like
// container whose keys are arbitrary comparable values rather than Object's
// string-only keys.
type rawDict struct {
	mu   sync.Mutex
	data map[any]any
	meta *Metadata
}

func (d *rawDict) metadata() *Metadata { return d.meta }

func newRawDict(data map[any]any, opts Options) *rawDict {
	if data == nil {
		data = map[any]any{}
	}
	d := &rawDict{data: data}
	d.meta = newMetadata(KindDict, opts)
	return d
}

// Dict is the reactive view over a Map-like container.
type Dict struct {
	raw *rawDict
}

func boxDict(data map[any]any, opts Options) *rawDict {
	d := newRawDict(data, opts)
	view := &Dict{raw: d}
	d.meta.view = view
	if opts.Recursive {
		for k, v := range d.data {
			boxed := normalizeChild(opts, v)
			d.data[k] = boxed
			link(d, k, boxed)
		}
	}
	return d
}

func newDict(data map[any]any, opts Options) *Dict {
	return boxDict(data, opts).meta.view.(*Dict)
}

func (d *Dict) Raw() any            { return d.raw }
func (d *Dict) metadata() *Metadata { return d.raw.meta }

func (d *Dict) Get(key any) any {
	d.raw.mu.Lock()
	v, ok := d.raw.data[key]
	d.raw.mu.Unlock()
	if !ok {
		return nil
	}
	recordRead(d.raw.meta, d.raw, key)
	return exposeChild(v)
}

func (d *Dict) Has(key any) bool {
	d.raw.mu.Lock()
	_, ok := d.raw.data[key]
	d.raw.mu.Unlock()
	recordRead(d.raw.meta, d.raw, key)
	return ok
}

func (d *Dict) Keys() []any {
	d.raw.mu.Lock()
	defer d.raw.mu.Unlock()
	recordRead(d.raw.meta, d.raw, collectionMutations)
	keys := make([]any, 0, len(d.raw.data))
	for k := range d.raw.data {
		keys = append(keys, k)
	}
	return keys
}

func (d *Dict) Len() int {
	d.raw.mu.Lock()
	defer d.raw.mu.Unlock()
	recordRead(d.raw.meta, d.raw, collectionMutations)
	return len(d.raw.data)
}

func (d *Dict) Set(key, value any) error { return d.setWith(key, value, false) }

func (d *Dict) setWith(key, value any, bypassImmutable bool) error {
	meta := d.raw.meta
	meta.mu.Lock()
	immutable := meta.options.Immutable
	strict := meta.options.Strict
	recursive := meta.options.Recursive
	schema := meta.schema
	meta.mu.Unlock()

	if immutable && !bypassImmutable && !immutableBypassed() {
		v := &StateViolation{Kind: KindReadOnlyViolation, Message: "write on immutable dict", Key: key}
		reportViolation(false, v)
		return v
	}
	checkCircularMutation(d.raw)

	d.raw.mu.Lock()
	old, existed := d.raw.data[key]
	if existed && isSameValue(old, value) {
		d.raw.mu.Unlock()
		return nil
	}
	next := value
	if recursive {
		next = normalizeChild(meta.options, value)
	}
	if schema != nil {
		coerced, err := schema.Parse(next)
		if err != nil {
			d.raw.mu.Unlock()
			v := &StateViolation{Kind: KindSchemaViolation, Message: err.Error(), Key: key, Err: err}
			reportViolation(strict, v)
			return v
		}
		next = coerced
	}
	d.raw.data[key] = next
	d.raw.mu.Unlock()

	if oldChild, ok := asRawChild(old); ok {
		relink(d.raw, key, oldChild, firstOrNil(asRawChild(next)))
	} else if newChild, ok := asRawChild(next); ok {
		link(d.raw, key, newChild)
	}

	prev := any(Undefined)
	if existed {
		prev = old
	}
	op := OpSet
	if !existed {
		op = OpAdd
	}
	emit(meta, d.raw, ChangeEvent{Type: op, Keys: []Key{key}, Prev: prev, Value: next})
	return nil
}

func (d *Dict) Delete(key any) error { return d.deleteWith(key, false) }

func (d *Dict) deleteWith(key any, bypassImmutable bool) error {
	meta := d.raw.meta
	meta.mu.Lock()
	immutable := meta.options.Immutable
	meta.mu.Unlock()
	if immutable && !bypassImmutable && !immutableBypassed() {
		v := &StateViolation{Kind: KindReadOnlyViolation, Message: "delete on immutable dict", Key: key}
		reportViolation(false, v)
		return v
	}
	checkCircularMutation(d.raw)

	d.raw.mu.Lock()
	old, existed := d.raw.data[key]
	if !existed {
		d.raw.mu.Unlock()
		return nil
	}
	delete(d.raw.data, key)
	d.raw.mu.Unlock()

	if oldChild, ok := asRawChild(old); ok {
		unlink(d.raw, key, oldChild)
	}

	emit(meta, d.raw, ChangeEvent{Type: OpDelete, Keys: []Key{key}, Prev: old, Value: Undefined})
	return nil
}

// Clear removes every entry in a single event, whose Prev payload is the
// full pre-clear entry list so History can replay it.
func (d *Dict) Clear() error { return d.clearWith(false) }

func (d *Dict) clearWith(bypassImmutable bool) error {
	meta := d.raw.meta
	meta.mu.Lock()
	immutable := meta.options.Immutable
	meta.mu.Unlock()
	if immutable && !bypassImmutable && !immutableBypassed() {
		v := &StateViolation{Kind: KindReadOnlyViolation, Message: "clear on immutable dict"}
		reportViolation(false, v)
		return v
	}
	checkCircularMutation(d.raw)

	d.raw.mu.Lock()
	if len(d.raw.data) == 0 {
		d.raw.mu.Unlock()
		return nil
	}
	entries := make([]DictEntry, 0, len(d.raw.data))
	for k, v := range d.raw.data {
		entries = append(entries, DictEntry{Key: k, Value: v})
	}
	d.raw.data = map[any]any{}
	d.raw.mu.Unlock()

	for _, e := range entries {
		if child, ok := asRawChild(e.Value); ok {
			unlink(d.raw, e.Key, child)
		}
	}

	emit(meta, d.raw, ChangeEvent{Type: OpClear, Prev: entries, Value: nil})
	return nil
}

