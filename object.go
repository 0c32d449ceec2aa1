package reactor

import "sync"

// rawRecord is the boxed raw container behind an Object view. Boxing a
// plain map[string]any gives it a stable identity independent of Go map
// growth/rehashing, so a same-reference check works the way it would
// against a native reference type.
type rawRecord struct {
	mu   sync.Mutex
	data map[string]any
	meta *Metadata
}

func (r *rawRecord) metadata() *Metadata { return r.meta }

func newRawRecord(data map[string]any, opts Options) *rawRecord {
	if data == nil {
		data = map[string]any{}
	}
	r := &rawRecord{data: data}
	r.meta = newMetadata(KindRecord, opts)
	return r
}

// Object is the reactive view over a record (struct-like container with
// string keys).
type Object struct {
	raw *rawRecord
}

// boxRecord wraps a plain map[string]any into a raw record with its view
// already attached (Identity invariant: the view is created exactly once,
// here, never lazily re-derived), recursively boxing any nested
// map[string]any/[]any children when opts.Recursive is set.
func boxRecord(data map[string]any, opts Options) *rawRecord {
	r := newRawRecord(data, opts)
	view := &Object{raw: r}
	r.meta.view = view
	if opts.Recursive {
		for k, v := range r.data {
			boxed := normalizeChild(opts, v)
			r.data[k] = boxed
			link(r, k, boxed)
		}
	}
	return r
}

func newObject(data map[string]any, opts Options) *Object {
	return boxRecord(data, opts).meta.view.(*Object)
}

func (o *Object) Raw() any            { return o.raw }
func (o *Object) metadata() *Metadata { return o.raw.meta }

// Get reads key, recording the dependency if an observer is ambient, and
// returns a container child as its reactive view.
func (o *Object) Get(key string) any {
	o.raw.mu.Lock()
	v, ok := o.raw.data[key]
	o.raw.mu.Unlock()
	recordRead(o.raw.meta, o.raw, key)
	if !ok {
		return nil
	}
	return exposeChild(v)
}

func (o *Object) Has(key string) bool {
	o.raw.mu.Lock()
	_, ok := o.raw.data[key]
	o.raw.mu.Unlock()
	recordRead(o.raw.meta, o.raw, key)
	return ok
}

func (o *Object) Keys() []string {
	o.raw.mu.Lock()
	defer o.raw.mu.Unlock()
	recordRead(o.raw.meta, o.raw, collectionMutations)
	keys := make([]string, 0, len(o.raw.data))
	for k := range o.raw.data {
		keys = append(keys, k)
	}
	return keys
}

func (o *Object) Len() int {
	o.raw.mu.Lock()
	defer o.raw.mu.Unlock()
	recordRead(o.raw.meta, o.raw, collectionMutations)
	return len(o.raw.data)
}

// Set writes key=value. A same-value write is a no-op; immutability is
// checked before the schema: a direct Set on an immutable Object is always
// rejected regardless of schema, since a bare immutable Object has no write
// contract to consult.
func (o *Object) Set(key string, value any) error {
	return o.setWith(key, value, false)
}

func (o *Object) setWith(key string, value any, bypassImmutable bool) error {
	meta := o.raw.meta
	meta.mu.Lock()
	immutable := meta.options.Immutable
	strict := meta.options.Strict
	recursive := meta.options.Recursive
	schema := meta.schema
	meta.mu.Unlock()

	if immutable && !bypassImmutable && !immutableBypassed() {
		v := &StateViolation{Kind: KindReadOnlyViolation, Message: "write on immutable object", Key: key}
		reportViolation(false, v)
		return v
	}

	checkCircularMutation(o.raw)

	o.raw.mu.Lock()
	old, existed := o.raw.data[key]
	if existed && isSameValue(old, value) {
		o.raw.mu.Unlock()
		return nil
	}

	next := value
	if recursive {
		next = normalizeChild(meta.options, value)
	}

	if schema != nil {
		if coerced, err := schema.Parse(next); err != nil {
			o.raw.mu.Unlock()
			v := &StateViolation{Kind: KindSchemaViolation, Message: err.Error(), Key: key, Err: err}
			reportViolation(strict, v)
			return v
		} else {
			next = coerced
		}
	}

	o.raw.data[key] = next
	o.raw.mu.Unlock()

	if oldChild, ok := asRawChild(old); ok {
		relink(o.raw, key, oldChild, firstOrNil(asRawChild(next)))
	} else if newChild, ok := asRawChild(next); ok {
		link(o.raw, key, newChild)
	}

	prev := any(Undefined)
	if existed {
		prev = old
	}
	emit(meta, o.raw, ChangeEvent{Type: OpSet, Keys: []Key{key}, Prev: prev, Value: next})
	return nil
}

// Assign performs a bulk multi-key update as a single event, used by
// History to restore a composite snapshot in one step.
func (o *Object) Assign(values map[string]any) error {
	return o.assignWith(values, false)
}

func (o *Object) assignWith(values map[string]any, bypassImmutable bool) error {
	meta := o.raw.meta
	meta.mu.Lock()
	immutable := meta.options.Immutable
	recursive := meta.options.Recursive
	meta.mu.Unlock()

	if immutable && !bypassImmutable && !immutableBypassed() {
		v := &StateViolation{Kind: KindReadOnlyViolation, Message: "assign on immutable object"}
		reportViolation(false, v)
		return v
	}
	checkCircularMutation(o.raw)

	prevSnapshot := make(map[string]any, len(values))
	newSnapshot := make(map[string]any, len(values))

	o.raw.mu.Lock()
	for k, v := range values {
		old, existed := o.raw.data[k]
		if existed {
			prevSnapshot[k] = old
		} else {
			prevSnapshot[k] = Undefined
		}
		next := v
		if recursive {
			next = normalizeChild(meta.options, v)
		}
		if oldChild, ok := asRawChild(old); ok {
			relink(o.raw, k, oldChild, firstOrNil(asRawChild(next)))
		} else if newChild, ok := asRawChild(next); ok {
			link(o.raw, k, newChild)
		}
		o.raw.data[k] = next
		newSnapshot[k] = next
	}
	o.raw.mu.Unlock()

	emit(meta, o.raw, ChangeEvent{Type: OpAssign, Keys: nil, Prev: prevSnapshot, Value: newSnapshot})
	return nil
}

func (o *Object) Delete(key string) error {
	return o.deleteWith(key, false)
}

func (o *Object) deleteWith(key string, bypassImmutable bool) error {
	meta := o.raw.meta
	meta.mu.Lock()
	immutable := meta.options.Immutable
	meta.mu.Unlock()
	if immutable && !bypassImmutable && !immutableBypassed() {
		v := &StateViolation{Kind: KindReadOnlyViolation, Message: "delete on immutable object", Key: key}
		reportViolation(false, v)
		return v
	}
	checkCircularMutation(o.raw)

	o.raw.mu.Lock()
	old, existed := o.raw.data[key]
	if !existed {
		o.raw.mu.Unlock()
		return nil
	}
	delete(o.raw.data, key)
	o.raw.mu.Unlock()

	if oldChild, ok := asRawChild(old); ok {
		unlink(o.raw, key, oldChild)
	}

	emit(meta, o.raw, ChangeEvent{Type: OpDelete, Keys: []Key{key}, Prev: old, Value: Undefined})
	return nil
}
