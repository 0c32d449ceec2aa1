package reactor

import "sync"

// rawSet is the boxed raw container behind a Collection view: a Set-like
// container of unique members, membership tracked with a Go map[any]struct{}
// for O(1) Has/Add/Delete. Insertion order is kept in order alongside the
// membership map since a Set's Values() is expected to iterate in insertion
// order.
type rawSet struct {
	mu      sync.Mutex
	members map[any]struct{}
	order   []any
	meta    *Metadata
}

func (s *rawSet) metadata() *Metadata { return s.meta }

func newRawSet(values []any, opts Options) *rawSet {
	s := &rawSet{members: map[any]struct{}{}}
	s.meta = newMetadata(KindSet, opts)
	for _, v := range values {
		if _, ok := s.members[v]; !ok {
			s.members[v] = struct{}{}
			s.order = append(s.order, v)
		}
	}
	return s
}

// Collection is the reactive view over a Set-like container.
type Collection struct {
	raw *rawSet
}

func boxSet(values []any, opts Options) *rawSet {
	s := newRawSet(nil, opts)
	view := &Collection{raw: s}
	s.meta.view = view
	for _, v := range values {
		boxed := v
		if opts.Recursive {
			boxed = normalizeChild(opts, v)
		}
		if _, ok := s.members[boxed]; ok {
			continue
		}
		s.members[boxed] = struct{}{}
		s.order = append(s.order, boxed)
		link(s, boxed, boxed)
	}
	return s
}

func newSet(values []any, opts Options) *Collection {
	return boxSet(values, opts).meta.view.(*Collection)
}

func (c *Collection) Raw() any            { return c.raw }
func (c *Collection) metadata() *Metadata { return c.raw.meta }

func (c *Collection) Has(value any) bool {
	c.raw.mu.Lock()
	_, ok := c.raw.members[value]
	c.raw.mu.Unlock()
	recordRead(c.raw.meta, c.raw, value)
	return ok
}

func (c *Collection) Len() int {
	c.raw.mu.Lock()
	defer c.raw.mu.Unlock()
	recordRead(c.raw.meta, c.raw, collectionMutations)
	return len(c.raw.order)
}

func (c *Collection) Values() []any {
	c.raw.mu.Lock()
	defer c.raw.mu.Unlock()
	recordRead(c.raw.meta, c.raw, collectionMutations)
	out := make([]any, len(c.raw.order))
	for i, v := range c.raw.order {
		out[i] = exposeChild(v)
	}
	return out
}

// Add inserts value if not already a member, emitting an "add" event. A Set
// member is its own key in the change event, since a Set has no separate
// key/value pair, so a member that is itself a container cannot be reliably
// used as a Go map key; callers who need reactive set members should add the
// raw value and let Recursive box it as a value-equal key only for
// comparable primitives.
func (c *Collection) Add(value any) error { return c.addWith(value, false) }

func (c *Collection) addWith(value any, bypassImmutable bool) error {
	meta := c.raw.meta
	meta.mu.Lock()
	immutable := meta.options.Immutable
	recursive := meta.options.Recursive
	meta.mu.Unlock()

	if immutable && !bypassImmutable && !immutableBypassed() {
		v := &StateViolation{Kind: KindReadOnlyViolation, Message: "add on immutable set", Key: value}
		reportViolation(false, v)
		return v
	}
	checkCircularMutation(c.raw)

	boxed := value
	if recursive {
		boxed = normalizeChild(meta.options, value)
	}

	c.raw.mu.Lock()
	if _, ok := c.raw.members[boxed]; ok {
		c.raw.mu.Unlock()
		return nil
	}
	c.raw.members[boxed] = struct{}{}
	c.raw.order = append(c.raw.order, boxed)
	c.raw.mu.Unlock()

	if child, ok := asRawChild(boxed); ok {
		link(c.raw, boxed, child)
	}

	emit(meta, c.raw, ChangeEvent{Type: OpAdd, Keys: []Key{boxed}, Prev: Undefined, Value: boxed})
	return nil
}

func (c *Collection) Delete(value any) error { return c.deleteWith(value, false) }

func (c *Collection) deleteWith(value any, bypassImmutable bool) error {
	meta := c.raw.meta
	meta.mu.Lock()
	immutable := meta.options.Immutable
	meta.mu.Unlock()
	if immutable && !bypassImmutable && !immutableBypassed() {
		v := &StateViolation{Kind: KindReadOnlyViolation, Message: "delete on immutable set", Key: value}
		reportViolation(false, v)
		return v
	}
	checkCircularMutation(c.raw)

	c.raw.mu.Lock()
	if _, ok := c.raw.members[value]; !ok {
		c.raw.mu.Unlock()
		return nil
	}
	delete(c.raw.members, value)
	for i, v := range c.raw.order {
		if v == value {
			c.raw.order = append(c.raw.order[:i], c.raw.order[i+1:]...)
			break
		}
	}
	c.raw.mu.Unlock()

	if child, ok := asRawChild(value); ok {
		unlink(c.raw, value, child)
	}

	emit(meta, c.raw, ChangeEvent{Type: OpDelete, Keys: []Key{value}, Prev: value, Value: Undefined})
	return nil
}

// Clear removes every member in a single event, whose Prev payload is the
// full pre-clear member list in insertion order.
func (c *Collection) Clear() error { return c.clearWith(false) }

func (c *Collection) clearWith(bypassImmutable bool) error {
	meta := c.raw.meta
	meta.mu.Lock()
	immutable := meta.options.Immutable
	meta.mu.Unlock()
	if immutable && !bypassImmutable && !immutableBypassed() {
		v := &StateViolation{Kind: KindReadOnlyViolation, Message: "clear on immutable set"}
		reportViolation(false, v)
		return v
	}
	checkCircularMutation(c.raw)

	c.raw.mu.Lock()
	if len(c.raw.order) == 0 {
		c.raw.mu.Unlock()
		return nil
	}
	members := append([]any(nil), c.raw.order...)
	c.raw.members = map[any]struct{}{}
	c.raw.order = nil
	c.raw.mu.Unlock()

	for _, v := range members {
		if child, ok := asRawChild(v); ok {
			unlink(c.raw, v, child)
		}
	}

	emit(meta, c.raw, ChangeEvent{Type: OpClear, Prev: members, Value: nil})
	return nil
}

