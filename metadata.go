package reactor

import "sync"

// ContainerKind identifies which container shape a raw value has.
type ContainerKind int

const (
	KindRecord ContainerKind = iota
	KindArray
	KindDict
	KindSet
)

// parentEdge is a back-edge: "raw P holds this child at key k".
type parentEdge struct {
	parent any
	key    Key
}

// subscriber is a direct subscription registered via Subscribe.
type subscriber struct {
	id      string
	handler func(View, ChangeEvent)
}

// Metadata is the bookkeeping record every raw container carries inline
// (see DESIGN.md for why this replaces an external WeakMap-style Registry).
type Metadata struct {
	mu sync.Mutex

	kind    ContainerKind
	options Options
	schema  Schema
	view    View

	subscribers []*subscriber
	observers   []*Observer

	// children is allocated by newMetadata but not populated: link/unlink
	// maintain only the child's parents set, and the Set/Delete traps detect
	// "was this slot a linked container" with asRawChild on the stored value.
	children map[Key]any

	parents map[parentEdge]struct{}

	busy bool
}

func newMetadata(kind ContainerKind, opts Options) *Metadata {
	return &Metadata{
		kind:     kind,
		options:  opts,
		schema:   opts.Schema,
		children: make(map[Key]any),
		parents:  make(map[parentEdge]struct{}),
	}
}

func (m *Metadata) addObserver(o *Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.observers {
		if existing == o {
			return
		}
	}
	m.observers = append(m.observers, o)
}

func (m *Metadata) removeObserver(o *Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.observers {
		if existing == o {
			m.observers = append(m.observers[:i], m.observers[i+1:]...)
			return
		}
	}
}

func (m *Metadata) addSubscriber(s *subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, s)
}

func (m *Metadata) removeSubscriber(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.subscribers {
		if s.id == id {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			return
		}
	}
}

// snapshotFanout copies the subscriber/observer/parent lists under lock so
// EP can notify without holding the metadata mutex across handler calls.
func (m *Metadata) snapshotFanout() ([]*subscriber, []*Observer, []parentEdge) {
	m.mu.Lock()
	defer m.mu.Unlock()
	subs := append([]*subscriber(nil), m.subscribers...)
	obs := append([]*Observer(nil), m.observers...)
	parents := make([]parentEdge, 0, len(m.parents))
	for p := range m.parents {
		parents = append(parents, p)
	}
	return subs, obs, parents
}

// rawHolder is implemented by every *rawRecord/*rawArray/*rawDict/*rawSet so
// generic code (linker, propagate, snapshot) can reach the shared metadata
// without a type switch at every call site.
type rawHolder interface {
	metadata() *Metadata
}

func metaOf(raw any) *Metadata {
	if h, ok := raw.(rawHolder); ok {
		return h.metadata()
	}
	return nil
}

func link(parentRaw any, key Key, childRaw any) {
	if childRaw == nil {
		return
	}
	cm := metaOf(childRaw)
	if cm == nil {
		return
	}
	cm.mu.Lock()
	cm.parents[parentEdge{parent: parentRaw, key: key}] = struct{}{}
	cm.mu.Unlock()
}

func unlink(parentRaw any, key Key, childRaw any) {
	if childRaw == nil {
		return
	}
	cm := metaOf(childRaw)
	if cm == nil {
		return
	}
	cm.mu.Lock()
	delete(cm.parents, parentEdge{parent: parentRaw, key: key})
	cm.mu.Unlock()
}

// relink detaches the old child (if any) previously linked at key and
// links the new one. Each step takes only that child's own metadata lock;
// no lock is held across both steps.
func relink(parentRaw any, key Key, oldChild, newChild any) {
	if oldChild != nil {
		unlink(parentRaw, key, oldChild)
	}
	if newChild != nil {
		link(parentRaw, key, newChild)
	}
}

// unlinkSpan removes the parent edge at from+i for every container found in
// items, used when a structural mutation moves or overwrites a contiguous
// run of slots and the caller already has the pre-mutation values at hand.
func unlinkSpan(parentRaw any, from int, items []any) {
	for i, v := range items {
		if child, ok := asRawChild(v); ok {
			unlink(parentRaw, from+i, child)
		}
	}
}

// linkSpan adds the parent edge at from+i for every container found in
// items, the counterpart to unlinkSpan once the new values are in place.
func linkSpan(parentRaw any, from int, items []any) {
	for i, v := range items {
		if child, ok := asRawChild(v); ok {
			link(parentRaw, from+i, child)
		}
	}
}
