package reactor

import "github.com/google/uuid"

// Subscribe registers handler as a direct subscriber on view's root
// container. handler fires synchronously once immediately with a synthetic
// {type: init} event (scenario 1: "h called twice — once with
// {type:'init'}..."), then once per mutation the Event Propagator routes to
// this container, in registration order. The returned function detaches the
// subscriber; calling it more than once is a no-op.
func Subscribe(view View, handler func(View, ChangeEvent)) func() {
	meta := view.metadata()
	s := &subscriber{id: uuid.NewString(), handler: handler}
	meta.addSubscriber(s)

	safeCall(func() { handler(view, ChangeEvent{Type: OpInit}) })

	done := false
	return func() {
		if done {
			return
		}
		done = true
		meta.removeSubscriber(s.id)
	}
}

// Pipe keeps target in sync with source: on every change to source (and once
// immediately, mirroring Subscribe's init call) it takes a Snapshot of
// source, runs it through transform in order if any are given, and writes
// the result into target. Both source and target must be one of the four
// container kinds (an Object/Array/Dict/Collection, bare or behind a
// WriteContract); anything else is a trap-misuse violation and Pipe returns
// a nil unsubscribe func and the error without subscribing to anything.
func Pipe(source, target View, transform ...func(any) any) (func(), error) {
	if !isContainerView(source) {
		return nil, &StateViolation{Kind: KindTrapMisuse, Message: "pipe: source is not a container view"}
	}
	if !isContainerView(target) {
		return nil, &StateViolation{Kind: KindTrapMisuse, Message: "pipe: target is not a container view"}
	}

	apply := func() {
		var snap any = Snapshot(source)
		for _, fn := range transform {
			snap = fn(snap)
		}
		if err := writeSnapshot(target, snap); err != nil {
			defaultLog.Warn("reactor: pipe write failed", "err", err)
		}
	}

	unsub := Subscribe(source, func(_ View, ev ChangeEvent) {
		if ev.Type == OpInit {
			return
		}
		apply()
	})
	apply()
	return unsub, nil
}

// isContainerView reports whether v is one of the four container kinds,
// bare or wrapped by a WriteContract.
func isContainerView(v View) bool {
	switch v.(type) {
	case *Object, *Array, *OrderedArray, *Dict, *Collection,
		*ObjectContract, *ArrayContract, *DictContract, *CollectionContract:
		return true
	default:
		return false
	}
}

// writeSnapshot assigns snap, a Snapshot-shaped plain value, into target in
// place: Object gets Assign, Array gets a full-range Splice replace, Dict
// and Collection are cleared and rebuilt entry by entry since neither
// exposes a bulk-replace method.
func writeSnapshot(target View, snap any) error {
	switch t := target.(type) {
	case *Object:
		m, ok := snap.(map[string]any)
		if !ok {
			return &StateViolation{Kind: KindTrapMisuse, Message: "pipe: snapshot is not an object"}
		}
		return t.Assign(m)
	case *ObjectContract:
		m, ok := snap.(map[string]any)
		if !ok {
			return &StateViolation{Kind: KindTrapMisuse, Message: "pipe: snapshot is not an object"}
		}
		for k, v := range m {
			if err := t.Set(k, v); err != nil {
				return err
			}
		}
		return nil
	case *Array:
		items, ok := snap.([]any)
		if !ok {
			return &StateViolation{Kind: KindTrapMisuse, Message: "pipe: snapshot is not an array"}
		}
		_, err := t.Splice(0, t.Len(), items...)
		return err
	case *OrderedArray:
		items, ok := snap.([]any)
		if !ok {
			return &StateViolation{Kind: KindTrapMisuse, Message: "pipe: snapshot is not an array"}
		}
		if _, err := t.Splice(0, t.Len()); err != nil {
			return err
		}
		_, err := t.Push(items...)
		return err
	case *ArrayContract:
		items, ok := snap.([]any)
		if !ok {
			return &StateViolation{Kind: KindTrapMisuse, Message: "pipe: snapshot is not an array"}
		}
		_, err := t.Splice(0, t.Len(), items...)
		return err
	case *Dict:
		m, ok := snap.(map[any]any)
		if !ok {
			return &StateViolation{Kind: KindTrapMisuse, Message: "pipe: snapshot is not a dict"}
		}
		return replaceDict(t.Clear, t.Set, m)
	case *DictContract:
		m, ok := snap.(map[any]any)
		if !ok {
			return &StateViolation{Kind: KindTrapMisuse, Message: "pipe: snapshot is not a dict"}
		}
		return replaceDict(t.Clear, t.Set, m)
	case *Collection:
		values, ok := snap.([]any)
		if !ok {
			return &StateViolation{Kind: KindTrapMisuse, Message: "pipe: snapshot is not a set"}
		}
		return replaceCollection(t.Clear, t.Add, values)
	case *CollectionContract:
		values, ok := snap.([]any)
		if !ok {
			return &StateViolation{Kind: KindTrapMisuse, Message: "pipe: snapshot is not a set"}
		}
		return replaceCollection(t.Clear, t.Add, values)
	default:
		return &StateViolation{Kind: KindTrapMisuse, Message: "pipe: target is not a writable container"}
	}
}

func replaceDict(clear func() error, set func(key, value any) error, m map[any]any) error {
	if err := clear(); err != nil {
		return err
	}
	for k, v := range m {
		if err := set(k, v); err != nil {
			return err
		}
	}
	return nil
}

func replaceCollection(clear func() error, add func(value any) error, values []any) error {
	if err := clear(); err != nil {
		return err
	}
	for _, v := range values {
		if err := add(v); err != nil {
			return err
		}
	}
	return nil
}

// Log subscribes a handler that writes every change event to the default
// logger, a debugging convenience mirroring what a teacher's Store.Debug
// hook does for its own change stream.
func Log(view View) func() {
	return Subscribe(view, func(_ View, ev ChangeEvent) {
		defaultLog.Debug("reactor: change", "type", ev.Type, "keys", ev.Keys)
	})
}
