package reactor

import "log/slog"

// View is implemented by every reactive facade: Object, Array, Dict,
// Collection, OrderedArray, and the write-contract wrappers.
type View interface {
	// Raw returns the underlying raw container pointer. It is not a deep
	// copy; mutating through it bypasses every trap and is meant only for
	// collaborators that already hold the identity (e.g. a persistence
	// adapter comparing against a previously stored pointer).
	Raw() any
	metadata() *Metadata
}

// emit notifies raw's own direct subscribers and matching observers, then
// bubbles the event to every parent back-edge with the key prefixed, fully
// serially and in registration order. Handler panics are caught and
// reported; propagation continues to the remaining subscribers.
func emit(meta *Metadata, raw any, ev ChangeEvent) {
	meta.mu.Lock()
	view := meta.view
	meta.mu.Unlock()

	subs, obs, parents := meta.snapshotFanout()

	for _, s := range subs {
		safeCall(func() { s.handler(view, ev) })
	}
	for _, o := range obs {
		if o.shouldNotify(raw, ev) && o.OnChange != nil {
			safeCall(func() { o.OnChange(ev) })
		}
	}
	for _, p := range parents {
		parentMeta := metaOf(p.parent)
		if parentMeta == nil {
			continue
		}
		bubbled := ChangeEvent{
			Type:  ev.Type,
			Keys:  append([]Key{p.key}, ev.Keys...),
			Prev:  ev.Prev,
			Value: ev.Value,
		}
		emit(parentMeta, p.parent, bubbled)
	}
}

// safeCall invokes fn, catching and reporting any panic as an
// external-handler-error violation so one misbehaving subscriber cannot
// break propagation to the rest.
func safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			defaultLog.Error("reactor: subscriber handler panicked", slog.Any("recover", r))
			reportViolation(false, &StateViolation{
				Kind:    KindExternalHandlerErr,
				Message: "subscriber or observer handler panicked",
			})
		}
	}()
	fn()
}
