package reactor

import (
	"sync"

	"github.com/google/uuid"
)

// collectionMutations is the synthetic key tracked when a computation reads
// a container's structure (Len, Keys, Values, Items) rather than a specific
// element, so that any mutation, including a keyless clear, notifies
// observers that merely asked "how many" or "which". Has records the
// specific key or member it asked about, not this marker.
type collectionMutationsKey struct{}

var collectionMutations Key = collectionMutationsKey{}

// Observer is a per-computation dependency collector. Reads
// performed while the observer is the ambient one are recorded into
// tracked; OnChange fires when a later mutation touches one of those
// (raw, key) pairs.
type Observer struct {
	id       string
	OnChange func(ChangeEvent)

	mu          sync.Mutex
	tracked     map[any]map[Key]struct{}
	observedOn  map[*Metadata]struct{}
	isObserving bool
	destroyed   bool
}

// NewObserver creates an observer whose onChange callback runs whenever a
// tracked (state, key) pair changes. onChange may be nil for an observer
// that only needs Run's dependency-collection side effect (e.g. a
// hand-rolled scheduler).
func NewObserver(onChange func(ChangeEvent)) *Observer {
	return &Observer{
		id:         uuid.NewString(),
		OnChange:   onChange,
		tracked:    make(map[any]map[Key]struct{}),
		observedOn: make(map[*Metadata]struct{}),
	}
}

func (o *Observer) ID() string { return o.id }

// Run executes fn with the observer installed as the ambient tracker.
// Mutating a state the observer has read since its last Reset (during this
// run or an earlier one) raises a circular-mutation violation (always,
// regardless of strict mode: see errors.go/reportViolation) rather than
// looping.
func (o *Observer) Run(fn func()) {
	o.mu.Lock()
	if o.destroyed {
		o.mu.Unlock()
		return
	}
	o.isObserving = true
	o.mu.Unlock()

	prev := pushObserver(o)
	defer func() {
		popObserver(prev)
		o.mu.Lock()
		o.isObserving = false
		o.mu.Unlock()
	}()
	fn()
}

// Reset clears tracked keys ahead of a re-run, without destroying the
// observer's registration on the states it used to depend on: the observer
// stays in each state's observer list until Destroy, but with tracked empty
// shouldNotify matches nothing, so it is not notified until the next Run
// repopulates tracked.
func (o *Observer) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tracked = make(map[any]map[Key]struct{})
}

// Destroy detaches the observer from every state it is registered on and
// clears its internal bookkeeping. A destroyed observer's Run is a no-op.
func (o *Observer) Destroy() {
	o.mu.Lock()
	metas := make([]*Metadata, 0, len(o.observedOn))
	for m := range o.observedOn {
		metas = append(metas, m)
	}
	o.destroyed = true
	o.tracked = make(map[any]map[Key]struct{})
	o.observedOn = make(map[*Metadata]struct{})
	o.mu.Unlock()

	for _, m := range metas {
		m.removeObserver(o)
	}
}

// isTrackingRaw reports whether this observer has recorded any read against
// raw since its last Reset, in the run currently in flight or an earlier
// one. Used by the traps' circular-mutation check.
func (o *Observer) isTrackingRaw(raw any) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	keys, ok := o.tracked[raw]
	return ok && len(keys) > 0
}

func (o *Observer) isActive() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.isObserving && !o.destroyed
}

// track records that this observer read (raw, key) during its current run,
// registers the observer on meta if this is the first time it has tracked
// this raw, and enforces the safe-observation budget.
func (o *Observer) track(meta *Metadata, raw any, key Key) {
	o.mu.Lock()
	if o.destroyed {
		o.mu.Unlock()
		return
	}
	first := o.tracked[raw] == nil
	if first {
		o.tracked[raw] = make(map[Key]struct{})
	}
	o.tracked[raw][key] = struct{}{}
	_, alreadyObservedMeta := o.observedOn[meta]
	if !alreadyObservedMeta {
		o.observedOn[meta] = struct{}{}
	}
	trackedCount := len(o.tracked)
	o.mu.Unlock()

	if first {
		meta.addObserver(o)
	}

	meta.mu.Lock()
	safe := meta.options.SafeObservation
	threshold := meta.options.SafeObservationThreshold
	meta.mu.Unlock()
	if safe && trackedCount > threshold {
		reportViolation(false, &StateViolation{
			Kind:    KindUnsafeObservation,
			Message: "observer exceeded its safe-observation threshold; wrap extensive reads in Read()",
			Key:     threshold,
		})
	}
}

// shouldNotify reports whether ev, emitted against raw, falls within this
// observer's tracked dependencies.
func (o *Observer) shouldNotify(raw any, ev ChangeEvent) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	keys, ok := o.tracked[raw]
	if !ok {
		return false
	}
	if _, all := keys[collectionMutations]; all {
		return true
	}
	if len(ev.Keys) == 0 {
		// Structural events with no specific key (clear, sort, ...) notify
		// anyone tracking the collection as a whole.
		_, ok := keys[collectionMutations]
		return ok
	}
	_, ok = keys[ev.Keys[0]]
	return ok
}

// recordRead is the shared entry point every trap's Get calls: if an
// observer is ambient, tracking is enabled, and the state is observable,
// the read is recorded.
func recordRead(meta *Metadata, raw any, key Key) {
	if !isTracking() {
		return
	}
	meta.mu.Lock()
	observable := meta.options.Observable
	meta.mu.Unlock()
	if !observable {
		return
	}
	o := currentObserver()
	if o == nil || !o.isActive() {
		return
	}
	o.track(meta, raw, key)
}

// checkCircularMutation panics (via reportViolation, which always escalates
// circular violations) if the ambient observer is currently reading raw
// while a mutation against it is about to happen.
func checkCircularMutation(raw any) {
	o := currentObserver()
	if o == nil || !o.isActive() {
		return
	}
	if o.isTrackingRaw(raw) {
		reportViolation(true, &StateViolation{
			Kind:    KindCircularViolation,
			Message: "mutation attempted on a state the running observer is currently reading",
		})
	}
}
