package reactor

import "sync"

// ambientScope is the process-global "current observer" slot, shared by
// every goroutine. Observer.Run and RunInObserver install their observer in
// this same slot, so it gives no per-goroutine isolation.
type ambientScope struct {
	mu               sync.Mutex
	observer         *Observer
	tracking         bool
	bypassImmutable  bool
}

var ambient = &ambientScope{tracking: true}

func currentObserver() *Observer {
	ambient.mu.Lock()
	defer ambient.mu.Unlock()
	return ambient.observer
}

func isTracking() bool {
	ambient.mu.Lock()
	defer ambient.mu.Unlock()
	return ambient.tracking
}

func pushObserver(o *Observer) *Observer {
	ambient.mu.Lock()
	prev := ambient.observer
	ambient.observer = o
	ambient.mu.Unlock()
	return prev
}

func popObserver(prev *Observer) {
	ambient.mu.Lock()
	ambient.observer = prev
	ambient.mu.Unlock()
}

// Untrack runs fn with dependency tracking suspended: reads performed
// inside fn are not recorded against whatever observer is currently
// running, even if one is ambient. Used internally by Snapshot/Read and
// exposed publicly for callers that need an escape hatch inside an effect.
func Untrack[T any](fn func() T) T {
	ambient.mu.Lock()
	was := ambient.tracking
	ambient.tracking = false
	ambient.mu.Unlock()
	defer func() {
		ambient.mu.Lock()
		ambient.tracking = was
		ambient.mu.Unlock()
	}()
	return fn()
}

// withImmutableBypass runs fn with the immutability check temporarily
// disabled for every container mutation it performs, however many calls
// deep. WriteContract uses this to route an allow-listed write or mutation
// method through the same trap path a direct call would use, without
// duplicating every mutation method's body in a bypass variant.
func withImmutableBypass(fn func()) {
	ambient.mu.Lock()
	was := ambient.bypassImmutable
	ambient.bypassImmutable = true
	ambient.mu.Unlock()
	defer func() {
		ambient.mu.Lock()
		ambient.bypassImmutable = was
		ambient.mu.Unlock()
	}()
	fn()
}

func immutableBypassed() bool {
	ambient.mu.Lock()
	defer ambient.mu.Unlock()
	return ambient.bypassImmutable
}

// RunInObserver runs fn with o installed as the ambient observer, the
// explicit-handle form of Observer.Run.
func RunInObserver(o *Observer, fn func()) {
	o.Run(fn)
}
