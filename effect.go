package reactor

import "sync"

// Effect creates an Observer that runs fn immediately, tracking whatever
// state fn reads, then re-runs fn whenever one of those dependencies
// changes. If fn returns a non-nil cleanup, it runs immediately before the
// next re-run and before Destroy, the same teardown-before-rerun discipline
// a UI framework's effect hook uses. The returned function destroys the
// observer and runs any outstanding cleanup.
func Effect(fn func() (cleanup func())) func() {
	var mu sync.Mutex
	var cleanup func()

	runCleanup := func() {
		mu.Lock()
		c := cleanup
		cleanup = nil
		mu.Unlock()
		if c != nil {
			safeCall(c)
		}
	}

	var o *Observer
	o = NewObserver(func(ChangeEvent) {
		runCleanup()
		o.Reset()
		o.Run(func() {
			mu.Lock()
			cleanup = fn()
			mu.Unlock()
		})
	})

	o.Run(func() {
		mu.Lock()
		cleanup = fn()
		mu.Unlock()
	})

	return func() {
		runCleanup()
		o.Destroy()
	}
}
