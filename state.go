package reactor

// rawOf returns the underlying boxed container pointer behind v, unwrapping
// one level of View so Wrap(Wrap(x)) can detect the already-boxed case and
// return the existing view instead of double-wrapping it.
func rawOf(v any) (any, bool) {
	switch t := v.(type) {
	case View:
		return t.Raw(), true
	case *rawRecord, *rawArray, *rawDict, *rawSet:
		return t, true
	default:
		return nil, false
	}
}

// Wrap is the State Constructor's entry point: it boxes raw into a reactive
// View matching its shape (map[string]any -> Object, []any -> Array,
// map[any]any -> Dict, a *rawSet built via NewSet -> Collection), or returns
// the existing view unchanged if raw is already one (Identity invariant).
// Wrapping anything else raises an init-violation and returns raw unchanged;
// in strict mode this panics instead.
func Wrap(raw any, opts ...Option) any {
	if existingRaw, ok := rawOf(raw); ok {
		if m := metaOf(existingRaw); m != nil {
			m.mu.Lock()
			view := m.view
			m.mu.Unlock()
			if view != nil {
				return view
			}
		}
	}

	o := NewOptions(opts...)
	switch t := raw.(type) {
	case map[string]any:
		return newObject(t, o)
	case []any:
		return newArray(t, o)
	case map[any]any:
		return newDict(t, o)
	case *setSeed:
		return newSet(t.values, o)
	default:
		v := &StateViolation{Kind: KindInitViolation, Message: "wrap called on a non-container value"}
		reportViolation(o.Strict, v)
		return raw
	}
}

// setSeed lets Wrap distinguish "box these values into a Set" from "box this
// slice into an Array" without adding a fifth exported container-wrapping
// function; NewSet below is the ergonomic entry point most callers use.
type setSeed struct{ values []any }

// NewSet wraps values into a Collection. Unlike Object/Array/Dict, a Go
// slice literal is ambiguous between "ordered sequence" and "set of
// members", so Set members are wrapped through this dedicated constructor
// rather than overloading Wrap's []any case.
func NewSet(values []any, opts ...Option) *Collection {
	return newSet(values, NewOptions(opts...))
}

// NewDict wraps a map[any]any into a Dict. Provided alongside Wrap for
// callers who want to skip the interface return type.
func NewDict(data map[any]any, opts ...Option) *Dict {
	return newDict(data, NewOptions(opts...))
}

// Immutable wraps raw with every write forbidden at the trap level:
// identical view, Immutable forced true regardless of what the caller
// passed.
func Immutable(raw any, opts ...Option) any {
	opts = append(append([]Option(nil), opts...), WithImmutable(true))
	return Wrap(raw, opts...)
}

// Flat wraps raw non-recursively: children remain plain Go values instead
// of being boxed into nested views.
func Flat(raw any, opts ...Option) any {
	opts = append(append([]Option(nil), opts...), WithRecursive(false))
	return Wrap(raw, opts...)
}

// RawValue returns the plain, unboxed raw container behind a View — the
// same pointer Raw() exposes, named distinctly here so the top-level
// factory surface reads as a matched set (Wrap/Immutable/Flat/RawValue).
func RawValue(view View) any {
	return view.Raw()
}
