package reactor

import "encoding/json"

// Snapshot deep-copies view into plain Go values (map[string]any, []any,
// map[any]any, []any for a Collection) without touching the ambient
// tracker, so taking a snapshot inside an observer's run never creates a
// spurious dependency.
func Snapshot(view View) any {
	return Untrack(func() any { return snapshotAny(view) })
}

func snapshotAny(v any) any {
	switch t := v.(type) {
	case *Object:
		out := make(map[string]any, t.Len())
		for _, k := range t.Keys() {
			out[k] = snapshotAny(t.Get(k))
		}
		return out
	case *Array:
		items := t.Items()
		out := make([]any, len(items))
		for i, v := range items {
			out[i] = snapshotAny(v)
		}
		return out
	case *Dict:
		out := make(map[any]any, t.Len())
		for _, k := range t.Keys() {
			out[k] = snapshotAny(t.Get(k))
		}
		return out
	case *Collection:
		values := t.Values()
		out := make([]any, len(values))
		for i, v := range values {
			out[i] = snapshotAny(v)
		}
		return out
	default:
		return v
	}
}

// Stringify renders Snapshot(view) as JSON.
// A Dict with non-string keys cannot round-trip through encoding/json's
// object model, so its snapshot is rendered as a list of {key,value}
// pairs instead of a JSON object.
func Stringify(view View) (string, error) {
	snap := Snapshot(view)
	snap = jsonSafe(snap)
	b, err := json.Marshal(snap)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func jsonSafe(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, v := range t {
			out[k] = jsonSafe(v)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, v := range t {
			out[i] = jsonSafe(v)
		}
		return out
	case map[any]any:
		entries := make([]DictEntry, 0, len(t))
		for k, v := range t {
			entries = append(entries, DictEntry{Key: k, Value: jsonSafe(v)})
		}
		return entries
	default:
		return v
	}
}

// Read runs fn with dependency tracking suspended, the named alias Subscribe
// handlers and computed values use when they need to peek at other state
// without subscribing to it.
func Read[T any](fn func() T) T {
	return Untrack(fn)
}
