package reactor

import "testing"

func TestDict_SetGetDelete(t *testing.T) {
	d := newDict(map[any]any{}, NewOptions())

	if err := d.Set("a", 1); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if got := d.Get("a"); got != 1 {
		t.Errorf("Get(a) = %v, want 1", got)
	}

	if err := d.Delete("a"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if d.Has("a") {
		t.Error("key still present after Delete")
	}
}

func TestDict_SetEmitsAddThenSet(t *testing.T) {
	d := newDict(map[any]any{}, NewOptions())
	var types []Op
	Subscribe(d, func(_ View, ev ChangeEvent) { types = append(types, ev.Type) })

	d.Set("a", 1)
	d.Set("a", 2)

	want := []Op{OpInit, OpAdd, OpSet}
	if len(types) != len(want) {
		t.Fatalf("event types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("types[%d] = %v, want %v", i, types[i], want[i])
		}
	}
}

func TestDict_ClearCarriesEntries(t *testing.T) {
	d := newDict(map[any]any{"a": 1, "b": 2}, NewOptions())
	var clearEvent ChangeEvent
	Subscribe(d, func(_ View, ev ChangeEvent) {
		if ev.Type == OpClear {
			clearEvent = ev
		}
	})

	if err := d.Clear(); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	entries, ok := clearEvent.Prev.([]DictEntry)
	if !ok || len(entries) != 2 {
		t.Errorf("clear event Prev = %#v, want 2 DictEntry values", clearEvent.Prev)
	}
	if d.Len() != 0 {
		t.Errorf("Len() = %d after Clear, want 0", d.Len())
	}
}
