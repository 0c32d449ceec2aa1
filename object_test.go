package reactor

import "testing"

func TestObject_GetSet(t *testing.T) {
	obj := newObject(map[string]any{"count": 0}, NewOptions())

	if got := obj.Get("count"); got != 0 {
		t.Errorf("Get(count) = %v, want 0", got)
	}

	if err := obj.Set("count", 1); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if got := obj.Get("count"); got != 1 {
		t.Errorf("Get(count) = %v, want 1", got)
	}
}

func TestObject_SetSameValueNoOp(t *testing.T) {
	obj := newObject(map[string]any{"count": 0}, NewOptions())
	var calls int
	Subscribe(obj, func(_ View, ev ChangeEvent) { calls++ })

	obj.Set("count", 1)
	obj.Set("count", 1)

	if calls != 2 {
		t.Errorf("subscriber called %d times, want 2 (init + one set)", calls)
	}
}

func TestObject_NestedDetach(t *testing.T) {
	obj := newObject(map[string]any{"p": map[string]any{"n": "A"}}, NewOptions())

	var events []ChangeEvent
	Subscribe(obj, func(_ View, ev ChangeEvent) {
		if ev.Type != OpInit {
			events = append(events, ev)
		}
	})

	p := obj.Get("p").(*Object)
	obj.Set("p", map[string]any{"n": "B"})
	p.Set("n", "C")

	if len(events) != 1 {
		t.Fatalf("root saw %d non-init events, want 1 (only the reassignment)", len(events))
	}
	if events[0].Keys[0] != "p" {
		t.Errorf("event key = %v, want p", events[0].Keys[0])
	}
}

func TestObject_DeleteRemovesKey(t *testing.T) {
	obj := newObject(map[string]any{"a": 1}, NewOptions())
	if err := obj.Delete("a"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if obj.Has("a") {
		t.Error("key still present after Delete")
	}
}

func TestObject_Immutable(t *testing.T) {
	obj := newObject(map[string]any{"a": 1}, NewOptions(WithImmutable(true)))
	if err := obj.Set("a", 2); err == nil {
		t.Fatal("Set on immutable object should fail")
	}
	if got := obj.Get("a"); got != 1 {
		t.Errorf("Get(a) = %v, want unchanged 1", got)
	}
}

func TestObject_Assign(t *testing.T) {
	obj := newObject(map[string]any{"a": 1, "b": 2}, NewOptions())
	if err := obj.Assign(map[string]any{"a": 10, "c": 3}); err != nil {
		t.Fatalf("Assign returned error: %v", err)
	}
	if obj.Get("a") != 10 || obj.Get("b") != 2 || obj.Get("c") != 3 {
		t.Errorf("unexpected state after Assign: a=%v b=%v c=%v", obj.Get("a"), obj.Get("b"), obj.Get("c"))
	}
}
