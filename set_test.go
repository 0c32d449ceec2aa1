package reactor

import "testing"

func TestCollection_AddHasDelete(t *testing.T) {
	c := newSet([]any{1, 2}, NewOptions())

	if !c.Has(1) {
		t.Error("Has(1) = false, want true")
	}
	if err := c.Add(3); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
	if err := c.Delete(2); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if c.Has(2) {
		t.Error("Has(2) = true after Delete, want false")
	}
}

func TestCollection_AddDuplicateNoOp(t *testing.T) {
	c := newSet([]any{1}, NewOptions())
	var calls int
	Subscribe(c, func(_ View, ev ChangeEvent) { calls++ })

	c.Add(1)

	if calls != 1 {
		t.Errorf("subscriber called %d times, want 1 (init only)", calls)
	}
}

func TestCollection_ClearCarriesMembers(t *testing.T) {
	c := newSet([]any{1, 2, 3}, NewOptions())
	var clearEvent ChangeEvent
	Subscribe(c, func(_ View, ev ChangeEvent) {
		if ev.Type == OpClear {
			clearEvent = ev
		}
	})

	c.Clear()

	members, ok := clearEvent.Prev.([]any)
	if !ok || len(members) != 3 {
		t.Errorf("clear event Prev = %#v, want 3 members", clearEvent.Prev)
	}
}
