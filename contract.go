package reactor

// allowList gates a write contract's permitted keys and mutation-method
// names. An absent allow-list (Writable called with no names) permits every
// write, the equivalent of unlocking the immutable entirely; a non-empty list
// permits only the named keys/methods and rejects everything else.
type allowList struct {
	open    bool
	members map[string]struct{}
}

func newAllowList(names []string) allowList {
	if len(names) == 0 {
		return allowList{open: true}
	}
	members := make(map[string]struct{}, len(names))
	for _, n := range names {
		members[n] = struct{}{}
	}
	return allowList{members: members}
}

func (a allowList) permits(name string) bool {
	if a.open {
		return true
	}
	_, ok := a.members[name]
	return ok
}

func contractViolation(name any) *StateViolation {
	return &StateViolation{Kind: KindContractViolation, Message: "write not permitted by contract", Key: name}
}

// ObjectContract is the write-facade over an immutable Object returned by
// Writable: reads pass through unchanged, writes are checked against an
// allow-list of keys before being let through the base Object's immutable
// trap via withImmutableBypass.
type ObjectContract struct {
	base    *Object
	allowed allowList
}

func (c *ObjectContract) Raw() any            { return c.base.Raw() }
func (c *ObjectContract) metadata() *Metadata { return c.base.metadata() }
func (c *ObjectContract) Get(key string) any  { return c.base.Get(key) }
func (c *ObjectContract) Has(key string) bool { return c.base.Has(key) }
func (c *ObjectContract) Keys() []string      { return c.base.Keys() }
func (c *ObjectContract) Len() int            { return c.base.Len() }

func (c *ObjectContract) Set(key string, value any) error {
	if !c.allowed.permits(key) {
		v := contractViolation(key)
		reportViolation(false, v)
		return v
	}
	var err error
	withImmutableBypass(func() { err = c.base.Set(key, value) })
	return err
}

func (c *ObjectContract) Delete(key string) error {
	if !c.allowed.permits(key) {
		v := contractViolation(key)
		reportViolation(false, v)
		return v
	}
	var err error
	withImmutableBypass(func() { err = c.base.Delete(key) })
	return err
}

// ArrayContract is the write-facade over an immutable Array: mutation
// methods (not index keys) are what's allow-listed, since an array's
// write surface is its method set rather than arbitrary keys.
type ArrayContract struct {
	base    *Array
	allowed allowList
}

func (c *ArrayContract) Raw() any            { return c.base.Raw() }
func (c *ArrayContract) metadata() *Metadata { return c.base.metadata() }
func (c *ArrayContract) Get(i int) any        { return c.base.Get(i) }
func (c *ArrayContract) Len() int             { return c.base.Len() }
func (c *ArrayContract) Items() []any         { return c.base.Items() }

func (c *ArrayContract) Push(items ...any) (int, error) {
	if !c.allowed.permits("push") {
		v := contractViolation("push")
		reportViolation(false, v)
		return 0, v
	}
	var n int
	var err error
	withImmutableBypass(func() { n, err = c.base.Push(items...) })
	return n, err
}

func (c *ArrayContract) Pop() (any, error) {
	if !c.allowed.permits("pop") {
		v := contractViolation("pop")
		reportViolation(false, v)
		return nil, v
	}
	var out any
	var err error
	withImmutableBypass(func() { out, err = c.base.Pop() })
	return out, err
}

func (c *ArrayContract) Shift() (any, error) {
	if !c.allowed.permits("shift") {
		v := contractViolation("shift")
		reportViolation(false, v)
		return nil, v
	}
	var out any
	var err error
	withImmutableBypass(func() { out, err = c.base.Shift() })
	return out, err
}

func (c *ArrayContract) Unshift(items ...any) (int, error) {
	if !c.allowed.permits("unshift") {
		v := contractViolation("unshift")
		reportViolation(false, v)
		return 0, v
	}
	var n int
	var err error
	withImmutableBypass(func() { n, err = c.base.Unshift(items...) })
	return n, err
}

func (c *ArrayContract) Splice(start, deleteCount int, ins ...any) ([]any, error) {
	if !c.allowed.permits("splice") {
		v := contractViolation("splice")
		reportViolation(false, v)
		return nil, v
	}
	var out []any
	var err error
	withImmutableBypass(func() { out, err = c.base.Splice(start, deleteCount, ins...) })
	return out, err
}

func (c *ArrayContract) Set(i int, value any) error {
	if !c.allowed.permits("set") {
		v := contractViolation(i)
		reportViolation(false, v)
		return v
	}
	var err error
	withImmutableBypass(func() { err = c.base.Set(i, value) })
	return err
}

func (c *ArrayContract) Sort(compare func(x, y any) int) error {
	if !c.allowed.permits("sort") {
		v := contractViolation("sort")
		reportViolation(false, v)
		return v
	}
	var err error
	withImmutableBypass(func() { err = c.base.Sort(compare) })
	return err
}

func (c *ArrayContract) Reverse() error {
	if !c.allowed.permits("reverse") {
		v := contractViolation("reverse")
		reportViolation(false, v)
		return v
	}
	var err error
	withImmutableBypass(func() { err = c.base.Reverse() })
	return err
}

func (c *ArrayContract) Fill(value any, start, end int) error {
	if !c.allowed.permits("fill") {
		v := contractViolation("fill")
		reportViolation(false, v)
		return v
	}
	var err error
	withImmutableBypass(func() { err = c.base.Fill(value, start, end) })
	return err
}

func (c *ArrayContract) CopyWithin(target, start, end int) error {
	if !c.allowed.permits("copyWithin") {
		v := contractViolation("copyWithin")
		reportViolation(false, v)
		return v
	}
	var err error
	withImmutableBypass(func() { err = c.base.CopyWithin(target, start, end) })
	return err
}

// DictContract is the write-facade over an immutable Dict, gated by key.
type DictContract struct {
	base    *Dict
	allowed allowList
}

func (c *DictContract) Raw() any            { return c.base.Raw() }
func (c *DictContract) metadata() *Metadata { return c.base.metadata() }
func (c *DictContract) Get(key any) any     { return c.base.Get(key) }
func (c *DictContract) Has(key any) bool    { return c.base.Has(key) }
func (c *DictContract) Keys() []any         { return c.base.Keys() }
func (c *DictContract) Len() int            { return c.base.Len() }

func (c *DictContract) Set(key, value any) error {
	name, _ := key.(string)
	if !c.allowed.permits(name) {
		v := contractViolation(key)
		reportViolation(false, v)
		return v
	}
	var err error
	withImmutableBypass(func() { err = c.base.Set(key, value) })
	return err
}

func (c *DictContract) Delete(key any) error {
	name, _ := key.(string)
	if !c.allowed.permits(name) {
		v := contractViolation(key)
		reportViolation(false, v)
		return v
	}
	var err error
	withImmutableBypass(func() { err = c.base.Delete(key) })
	return err
}

func (c *DictContract) Clear() error {
	if !c.allowed.permits("clear") {
		v := contractViolation("clear")
		reportViolation(false, v)
		return v
	}
	var err error
	withImmutableBypass(func() { err = c.base.Clear() })
	return err
}

// CollectionContract is the write-facade over an immutable Collection,
// gated by mutation-method name ("add", "delete", "clear").
type CollectionContract struct {
	base    *Collection
	allowed allowList
}

func (c *CollectionContract) Raw() any              { return c.base.Raw() }
func (c *CollectionContract) metadata() *Metadata   { return c.base.metadata() }
func (c *CollectionContract) Has(value any) bool    { return c.base.Has(value) }
func (c *CollectionContract) Len() int              { return c.base.Len() }
func (c *CollectionContract) Values() []any         { return c.base.Values() }

func (c *CollectionContract) Add(value any) error {
	if !c.allowed.permits("add") {
		v := contractViolation("add")
		reportViolation(false, v)
		return v
	}
	var err error
	withImmutableBypass(func() { err = c.base.Add(value) })
	return err
}

func (c *CollectionContract) Delete(value any) error {
	if !c.allowed.permits("delete") {
		v := contractViolation("delete")
		reportViolation(false, v)
		return v
	}
	var err error
	withImmutableBypass(func() { err = c.base.Delete(value) })
	return err
}

func (c *CollectionContract) Clear() error {
	if !c.allowed.permits("clear") {
		v := contractViolation("clear")
		reportViolation(false, v)
		return v
	}
	var err error
	withImmutableBypass(func() { err = c.base.Clear() })
	return err
}

// Writable builds a write-facade over an immutable view: reads pass straight
// through; writes and mutation methods named in allow succeed and are
// applied to the same underlying raw container, everything else is rejected
// as a contract violation and leaves the state unchanged.
func Writable(view View, allow ...string) (View, error) {
	allowed := newAllowList(allow)
	switch t := view.(type) {
	case *Object:
		return &ObjectContract{base: t, allowed: allowed}, nil
	case *Array:
		return &ArrayContract{base: t, allowed: allowed}, nil
	case *Dict:
		return &DictContract{base: t, allowed: allowed}, nil
	case *Collection:
		return &CollectionContract{base: t, allowed: allowed}, nil
	default:
		v := &StateViolation{Kind: KindTrapMisuse, Message: "writable called on an unsupported view kind"}
		reportViolation(false, v)
		return nil, v
	}
}
