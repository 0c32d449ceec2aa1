package reactor

// Key identifies a slot within a container: a string for Object, an int
// for Array, or an arbitrary comparable value for Dict/Collection keys and
// members. Keys used with Dict or Collection must be comparable, the way a
// Go map key must be.
type Key = any

// Op names the kind of mutation a ChangeEvent describes.
type Op string

const (
	OpInit       Op = "init"
	OpSet        Op = "set"
	OpDelete     Op = "delete"
	OpAdd        Op = "add"
	OpClear      Op = "clear"
	OpAssign     Op = "assign"
	OpPush       Op = "push"
	OpPop        Op = "pop"
	OpShift      Op = "shift"
	OpUnshift    Op = "unshift"
	OpSplice     Op = "splice"
	OpSort       Op = "sort"
	OpReverse    Op = "reverse"
	OpFill       Op = "fill"
	OpCopyWithin Op = "copyWithin"
)

// undefinedType is the sentinel stored in place of a value that does not
// exist, distinguishing "the key existed and held nil" from "the key did
// not exist" for History's inverse application.
type undefinedType struct{}

// Undefined marks an absent previous/next value in a ChangeEvent, analogous
// to JavaScript's undefined.
var Undefined = undefinedType{}

func isUndefined(v any) bool {
	_, ok := v.(undefinedType)
	return ok
}

// ChangeEvent describes a single mutation. Keys holds the key path at the
// point of emission; EP prefixes it with the parent key as the event bubbles
// upward, so a root subscriber sees the full path.
type ChangeEvent struct {
	Type  Op
	Keys  []Key
	Prev  any
	Value any
}

// SpliceInfo is the Value payload of a splice ChangeEvent.
type SpliceInfo struct {
	Start    int
	Removed  []any
	Inserted []any
}

// DictEntry is an element of a Dict clear ChangeEvent's Prev payload.
type DictEntry struct {
	Key   any
	Value any
}

// orderedInsertMarker tags a push ChangeEvent produced by an OrderedArray,
// where inserted items may not land at the tail, so History undoes it by
// removing at the event's recorded index rather than by popping the last N
// items.
type orderedInsertMarker struct{}
