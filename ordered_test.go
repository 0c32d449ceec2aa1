package reactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intCompare(a, b any) int {
	x, y := a.(int), b.(int)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

func TestOrderedArraySingleInsert(t *testing.T) {
	arr := Ordered([]any{1, 3, 5}, intCompare)

	_, err := arr.Push(4)
	require.NoError(t, err)

	assert.Equal(t, []any{1, 3, 4, 5}, arr.Items())
}

func TestOrderedArrayBulkInsertSorts(t *testing.T) {
	arr := Ordered([]any{1, 3, 5}, intCompare)

	_, err := arr.Push(0, 2, 6, 4, 2, 8)
	require.NoError(t, err)

	assert.Equal(t, []any{0, 1, 2, 2, 3, 4, 4, 5, 6, 8}, arr.Items())
}
