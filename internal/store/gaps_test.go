package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindMissingRangesReportsHoles(t *testing.T) {
	ranges := FindMissingRanges([]int64{5, 6, 9, 10, 15})
	require.Len(t, ranges, 2)
	assert.Equal(t, Range{From: 7, To: 8}, ranges[0])
	assert.Equal(t, Range{From: 11, To: 14}, ranges[1])
}

func TestFindMissingRangesContiguous(t *testing.T) {
	assert.Empty(t, FindMissingRanges([]int64{1, 2, 3}))
}

func TestFindMissingRangesEmpty(t *testing.T) {
	assert.Empty(t, FindMissingRanges(nil))
	assert.Empty(t, FindMissingRanges([]int64{}))
	assert.Empty(t, FindMissingRanges([]int64{42}))
}

func TestFindMissingRangesUnsortedInput(t *testing.T) {
	ranges := FindMissingRanges([]int64{15, 5, 10, 9, 6})
	require.Len(t, ranges, 2)
	assert.Equal(t, Range{From: 7, To: 8}, ranges[0])
	assert.Equal(t, Range{From: 11, To: 14}, ranges[1])
}

func TestFindMissingRangesDoesNotMutateInput(t *testing.T) {
	ids := []int64{15, 5, 10}
	FindMissingRanges(ids)
	assert.Equal(t, []int64{15, 5, 10}, ids)
}
