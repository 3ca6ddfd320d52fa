package store

import "sort"

// Range is an inclusive span of message ids missing from the store.
type Range struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// FindMissingRanges returns the contiguous id ranges that lie inside the
// numeric span of ids but are not present in it. The input may arrive in
// any order; it is sorted once and scanned pairwise.
func FindMissingRanges(ids []int64) []Range {
	if len(ids) < 2 {
		return nil
	}

	sorted := make([]int64, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var ranges []Range
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if cur-prev > 1 {
			ranges = append(ranges, Range{From: prev + 1, To: cur - 1})
		}
	}
	return ranges
}
