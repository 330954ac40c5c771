package validation

import (
	"math"
	"sort"

	"github.com/morezero/uftp-compliance/pkg/message"
)

// BoundaryCheck holds when every interval starts at index 1 or later, spans at least one ISP and
// ends at or before maxIndex.
func BoundaryCheck(maxIndex uint64, isps []message.IspInfo) bool {
	for _, isp := range isps {
		if isp.Start < 1 || isp.Duration < 1 {
			return false
		}
		if isp.Start > maxIndex || isp.Duration > maxIndex-isp.Start+1 {
			return false
		}
	}
	return true
}

// ConflictCheck holds when no ISP index is covered by two intervals of the list, that is when the
// size of the union of covered indices equals the sum of the durations.
func ConflictCheck(isps []message.IspInfo) bool {
	ranges := nonEmptyRanges(isps)
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].first < ranges[j].first })
	for i := 1; i < len(ranges); i++ {
		if ranges[i].first <= ranges[i-1].last {
			return false
		}
	}
	return true
}

// indexRange is a closed range of ISP indices.
type indexRange struct {
	first, last uint64
}

func nonEmptyRanges(isps []message.IspInfo) []indexRange {
	out := make([]indexRange, 0, len(isps))
	for _, isp := range isps {
		if isp.Duration == 0 {
			continue
		}
		last := uint64(math.MaxUint64)
		if isp.Start <= math.MaxUint64-(isp.Duration-1) {
			last = isp.Start + isp.Duration - 1
		}
		out = append(out, indexRange{first: isp.Start, last: last})
	}
	return out
}

// mergeRanges returns the union of the intervals as sorted, non-adjacent ranges.
func mergeRanges(isps []message.IspInfo) []indexRange {
	ranges := nonEmptyRanges(isps)
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].first < ranges[j].first })
	merged := ranges[:0]
	for _, r := range ranges {
		if n := len(merged); n > 0 && (merged[n-1].last == math.MaxUint64 || r.first <= merged[n-1].last+1) {
			if r.last > merged[n-1].last {
				merged[n-1].last = r.last
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// coveredBy reports whether every index covered by isps is also covered by cover.
func coveredBy(isps, cover []message.IspInfo) bool {
	union := mergeRanges(cover)
	for _, r := range nonEmptyRanges(isps) {
		i := sort.Search(len(union), func(i int) bool { return union[i].last >= r.first })
		if i == len(union) || union[i].first > r.first || union[i].last < r.last {
			return false
		}
	}
	return true
}
