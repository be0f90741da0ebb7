// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package engine

// minChunkBytes is the minimum size a planned range is allowed to decay
// to before the planner stops reducing the part count.
const minChunkBytes = 1_000_000

// Plan splits meta's content length into requestedParts contiguous,
// inclusive byte ranges. It is a pure function of its inputs.
//
// When the resource has no known length or does not support byte
// ranges, it returns a single range spanning the whole body (EndByte
// equal to ContentLength, not ContentLength-1 — the Fetcher for that
// range sends no Range header and streams the entire response).
func Plan(meta FileMeta, requestedParts int) []Range {
	if meta.ContentLength == 0 || !meta.SupportsRanges {
		return []Range{{ID: 0, StartByte: 0, EndByte: meta.ContentLength, URL: meta.URL}}
	}

	n := requestedParts
	if n < 1 {
		n = 1
	}
	for meta.ContentLength/int64(n) < minChunkBytes && n > 1 {
		n--
	}

	partSize := meta.ContentLength / int64(n)
	ranges := make([]Range, n)
	for i := 0; i < n; i++ {
		start := int64(i) * partSize
		end := start + partSize - 1
		if i == n-1 {
			end = meta.ContentLength - 1
		}
		ranges[i] = Range{ID: i, StartByte: start, EndByte: end, URL: meta.URL}
	}
	return ranges
}
