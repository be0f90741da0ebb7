// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package engine

// FileMeta describes the remote resource as reported by Probe. Once
// created it is never mutated; Fetchers work from copies.
type FileMeta struct {
	URL            string
	ContentLength  int64
	SupportsRanges bool
	ContentType    string
	FileName       string
}

// Range is one contiguous, inclusive byte interval of the remote
// resource. StartByte may advance when a Fetcher resumes a partially
// written temp file; EndByte never changes after planning.
type Range struct {
	ID        int
	StartByte int64
	EndByte   int64
	URL       string
}

// Size returns the number of bytes this range spans.
func (r Range) Size() int64 {
	return r.EndByte - r.StartByte + 1
}

// SessionState is the cooperative pause/download state observed by
// Fetchers at chunk boundaries.
type SessionState int

const (
	StateDownloading SessionState = iota
	StatePaused
)

// Progress is the aggregate byte counter reported to callers.
type Progress struct {
	BytesDone int64
	Total     int64
}

// Percentage returns BytesDone as a percentage of Total, or 0 if Total is 0.
func (p Progress) Percentage() float64 {
	if p.Total <= 0 {
		return 0
	}
	return float64(p.BytesDone) / float64(p.Total) * 100
}

// OnProgress is invoked potentially many times with a monotonically
// nondecreasing percentage in [0, 100]; the final call is exactly 100.
type OnProgress func(percentage float64)

// OnComplete is invoked exactly once, after assembly, with the path to
// the assembled file.
type OnComplete func(finalPath string)

// OnError is invoked once per failing part; it may fire multiple times
// before download() returns.
type OnError func(err error)
