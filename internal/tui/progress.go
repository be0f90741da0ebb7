// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

// Package tui renders the live download progress bar shown by the CLI.
package tui

import (
	"sync"

	"github.com/cheggaaa/pb/v3"
)

// ProgressBar renders a single download's aggregate percentage using a
// byte-counted bar with speed and ETA.
type ProgressBar struct {
	mu    sync.Mutex
	bar   *pb.ProgressBar
	total int64
}

const tmpl = `{{string . "prefix"}}{{counters . }} {{bar . }} {{percent . }} {{speed . }} {{rtime . "ETA %s"}}`

// NewProgressBar builds a bar for a file of the given total size. If
// total is unknown (<= 0) the bar still renders, but Set ignores every
// update, so its counter stays at zero.
func NewProgressBar(fileName string, total int64) *ProgressBar {
	bar := pb.ProgressBarTemplate(tmpl).New(int(total))
	bar.Set(pb.Bytes, true)
	bar.Set(pb.SIBytesPrefix, true)
	bar.Set("prefix", fileName+" ")
	return &ProgressBar{bar: bar, total: total}
}

// Start begins rendering the bar to stderr.
func (p *ProgressBar) Start() {
	p.bar.Start()
}

// Set updates the bar to the given percentage in [0, 100].
func (p *ProgressBar) Set(percentage float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.total <= 0 {
		return
	}
	current := int64(percentage / 100 * float64(p.total))
	p.bar.SetCurrent(current)
}

// Finish stops the bar, leaving its final state printed.
func (p *ProgressBar) Finish() {
	p.bar.Finish()
}
