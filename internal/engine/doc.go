// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

// Package engine implements a multi-connection HTTP download engine
// with persistent, resumable session state.
//
// Given a probed URL, Plan splits its content length into byte ranges
// under a minimum-chunk constraint, a Session spawns one Fetcher
// goroutine per range, each Fetcher streams its range into a
// PartStorage (in-memory or on-disk) with retry and 429 backoff, and
// once every range has completed the Session assembles the parts in
// ascending range-id order into the final file.
//
// Crash and restart recovery is a property of on-disk PartStorage: a
// Fetcher's entry check compares an existing temp file's length against
// its range size and resumes from there, or skips the network request
// entirely if the part was already complete.
package engine
