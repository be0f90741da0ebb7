// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

// Package repository is the durable store of download task records: the
// engine treats it as an opaque collaborator reachable only through the
// Repository interface below.
package repository

import "time"

// Task is the persisted record for one download, surviving process
// restarts. FileURL carries a secondary (non-unique-enforced) index so
// GetTaskByURL can drive resume detection.
type Task struct {
	ID                  uint `gorm:"primarykey"`
	FileName            string
	FileSize            int64
	FileURL             string `gorm:"index"`
	SupportsResume      bool
	TempFilesPath       string
	FinalFilePath       string
	MaxThreads          int
	PercentageCompleted float64
	DateCreated         time.Time
	ContentType         string
}

// Filter narrows GetTasks by completion state.
type Filter int

const (
	// FilterAll matches every task regardless of completion.
	FilterAll Filter = iota
	// FilterCompleted matches tasks with PercentageCompleted == 100.
	FilterCompleted
	// FilterInProgress matches tasks with PercentageCompleted in [0, 100).
	FilterInProgress
)

// Matches reports whether t satisfies f.
func (f Filter) Matches(t Task) bool {
	switch f {
	case FilterCompleted:
		return t.PercentageCompleted >= 100
	case FilterInProgress:
		return t.PercentageCompleted < 100
	default:
		return true
	}
}
