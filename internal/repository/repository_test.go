// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package repository

import (
	"context"
	"testing"
	"time"
)

func newTestRepository(t *testing.T) *GormRepository {
	t.Helper()
	r, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return r
}

func TestOpenStripsSQLitePrefix(t *testing.T) {
	cases := []struct{ in, want string }{
		{"sqlite:./data.db", "./data.db"},
		{"./data.db", "./data.db"},
		{"sqlite::memory:", ":memory:"},
	}
	for _, c := range cases {
		if got := stripSQLitePrefix(c.in); got != c.want {
			t.Errorf("stripSQLitePrefix(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestInsertGetUpdateRemoveTask(t *testing.T) {
	ctx := context.Background()
	r := newTestRepository(t)

	task := Task{
		FileName:            "model.bin",
		FileSize:            1024,
		FileURL:             "https://example.com/model.bin",
		SupportsResume:      true,
		TempFilesPath:       "./temp",
		FinalFilePath:       "./downloads/model.bin",
		MaxThreads:          4,
		PercentageCompleted: 0,
		DateCreated:         time.Now(),
		ContentType:         "application/octet-stream",
	}

	inserted, err := r.InsertTask(ctx, task)
	if err != nil {
		t.Fatalf("InsertTask: %v", err)
	}
	if inserted.ID == 0 {
		t.Fatal("InsertTask did not assign an id")
	}

	byID, ok, err := r.GetTaskByID(ctx, inserted.ID)
	if err != nil || !ok {
		t.Fatalf("GetTaskByID: ok=%v err=%v", ok, err)
	}
	if byID.FileName != "model.bin" {
		t.Fatalf("FileName = %q", byID.FileName)
	}

	byURL, ok, err := r.GetTaskByURL(ctx, task.FileURL)
	if err != nil || !ok {
		t.Fatalf("GetTaskByURL: ok=%v err=%v", ok, err)
	}
	if byURL.ID != inserted.ID {
		t.Fatalf("GetTaskByURL returned a different row")
	}

	inserted.PercentageCompleted = 100
	updated, err := r.UpdateTask(ctx, inserted)
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if updated.PercentageCompleted != 100 {
		t.Fatalf("PercentageCompleted = %v, want 100", updated.PercentageCompleted)
	}

	refetched, _, err := r.GetTaskByID(ctx, inserted.ID)
	if err != nil {
		t.Fatal(err)
	}
	if refetched.PercentageCompleted != 100 {
		t.Fatalf("persisted PercentageCompleted = %v, want 100", refetched.PercentageCompleted)
	}

	if err := r.RemoveTask(ctx, inserted.ID); err != nil {
		t.Fatalf("RemoveTask: %v", err)
	}
	_, ok, err := r.GetTaskByID(ctx, inserted.ID)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("task still present after RemoveTask")
	}
}

func TestGetTasksFilters(t *testing.T) {
	ctx := context.Background()
	r := newTestRepository(t)

	mk := func(pct float64) {
		if _, err := r.InsertTask(ctx, Task{FileName: "f", FileURL: "u" + time.Now().String(), PercentageCompleted: pct, DateCreated: time.Now()}); err != nil {
			t.Fatal(err)
		}
	}
	mk(100)
	mk(42)
	mk(0)

	all, err := r.GetTasks(ctx, FilterAll)
	if err != nil || len(all) != 3 {
		t.Fatalf("FilterAll len = %d err = %v", len(all), err)
	}
	completed, err := r.GetTasks(ctx, FilterCompleted)
	if err != nil || len(completed) != 1 {
		t.Fatalf("FilterCompleted len = %d err = %v", len(completed), err)
	}
	inProgress, err := r.GetTasks(ctx, FilterInProgress)
	if err != nil || len(inProgress) != 2 {
		t.Fatalf("FilterInProgress len = %d err = %v", len(inProgress), err)
	}
}

func TestSupportsResumeStandardizedOnNotEqualZero(t *testing.T) {
	// Guards against the inconsistent >1 / >=1 derivations this repo
	// deliberately avoids: SupportsResume is a plain bool column, so any
	// non-zero stored value must read back true, and zero must read
	// back false, with no special-casing of the value 1 vs >1.
	ctx := context.Background()
	r := newTestRepository(t)

	t1, err := r.InsertTask(ctx, Task{FileName: "a", FileURL: "a", SupportsResume: true, DateCreated: time.Now()})
	if err != nil {
		t.Fatal(err)
	}
	t2, err := r.InsertTask(ctx, Task{FileName: "b", FileURL: "b", SupportsResume: false, DateCreated: time.Now()})
	if err != nil {
		t.Fatal(err)
	}

	got1, _, err := r.GetTaskByID(ctx, t1.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got1.SupportsResume {
		t.Fatal("SupportsResume = false, want true")
	}
	got2, _, err := r.GetTaskByID(ctx, t2.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got2.SupportsResume {
		t.Fatal("SupportsResume = true, want false")
	}
}
