// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"bytes"
	"path/filepath"
	"testing"
)

func TestMemoryStorageAppendRewindReadAll(t *testing.T) {
	s := newMemoryStorage(4)
	if _, err := s.Append([]byte("hel")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Append([]byte("lo")); err != nil {
		t.Fatal(err)
	}
	if err := s.Rewind(); err != nil {
		t.Fatal(err)
	}
	got, err := s.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("hello")) {
		t.Fatalf("ReadAll() = %q, want %q", got, "hello")
	}
}

func TestFileStorageAppendRewindReadAll(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "part.0")

	s, err := openFileStorage(path, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Append([]byte("abc")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Append([]byte("def")); err != nil {
		t.Fatal(err)
	}
	if err := s.Rewind(); err != nil {
		t.Fatal(err)
	}
	got, err := s.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("abcdef")) {
		t.Fatalf("ReadAll() = %q, want %q", got, "abcdef")
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestFileStorageAppendModeResumesExistingBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "part.1")

	s1, err := openFileStorage(path, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s1.Append([]byte("0123456789")); err != nil {
		t.Fatal(err)
	}
	if err := s1.Close(); err != nil {
		t.Fatal(err)
	}

	s2, err := openFileStorage(path, true)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	if _, err := s2.Append([]byte("ABC")); err != nil {
		t.Fatal(err)
	}
	if err := s2.Rewind(); err != nil {
		t.Fatal(err)
	}
	got, err := s2.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("0123456789ABC")) {
		t.Fatalf("ReadAll() = %q", got)
	}
}
