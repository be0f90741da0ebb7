// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// PartStorage is the capability set shared by the in-memory and on-disk
// backings for one downloaded range: append bytes as they stream in,
// then rewind and read the whole part back for assembly.
type PartStorage interface {
	// Append writes p to the end of the part.
	Append(p []byte) (int, error)
	// Rewind seeks back to the start of the part, ready for ReadAll.
	Rewind() error
	// ReadAll returns the part's contents from the current position.
	// Rewind must be called first if any bytes have been written or
	// read since the part was opened.
	ReadAll() ([]byte, error)
	// Close releases any underlying resources (file handles). It does
	// not delete on-disk data; see Cleanup in session.go for that.
	Close() error
}

// memoryStorage backs a part with a growable in-memory buffer.
type memoryStorage struct {
	buf *bytes.Buffer
}

// newMemoryStorage allocates a buffer pre-sized to capacityHint bytes to
// avoid repeated growth during streaming.
func newMemoryStorage(capacityHint int64) *memoryStorage {
	buf := bytes.NewBuffer(nil)
	if capacityHint > 0 && capacityHint < 1<<30 {
		buf.Grow(int(capacityHint))
	}
	return &memoryStorage{buf: buf}
}

func (m *memoryStorage) Append(p []byte) (int, error) { return m.buf.Write(p) }
func (m *memoryStorage) Rewind() error                { return nil }
func (m *memoryStorage) ReadAll() ([]byte, error)      { return m.buf.Bytes(), nil }
func (m *memoryStorage) Close() error                  { return nil }

// fileStorage backs a part with an on-disk file handle, opened either
// truncated (fresh part) or in append mode (resumed part).
type fileStorage struct {
	path string
	f    *os.File
}

// openFileStorage opens path for a fresh part (truncate) or a resumed
// part (append), per the append flag.
func openFileStorage(path string, appendMode bool) (*fileStorage, error) {
	flags := os.O_RDWR | os.O_CREATE
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &fileStorage{path: path, f: f}, nil
}

func (s *fileStorage) Append(p []byte) (int, error) { return s.f.Write(p) }

func (s *fileStorage) Rewind() error {
	_, err := s.f.Seek(0, io.SeekStart)
	return err
}

func (s *fileStorage) ReadAll() ([]byte, error) {
	return io.ReadAll(s.f)
}

func (s *fileStorage) Close() error {
	return s.f.Close()
}
