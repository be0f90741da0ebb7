// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Session is the live orchestrator of a single URL's download. It owns
// the per-range Fetcher goroutines and the completed-parts mapping, and
// is shared behind a single mutex: Fetchers hold the lock only during
// setup, event delivery, and the brief copy of FileMeta before their
// streaming loop, never across a network read.
type Session struct {
	mu sync.Mutex

	meta        FileMeta
	outputDir   string
	tempDir     string
	useInMemory bool
	maxThreads  int
	maxRetries  int

	onProgress OnProgress
	onComplete OnComplete
	onError    OnError

	client *http.Client
	logger *slog.Logger

	state          SessionState
	aggregate      int64
	retryDownload  bool
	totalParts     int
	completedParts map[int]PartStorage
	completed      bool
}

// Options bundles the construction parameters shared by New and Restore.
type Options struct {
	Meta        FileMeta
	OutputDir   string
	TempDir     string
	OnProgress  OnProgress
	OnComplete  OnComplete
	OnError     OnError
	UseInMemory bool
	MaxThreads  int
	MaxRetries  int
	Client      *http.Client
	Logger      *slog.Logger
}

func newSession(opts Options, startBytesDone int64) *Session {
	client := opts.Client
	if client == nil {
		client = NewHTTPClient()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxThreads := opts.MaxThreads
	if maxThreads < 1 {
		maxThreads = 1
	}
	return &Session{
		meta:           opts.Meta,
		outputDir:      opts.OutputDir,
		tempDir:        opts.TempDir,
		useInMemory:    opts.UseInMemory,
		maxThreads:     maxThreads,
		maxRetries:     opts.MaxRetries,
		onProgress:     opts.OnProgress,
		onComplete:     opts.OnComplete,
		onError:        opts.OnError,
		client:         client,
		logger:         logger,
		state:          StateDownloading,
		aggregate:      startBytesDone,
		completedParts: make(map[int]PartStorage),
	}
}

// New constructs a fresh Session, validating that the directories it
// will write to already exist.
func New(opts Options) (*Session, error) {
	if err := requireDir(opts.OutputDir); err != nil {
		return nil, err
	}
	if !opts.UseInMemory {
		if err := requireDir(opts.TempDir); err != nil {
			return nil, err
		}
	}
	return newSession(opts, 0), nil
}

// Restore constructs a Session for a resumed download, starting the
// aggregate progress counter from bytesAlreadyDone as reported by the
// task repository. It deliberately skips the directory-existence checks
// New performs, on the assumption the caller already has the
// environment established from the prior run.
func Restore(opts Options, bytesAlreadyDone int64) *Session {
	return newSession(opts, bytesAlreadyDone)
}

func requireDir(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return NewStorageError(fmt.Sprintf("required directory %q", path), err)
	}
	if !fi.IsDir() {
		return NewStorageError(fmt.Sprintf("%q is not a directory", path), nil)
	}
	return nil
}

// Pause requests that every Fetcher stop at its next chunk boundary,
// retaining the bytes written so far for a later resume.
func (s *Session) Pause() {
	s.mu.Lock()
	s.state = StatePaused
	s.mu.Unlock()
}

// Resume clears a prior Pause. There is no external trigger wired to
// this in the CLI; it exists for programmatic callers.
func (s *Session) Resume() {
	s.mu.Lock()
	s.state = StateDownloading
	s.mu.Unlock()
}

func (s *Session) isPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StatePaused
}

func (s *Session) shouldRetryNow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retryDownload
}

// Download plans ranges from meta and MaxThreads, spawns one Fetcher
// per range, and waits for all of them to finish. It returns the
// aggregate bytes downloaded; the caller compares this against
// meta.ContentLength to detect an incomplete run. Fetcher failures
// never surface as a returned error here — each is delivered through
// OnError as it happens.
func (s *Session) Download(ctx context.Context) (int64, error) {
	ranges := Plan(s.meta, s.maxThreads)

	s.mu.Lock()
	s.totalParts = len(ranges)
	s.mu.Unlock()

	// errgroup fans the fetchers out and joins them; its first-error
	// cancellation is never triggered because the work functions below
	// always return nil (fetcher failures are delivered via OnError,
	// not propagated through the join, per the join semantics in the
	// error-handling design).
	var g errgroup.Group
	for _, rng := range ranges {
		rng := rng
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					s.failRange(NewUnknownError("fetcher panic", fmt.Errorf("%v", r)))
				}
			}()
			s.runFetcher(ctx, rng)
			return nil
		})
	}
	_ = g.Wait()

	s.mu.Lock()
	done := s.aggregate
	s.mu.Unlock()
	return done, nil
}

func (s *Session) reportProgress(delta int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aggregate += delta
	if s.onProgress != nil && s.meta.ContentLength > 0 {
		s.onProgress(Progress{BytesDone: s.aggregate, Total: s.meta.ContentLength}.Percentage())
	}
}

// tryReportProgress is the non-blocking variant used inside a Fetcher's
// streaming loop: if the session lock is contended, the update is
// skipped rather than serializing all parts behind the shared counter.
func (s *Session) tryReportProgress(delta int64) {
	if !s.mu.TryLock() {
		return
	}
	defer s.mu.Unlock()
	s.aggregate += delta
	if s.onProgress != nil && s.meta.ContentLength > 0 {
		s.onProgress(Progress{BytesDone: s.aggregate, Total: s.meta.ContentLength}.Percentage())
	}
}

// completeRange records one range's completion and, once every range
// has completed, runs the Assembler and fires the completion callbacks.
func (s *Session) completeRange(rangeID int, storage PartStorage) {
	s.mu.Lock()
	s.retryDownload = true
	s.completedParts[rangeID] = storage
	done := len(s.completedParts) >= s.totalParts
	s.mu.Unlock()

	if !done {
		return
	}

	finalPath, err := s.assemble()
	if err != nil {
		if s.onError != nil {
			s.onError(err)
		}
		return
	}

	s.mu.Lock()
	s.aggregate = s.meta.ContentLength
	s.completed = true
	s.mu.Unlock()

	if s.onProgress != nil {
		s.onProgress(100)
	}
	if s.onComplete != nil {
		s.onComplete(finalPath)
	}
}

// assemble concatenates completed parts in strictly ascending range-id
// order into the final output file, regardless of completion order.
func (s *Session) assemble() (string, error) {
	s.mu.Lock()
	fileName := s.meta.FileName
	outputDir := s.outputDir
	total := s.totalParts
	parts := s.completedParts
	s.mu.Unlock()

	finalPath := filepath.Join(outputDir, fileName)
	out, err := os.Create(finalPath)
	if err != nil {
		return "", NewStorageError("create final file", err)
	}
	defer out.Close()

	for id := 0; id < total; id++ {
		storage, ok := parts[id]
		if !ok {
			return "", NewStorageError(fmt.Sprintf("missing completed part %d", id), nil)
		}
		if err := storage.Rewind(); err != nil {
			return "", NewStorageError("rewind part for assembly", err)
		}
		data, err := storage.ReadAll()
		if err != nil {
			return "", NewStorageError("read part for assembly", err)
		}
		if _, err := out.Write(data); err != nil {
			return "", NewStorageError("write final file", err)
		}
	}
	return finalPath, nil
}

// Cleanup removes the per-range temp files once a download has
// completed successfully. It is an explicit step the caller invokes
// after Download returns, rather than destructor-triggered I/O, so
// teardown latency stays predictable. It is a no-op (and safe to call)
// when the session never completed or used in-memory storage.
func (s *Session) Cleanup() {
	s.mu.Lock()
	completed := s.completed
	useInMemory := s.useInMemory
	fileName := s.meta.FileName
	tempDir := s.tempDir
	total := s.totalParts
	parts := s.completedParts
	s.mu.Unlock()

	if !completed || useInMemory {
		return
	}
	for id := 0; id < total; id++ {
		if storage, ok := parts[id]; ok {
			_ = storage.Close()
		}
		path := filepath.Join(tempDir, fmt.Sprintf("%s.%d", fileName, id))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("cleanup: failed to remove temp part", "path", path, "error", err)
		}
	}
}

// Completed reports whether the session has finished assembly.
func (s *Session) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

// TotalParts reports the planned part count, valid once Download has
// started planning.
func (s *Session) TotalParts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalParts
}
