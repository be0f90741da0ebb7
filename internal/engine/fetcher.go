// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const streamBufLen = 32 * 1024

// backoffTick is the 429 backoff poll interval. It is a var, not a
// const, so tests can shorten it rather than waiting out the real
// 30-second interval.
var backoffTick = 30 * time.Second

// runFetcher is the per-range state machine described by the Fetcher
// contract: select storage, request with retry, stream into storage,
// and report progress/completion back to the Session. It runs on its
// own goroutine, one per Range, and never returns an error to its
// caller's join point — failures are delivered via onError and the
// goroutine exits normally, matching the "fetcher failures don't
// propagate through the join" semantics.
func (s *Session) runFetcher(ctx context.Context, rng Range) {
	storage, rng, alreadyComplete, err := s.prepareStorage(rng)
	if err != nil {
		s.failRange(err)
		return
	}
	if alreadyComplete {
		s.reportProgress(rng.Size())
		s.completeRange(rng.ID, storage)
		return
	}

	s.mu.Lock()
	meta := s.meta
	maxRetries := s.maxRetries
	client := s.client
	single := s.totalParts == 1
	s.mu.Unlock()

	if err := s.requestAndStream(ctx, client, meta, maxRetries, single, &rng, storage); err != nil {
		_ = storage.Close()
		s.failRange(err)
		return
	}
	if s.isPaused() {
		_ = storage.Close()
		return
	}
	s.completeRange(rng.ID, storage)
}

// prepareStorage implements §4.3.1: choose in-memory vs on-disk storage,
// and short-circuit ranges whose temp file is already complete from a
// prior run. It returns the (possibly start-advanced) range.
func (s *Session) prepareStorage(rng Range) (PartStorage, Range, bool, error) {
	s.mu.Lock()
	useInMemory := s.useInMemory
	tempDir := s.tempDir
	fileName := s.meta.FileName
	supportsRanges := s.meta.SupportsRanges
	s.mu.Unlock()

	if useInMemory {
		return newMemoryStorage(rng.Size()), rng, false, nil
	}

	tempPath := filepath.Join(tempDir, fmt.Sprintf("%s.%d", fileName, rng.ID))

	appendMode := false
	if supportsRanges {
		if fi, statErr := os.Stat(tempPath); statErr == nil {
			if fi.Size() >= rng.Size() {
				storage, err := openFileStorage(tempPath, true)
				if err != nil {
					return nil, rng, false, NewStorageError("reopen completed part", err)
				}
				return storage, rng, true, nil
			}
			rng.StartByte += fi.Size()
			appendMode = true
		}
	}

	storage, err := openFileStorage(tempPath, appendMode)
	if err != nil {
		return nil, rng, false, NewStorageError("open temp file", err)
	}
	return storage, rng, false, nil
}

// requestAndStream implements §4.3.2 and §4.3.3: the retry/backoff
// request loop followed by chunked streaming into storage.
func (s *Session) requestAndStream(ctx context.Context, client *http.Client, meta FileMeta, maxRetries int, single bool, rng *Range, storage PartStorage) error {
	retries := 0
	var lastErr error

	for {
		if retries > maxRetries {
			return NewNetworkError("max retries reached", lastErr)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rng.URL, nil)
		if err != nil {
			return NewNetworkError("build request", err)
		}
		setUserAgent(req)
		sentRange := meta.SupportsRanges
		if sentRange {
			req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", rng.StartByte, rng.EndByte))
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			retries++
			continue
		}

		status := resp.StatusCode
		if status == http.StatusOK || status == http.StatusPartialContent {
			if status == http.StatusOK && sentRange {
				if !single {
					resp.Body.Close()
					return NewNetworkError("server ignored range request", nil)
				}
				// Single-range plan: a 200 in place of the expected 206
				// is equivalent to the whole body; discard any bytes a
				// prior run left in storage and restart the part from
				// offset 0.
				rng.StartByte = 0
				var resetErr error
				switch st := storage.(type) {
				case *fileStorage:
					resetErr = st.f.Truncate(0)
				case *memoryStorage:
					st.buf.Reset()
				}
				if resetErr == nil {
					resetErr = storage.Rewind()
				}
				if resetErr != nil {
					resp.Body.Close()
					return NewStorageError("reset part for full-body fallback", resetErr)
				}
			}
			if ct := resp.Header.Get("Content-Type"); strings.Contains(ct, "text/html") {
				resp.Body.Close()
				return NewNetworkError("download link expired or link doesn't point to a file", nil)
			}
			return s.stream(ctx, resp.Body, storage)
		}

		if status == http.StatusTooManyRequests {
			resp.Body.Close()
			lastErr = fmt.Errorf("unexpected status %s", resp.Status)
			if err := s.waitForRetrySignal(ctx); err != nil {
				return err
			}
			retries++
			continue
		}

		resp.Body.Close()
		return NewNetworkError(fmt.Sprintf("unexpected status %s", resp.Status), nil)
	}
}

// waitForRetrySignal blocks on a 30-second ticker until any other part
// completes or fails (flipping the session's retry_download flag), or
// ctx is canceled.
func (s *Session) waitForRetrySignal(ctx context.Context) error {
	ticker := time.NewTicker(backoffTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return NewNetworkError("canceled while backing off", ctx.Err())
		case <-ticker.C:
			if s.shouldRetryNow() {
				return nil
			}
		}
	}
}

// stream copies body into storage in chunks, reporting progress after
// each chunk via a non-blocking attempt on the session lock, and
// observing pause at each chunk boundary.
func (s *Session) stream(ctx context.Context, body io.ReadCloser, storage PartStorage) error {
	defer body.Close()
	buf := make([]byte, streamBufLen)
	for {
		select {
		case <-ctx.Done():
			return NewNetworkError("canceled during stream", ctx.Err())
		default:
		}

		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := storage.Append(buf[:n]); werr != nil {
				return NewStorageError("write part", werr)
			}
			s.tryReportProgress(int64(n))
			if s.isPaused() {
				return nil
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return NewNetworkError("read response body", err)
		}
	}
}

// failRange records a part failure: it marks the session non-complete,
// flips retry_download so waiting 429 backoffs unblock, and delivers
// the error to the user's onError callback.
func (s *Session) failRange(err error) {
	s.mu.Lock()
	s.retryDownload = true
	s.mu.Unlock()
	if s.onError != nil {
		s.onError(err)
	}
}
