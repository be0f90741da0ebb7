// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"rangefetch/internal/engine"
	"rangefetch/internal/repository"
	"rangefetch/internal/tui"
)

func newDownloadCmd(ctx context.Context, ro *RootOpts, deps Deps) *cobra.Command {
	var maxRetries int
	var inMemory bool

	cmd := &cobra.Command{
		Use:   "download <url> <output_dir> <max_threads> [in_memory]",
		Short: "Download a file over N concurrent range requests, resuming if a matching task already exists",
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			rawURL := args[0]
			outputDir := args[1]
			maxThreads, err := strconv.Atoi(args[2])
			if err != nil || maxThreads < 1 {
				return fmt.Errorf("max_threads must be a positive integer, got %q", args[2])
			}
			if len(args) == 4 {
				switch strings.ToLower(args[3]) {
				case "true", "1", "yes":
					inMemory = true
				}
			}
			return runDownload(ctx, ro, deps, rawURL, outputDir, maxThreads, inMemory, maxRetries)
		},
	}

	cmd.Flags().IntVar(&maxRetries, "max-retries", 3, "Maximum retry attempts per range before it is abandoned")
	cmd.Flags().BoolVar(&inMemory, "in-memory", false, "Buffer parts in memory instead of on disk (no crash resume)")

	return cmd
}

func runDownload(ctx context.Context, ro *RootOpts, deps Deps, rawURL, outputDir string, maxThreads int, inMemory bool, maxRetries int) error {
	client := engine.NewHTTPClient()

	existing, found, err := deps.Repo.GetTaskByURL(ctx, rawURL)
	if err != nil {
		return err
	}

	meta, err := engine.Probe(ctx, client, rawURL)
	if err != nil {
		return err
	}
	if found {
		// Trust the previously probed file name so a resumed run keeps
		// writing to the same temp parts it left behind.
		meta.FileName = existing.FileName
		// max_threads must not change across resumes: the range plan is
		// derived from it, and the temp parts on disk were written
		// against the original plan's boundaries. Silently re-planning
		// with a different thread count would misalign prepareStorage's
		// size check against the wrong range and corrupt the assembly.
		if existing.MaxThreads > 0 && maxThreads != existing.MaxThreads {
			ro.Logger.Warn("ignoring max_threads for resumed download; using the value recorded at first run",
				"requested", maxThreads, "resumed", existing.MaxThreads)
		}
		if existing.MaxThreads > 0 {
			maxThreads = existing.MaxThreads
		}
	}

	var bar *tui.ProgressBar
	if !ro.Quiet {
		bar = tui.NewProgressBar(meta.FileName, meta.ContentLength)
		bar.Start()
		defer bar.Finish()
	}

	var lastErr error
	opts := engine.Options{
		Meta:        meta,
		OutputDir:   outputDir,
		TempDir:     deps.TempDir,
		UseInMemory: inMemory,
		MaxThreads:  maxThreads,
		MaxRetries:  maxRetries,
		Client:      client,
		Logger:      ro.Logger,
		OnProgress: func(pct float64) {
			if bar != nil {
				bar.Set(pct)
			}
		},
		OnError: func(err error) {
			lastErr = err
			ro.Logger.Error("range failed", "error", err)
		},
	}

	var sess *engine.Session
	var taskID uint
	if found {
		sess = engine.Restore(opts, bytesAlreadyDone(existing))
		taskID = existing.ID
	} else {
		sess, err = engine.New(opts)
		if err != nil {
			return err
		}
		task, err := deps.Repo.InsertTask(ctx, repository.Task{
			FileName:       meta.FileName,
			FileSize:       meta.ContentLength,
			FileURL:        rawURL,
			SupportsResume: meta.SupportsRanges,
			TempFilesPath:  deps.TempDir,
			FinalFilePath:  filepath.Join(outputDir, meta.FileName),
			MaxThreads:     maxThreads,
			DateCreated:    time.Now(),
			ContentType:    meta.ContentType,
		})
		if err != nil {
			return err
		}
		taskID = task.ID
	}

	done, err := sess.Download(ctx)
	if err != nil {
		return err
	}

	pct := float64(0)
	if meta.ContentLength > 0 {
		pct = float64(done) / float64(meta.ContentLength) * 100
	}
	task, _, err := deps.Repo.GetTaskByID(ctx, taskID)
	if err == nil {
		task.PercentageCompleted = pct
		task.FinalFilePath = filepath.Join(outputDir, meta.FileName)
		if _, err := deps.Repo.UpdateTask(ctx, task); err != nil {
			ro.Logger.Warn("failed to persist task progress", "error", err)
		}
	}

	if !sess.Completed() {
		if lastErr != nil {
			return lastErr
		}
		return fmt.Errorf("download did not complete: %d/%d bytes", done, meta.ContentLength)
	}

	sess.Cleanup()
	if ro.Quiet {
		fmt.Println(filepath.Join(outputDir, meta.FileName))
	}
	return nil
}

// bytesAlreadyDone derives the Restore starting counter from the
// persisted percentage. It is an estimate that seeds the session's
// aggregate byte counter, which drives the reported percentages and is
// the value Download returns; it is never used for range planning (Plan
// always recomputes ranges from meta.ContentLength and MaxThreads).
func bytesAlreadyDone(t repository.Task) int64 {
	if t.FileSize <= 0 {
		return 0
	}
	return int64(t.PercentageCompleted / 100 * float64(t.FileSize))
}
