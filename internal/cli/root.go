// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

// Package cli wires the download engine and the task repository into a
// cobra command tree: show-downloads, download, delete.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"rangefetch/internal/repository"
)

// Deps are the process-level collaborators main.go bootstraps before
// handing off to Execute: the opened task repository and the
// already-resolved/created temp directory.
type Deps struct {
	Repo    repository.Repository
	TempDir string
	Logger  *slog.Logger
}

// RootOpts holds global CLI flags shared across subcommands. Logger is
// resolved from JSON only after flag parsing, in PersistentPreRunE, so
// every subcommand and the engine it drives log through the same
// handler for a given invocation.
type RootOpts struct {
	Quiet  bool
	JSON   bool
	Logger *slog.Logger
}

// Execute runs the CLI with the given version string and dependencies.
func Execute(version string, deps Deps) error {
	ro := &RootOpts{Logger: deps.Logger}
	if ro.Logger == nil {
		ro.Logger = slog.Default()
	}
	ctx, cancel := signalContext(context.Background())
	defer cancel()

	root := &cobra.Command{
		Use:           "rangefetch",
		Short:         "Multi-connection, resumable HTTP downloader",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if ro.JSON {
				ro.Logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
			} else {
				ro.Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
			}
			return nil
		},
	}

	root.PersistentFlags().BoolVarP(&ro.Quiet, "quiet", "q", false, "Suppress the progress bar; print only the final result")
	root.PersistentFlags().BoolVar(&ro.JSON, "json", false, "Emit a JSON log handler to stderr instead of text, and JSON output for show-downloads")

	root.AddCommand(newDownloadCmd(ctx, ro, deps))
	root.AddCommand(newShowDownloadsCmd(ctx, ro, deps))
	root.AddCommand(newDeleteCmd(ctx, ro, deps))
	root.AddCommand(newVersionCmd(version))
	root.SetHelpCommand(&cobra.Command{Use: "help", Hidden: true})

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return err
	}
	return nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
