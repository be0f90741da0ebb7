// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"rangefetch/internal/cli"
	"rangefetch/internal/repository"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "rangefetch:", err)
		os.Exit(1)
	}
}

func run() error {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set (e.g. sqlite:./rangefetch.db)")
	}

	tempDir := resolveTempDir()
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return fmt.Errorf("create temp dir %q: %w", tempDir, err)
	}

	repo, err := repository.Open(databaseURL)
	if err != nil {
		return err
	}

	deps := cli.Deps{
		Repo:    repo,
		TempDir: tempDir,
		Logger:  slog.Default(),
	}
	return cli.Execute(version, deps)
}

func resolveTempDir() string {
	if v := os.Getenv("TEMP_DIR"); v != "" {
		return v
	}
	if runtime.GOOS == "windows" {
		return `.\temp`
	}
	return "./temp"
}
