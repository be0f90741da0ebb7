// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newDeleteCmd(ctx context.Context, ro *RootOpts, deps Deps) *cobra.Command {
	var removeFile bool

	cmd := &cobra.Command{
		Use:   "delete <id> [remove_file]",
		Short: "Remove a task record, optionally deleting its temp parts and final file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("id must be a positive integer, got %q", args[0])
			}
			if len(args) == 2 {
				switch strings.ToLower(args[1]) {
				case "true", "1", "yes":
					removeFile = true
				}
			}

			task, ok, err := deps.Repo.GetTaskByID(ctx, uint(id))
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no task with id %d", id)
			}

			if removeFile {
				removePartFiles(deps.TempDir, task.FileName, task.MaxThreads)
				if task.FinalFilePath != "" {
					if err := os.Remove(task.FinalFilePath); err != nil && !os.IsNotExist(err) {
						ro.Logger.Warn("failed to remove final file", "path", task.FinalFilePath, "error", err)
					}
				}
			}

			if err := deps.Repo.RemoveTask(ctx, uint(id)); err != nil {
				return err
			}
			fmt.Printf("removed task %d\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVar(&removeFile, "remove-file", false, "Also delete the temp parts and final file on disk")
	return cmd
}

// removePartFiles deletes temp part {fileName}.{i} for i = 0..maxThreads-1,
// stopping at the first that is already missing.
func removePartFiles(tempDir, fileName string, maxThreads int) {
	for i := 0; i < maxThreads; i++ {
		path := filepath.Join(tempDir, fmt.Sprintf("%s.%d", fileName, i))
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				return
			}
		}
	}
}
