// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"rangefetch/internal/repository"
)

func newShowDownloadsCmd(ctx context.Context, ro *RootOpts, deps Deps) *cobra.Command {
	var filterFlag string

	cmd := &cobra.Command{
		Use:   "show-downloads",
		Short: "List persisted download tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseFilter(filterFlag)
			if err != nil {
				return err
			}
			tasks, err := deps.Repo.GetTasks(ctx, filter)
			if err != nil {
				return err
			}
			if ro.JSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(tasks)
			}
			return printTasks(tasks)
		},
	}

	cmd.Flags().StringVar(&filterFlag, "filter", "all", "One of: all, completed, in-progress")
	return cmd
}

func parseFilter(s string) (repository.Filter, error) {
	switch s {
	case "", "all":
		return repository.FilterAll, nil
	case "completed":
		return repository.FilterCompleted, nil
	case "in-progress":
		return repository.FilterInProgress, nil
	default:
		return 0, fmt.Errorf("unknown --filter %q (want all, completed, in-progress)", s)
	}
}

func printTasks(tasks []repository.Task) error {
	if len(tasks) == 0 {
		fmt.Println("no downloads recorded")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFILE\tPROGRESS\tURL")
	for _, t := range tasks {
		fmt.Fprintf(w, "%d\t%s\t%.1f%%\t%s\n", t.ID, t.FileName, t.PercentageCompleted, t.FileURL)
	}
	return w.Flush()
}
