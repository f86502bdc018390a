package main

import (
	"fmt"
	"io"

	"github.com/rk/wallify/pkg/rotation"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the last change and recent history",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := openPrefs()
			if err != nil {
				return err
			}
			return printStatus(cmd.OutOrStdout(), rotation.NewStore(p), limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "history entries to show")
	return cmd
}

func printStatus(w io.Writer, store *rotation.Store, limit int) error {
	last := store.LastChange()
	if last == "" {
		last = "never"
	}
	fmt.Fprintf(w, "Last change: %s\n", last)

	pool, err := store.LoadPool()
	if err != nil {
		fmt.Fprintf(w, "Candidate pool: unreadable (%v)\n", err)
	} else {
		fmt.Fprintf(w, "Candidate pool: %d images\n", pool.Len())
	}

	history := store.StatusHistory()
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	if len(history) == 0 {
		return nil
	}
	fmt.Fprintln(w, "History:")
	for _, h := range history {
		fmt.Fprintf(w, "  %s\n", h)
	}
	return nil
}
