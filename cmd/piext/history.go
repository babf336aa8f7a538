package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joss/piext/internal/config"
	"github.com/joss/piext/internal/history"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the persisted input history",
	}

	cmd.AddCommand(
		historyListCmd(),
		historyAddCmd(),
		historyClearCmd(),
	)

	return cmd
}

func historyListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print history entries, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			buf := history.NewFile(config.Load().HistoryFile)
			entries := buf.All()
			if len(entries) == 0 {
				fmt.Println("No history")
				return nil
			}
			if limit > 0 && limit < len(entries) {
				entries = entries[:limit]
			}
			for i, e := range entries {
				fmt.Printf("%3d  %s\n", i, e)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most N entries")
	return cmd
}

func historyAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <text>",
		Short: "Record an input in the history",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			buf := history.NewFile(config.Load().HistoryFile)
			buf.Add(strings.Join(args, " "))
			return nil
		},
	}
}

func historyClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the input history",
		RunE: func(cmd *cobra.Command, args []string) error {
			buf := history.NewFile(config.Load().HistoryFile)
			buf.Clear()
			fmt.Println("History cleared")
			return nil
		},
	}
}
