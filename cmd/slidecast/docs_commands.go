package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"slidecast/internal/ledger"
)

func newDocsCommand(ctx *commandContext) *cobra.Command {
	docsCmd := &cobra.Command{
		Use:   "docs",
		Short: "Track which documents are finished",
	}
	docsCmd.AddCommand(newDocsDoneCommand(ctx))
	docsCmd.AddCommand(newDocsUndoneCommand(ctx))
	docsCmd.AddCommand(newDocsListCommand(ctx))
	return docsCmd
}

func newDocsDoneCommand(ctx *commandContext) *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "done <document>",
		Short: "Mark a document as done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.workspace().Units(args[0]); err != nil {
				return err
			}
			return ctx.withLedger(func(store *ledger.Store) error {
				if err := store.MarkDone(cmd.Context(), args[0], strings.TrimSpace(note)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Marked %s done\n", args[0])
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "Optional note stored with the flag")
	return cmd
}

func newDocsUndoneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "undone <document>",
		Short: "Clear a document's done flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(store *ledger.Store) error {
				done, err := store.IsDone(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !done {
					return refused(cmd, "%s is not marked done", args[0])
				}
				if err := store.MarkUndone(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared done flag on %s\n", args[0])
				return nil
			})
		},
	}
}

func newDocsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List documents marked done",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(store *ledger.Store) error {
				docs, err := store.DoneDocuments(cmd.Context())
				if err != nil {
					return err
				}
				if len(docs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No documents marked done")
					return nil
				}
				rows := make([][]string, 0, len(docs))
				for _, doc := range docs {
					rows = append(rows, []string{doc.Name, doc.DoneAt.Local().Format("2006-01-02 15:04"), doc.Note})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Document", "Done at", "Note"}, rows, nil))
				return nil
			})
		},
	}
}
