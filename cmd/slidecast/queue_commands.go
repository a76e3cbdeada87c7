package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"slidecast/internal/ledger"
	"slidecast/internal/taskqueue"
	"slidecast/internal/versioning"
	"slidecast/internal/workspace"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage image generation tasks",
	}

	queueCmd.AddCommand(newQueueEnqueueCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueHistoryCommand(ctx))
	queueCmd.AddCommand(newQueueRequeueCommand(ctx))

	return queueCmd
}

func newQueueEnqueueCommand(ctx *commandContext) *cobra.Command {
	var prompt string
	var promptFile string
	var target int

	cmd := &cobra.Command{
		Use:   "enqueue <document> <unit> <image_edit|image_to_video>",
		Short: "Queue an image edit or image-to-video task for the worker",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			unit, err := ctx.resolveUnit(args[0], args[1])
			if err != nil {
				return err
			}
			kind, err := taskqueue.ParseKind(args[2])
			if err != nil {
				return err
			}
			if promptFile != "" {
				data, err := os.ReadFile(promptFile)
				if err != nil {
					return fmt.Errorf("read prompt file: %w", err)
				}
				prompt = string(data)
			}
			if target <= 0 {
				latest, err := ctx.versionManager().LatestOrdinal(unit.Dir, outputKind(kind))
				if err != nil {
					return err
				}
				target = latest + 1
			}
			task, err := taskqueue.New().Enqueue(unit.Dir, kind, prompt, target)
			if errors.Is(err, taskqueue.ErrTaskInProgress) {
				return refused(cmd, "%s is being processed by the worker", kind.FileName(target))
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Queued %s for %s (target v%d)\n", task.Name(), unit.Label(), task.TargetOrdinal)
			return nil
		},
	}
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "Generation prompt")
	cmd.Flags().StringVar(&promptFile, "prompt-file", "", "Read the prompt from a file")
	cmd.Flags().IntVar(&target, "target", 0, "Target version (defaults to the output kind's latest + 1)")
	return cmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list [document]",
		Short: "List pending and in-progress tasks",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			units, err := ctx.workspace().AllUnits(optionalArg(args))
			if err != nil {
				return err
			}
			q := taskqueue.New()
			var rows [][]string
			for _, unit := range units {
				for _, kind := range taskqueue.Kinds {
					tasks, err := q.ListActive(unit.Dir, kind)
					if err != nil {
						return err
					}
					for _, task := range tasks {
						rows = append(rows, taskRow(unit, task))
					}
				}
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No queued tasks")
				return nil
			}
			headers := []string{"Unit", "Kind", "Target", "Status", "Queued", "Prompt"}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignRight}))
			return nil
		},
	}
}

func newQueueHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [document]",
		Short: "Show recent worker task runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(store *ledger.Store) error {
				runs, err := store.RecentTaskRuns(cmd.Context(), optionalArg(args), limit)
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No task runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					duration := "-"
					if d := run.Duration(); d > 0 {
						duration = d.Round(100 * time.Millisecond).String()
					}
					rows = append(rows, []string{
						run.StartedAt.Local().Format("2006-01-02 15:04:05"),
						run.Document + "/" + run.Unit,
						run.Kind,
						"v" + strconv.Itoa(run.TargetOrdinal),
						run.Status,
						duration,
						truncate(run.Error, 60),
					})
				}
				headers := []string{"Started", "Unit", "Kind", "Target", "Status", "Took", "Error"}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight}))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	return cmd
}

func newQueueRequeueCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "requeue <document> <unit> [task-file...]",
		Short: "Return archived tasks to pending; without file names every failed task of the unit is requeued",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			unit, err := ctx.resolveUnit(args[0], args[1])
			if err != nil {
				return err
			}
			q := taskqueue.New()
			var archived []*taskqueue.Task
			if names := args[2:]; len(names) > 0 {
				for _, name := range names {
					task, err := q.Load(filepath.Join(unit.Dir, filepath.Base(name)))
					if err != nil {
						return err
					}
					archived = append(archived, task)
				}
			} else {
				for _, kind := range taskqueue.Kinds {
					tasks, err := q.ListArchived(unit.Dir, kind)
					if err != nil {
						return err
					}
					for _, task := range tasks {
						if task.Status == taskqueue.StatusFailed {
							archived = append(archived, task)
						}
					}
				}
			}
			if len(archived) == 0 {
				return refused(cmd, "no archived tasks to requeue in %s", unit.Label())
			}
			for _, task := range archived {
				fresh, err := q.Requeue(task)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Requeued %s as %s\n", task.Name(), fresh.Name())
			}
			return nil
		},
	}
}

// outputKind is the asset kind a task of kind commits to.
func outputKind(kind taskqueue.Kind) versioning.Kind {
	if kind == taskqueue.KindImageToVideo {
		return versioning.KindImageVideo
	}
	return versioning.KindImage
}

func taskRow(unit workspace.Unit, task *taskqueue.Task) []string {
	queued := "-"
	if !task.QueuedAt.IsZero() {
		queued = task.QueuedAt.Local().Format("2006-01-02 15:04")
	}
	return []string{
		unit.Label(),
		string(task.Kind),
		"v" + strconv.Itoa(task.TargetOrdinal),
		string(task.Status),
		queued,
		truncate(task.Prompt, 48),
	}
}

func optionalArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return strings.TrimSpace(args[0])
}

func truncate(value string, limit int) string {
	value = strings.Join(strings.Fields(value), " ")
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}
