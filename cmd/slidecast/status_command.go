package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"slidecast/internal/ledger"
	"slidecast/internal/pipelinestatus"
)

type stageView struct {
	Name     string   `json:"name"`
	Done     int      `json:"done"`
	Total    int      `json:"total"`
	Expected int      `json:"expected_version,omitempty"`
	Complete bool     `json:"complete"`
	Missing  []string `json:"missing,omitempty"`
}

type reportView struct {
	Document string      `json:"document"`
	Title    string      `json:"title"`
	Units    int         `json:"units"`
	Done     bool        `json:"done"`
	Complete bool        `json:"complete"`
	Stages   []stageView `json:"stages"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var verbose bool

	cmd := &cobra.Command{
		Use:   "status [document]",
		Short: "Show pipeline progress for one document or the whole workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws := ctx.workspace()
			docs := args
			if len(docs) == 0 {
				var err error
				if docs, err = ws.Documents(); err != nil {
					return err
				}
			}
			langs := ctx.configValue().Narration.Languages
			mgr := ctx.versionManager()

			return ctx.withLedger(func(store *ledger.Store) error {
				views := make([]reportView, 0, len(docs))
				for _, doc := range docs {
					report, err := pipelinestatus.Build(ws, mgr, doc, langs)
					if err != nil {
						return err
					}
					done, err := store.IsDone(cmd.Context(), doc)
					if err != nil {
						return err
					}
					views = append(views, newReportView(report, done))
				}
				if jsonOut {
					return writeJSON(cmd, views)
				}
				if len(args) == 1 && len(views) == 1 {
					return printReport(cmd, store, views[0], verbose)
				}
				return printWorkspaceSummary(cmd, views)
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "List every missing output")
	return cmd
}

func newReportView(report pipelinestatus.Report, done bool) reportView {
	view := reportView{
		Document: report.Document,
		Title:    report.Title,
		Units:    report.Units,
		Done:     done,
		Complete: report.Complete(),
	}
	for _, s := range report.Stages {
		view.Stages = append(view.Stages, stageView{
			Name:     s.Name,
			Done:     s.Done,
			Total:    s.Total,
			Expected: s.Expected,
			Complete: s.Complete(),
			Missing:  s.Missing,
		})
	}
	return view
}

const missingPreview = 5

func printReport(cmd *cobra.Command, store *ledger.Store, view reportView, verbose bool) error {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader(fmt.Sprintf("%s (%d units)", view.Title, view.Units), colorize) {
		fmt.Fprintln(out, line)
	}
	if view.Done {
		fmt.Fprintln(out, renderStatusLine("Document", statusOK, "marked done", colorize))
	}

	rows := make([][]string, 0, len(view.Stages))
	for _, s := range view.Stages {
		expectedCol := "-"
		if s.Expected > 0 {
			expectedCol = "v" + strconv.Itoa(s.Expected)
		}
		state := "complete"
		if !s.Complete {
			state = "incomplete"
		}
		rows = append(rows, []string{s.Name, fmt.Sprintf("%d/%d", s.Done, s.Total), expectedCol, state})
	}
	fmt.Fprintln(out, renderTable([]string{"Stage", "Done", "Expected", "State"}, rows,
		[]columnAlignment{alignLeft, alignRight, alignRight}))

	for _, s := range view.Stages {
		if len(s.Missing) == 0 {
			continue
		}
		missing := s.Missing
		if !verbose && len(missing) > missingPreview {
			missing = append(append([]string{}, missing[:missingPreview]...),
				fmt.Sprintf("... %d more (use --verbose)", len(s.Missing)-missingPreview))
		}
		fmt.Fprintln(out, renderStatusLine(s.Name, statusWarn, strings.Join(missing, ", "), colorize))
	}

	runs, err := store.RecentStageRuns(cmd.Context(), view.Document, 5)
	if err != nil {
		return err
	}
	if len(runs) > 0 {
		fmt.Fprintln(out)
		for _, line := range renderSectionHeader("Recent stage runs", colorize) {
			fmt.Fprintln(out, line)
		}
		for _, run := range runs {
			kind := statusOK
			msg := fmt.Sprintf("%d/%d units at v%d (%s)", run.UnitsDone, run.UnitsTotal, run.ExpectedVersion,
				run.FinishedAt.Local().Format("2006-01-02 15:04"))
			if run.UnitsFailed > 0 || run.Error != "" {
				kind = statusError
				msg += fmt.Sprintf(", %d failed", run.UnitsFailed)
			}
			fmt.Fprintln(out, renderStatusLine(run.Stage, kind, msg, colorize))
		}
	}
	return nil
}

func printWorkspaceSummary(cmd *cobra.Command, views []reportView) error {
	out := cmd.OutOrStdout()
	if len(views) == 0 {
		fmt.Fprintln(out, "No documents in workspace")
		return nil
	}
	rows := make([][]string, 0, len(views))
	for _, view := range views {
		next := "-"
		for _, s := range view.Stages {
			if !s.Complete {
				next = s.Name
				break
			}
		}
		rows = append(rows, []string{view.Document, view.Title, strconv.Itoa(view.Units), next, yesNo(view.Done)})
	}
	headers := []string{"Document", "Title", "Units", "Next stage", "Done"}
	fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignRight}))
	return nil
}
