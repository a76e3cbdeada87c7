package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"slidecast/internal/expected"
	"slidecast/internal/versioning"
	"slidecast/internal/workspace"
)

func newVersionsCommand(ctx *commandContext) *cobra.Command {
	versionsCmd := &cobra.Command{
		Use:   "versions",
		Short: "Inspect and manage versioned unit assets",
	}

	versionsCmd.AddCommand(newVersionsListCommand(ctx))
	versionsCmd.AddCommand(newVersionsCreateCommand(ctx))
	versionsCmd.AddCommand(newVersionsRestoreCommand(ctx))
	versionsCmd.AddCommand(newVersionsFastForwardCommand(ctx))
	versionsCmd.AddCommand(newVersionsDeleteCommand(ctx))
	versionsCmd.AddCommand(newVersionsCleanupCommand(ctx))
	versionsCmd.AddCommand(newVersionsMigrateCommand(ctx))
	versionsCmd.AddCommand(newVersionsDiscoverCommand(ctx))

	return versionsCmd
}

func newVersionsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list <document> <unit> [kind...]",
		Short: "List versions of a unit's assets",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			unit, err := ctx.resolveUnit(args[0], args[1])
			if err != nil {
				return err
			}
			kinds, err := parseKinds(args[2:])
			if err != nil {
				return err
			}
			mgr := ctx.versionManager()
			exp, err := expected.ForUnit(mgr, unit.Dir, versioning.AllKinds(), expected.DisplayFloor)
			if err != nil {
				return err
			}

			var rows [][]string
			for _, kind := range kinds {
				hist, err := mgr.History(unit.Dir, kind)
				if err != nil {
					return err
				}
				for _, rec := range hist.Versions {
					marker := ""
					if rec.File == hist.Latest {
						marker = "*"
					}
					rows = append(rows, []string{
						kind.String(),
						strconv.Itoa(rec.Ordinal),
						marker,
						rec.File,
						formatCreated(rec),
						rec.Producer,
					})
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (expected version v%d)\n", unit.Label(), exp)
			if len(rows) == 0 {
				fmt.Fprintln(out, "No versions recorded")
				return nil
			}
			headers := []string{"Kind", "Ver", "Latest", "File", "Created", "Producer"}
			fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{alignLeft, alignRight}))

			lagging, err := expected.Lagging(mgr, unit.Dir)
			if err != nil {
				return err
			}
			for _, s := range lagging {
				fmt.Fprintf(out, "stale: %s at v%d, expected v%d\n", s.Kind, s.Current, s.Expected)
			}
			return nil
		},
	}
}

func newVersionsCreateCommand(ctx *commandContext) *cobra.Command {
	var text string
	var file string
	var producer string

	cmd := &cobra.Command{
		Use:   "create <document> <unit> <kind>",
		Short: "Record new content as the next version of an asset",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			unit, err := ctx.resolveUnit(args[0], args[1])
			if err != nil {
				return err
			}
			kind, err := versioning.ParseKind(args[2])
			if err != nil {
				return err
			}
			var content versioning.Content
			switch {
			case text != "" && file != "":
				return fmt.Errorf("use either --text or --file, not both")
			case text != "":
				content = versioning.Text(text)
			case file != "":
				if _, err := os.Stat(file); err != nil {
					return fmt.Errorf("read content: %w", err)
				}
				content = versioning.FromFile(file)
			default:
				return fmt.Errorf("content required: pass --text or --file")
			}
			rec, path, err := ctx.versionManager().CreateVersion(unit.Dir, kind, content, producer)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s v%d: %s\n", kind, rec.Ordinal, path)
			return nil
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "Text content for the new version")
	cmd.Flags().StringVar(&file, "file", "", "File whose bytes become the new version")
	cmd.Flags().StringVar(&producer, "producer", versioning.ProducerManualEdit, "Producer recorded with the version")
	return cmd
}

func newVersionsRestoreCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <document> <unit> <kind> <version>",
		Short: "Point an asset's latest at an existing version",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			unit, kind, ordinal, err := ctx.unitKindOrdinal(args)
			if err != nil {
				return err
			}
			ok, err := ctx.versionManager().Restore(unit.Dir, kind, ordinal)
			if err != nil {
				return err
			}
			if !ok {
				return refused(cmd, "%s has no version %d in %s", kind, ordinal, unit.Label())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %s to v%d\n", kind, ordinal)
			return nil
		},
	}
}

func newVersionsFastForwardCommand(ctx *commandContext) *cobra.Command {
	var target int

	cmd := &cobra.Command{
		Use:   "fast-forward <document> <unit> <kind>",
		Short: "Copy an asset's latest content forward to a target version",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			unit, err := ctx.resolveUnit(args[0], args[1])
			if err != nil {
				return err
			}
			kind, err := versioning.ParseKind(args[2])
			if err != nil {
				return err
			}
			mgr := ctx.versionManager()
			to := target
			if to <= 0 {
				to, err = expected.ForUnit(mgr, unit.Dir, versioning.AllKinds(), expected.DisplayFloor)
				if err != nil {
					return err
				}
			}
			ok, err := mgr.FastForward(unit.Dir, kind, to, versioning.ProducerFastForward)
			if err != nil {
				return err
			}
			if !ok {
				return refused(cmd, "%s in %s has nothing to copy or is already at v%d or later", kind, unit.Label(), to)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Fast-forwarded %s to v%d\n", kind, to)
			return nil
		},
	}
	cmd.Flags().IntVar(&target, "to", 0, "Target version (defaults to the unit's expected version)")
	return cmd
}

func newVersionsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <document> <unit> <kind> <version>",
		Short: "Delete a historical version",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			unit, kind, ordinal, err := ctx.unitKindOrdinal(args)
			if err != nil {
				return err
			}
			ok, err := ctx.versionManager().DeleteVersion(unit.Dir, kind, ordinal)
			if err != nil {
				return err
			}
			if !ok {
				return refused(cmd, "v%d of %s is missing, the only version, or the latest", ordinal, kind)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s v%d\n", kind, ordinal)
			return nil
		},
	}
}

func newVersionsCleanupCommand(ctx *commandContext) *cobra.Command {
	var unitArg string
	var kindArg string
	var untracked bool

	cmd := &cobra.Command{
		Use:   "cleanup <document>",
		Short: "Delete old versions and untracked variations",
		Long: "Without flags every unit of the document keeps only its latest version of each kind and loses\n" +
			"untracked variation files. --unit and --kind narrow the scope; --untracked removes only untracked files.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			document := args[0]
			mgr := ctx.versionManager()
			var dirs []string
			if unitArg != "" {
				unit, err := ctx.resolveUnit(document, unitArg)
				if err != nil {
					return err
				}
				dirs = []string{unit.Dir}
			} else {
				var err error
				if dirs, err = ctx.workspace().UnitDirs(document); err != nil {
					return err
				}
			}

			totals := map[string]int{}
			switch {
			case untracked:
				for _, dir := range dirs {
					n, err := mgr.CleanupUntracked(dir)
					if err != nil {
						return err
					}
					totals[versioning.UntrackedKey] += n
				}
			case kindArg != "":
				kind, err := versioning.ParseKind(kindArg)
				if err != nil {
					return err
				}
				for _, dir := range dirs {
					n, err := mgr.CleanupOld(dir, kind)
					if err != nil {
						return err
					}
					totals[kind.String()] += n
				}
			default:
				var err error
				if totals, err = mgr.CleanupAll(dirs); err != nil {
					return err
				}
			}
			printCounts(cmd, "Deleted", totals)
			return nil
		},
	}
	cmd.Flags().StringVar(&unitArg, "unit", "", "Limit cleanup to one unit")
	cmd.Flags().StringVar(&kindArg, "kind", "", "Only remove old versions of this kind")
	cmd.Flags().BoolVar(&untracked, "untracked", false, "Only remove untracked variation files")
	return cmd
}

func newVersionsMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate <document>",
		Short: "Adopt pre-versioning flat files as version 1",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs, err := ctx.workspace().UnitDirs(args[0])
			if err != nil {
				return err
			}
			mgr := ctx.versionManager()
			totals := map[string]int{}
			for _, dir := range dirs {
				migrated, err := mgr.MigrateLegacy(dir)
				if err != nil {
					return err
				}
				for kind, n := range migrated {
					totals[kind.String()] += n
				}
			}
			printCounts(cmd, "Migrated", totals)
			return nil
		},
	}
}

func newVersionsDiscoverCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "discover [document]",
		Short: "Register version files present on disk but missing from metadata",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			document := ""
			if len(args) == 1 {
				document = args[0]
			}
			units, err := ctx.workspace().AllUnits(document)
			if err != nil {
				return err
			}
			dirs := make([]string, len(units))
			for i, u := range units {
				dirs[i] = u.Dir
			}
			total, err := ctx.versionManager().DiscoverAll(dirs)
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %d version(s) across %d unit(s)\n", total, len(dirs))
			return err
		},
	}
}

func (c *commandContext) unitKindOrdinal(args []string) (workspace.Unit, versioning.Kind, int, error) {
	unit, err := c.resolveUnit(args[0], args[1])
	if err != nil {
		return workspace.Unit{}, "", 0, err
	}
	kind, err := versioning.ParseKind(args[2])
	if err != nil {
		return workspace.Unit{}, "", 0, err
	}
	ordinal, err := strconv.Atoi(strings.TrimPrefix(strings.ToLower(args[3]), "v"))
	if err != nil || ordinal < 1 {
		return workspace.Unit{}, "", 0, fmt.Errorf("invalid version %q", args[3])
	}
	return unit, kind, ordinal, nil
}

func parseKinds(args []string) ([]versioning.Kind, error) {
	if len(args) == 0 {
		return versioning.AllKinds(), nil
	}
	kinds := make([]versioning.Kind, 0, len(args))
	for _, arg := range args {
		kind, err := versioning.ParseKind(arg)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

func formatCreated(rec versioning.VersionRecord) string {
	if ts, ok := rec.CreatedAt(); ok {
		return ts.Local().Format("2006-01-02 15:04")
	}
	return rec.Created
}

func printCounts(cmd *cobra.Command, verb string, counts map[string]int) {
	out := cmd.OutOrStdout()
	keys := make([]string, 0, len(counts))
	total := 0
	for key, n := range counts {
		if n == 0 {
			continue
		}
		keys = append(keys, key)
		total += n
	}
	if total == 0 {
		fmt.Fprintf(out, "%s nothing\n", verb)
		return
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(out, "  %-12s %d\n", key, counts[key])
	}
	fmt.Fprintf(out, "%s %d file(s)\n", verb, total)
}
