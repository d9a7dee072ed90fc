package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mariov96/session-continuity-framework-sub000/internal/document"
	"github.com/mariov96/session-continuity-framework-sub000/internal/ledger"
	"github.com/mariov96/session-continuity-framework-sub000/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history [path]",
	Short: "Show balance history",
	Long: `Show the balance scores recorded in the ledger for a project, or for every
project with --all. With --changelog the change log stored in the project's
buildstate.json is shown instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 10, "Number of records to show")
	historyCmd.Flags().Bool("all", false, "Show records for every project")
	historyCmd.Flags().Bool("changelog", false, "Show the project's change log instead of the ledger")
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	all, _ := cmd.Flags().GetBool("all")
	changelog, _ := cmd.Flags().GetBool("changelog")

	path, err := projectArg(args, 0)
	if err != nil {
		return err
	}
	f, err := openFramework(path)
	if err != nil {
		return err
	}
	defer f.Close()

	out := cmd.OutOrStdout()
	if changelog {
		doc, err := document.LoadStructured(f.Paths(path).Structured())
		if err != nil {
			return err
		}
		return printChangeLog(out, doc.ChangeLog(), limit)
	}

	if f.Ledger() == nil {
		fmt.Fprintln(out, "Ledger is disabled (ledger.enabled: false).")
		return nil
	}
	if all {
		path = ""
	}
	records, err := f.Ledger().History(path, limit)
	if err != nil {
		return err
	}
	return printHistory(out, records)
}

func printHistory(out io.Writer, records []ledger.Record) error {
	if jsonOutput {
		return printJSON(out, records)
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "No history recorded.")
		return nil
	}

	fmt.Fprintf(out, "Recent runs (%d):\n\n", len(records))
	for _, r := range records {
		line := fmt.Sprintf("  %s  %.2f %-16s", r.RecordedAt.Local().Format("2006-01-02 15:04"), r.Score, r.Bucket)
		if moved := r.MovedToStructured + r.MovedToNarrative; moved > 0 {
			line += fmt.Sprintf(" -> %.2f (%d moved)", r.ScoreAfter, moved)
		}
		fmt.Fprintf(out, "%s  %s\n", line, r.ProjectPath)
		if r.Error != "" {
			fmt.Fprintf(out, "    error: %s\n", r.Error)
		}
	}
	return nil
}

func printChangeLog(out io.Writer, entries []types.ChangeLogEntry, limit int) error {
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	if jsonOutput {
		return printJSON(out, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No change log entries.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(out, "  %s  %.2f -> %.2f  %s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04"), e.ScoreBefore, e.ScoreAfter, e.Description)
	}
	return nil
}
