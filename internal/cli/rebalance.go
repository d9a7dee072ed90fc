package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mariov96/session-continuity-framework-sub000/internal/migrate"
	"github.com/mariov96/session-continuity-framework-sub000/pkg/scf"
)

var rebalanceCmd = &cobra.Command{
	Use:   "rebalance [path]",
	Short: "Move misplaced content to the document where it belongs",
	Long: `Move every misplaced item whose confidence exceeds --min-confidence to the
other document. Each move is preceded by a backup under .scf/archive and the
pass ends with one change log entry in both documents.

Conflicting targets are never overwritten; they are reported and left for
manual resolution while the remaining moves proceed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRebalance,
}

func init() {
	rebalanceCmd.Flags().Bool("dry-run", false, "Show the planned moves without writing anything")
	rebalanceCmd.Flags().Float64("min-confidence", 0, "Minimum confidence for a move; 0 moves every misplaced item (default from config)")
}

func runRebalance(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	minConfidence := scf.ConfiguredConfidence
	if cmd.Flags().Changed("min-confidence") {
		minConfidence, _ = cmd.Flags().GetFloat64("min-confidence")
	}

	path, err := projectArg(args, 0)
	if err != nil {
		return err
	}
	f, err := openFramework(path)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := f.RebalanceProject(cmd.Context(), path, dryRun, minConfidence)
	if res == nil {
		return err
	}
	if jsonOutput {
		if perr := printJSON(cmd.OutOrStdout(), res); perr != nil {
			return perr
		}
		return err
	}
	printResult(cmd.OutOrStdout(), res)
	return err
}

func printResult(out io.Writer, res *migrate.Result) {
	if res.AlreadyBalanced {
		fmt.Fprintf(out, "%s is already balanced (score %.2f)\n", res.ProjectPath, res.ScoreBefore)
		return
	}

	verb := "Moved"
	if res.DryRun {
		verb = "Would move"
	}
	if len(res.Moves) > 0 {
		fmt.Fprintf(out, "%s %d item(s):\n", verb, len(res.Moves))
		for _, m := range res.Moves {
			fmt.Fprintf(out, "  %-28s %s -> %s as %q (confidence %.2f)\n",
				m.Item.Name, m.From, m.To, m.Target, m.Confidence)
		}
	}
	if len(res.Failures) > 0 {
		fmt.Fprintf(out, "Failed %d item(s):\n", len(res.Failures))
		for _, m := range res.Failures {
			fmt.Fprintf(out, "  %-28s %v\n", m.Item.Name, m.Err)
		}
	}

	fmt.Fprintf(out, "Score: %.2f -> %.2f\n", res.ScoreBefore, res.ScoreAfter)
	if res.Entry != nil && res.Entry.BackupReference != "" {
		fmt.Fprintf(out, "Backup: %s\n", res.Entry.BackupReference)
	}
}
