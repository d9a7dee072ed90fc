package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mariov96/session-continuity-framework-sub000/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Score how well a project's content is placed",
	Long: `Classify every top-level item of buildstate.json and every section of
buildstate.md, then report the balance score and the misplaced items.

Nothing is written. Malformed documents are reported as warnings and scored
as empty.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().Bool("items", false, "List every classified item")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	showItems, _ := cmd.Flags().GetBool("items")

	path, err := projectArg(args, 0)
	if err != nil {
		return err
	}
	f, err := openFramework(path)
	if err != nil {
		return err
	}
	defer f.Close()

	report, err := f.Analyze(cmd.Context(), path)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), report)
	}
	printReport(cmd.OutOrStdout(), report, showItems)
	return nil
}

func printReport(out io.Writer, r *types.BalanceReport, showItems bool) {
	fmt.Fprintf(out, "Project:    %s\n", r.ProjectPath)
	fmt.Fprintf(out, "Score:      %.2f (%s)\n", r.Score, r.Bucket)
	fmt.Fprintf(out, "Classified: %d\n", r.Classified)

	if len(r.MisplacedItems) == 0 {
		fmt.Fprintln(out, "\nNo misplaced items.")
	} else {
		fmt.Fprintf(out, "\nMisplaced (%d):\n", len(r.MisplacedItems))
		for _, it := range r.MisplacedItems {
			printItem(out, it)
		}
	}

	if showItems {
		fmt.Fprintf(out, "\nItems (%d):\n", len(r.Items))
		for _, it := range r.Items {
			printItem(out, it)
		}
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintln(out, "\nWarnings:")
		for _, w := range r.Warnings {
			fmt.Fprintf(out, "  %s\n", w)
		}
	}
}

func printItem(out io.Writer, it types.ContentItem) {
	fmt.Fprintf(out, "  %-28s %-10s -> %-10s confidence %.2f\n",
		it.Name, it.Origin, it.Category, it.Confidence)
}
