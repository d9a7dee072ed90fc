package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mariov96/session-continuity-framework-sub000/internal/config"
	"github.com/mariov96/session-continuity-framework-sub000/internal/hierarchy"
	"github.com/mariov96/session-continuity-framework-sub000/pkg/types"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [path]",
	Short: "Merge an inheritance chain and print the effective document",
	Long: `Merge YAML or JSON documents from the inheritance levels
private > local > project > org > global, higher levels winning key by key.

Without --level the project's configuration chain is resolved. With --level
any set of files can be merged:

  scf resolve --level global=base.yaml --level project=overrides.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringArray("level", nil, "Level source as level=path (repeatable)")
	resolveCmd.Flags().Bool("origins", false, "Show which level supplied each value")
}

func runResolve(cmd *cobra.Command, args []string) error {
	levels, _ := cmd.Flags().GetStringArray("level")
	showOrigins, _ := cmd.Flags().GetBool("origins")

	var sources []hierarchy.Source
	if len(levels) > 0 {
		parsed, err := parseLevelSources(levels)
		if err != nil {
			return err
		}
		sources = parsed
	} else {
		path, err := projectArg(args, 0)
		if err != nil {
			return err
		}
		sources = config.Sources(path)
	}

	res := hierarchy.LoadAndResolve(sources)
	return printResolved(cmd.OutOrStdout(), cmd.ErrOrStderr(), res, showOrigins)
}

// parseLevelSources turns level=path arguments into sources
func parseLevelSources(args []string) ([]hierarchy.Source, error) {
	sources := make([]hierarchy.Source, 0, len(args))
	for _, a := range args {
		name, path, ok := strings.Cut(a, "=")
		if !ok || path == "" {
			return nil, fmt.Errorf("invalid --level %q: expected level=path", a)
		}
		level, err := hierarchy.ParseLevel(name)
		if err != nil {
			return nil, err
		}
		sources = append(sources, hierarchy.Source{Level: level, Path: config.ExpandPath(path)})
	}
	return sources, nil
}

func printResolved(out, errOut io.Writer, res hierarchy.Resolved, showOrigins bool) error {
	for _, w := range res.Warnings {
		if errors.Is(w, types.ErrMissingLevel) && !verbose {
			continue
		}
		fmt.Fprintf(errOut, "warning: %v\n", w)
	}

	if jsonOutput {
		if _, err := out.Write(res.Root.JSON()); err != nil {
			return err
		}
	} else {
		data, err := res.Root.YAML()
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		if _, err := out.Write(data); err != nil {
			return err
		}
	}

	if showOrigins {
		origins := res.Origins()
		paths := make([]string, 0, len(origins))
		for p := range origins {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		fmt.Fprintln(out, "\n# Origins")
		for _, p := range paths {
			fmt.Fprintf(out, "# %-40s %s\n", p, origins[p])
		}
	}
	return nil
}
