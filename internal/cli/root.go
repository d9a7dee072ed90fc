package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mariov96/session-continuity-framework-sub000/internal/config"
	"github.com/mariov96/session-continuity-framework-sub000/pkg/scf"
)

var (
	verbose    bool
	jsonOutput bool
	rootCmd    *cobra.Command
	logger     = zap.NewNop()
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "scf",
		Short: "scf - Session Continuity Framework",
		Long: `scf keeps a project's buildstate.json and buildstate.md in balance.

Structured facts (status, versions, commands, endpoints) belong in the JSON
document; vision, rationale and history belong in the Markdown document.
scf scores how well content is placed, moves misplaced items between the two
files with a backup and a change log entry, and does the same across many
projects at once.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the scf version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "scf %s\n", rootCmd.Version)
	},
}

// Execute runs the root command
func Execute(version string) error {
	// Add subcommands here to ensure proper initialization order
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(rebalanceCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(backupsCmd)
	rootCmd.AddCommand(restoreCmd)

	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// newLogger builds the process logger from the log settings
func newLogger(cfg config.LogConfig, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
		zc.DisableStacktrace = true
	}

	level := zapcore.InfoLevel
	if cfg.Level != "" {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	l, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return l, nil
}

// openFramework loads the configuration chain for projectPath and builds a
// Framework with the ledger attached
func openFramework(projectPath string, opts ...scf.Option) (*scf.Framework, error) {
	loaded, err := config.Load(projectPath)
	if err != nil {
		return nil, err
	}

	l, err := newLogger(loaded.Config.Log, verbose)
	if err != nil {
		return nil, err
	}
	logger = l
	for _, p := range loaded.Problems() {
		logger.Warn("skipping configuration level", zap.Error(p))
	}

	opts = append([]scf.Option{scf.WithLogger(logger), scf.WithLedger()}, opts...)
	f, err := scf.New(loaded.Config, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return f, nil
}

// projectArg returns the absolute project directory named by args[i], or
// the working directory when it is absent
func projectArg(args []string, i int) (string, error) {
	if len(args) > i && args[i] != "" {
		return filepath.Abs(args[i])
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return cwd, nil
}

func printJSON(out io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = out.Write(pretty.Pretty(data))
	return err
}
