package cli

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mariov96/session-continuity-framework-sub000/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage scf configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Show merged configuration",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit [path]",
	Short: "Open configuration in editor",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigEdit,
}

var configPathCmd = &cobra.Command{
	Use:   "path [path]",
	Short: "Show configuration file paths",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configPathCmd)

	configEditCmd.Flags().Bool("global", false, "Edit global config")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	path, err := projectArg(args, 0)
	if err != nil {
		return err
	}
	loaded, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	return showConfig(cmd.OutOrStdout(), loaded)
}

func showConfig(out io.Writer, loaded *config.Loaded) error {
	if jsonOutput {
		return printJSON(out, loaded.Config)
	}

	data, err := yaml.Marshal(loaded.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	fmt.Fprintln(out, "# Merged configuration (private > local > project > org > global > defaults)")
	for _, p := range loaded.Problems() {
		fmt.Fprintf(out, "# skipped: %v\n", p)
	}
	fmt.Fprint(out, string(data))
	return nil
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	global, _ := cmd.Flags().GetBool("global")

	var path string
	if global {
		path = config.GlobalConfigPath()
	} else {
		project, err := projectArg(args, 0)
		if err != nil {
			return err
		}
		path = config.ProjectConfigPath(project)
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vim"
	}

	c := exec.Command(editor, path)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr

	return c.Run()
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path, err := projectArg(args, 0)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, s := range config.Sources(path) {
		state := "missing"
		if exists(s.Path) {
			state = "present"
		}
		fmt.Fprintf(out, "%-8s %-8s %s\n", s.Level+":", state, s.Path)
	}
	return nil
}
