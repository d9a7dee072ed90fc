package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mariov96/session-continuity-framework-sub000/internal/config"
	"github.com/mariov96/session-continuity-framework-sub000/internal/document"
	"github.com/mariov96/session-continuity-framework-sub000/internal/tree"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize scf in a project or globally",
	Long: `Initialize scf.

Without flags: creates .scf/config.yaml and starter buildstate.json and
buildstate.md documents in the project directory.
With --global: creates ~/.scf/config.yaml with the default settings.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().Bool("global", false, "Initialize global configuration at ~/.scf/")
	initCmd.Flags().Bool("force", false, "Overwrite existing files")
	initCmd.Flags().String("name", "", "Project name (default: directory name)")
}

func runInit(cmd *cobra.Command, args []string) error {
	global, _ := cmd.Flags().GetBool("global")
	force, _ := cmd.Flags().GetBool("force")
	name, _ := cmd.Flags().GetString("name")

	if global {
		return initGlobal(cmd.OutOrStdout(), force)
	}
	path, err := projectArg(args, 0)
	if err != nil {
		return err
	}
	return initProject(cmd.OutOrStdout(), path, name, force)
}

func initGlobal(out io.Writer, force bool) error {
	scfHome := config.GlobalScfPath()
	configPath := config.GlobalConfigPath()

	// Check existing
	if exists(configPath) && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
	}

	if err := os.MkdirAll(scfHome, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", scfHome, err)
	}
	if err := config.WriteDefault(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Fprintln(out, "Initialized global scf configuration")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Created:")
	fmt.Fprintf(out, "  %s  - Configuration\n", configPath)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. cd to a project directory")
	fmt.Fprintln(out, "  2. Run: scf init")
	return nil
}

func initProject(out io.Writer, projectPath, name string, force bool) error {
	scfDir := filepath.Join(projectPath, document.StateDirName)
	if exists(scfDir) && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", scfDir)
	}
	if name == "" {
		name = filepath.Base(projectPath)
	}

	if err := os.MkdirAll(scfDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", scfDir, err)
	}

	// Create project config
	configPath := config.ProjectConfigPath(projectPath)
	if err := config.WriteProjectDefault(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	p := document.ProjectPaths(projectPath)
	created := []string{".scf/config.yaml  - Project configuration"}

	if !exists(p.Structured()) || force {
		if err := writeStructuredTemplate(p.Structured(), name); err != nil {
			return fmt.Errorf("failed to write %s: %w", document.StructuredFile, err)
		}
		created = append(created, document.StructuredFile+"   - Status, versions, commands and other facts")
	}
	if !exists(p.Narrative()) || force {
		if err := writeNarrativeTemplate(p.Narrative(), name); err != nil {
			return fmt.Errorf("failed to write %s: %w", document.NarrativeFile, err)
		}
		created = append(created, document.NarrativeFile+"     - Vision, rationale and history")
	}

	fmt.Fprintln(out, "Initialized scf in", projectPath)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Created:")
	for _, c := range created {
		fmt.Fprintf(out, "  %s\n", c)
	}
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Describe the project in buildstate.md")
	fmt.Fprintln(out, "  2. Check placement: scf analyze")
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func writeStructuredTemplate(path, name string) error {
	doc := document.NewStructured(path)
	fields := []struct {
		key   string
		value *tree.Node
	}{
		{"project_name", tree.String(name)},
		{"status", tree.String("planning")},
		{"version", tree.String("0.1.0")},
		{"next_steps", tree.NewArray()},
		{document.ChangeLogKey, tree.NewArray()},
	}
	for _, f := range fields {
		next, err := doc.With(f.key, f.value)
		if err != nil {
			return err
		}
		doc = next
	}
	return doc.Save()
}

func writeNarrativeTemplate(path, name string) error {
	doc := document.NewNarrative(path)
	doc.Preamble = "# " + name + "\n\n"
	doc = doc.WithSection("Vision", "<!-- What this project is for and who it serves -->")
	doc = doc.WithSection("Background", "<!-- How the project came to be and the decisions that shaped it -->")
	return doc.Save()
}
