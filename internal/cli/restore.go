package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mariov96/session-continuity-framework-sub000/internal/document"
)

var backupsCmd = &cobra.Command{
	Use:   "backups [path]",
	Short: "List archived copies of the buildstate documents",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBackups,
}

var restoreCmd = &cobra.Command{
	Use:   "restore <backup> [path]",
	Short: "Restore the buildstate documents from a backup",
	Long: `Copy an archived backup over the live buildstate documents. <backup> is a
name listed by 'scf backups' or the reference recorded in a change log entry.
The live documents are archived first, and a document the backup does not
hold is removed. The project lock is held while the files are replaced.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runRestore,
}

func runBackups(cmd *cobra.Command, args []string) error {
	path, err := projectArg(args, 0)
	if err != nil {
		return err
	}
	f, err := openFramework(path)
	if err != nil {
		return err
	}
	defer f.Close()

	backups, err := document.ListBackups(f.Paths(path))
	if err != nil {
		return err
	}
	return printBackups(cmd.OutOrStdout(), backups)
}

func printBackups(out io.Writer, backups []document.Backup) error {
	if jsonOutput {
		return printJSON(out, backups)
	}
	if len(backups) == 0 {
		fmt.Fprintln(out, "No backups found.")
		return nil
	}
	for _, b := range backups {
		fmt.Fprintf(out, "  %s  %s\n", b.Time.Local().Format("2006-01-02 15:04:05"), b.Ref)
	}
	return nil
}

func runRestore(cmd *cobra.Command, args []string) error {
	path, err := projectArg(args, 1)
	if err != nil {
		return err
	}
	f, err := openFramework(path)
	if err != nil {
		return err
	}
	defer f.Close()

	p := f.Paths(path)
	saved, err := restoreBackup(p, args[0], f.Config().Rebalance.LockStaleAfter, time.Now())
	if err != nil {
		return err
	}
	logger.Info("restored backup",
		zap.String("project", path),
		zap.String("backup", args[0]),
		zap.String("saved", saved))
	fmt.Fprintf(cmd.OutOrStdout(), "Restored %s\n", args[0])
	if saved != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Previous documents saved as %s\n", saved)
	}
	return nil
}

func restoreBackup(p document.Paths, ref string, staleAfter time.Duration, now time.Time) (string, error) {
	lock, err := document.AcquireLock(p, staleAfter)
	if err != nil {
		return "", err
	}
	defer lock.Release()
	return document.Restore(p, ref, now)
}
