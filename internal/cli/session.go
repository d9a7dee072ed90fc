package cli

import (
	"fmt"
	"io"
	"os"
	"os/user"
	"time"

	"github.com/spf13/cobra"

	"github.com/mariov96/session-continuity-framework-sub000/internal/config"
	"github.com/mariov96/session-continuity-framework-sub000/internal/document"
	"github.com/mariov96/session-continuity-framework-sub000/pkg/types"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect and claim the project's session marker",
	Long: `The session marker in buildstate.json records which writer last touched a
project. Claims are optimistic: they succeed only when the stored revision
still matches the one the writer last read.`,
}

var sessionShowCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Show the session marker",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSessionShow,
}

var sessionClaimCmd = &cobra.Command{
	Use:   "claim [path]",
	Short: "Mark this writer as the active session",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSessionClaim,
}

var sessionReleaseCmd = &cobra.Command{
	Use:   "release [path]",
	Short: "Clear the active flag held by this writer",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSessionRelease,
}

func init() {
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionClaimCmd)
	sessionCmd.AddCommand(sessionReleaseCmd)

	for _, c := range []*cobra.Command{sessionClaimCmd, sessionReleaseCmd} {
		c.Flags().String("writer", "", "Writer name (default user@host)")
		c.Flags().Int64("revision", -1, "Revision last read (default: the current one)")
	}
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	path, err := projectArg(args, 0)
	if err != nil {
		return err
	}
	m, err := document.ReadSession(document.ProjectPaths(path))
	if err != nil {
		return err
	}
	return printSession(cmd.OutOrStdout(), m)
}

func runSessionClaim(cmd *cobra.Command, args []string) error {
	return updateSession(cmd, args, document.ClaimSession)
}

func runSessionRelease(cmd *cobra.Command, args []string) error {
	return updateSession(cmd, args, document.ReleaseSession)
}

type sessionUpdate func(p document.Paths, writer string, expectedRevision int64, staleAfter time.Duration) (types.SessionMarker, error)

func updateSession(cmd *cobra.Command, args []string, update sessionUpdate) error {
	writer, _ := cmd.Flags().GetString("writer")
	revision, _ := cmd.Flags().GetInt64("revision")

	path, err := projectArg(args, 0)
	if err != nil {
		return err
	}
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}

	m, err := changeSession(document.ProjectPaths(path), writer, revision, loaded.Config.Rebalance.LockStaleAfter, update)
	if err != nil {
		return err
	}
	return printSession(cmd.OutOrStdout(), m)
}

// changeSession applies update, reading the current revision first when
// revision is negative
func changeSession(p document.Paths, writer string, revision int64, staleAfter time.Duration, update sessionUpdate) (types.SessionMarker, error) {
	if writer == "" {
		writer = defaultWriter()
	}
	if revision < 0 {
		current, err := document.ReadSession(p)
		if err != nil {
			return types.SessionMarker{}, err
		}
		revision = current.Revision
	}
	return update(p, writer, revision, staleAfter)
}

func printSession(out io.Writer, m types.SessionMarker) error {
	if jsonOutput {
		return printJSON(out, m)
	}
	if m.LastWriter == "" && m.Revision == 0 {
		fmt.Fprintln(out, "No session recorded.")
		return nil
	}
	state := "inactive"
	if m.Active {
		state = "active"
	}
	fmt.Fprintf(out, "Writer:   %s\n", m.LastWriter)
	fmt.Fprintf(out, "State:    %s\n", state)
	fmt.Fprintf(out, "Revision: %d\n", m.Revision)
	if !m.LastModified.IsZero() {
		fmt.Fprintf(out, "Modified: %s\n", m.LastModified.Local().Format(time.RFC3339))
	}
	return nil
}

func defaultWriter() string {
	name := "scf"
	if u, err := user.Current(); err == nil && u.Username != "" {
		name = u.Username
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		name += "@" + host
	}
	return name
}
