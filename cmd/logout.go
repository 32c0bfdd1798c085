package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clientflow/clientflow/internal/infrastructure/sqlite"
	"github.com/clientflow/clientflow/internal/session"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored session",
	Long: `Remove the session token from local storage.

A running clientflow watching the same storage returns to its login screen.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		sessions, closeDB, err := openSessions()
		if err != nil {
			return err
		}
		defer closeDB()

		if err := sessions.Logout(cmd.Context()); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, _ []string) error {
		sessions, closeDB, err := openSessions()
		if err != nil {
			return err
		}
		defer closeDB()

		s, err := sessions.Restore(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		switch {
		case !s.Authenticated():
			_, _ = fmt.Fprintln(out, "Not signed in.")
		case s.User.Email == "":
			_, _ = fmt.Fprintln(out, "Signed in.")
		default:
			_, _ = fmt.Fprintf(out, "Signed in as %s.\n", s.User.Email)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}

func openSessions() (*session.Manager, func(), error) {
	if cfg.Session.Path == "" {
		return nil, nil, errors.New("session.path is required: no home directory to default to")
	}
	db, err := sqlite.NewDB(cfg.Session.Path)
	if err != nil {
		return nil, nil, err
	}
	return session.NewManager(db.LocalStorage(), cfg.Session.TokenSecret), func() { _ = db.Close() }, nil
}
