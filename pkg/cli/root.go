package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "shelfd",
	Short: "shelfd is a tiny in-memory REST backend",
	Long: `shelfd serves a JSON REST API over an in-memory record store.

It provides todo CRUD with store-assigned monotonic identifiers, optional
token authentication, WebSocket echo and server-sent change events, file
uploads, and JSON export/import of the store state. Nothing is persisted:
restarting the process starts from the configured seed data.`,
	SilenceUsage:  true,
	SilenceErrors: true, // errors are handled in Execute
}

// Execute runs the root command. Called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	initServeCmd()
	initVersionCmd()
}
