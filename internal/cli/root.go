// Package cli implements the spire command-line interface. Apart from
// `spire serve`, every command is a thin HTTP client against a running
// daemon, using the bearer token stored by `spire login`.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "spire",
	Short: "Spire — a progression engine for real-world quests",
	Long: `Spire turns your goals into quests with XP, levels, and decay.
Complete quests before their deadlines to climb the tower; let them rot
and entropy will drag you back down.

Start the daemon with 'spire serve', create an account with
'spire register', then manage quests with the 'spire quest' commands.`,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default ~/.spire/config.toml)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
