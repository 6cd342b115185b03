package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tecnoter/ttsh/internal/logging"
)

// Version is set at build time.
var Version = "0.1.0"

var debug bool

var rootCmd = &cobra.Command{
	Use:   "ttsh",
	Short: "ttsh - the tecnoter.io node shell",
	Long: `ttsh is a retro shell and bulletin board served over SSH, telnet
and HTTP.

Run 'ttsh serve' to host the node, 'ttsh local' for a console session on
this terminal, or 'ttsh exec' to dispatch a single input.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug || os.Getenv("DEBUG") == "1" {
			logging.DebugEnabled = true
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable DEBUG logging")
	rootCmd.SetVersionTemplate(fmt.Sprintf("ttsh %s\n", Version))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(localCmd)
	rootCmd.AddCommand(execCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
