// Package cli holds the sitepulse command tree.
package cli

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/sitepulse/internal/config"
	"github.com/MrSnakeDoc/sitepulse/internal/logger"
)

// NewRootCommand builds the command tree. Running the root without a
// subcommand starts the server.
func NewRootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "sitepulse",
		Short:         "Reachability and AI-discoverability monitor for a fleet of sites",
		Long:          "Probes every site of a roster on an interval, scores its markup, records results and serves them over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr in one-shot commands")

	oneShotLogger := func() logger.Logger {
		if verbose {
			return logger.New("debug", true)
		}
		return logger.Nop()
	}

	root.AddCommand(
		newServeCommand(),
		newCheckCommand(oneShotLogger),
		newCheckAllCommand(oneShotLogger),
		newVersionCommand(),
	)
	return root
}

// Execute runs the command tree
func Execute() error {
	return NewRootCommand().Execute()
}

func loadConfig() *config.Config {
	return config.Load()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
