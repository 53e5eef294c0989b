package cli

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/sitepulse/internal/app"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and the periodic fleet checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	a, err := app.New(loadConfig())
	if err != nil {
		return err
	}
	return a.Run()
}
