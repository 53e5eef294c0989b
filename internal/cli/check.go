package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/sitepulse/internal/app"
	"github.com/MrSnakeDoc/sitepulse/internal/domain"
	"github.com/MrSnakeDoc/sitepulse/internal/fleet"
	"github.com/MrSnakeDoc/sitepulse/internal/logger"
	"github.com/MrSnakeDoc/sitepulse/internal/probe"
	"github.com/MrSnakeDoc/sitepulse/internal/roster"
)

// ErrUnhealthy is returned with --fail-on-error when a probed site is not live
var ErrUnhealthy = errors.New("one or more sites are not live")

func newCheckCommand(newLogger func() logger.Logger) *cobra.Command {
	var (
		timeout     time.Duration
		noSEO       bool
		failOnError bool
	)

	cmd := &cobra.Command{
		Use:   "check <url>",
		Short: "Probe one URL and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := probe.ValidateURL(args[0]); err != nil {
				return err
			}

			opts := app.ProbeOptions(loadConfig())
			if timeout > 0 {
				opts.Timeout = timeout
			}
			opts.SkipSEO = noSEO

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			result := probe.New(opts, nil, newLogger()).Probe(ctx, args[0])
			if err := printJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if failOnError && result.Status != domain.StatusLive {
				return ErrUnhealthy
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "probe timeout (default from SITEPULSE_PROBE_TIMEOUT)")
	cmd.Flags().BoolVar(&noSEO, "no-seo", false, "skip markup scoring")
	cmd.Flags().BoolVar(&failOnError, "fail-on-error", false, "exit non-zero when the site is not live")
	return cmd
}

func newCheckAllCommand(newLogger func() logger.Logger) *cobra.Command {
	var (
		rosterFile  string
		concurrency int
		failOnError bool
	)

	cmd := &cobra.Command{
		Use:   "check-all",
		Short: "Probe every roster site once and print the fleet report as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if rosterFile != "" {
				cfg.RosterFile = rosterFile
			}
			if concurrency > 0 {
				cfg.Concurrency = concurrency
			}

			sites, err := roster.NewLoader(cfg.RosterFile).Load()
			if err != nil {
				return fmt.Errorf("failed to load roster: %w", err)
			}

			log := newLogger()
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			p := probe.New(app.ProbeOptions(cfg), nil, log)
			report := fleet.New(p, app.FleetOptions(cfg), log).Run(ctx, sites)

			if err := printJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if failOnError && report.Summary.Live < report.TotalSites {
				return ErrUnhealthy
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rosterFile, "roster", "", "roster file (default from SITEPULSE_ROSTER_FILE)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "max probes in flight")
	cmd.Flags().BoolVar(&failOnError, "fail-on-error", false, "exit non-zero when any site is not live")
	return cmd
}
