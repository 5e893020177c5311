package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/adscale/bq-bootstrap/internal/cli"
	"github.com/adscale/bq-bootstrap/internal/cli/config"
	"github.com/adscale/bq-bootstrap/pkg/settings"
)

var (
	// These are set during build time using -ldflags
	version = "dev"
	commit  = "none"
	date    = "unknown"

	cfgFile        string
	verbose        bool
	nonInteractive bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "bq-bootstrap",
	Short: "Bootstraps a BigQuery ingestion pipeline for SA360 report data.",
	Long: `bq-bootstrap collects the configuration needed to load search-ads
report data into BigQuery, interactively or from flags, a config file, and
BQBOOT_* environment variables.

When historical conversion data is included, the supplied files (CSV or
XLSX, possibly inside directories, tar, or zip archives, in utf-8, utf-16,
or latin-1) are normalized into a single canonical CSV ready for upload.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		// Without a terminal there is nobody to answer prompts.
		interactiveCapable := term.IsTerminal(int(os.Stdin.Fd()))
		strict := nonInteractive || !interactiveCapable

		cfg, logger, err := config.Load(cfgFile, verbose, strict, cmd.Flags())
		if err != nil {
			return err
		}

		var console settings.Console = settings.NopConsole{}
		if !strict {
			console = settings.NewTermConsole(cmd.InOrStdin(), cmd.OutOrStdout())
		}

		logger.Debug("Starting bootstrap",
			"version", version,
			"interactive", !strict,
		)
		return cli.Run(ctx, cfg, console, logger.Handler())
	},
}

// Execute runs the root command.
func Execute() {
	rootCmd.SetVersionTemplate(`{{.Use}} version {{.Version}}` + "\n")
	_ = rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Configuration file path (default: search . and $HOME/.config/bq-bootstrap/)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose (debug) logging output")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "Never prompt; fail on required options without a supplied value or default")

	config.RegisterFlags(rootCmd.Flags())
}
