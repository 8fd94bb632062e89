package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/veille-cyber/internal/app"
	"github.com/samvad-hq/veille-cyber/internal/config"
	"github.com/samvad-hq/veille-cyber/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "veille failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "veille",
		Short:         "Generate the cybersecurity watch report",
		Long:          "Fetches CERT-FR advisories, recent CVEs and security news, then writes a single HTML report and opens it.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return generate(cmd.Context(), cmd)
		},
	}

	flags := cmd.Flags()
	flags.String("output-dir", "", "directory the report is written to")
	flags.Bool("no-browser", false, "do not open the report in a browser")
	flags.Bool("concurrent", false, "fetch the advisory and news feeds concurrently")
	flags.String("sources", "", "feed sources file (YAML or JSON)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.Int("limit", 0, "entries kept per feed")

	cmd.AddCommand(newHistoryCmd())
	return cmd
}

func generate(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("veille starting", "config", map[string]any{
		"app_env":          cfg.Env,
		"output_dir":       cfg.OutputDir,
		"sources_file":     cfg.SourcesFile,
		"publishers_file":  cfg.PublishersFile,
		"storage_type":     cfg.StorageType,
		"open_browser":     cfg.OpenBrowser,
		"concurrent_fetch": cfg.ConcurrentFetch,
	})

	rt, err := app.NewRuntime(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize pipeline", "error", err)
		return err
	}
	defer rt.Close()

	res, err := rt.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Rapport généré : %s\n", res.Path)
	return nil
}
