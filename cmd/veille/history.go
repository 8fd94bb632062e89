package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/veille-cyber/internal/app"
	"github.com/samvad-hq/veille-cyber/internal/config"
)

const historyTimeLayout = "02/01/2006 15:04:05"

func newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previously generated reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(nil)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			store, err := app.OpenHistory(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Recent(limit)
			if err != nil {
				return fmt.Errorf("read history: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "Aucun rapport enregistré (storage_type=bbolt active l'historique).")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "GÉNÉRÉ LE\tALERTES\tCVE\tARTICLES\tSOURCES EN ÉCHEC\tRAPPORT")
			for _, r := range runs {
				failed := "-"
				if len(r.FailedSources) > 0 {
					failed = strings.Join(r.FailedSources, ",")
				}
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\t%s\n",
					r.GeneratedAt.In(cfg.Location).Format(historyTimeLayout),
					r.Alerts, r.CVEs, r.Articles, failed, r.ReportPath)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of runs to show")
	return cmd
}
