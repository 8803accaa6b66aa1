package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/gnssview/internal/metrics"
	"github.com/verte-zerg/gnssview/internal/model"
)

const defaultHistoryLast = 20

var historyLast int

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded metrics over time",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	addSelectionFlags(cmd)
	cmd.Flags().IntVar(&historyLast, "last", defaultHistoryLast, "limit to last N snapshots (0 = all)")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	if historyLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	snaps, err := st.ListSnapshots(context.Background(), cfg.Dataset, cfg.Model, historyLast)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	return writeHistory(cmd.OutOrStdout(), cfg.Dataset, cfg.Model, snaps)
}

func writeHistory(w io.Writer, dataset, modelID string, snaps []model.Snapshot) error {
	if len(snaps) == 0 {
		_, err := fmt.Fprintf(w, "No snapshots recorded for %s/%s.\n", dataset, modelID)
		return err
	}
	rmse := make([]float64, len(snaps))
	mae := make([]float64, len(snaps))
	for i, s := range snaps {
		rmse[i] = s.Metrics.RMSE
		mae[i] = s.Metrics.MAE
	}
	if _, err := fmt.Fprintf(w, "%s/%s  %d snapshots\n", dataset, modelID, len(snaps)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "RMSE  %s  %s\n", metrics.Sparkline(rmse), metrics.FormatMetric(rmse[len(rmse)-1])); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "MAE   %s  %s\n\n", metrics.Sparkline(mae), metrics.FormatMetric(mae[len(mae)-1])); err != nil {
		return err
	}
	for _, s := range snaps {
		if _, err := fmt.Fprintf(w, "%s  rmse=%s  mae=%s  shapiro_p=%s  %s\n",
			s.FetchedAt.Local().Format(time.DateTime),
			metrics.FormatMetric(s.Metrics.RMSE),
			metrics.FormatMetric(s.Metrics.MAE),
			metrics.FormatMetric(s.Metrics.ShapiroP),
			metrics.NormalMark(metrics.IsNormal(s.Metrics.ShapiroP)),
		); err != nil {
			return err
		}
	}
	return nil
}
