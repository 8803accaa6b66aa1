package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/gnssview/internal/api"
	"github.com/verte-zerg/gnssview/internal/metrics"
	"github.com/verte-zerg/gnssview/internal/model"
)

const predictionSparkWidth = 60

func newPredictionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predictions",
		Short: "Summarize the exported validation predictions of one dataset and model",
		Args:  cobra.NoArgs,
		RunE:  runPredictionsCmd,
	}
	addSelectionFlags(cmd)
	return cmd
}

func runPredictionsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(cfg)
	defer cancel()

	preds, err := api.NewClient(cfg.APIURL).Predictions(ctx, cfg.Dataset)
	if err != nil {
		return fmt.Errorf("failed to fetch predictions: %w", err)
	}
	return writePredictions(cmd.OutOrStdout(), cfg.Dataset, cfg.Model, preds)
}

// writePredictions prints the residual summary of one model. Series are keyed
// by lower-case model name.
func writePredictions(w io.Writer, dataset, modelID string, preds map[string][]model.PredictionPoint) error {
	points, ok := preds[strings.ToLower(modelID)]
	if !ok {
		names := make([]string, 0, len(preds))
		for name := range preds {
			names = append(names, name)
		}
		sort.Strings(names)
		_, err := fmt.Fprintf(w, "No predictions for %s on %s (available: %s)\n",
			modelID, dataset, strings.Join(names, ", "))
		return err
	}

	st := metrics.SummarizePredictions(points)
	errs := make([]float64, len(points))
	for i, p := range points {
		errs[i] = p.Error
	}
	lines := []string{
		fmt.Sprintf("%s/%s  %d samples", dataset, modelID, st.Count),
		fmt.Sprintf("RMSE (m):        %s", metrics.FormatMetric(st.RMSE)),
		fmt.Sprintf("MAE (m):         %s", metrics.FormatMetric(st.MAE)),
		fmt.Sprintf("Mean error (m):  %s", metrics.FormatMetric(st.MeanError)),
		fmt.Sprintf("Max |error| (m): %s", metrics.FormatMetric(st.MaxAbsError)),
		fmt.Sprintf("Error  %s", metrics.Sparkline(metrics.Downsample(errs, predictionSparkWidth))),
	}
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}
