package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/gnssview/internal/api"
	"github.com/verte-zerg/gnssview/internal/metrics"
	"github.com/verte-zerg/gnssview/internal/model"
	"github.com/verte-zerg/gnssview/internal/viewmodel"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// terminalWidth lets the bar chart size itself to the terminal.
const terminalWidth = 0

var reportFormat string

var (
	passText = color.New(color.FgGreen, color.Bold).SprintFunc()
	failText = color.New(color.FgRed, color.Bold).SprintFunc()
	warnText = color.New(color.FgYellow).SprintFunc()
)

type reportPlots struct {
	Residual   plotEntry `json:"residual" yaml:"residual"`
	Comparison plotEntry `json:"comparison" yaml:"comparison"`
}

type plotEntry struct {
	Filename    string `json:"filename" yaml:"filename"`
	URL         string `json:"url" yaml:"url"`
	Placeholder bool   `json:"placeholder" yaml:"placeholder"`
}

// datasetReport is one page worth of metrics, as printed by report.
type datasetReport struct {
	Dataset     string              `json:"dataset" yaml:"dataset"`
	Description string              `json:"description,omitempty" yaml:"description,omitempty"`
	Model       string              `json:"model" yaml:"model"`
	Found       bool                `json:"found" yaml:"found"`
	Metrics     *model.ModelMetrics `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	IsNormal    bool                `json:"is_normal" yaml:"is_normal"`
	Comparison  []metrics.Row       `json:"comparison" yaml:"comparison"`
	Best        string              `json:"best,omitempty" yaml:"best,omitempty"`
	Plots       reportPlots         `json:"plots" yaml:"plots"`
	Warnings    []string            `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Notice      string              `json:"notice,omitempty" yaml:"notice,omitempty"`
}

type reportBackend interface {
	viewmodel.Fetcher
	api.PlotResolver
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the metrics of one dataset and model",
		Args:  cobra.NoArgs,
		RunE:  runReportCmd,
	}
	addSelectionFlags(cmd)
	cmd.Flags().StringVar(&reportFormat, "format", formatText, "output format (text, json, yaml)")
	return cmd
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	switch reportFormat {
	case formatText, formatJSON, formatYAML:
	default:
		return fmt.Errorf("--format must be one of %s, %s, %s", formatText, formatJSON, formatYAML)
	}
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(cfg)
	defer cancel()

	rep, err := buildReport(ctx, api.NewClient(cfg.APIURL), cfg.Dataset, cfg.Model)
	if err != nil {
		return err
	}
	return writeReport(cmd.OutOrStdout(), rep, reportFormat, terminalWidth)
}

// buildReport mounts one page, performs its single fetch and resolves the
// plots for the selection.
func buildReport(ctx context.Context, backend reportBackend, dataset, modelID string) (datasetReport, error) {
	vm := viewmodel.New(dataset)
	defer vm.Unmount()
	vm.SelectModel(modelID)
	vm.Load(ctx, backend)

	if vm.State() == viewmodel.Error {
		return datasetReport{}, fmt.Errorf("failed to fetch metrics: %s: %w", vm.ErrorMessage(), vm.Err())
	}

	rep := datasetReport{
		Dataset:     dataset,
		Description: model.DatasetDescriptions[dataset],
		Model:       vm.SelectedModel(),
		Comparison:  vm.Rows(),
		Warnings:    vm.Warnings(),
	}
	if !vm.HasData() {
		rep.Notice = fmt.Sprintf("No data available for %s", dataset)
		return rep, nil
	}

	sel := vm.CurrentSelection()
	rep.Found = sel.Found
	if sel.Found {
		mm := sel.Metrics
		rep.Metrics = &mm
		rep.IsNormal = sel.IsNormal
	} else {
		rep.Notice = fmt.Sprintf("Model %s not found", sel.Model)
	}
	if best, ok := metrics.Best(rep.Comparison); ok {
		rep.Best = best.ModelID
	}

	set := api.ResolvePlots(ctx, backend, vm.Plots())
	rep.Plots = reportPlots{
		Residual:   toPlotEntry(set.Residual),
		Comparison: toPlotEntry(set.Comparison),
	}
	return rep, nil
}

func toPlotEntry(st metrics.PlotStatus) plotEntry {
	return plotEntry{Filename: st.Filename, URL: st.URL, Placeholder: st.Placeholder}
}

func writeReport(w io.Writer, rep datasetReport, format string, width int) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case formatYAML:
		data, err := yaml.Marshal(rep)
		if err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return writeTextReport(w, rep, width)
	}
}

func writeTextReport(w io.Writer, rep datasetReport, width int) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Dataset", rep.Dataset)
	if rep.Description != "" {
		fmt.Fprintf(&b, "  (%s)", rep.Description)
	}
	b.WriteString("\n\n")

	if rep.Notice != "" {
		fmt.Fprintf(&b, "%s\n", warnText(rep.Notice))
	}
	if rep.Metrics != nil {
		label := failText(metrics.NormalLabel(false))
		if rep.IsNormal {
			label = passText(metrics.NormalLabel(true))
		}
		fmt.Fprintf(&b, "Model:           %s\n", rep.Model)
		fmt.Fprintf(&b, "RMSE (m):        %s\n", metrics.FormatMetric(rep.Metrics.RMSE))
		fmt.Fprintf(&b, "MAE (m):         %s\n", metrics.FormatMetric(rep.Metrics.MAE))
		fmt.Fprintf(&b, "Shapiro p-value: %s\n", metrics.FormatMetric(rep.Metrics.ShapiroP))
		fmt.Fprintf(&b, "Residuals:       %s\n", label)
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	if rep.Notice != "" && rep.Metrics == nil && len(rep.Comparison) == 0 {
		return nil
	}

	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	if err := metrics.RenderComparison(w, rep.Comparison); err != nil {
		return err
	}
	if rep.Best != "" {
		if _, err := fmt.Fprintf(w, "Lowest RMSE: %s\n", rep.Best); err != nil {
			return err
		}
	}
	if len(rep.Comparison) > 0 {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		if err := metrics.RenderBars(w, rep.Comparison, width); err != nil {
			return err
		}
	}

	if rep.Plots.Residual.Filename != "" {
		if _, err := fmt.Fprintln(w, "\nPlots"); err != nil {
			return err
		}
		if err := writePlotLine(w, "Residuals: ", rep.Plots.Residual); err != nil {
			return err
		}
		if err := writePlotLine(w, "Comparison:", rep.Plots.Comparison); err != nil {
			return err
		}
	}

	if len(rep.Warnings) > 0 {
		if _, err := fmt.Fprintln(w, "\n"+warnText("Schema warnings")); err != nil {
			return err
		}
		for _, warning := range rep.Warnings {
			if _, err := fmt.Fprintf(w, "  %s\n", warning); err != nil {
				return err
			}
		}
	}
	return nil
}

func writePlotLine(w io.Writer, label string, p plotEntry) error {
	if p.Placeholder {
		_, err := fmt.Fprintf(w, "  %s %s %s\n", label, p.Filename, warnText("not found, placeholder: "+p.URL))
		return err
	}
	_, err := fmt.Fprintf(w, "  %s %s\n", label, p.URL)
	return err
}

func newPlotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plots",
		Short: "Resolve the plot images of one dataset and model",
		Args:  cobra.NoArgs,
		RunE:  runPlotsCmd,
	}
	addSelectionFlags(cmd)
	return cmd
}

func runPlotsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(cfg)
	defer cancel()

	client := api.NewClient(cfg.APIURL)
	ref := metrics.PlotReference(cfg.Dataset, cfg.Model)
	set := api.ResolvePlots(ctx, client, ref)
	out := cmd.OutOrStdout()
	for _, st := range []metrics.PlotStatus{set.Residual, set.Comparison} {
		if st.Placeholder {
			fmt.Fprintf(out, "%s  %s  %s\n", failText("missing"), st.Filename, st.URL)
			if st.Err != nil {
				logErrf("%v\n", st.Err)
			}
			continue
		}
		fmt.Fprintf(out, "%s  %s  %s\n", passText("ok"), st.Filename, st.URL)
	}
	return nil
}
