package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/gnssview/internal/api"
	"github.com/verte-zerg/gnssview/internal/metrics"
	"github.com/verte-zerg/gnssview/internal/model"
	"github.com/verte-zerg/gnssview/internal/schema"
)

var checkDump bool

type datasetDump struct {
	Dataset string
	Models  []metrics.Row
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the backend metrics document",
		Args:  cobra.NoArgs,
		RunE:  runCheckCmd,
	}
	cmd.Flags().BoolVar(&checkDump, "dump", false, "pretty-print the decoded document")
	return cmd
}

func runCheckCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(cfg)
	defer cancel()
	return checkBackend(ctx, cmd.OutOrStdout(), api.NewClient(cfg.APIURL), checkDump)
}

// checkBackend probes every endpoint and validates the metrics body exactly as
// the backend sent it.
func checkBackend(ctx context.Context, out io.Writer, client *api.Client, dump bool) error {
	fmt.Fprintf(out, "Backend: %s\n", client.BaseURL())

	if err := client.Health(ctx); err != nil {
		fmt.Fprintf(out, "%s health: %v\n", warnText("warn"), err)
	} else {
		fmt.Fprintf(out, "%s health\n", passText("ok"))
	}
	if datasets, err := client.Datasets(ctx); err != nil {
		fmt.Fprintf(out, "%s datasets: %v\n", warnText("warn"), err)
	} else {
		fmt.Fprintf(out, "%s datasets: %s\n", passText("ok"), strings.Join(datasets, ", "))
	}
	if plots, err := client.AvailablePlots(ctx); err != nil {
		fmt.Fprintf(out, "%s plots: %v\n", warnText("warn"), err)
	} else {
		fmt.Fprintf(out, "%s plots: %s\n", passText("ok"), summarizePlots(plots))
	}

	doc, err := client.FetchMetrics(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch metrics: %w", err)
	}
	if dump {
		if _, err := pp.Fprintln(out, dumpDocument(doc)); err != nil {
			return fmt.Errorf("failed to dump document: %w", err)
		}
	}

	findings := schema.CheckDocument(doc)
	if len(findings) == 0 {
		fmt.Fprintf(out, "%s metrics document matches schema\n", passText("ok"))
		return nil
	}
	for _, f := range findings {
		fmt.Fprintf(out, "%s %s\n", failText("fail"), f)
	}
	return fmt.Errorf("metrics document has %d schema problem(s)", len(findings))
}

func dumpDocument(doc model.MetricsDocument) []datasetDump {
	out := make([]datasetDump, 0, len(doc.Datasets()))
	for _, id := range doc.Datasets() {
		ds, _ := doc.Dataset(id)
		out = append(out, datasetDump{Dataset: id, Models: metrics.ComparisonTable(ds)})
	}
	return out
}

func summarizePlots(plots map[string][]string) string {
	if len(plots) == 0 {
		return "none"
	}
	groups := make([]string, 0, len(plots))
	for group := range plots {
		groups = append(groups, group)
	}
	sort.Strings(groups)
	parts := make([]string, 0, len(groups))
	for _, group := range groups {
		parts = append(parts, fmt.Sprintf("%s=%d", group, len(plots[group])))
	}
	return strings.Join(parts, " ")
}
