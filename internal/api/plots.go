package api

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/gnssview/internal/metrics"
)

// PlotResolver checks whether a plot file is served.
type PlotResolver interface {
	ResolvePlot(ctx context.Context, filename string) (string, error)
}

// PlotSet holds the resolution outcome for both plots of a page.
type PlotSet struct {
	Residual   metrics.PlotStatus
	Comparison metrics.PlotStatus
}

// ResolvePlots resolves both plot references concurrently. A failed plot is
// replaced by its placeholder; the error is kept on the status and never
// returned.
func ResolvePlots(ctx context.Context, r PlotResolver, ref metrics.PlotRef) PlotSet {
	var set PlotSet
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		set.Residual = resolveOne(gctx, r, ref.Residual, metrics.ResidualPlaceholder)
		return nil
	})
	g.Go(func() error {
		set.Comparison = resolveOne(gctx, r, ref.Comparison, metrics.ComparisonPlaceholder)
		return nil
	})
	_ = g.Wait()
	return set
}

func resolveOne(ctx context.Context, r PlotResolver, filename, placeholder string) metrics.PlotStatus {
	u, err := r.ResolvePlot(ctx, filename)
	if err != nil {
		return metrics.Unresolved(filename, placeholder, err)
	}
	return metrics.Resolved(filename, u)
}
