package metrics

import (
	"fmt"
	"strings"
)

// Placeholder images substituted when a plot cannot be resolved.
const (
	ResidualPlaceholder   = "https://via.placeholder.com/1200x400?text=Plot+Not+Found"
	ComparisonPlaceholder = "https://via.placeholder.com/1200x800?text=Comparison+Plot+Not+Found"
)

// PlotRef names the two plot images for a dataset and model.
type PlotRef struct {
	Residual   string `json:"residual" yaml:"residual"`
	Comparison string `json:"comparison" yaml:"comparison"`
}

// PlotReference builds the plot filenames. Only the model id is lowercased.
func PlotReference(dataset, modelID string) PlotRef {
	return PlotRef{
		Residual:   fmt.Sprintf("residuals_%s_%s.png", strings.ToLower(modelID), dataset),
		Comparison: fmt.Sprintf("comparison_%s.png", dataset),
	}
}

// PlotStatus is the outcome of resolving one plot.
type PlotStatus struct {
	Filename    string
	URL         string
	Placeholder bool
	Err         error
}

// Resolved returns a status pointing at the served plot.
func Resolved(filename, url string) PlotStatus {
	return PlotStatus{Filename: filename, URL: url}
}

// Unresolved returns a status pointing at the placeholder.
func Unresolved(filename, placeholder string, err error) PlotStatus {
	return PlotStatus{Filename: filename, URL: placeholder, Placeholder: true, Err: err}
}
