package api

import "fmt"

// NetworkError reports a failed metrics request: transport failure, non-2xx
// status, or an undecodable body.
type NetworkError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s %s: status %d: %v", e.Op, e.URL, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s %s: unexpected status %d", e.Op, e.URL, e.StatusCode)
	default:
		return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
	}
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// PlotResolutionError reports a plot image that could not be loaded.
type PlotResolutionError struct {
	Filename   string
	StatusCode int
	Err        error
}

func (e *PlotResolutionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("plot %s: unexpected status %d", e.Filename, e.StatusCode)
	}
	return fmt.Sprintf("plot %s: %v", e.Filename, e.Err)
}

func (e *PlotResolutionError) Unwrap() error {
	return e.Err
}
