package viewmodel

import "fmt"

// MissingDatasetError reports a dataset key absent from a fetched document.
type MissingDatasetError struct {
	Dataset string
}

func (e *MissingDatasetError) Error() string {
	return fmt.Sprintf("no data available for dataset %s", e.Dataset)
}

// MissingModelError reports a selected model absent from the dataset slice.
type MissingModelError struct {
	Dataset string
	Model   string
}

func (e *MissingModelError) Error() string {
	return fmt.Sprintf("model %s not found for dataset %s", e.Model, e.Dataset)
}
