// Package model defines shared data structures.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Dataset identifiers served by the backend.
const (
	DatasetGEO  = "GEO"
	DatasetMEO1 = "MEO1"
	DatasetMEO2 = "MEO2"
)

// Model identifiers served by the backend.
const (
	ModelLSTM          = "LSTM"
	ModelTransformer   = "Transformer"
	ModelProbabilistic = "Probabilistic"
)

// DefaultModel is selected on every page mount.
const DefaultModel = ModelLSTM

// Datasets lists the recognized datasets in display order.
var Datasets = []string{DatasetGEO, DatasetMEO1, DatasetMEO2}

// Models lists the recognized models in canonical order.
var Models = []string{ModelLSTM, ModelTransformer, ModelProbabilistic}

// DatasetDescriptions holds the one-line description shown for each dataset.
var DatasetDescriptions = map[string]string{
	DatasetGEO:  "Geostationary Earth Orbit satellites",
	DatasetMEO1: "Medium Earth Orbit satellites - Dataset 1",
	DatasetMEO2: "Medium Earth Orbit satellites - Dataset 2",
}

// Config defines client settings resolved at startup.
type Config struct {
	APIURL         string
	Timeout        time.Duration
	Dataset        string
	Model          string
	HistoryEnabled bool
}

// ModelMetrics holds the precomputed error metrics for one model.
type ModelMetrics struct {
	RMSE     float64 `json:"rmse" yaml:"rmse"`
	MAE      float64 `json:"mae" yaml:"mae"`
	ShapiroP float64 `json:"shapiro_p" yaml:"shapiro_p"`
}

// UnmarshalJSON accepts a null shapiro_p, which the backend emits when the
// source column is missing.
func (m *ModelMetrics) UnmarshalJSON(data []byte) error {
	var raw struct {
		RMSE     float64  `json:"rmse"`
		MAE      float64  `json:"mae"`
		ShapiroP *float64 `json:"shapiro_p"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.RMSE = raw.RMSE
	m.MAE = raw.MAE
	m.ShapiroP = 0
	if raw.ShapiroP != nil {
		m.ShapiroP = *raw.ShapiroP
	}
	return nil
}

// DatasetMetrics maps model ids to metrics and remembers the key order of the
// JSON object it was decoded from.
type DatasetMetrics struct {
	keys   []string
	byName map[string]ModelMetrics
	raw    []byte
}

// NewDatasetMetrics builds a DatasetMetrics from ordered keys and values.
func NewDatasetMetrics(keys []string, values map[string]ModelMetrics) DatasetMetrics {
	d := DatasetMetrics{byName: make(map[string]ModelMetrics, len(keys))}
	for _, k := range keys {
		v, ok := values[k]
		if !ok {
			continue
		}
		d.set(k, v)
	}
	return d
}

func (d *DatasetMetrics) set(key string, value ModelMetrics) {
	if d.byName == nil {
		d.byName = map[string]ModelMetrics{}
	}
	if _, ok := d.byName[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.byName[key] = value
}

// Keys returns the model ids in encountered order.
func (d DatasetMetrics) Keys() []string {
	return append([]string(nil), d.keys...)
}

// Len returns the number of models.
func (d DatasetMetrics) Len() int {
	return len(d.keys)
}

// Raw returns the JSON the dataset was decoded from, or nil when it was built
// in code.
func (d DatasetMetrics) Raw() []byte {
	return d.raw
}

// Lookup returns the metrics for a model id.
func (d DatasetMetrics) Lookup(modelID string) (ModelMetrics, bool) {
	v, ok := d.byName[modelID]
	return v, ok
}

// UnmarshalJSON decodes a JSON object while preserving key order.
func (d *DatasetMetrics) UnmarshalJSON(data []byte) error {
	*d = DatasetMetrics{}
	err := decodeOrderedObject(data, func(key string, raw json.RawMessage) error {
		var mm ModelMetrics
		if err := json.Unmarshal(raw, &mm); err != nil {
			return fmt.Errorf("model %q: %w", key, err)
		}
		d.set(key, mm)
		return nil
	})
	if err != nil {
		return err
	}
	d.raw = append([]byte(nil), data...)
	return nil
}

// MarshalJSON encodes the models in their stored order.
func (d DatasetMetrics) MarshalJSON() ([]byte, error) {
	return encodeOrderedObject(d.keys, func(key string) any { return d.byName[key] })
}

// MetricsDocument maps dataset ids to per-model metrics.
type MetricsDocument struct {
	keys      []string
	byDataset map[string]DatasetMetrics
	raw       []byte
}

// NewMetricsDocument builds a document from ordered dataset keys.
func NewMetricsDocument(keys []string, values map[string]DatasetMetrics) MetricsDocument {
	doc := MetricsDocument{byDataset: make(map[string]DatasetMetrics, len(keys))}
	for _, k := range keys {
		v, ok := values[k]
		if !ok {
			continue
		}
		doc.set(k, v)
	}
	return doc
}

func (m *MetricsDocument) set(key string, value DatasetMetrics) {
	if m.byDataset == nil {
		m.byDataset = map[string]DatasetMetrics{}
	}
	if _, ok := m.byDataset[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.byDataset[key] = value
}

// Datasets returns the dataset ids in encountered order.
func (m MetricsDocument) Datasets() []string {
	return append([]string(nil), m.keys...)
}

// Raw returns the JSON body the document was decoded from, or nil when it was
// built in code. Missing and null metrics are only visible here.
func (m MetricsDocument) Raw() []byte {
	return m.raw
}

// Dataset returns the metrics for one dataset.
func (m MetricsDocument) Dataset(id string) (DatasetMetrics, bool) {
	v, ok := m.byDataset[id]
	return v, ok
}

// UnmarshalJSON decodes a JSON object while preserving key order.
func (m *MetricsDocument) UnmarshalJSON(data []byte) error {
	*m = MetricsDocument{}
	err := decodeOrderedObject(data, func(key string, raw json.RawMessage) error {
		var dm DatasetMetrics
		if err := json.Unmarshal(raw, &dm); err != nil {
			return fmt.Errorf("dataset %q: %w", key, err)
		}
		m.set(key, dm)
		return nil
	})
	if err != nil {
		return err
	}
	m.raw = append([]byte(nil), data...)
	return nil
}

// MarshalJSON encodes the datasets in their stored order.
func (m MetricsDocument) MarshalJSON() ([]byte, error) {
	return encodeOrderedObject(m.keys, func(key string) any { return m.byDataset[key] })
}

func decodeOrderedObject(data []byte, fn func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

func encodeOrderedObject(keys []string, value func(string) any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(value(k))
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// PredictionPoint is one validation sample exported by training: the observed
// error, the predicted error and their difference, in meters.
type PredictionPoint struct {
	YTrue float64 `json:"y_true" yaml:"y_true"`
	YPred float64 `json:"y_pred" yaml:"y_pred"`
	Error float64 `json:"error" yaml:"error"`
}

// Snapshot records the metrics of one model as seen by one fetch.
type Snapshot struct {
	FetchID   string
	FetchedAt time.Time
	APIURL    string
	Dataset   string
	Model     string
	Metrics   ModelMetrics
}
