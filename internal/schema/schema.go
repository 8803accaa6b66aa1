// Package schema checks fetched metrics against the expected document shape.
// Findings are diagnostics for display; they never block rendering.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/verte-zerg/gnssview/internal/model"
)

//go:embed metrics.schema.json
var documentSchemaJSON []byte

const schemaName = "metrics.schema.json"

var (
	defaultPrinter = message.NewPrinter(language.English)
	documentSchema *jsonschema.Schema
	datasetSchema  *jsonschema.Schema
)

func init() {
	documentSchema = mustCompile(schemaName)
	datasetSchema = mustCompile(schemaName + "#/$defs/dataset")
}

func mustCompile(loc string) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(documentSchemaJSON))
	if err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", schemaName, err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaName, doc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", schemaName, err))
	}
	sch, err := compiler.Compile(loc)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", loc, err))
	}
	return sch
}

// CheckDocument validates a whole document. A decoded document is checked
// against the body it came from, so missing or null metrics are reported.
func CheckDocument(doc model.MetricsDocument) []string {
	if raw := doc.Raw(); raw != nil {
		return CheckBytes(raw)
	}
	return validate(documentSchema, doc, "")
}

// CheckDataset validates one dataset slice. Locations are prefixed with the
// dataset id.
func CheckDataset(dataset string, ds model.DatasetMetrics) []string {
	if raw := ds.Raw(); raw != nil {
		return checkRaw(datasetSchema, raw, "/"+dataset)
	}
	return validate(datasetSchema, ds, "/"+dataset)
}

// CheckBytes validates a raw JSON document.
func CheckBytes(data []byte) []string {
	return checkRaw(documentSchema, data, "")
}

func checkRaw(sch *jsonschema.Schema, data []byte, prefix string) []string {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return []string{fmt.Sprintf("JSON parse error: %v", err)}
	}
	return validateInstance(sch, inst, prefix)
}

func validate(sch *jsonschema.Schema, v any, prefix string) []string {
	data, err := json.Marshal(v)
	if err != nil {
		return []string{fmt.Sprintf("encode: %v", err)}
	}
	return checkRaw(sch, data, prefix)
}

func validateInstance(sch *jsonschema.Schema, inst any, prefix string) []string {
	err := sch.Validate(inst)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{fmt.Sprintf("schema: %v", err)}
	}
	var errs []string
	collectErrors(ve, prefix, &errs)
	sort.Strings(errs)
	return errs
}

func collectErrors(ve *jsonschema.ValidationError, prefix string, errs *[]string) {
	if len(ve.Causes) == 0 {
		loc := prefix + "/" + strings.Join(ve.InstanceLocation, "/")
		if len(ve.InstanceLocation) == 0 && prefix != "" {
			loc = prefix
		}
		*errs = append(*errs, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(defaultPrinter)))
		return
	}
	for _, cause := range ve.Causes {
		collectErrors(cause, prefix, errs)
	}
}
