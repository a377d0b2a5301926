package llm

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/adjudication.schema.json
var adjudicationSchemaJSON []byte

//go:embed schema/rerank.schema.json
var rerankSchemaJSON []byte

var (
	compileOnce        sync.Once
	compileErr         error
	adjudicationSchema *jsonschema.Schema
	rerankSchema       *jsonschema.Schema
)

func compileSchemas() {
	compile := func(name string, raw []byte) (*jsonschema.Schema, error) {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(name, bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", name, err)
		}
		schema, err := compiler.Compile(name)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		return schema, nil
	}

	adjudicationSchema, compileErr = compile("adjudication.schema.json", adjudicationSchemaJSON)
	if compileErr != nil {
		return
	}
	rerankSchema, compileErr = compile("rerank.schema.json", rerankSchemaJSON)
}

// validateJSON checks a raw model verdict against one of the embedded
// schemas. Violations are returned as errors so callers fall back to the
// deterministic path.
func validateJSON(schemaName, raw string) (any, error) {
	compileOnce.Do(compileSchemas)
	if compileErr != nil {
		return nil, compileErr
	}

	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("parse verdict JSON: %w", err)
	}

	var schema *jsonschema.Schema
	switch schemaName {
	case "adjudication":
		schema = adjudicationSchema
	case "rerank":
		schema = rerankSchema
	default:
		return nil, fmt.Errorf("unknown schema %q", schemaName)
	}

	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("verdict failed schema validation: %w", err)
	}
	return doc, nil
}
