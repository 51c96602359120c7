package remd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// runSchema is the JSON Schema that every run file must satisfy before
// it reaches RunConfig.Validate. Structural mistakes (wrong types,
// negative counts, a too-short ladder) are reported with schema paths;
// semantic rules (strictly increasing ladder, per-kind eligibility
// requirements) stay in Validate.
const runSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["total_steps", "exchange_interval", "temperatures"],
  "properties": {
    "seed": {"type": "integer"},
    "total_steps": {"type": "integer", "minimum": 1},
    "exchange_interval": {"type": "integer", "minimum": 1},
    "swaps_per_segment": {"type": "integer", "minimum": 0},
    "temperatures": {
      "type": "array",
      "minItems": 2,
      "items": {"type": "number", "exclusiveMinimum": 0}
    },
    "eligibility": {
      "type": "object",
      "properties": {
        "kind": {"enum": ["any-pair", "cutoff-radius", "element-set"]},
        "cutoff": {"type": "number"},
        "elements": {"type": "array", "items": {"type": "string"}}
      }
    },
    "structure": {"type": "string"},
    "trajectory_dir": {"type": "string"},
    "store_path": {"type": "string"},
    "listen_addr": {"type": "string"}
  }
}`

var compiledRunSchema = jsonschema.MustCompileString("run.schema.json", runSchema)

// LoadRunConfig reads a YAML run file, validates it against the run
// schema, and returns the parsed and semantically validated RunConfig.
func LoadRunConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run config: %w", err)
	}
	return ParseRunConfig(data)
}

// ParseRunConfig parses and validates YAML run-config bytes.
func ParseRunConfig(data []byte) (*RunConfig, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing run config: %w", err)
	}
	// The schema validator expects encoding/json value types, so the
	// YAML document is round-tripped through JSON first.
	jsonDoc, err := yamlToJSONValue(doc)
	if err != nil {
		return nil, fmt.Errorf("normalizing run config: %w", err)
	}
	if err := compiledRunSchema.Validate(jsonDoc); err != nil {
		return nil, fmt.Errorf("run config schema: %w", err)
	}
	var cfg RunConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing run config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func yamlToJSONValue(doc any) (any, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return nil, err
	}
	dec := json.NewDecoder(&buf)
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
