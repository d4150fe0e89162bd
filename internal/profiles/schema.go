package profiles

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// configSchema pins the profile file shape before any field is interpreted, so
// a typo'd key fails loudly at load time instead of silently misconfiguring a
// sender.
const configSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["profiles"],
	"properties": {
		"profiles": {
			"type": "object",
			"additionalProperties": {
				"type": "object",
				"required": ["templateId", "expectedDigits"],
				"additionalProperties": false,
				"properties": {
					"templateId": {"type": "string", "minLength": 1},
					"expectedDigits": {"type": "integer", "minimum": 1, "maximum": 20},
					"pattern": {"type": "string"},
					"page": {"type": "integer", "minimum": 1},
					"crop": {
						"type": "object",
						"required": ["mode", "x", "y", "w", "h"],
						"additionalProperties": false,
						"properties": {
							"mode": {"enum": ["percent", "points"]},
							"x": {"type": "number"},
							"y": {"type": "number"},
							"w": {"type": "number"},
							"h": {"type": "number"},
							"pageW": {"type": "number"},
							"pageH": {"type": "number"}
						}
					}
				}
			}
		}
	}
}`

func validateConfig(data []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("profiles.schema.json", bytes.NewReader([]byte(configSchema))); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("profiles.schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("config does not match schema: %w", err)
	}
	return nil
}
