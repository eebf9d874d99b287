package parser

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const payloadSchemaJSON = `{
  "type": "object",
  "properties": {
    "corrections": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "issue": {"type": ["string", "null"]},
          "location": {"type": ["string", "null"]},
          "correction": {"type": ["string", "null"]}
        }
      }
    },
    "summary": {"type": ["string", "null"]},
    "correctedText": {"type": ["string", "null"]}
  },
  "anyOf": [
    {"required": ["corrections"]},
    {"required": ["correctedText"]}
  ]
}`

var payloadSchema = mustSchema(payloadSchemaJSON)

func mustSchema(def string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(def))
	if err != nil {
		panic(fmt.Sprintf("compile payload schema: %v", err))
	}
	return schema
}

func validateSchema(candidate string) error {
	result, err := payloadSchema.Validate(gojsonschema.NewStringLoader(candidate))
	if err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	if result.Valid() {
		return nil
	}
	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return fmt.Errorf("payload failed validation: %s", strings.Join(details, "; "))
}
