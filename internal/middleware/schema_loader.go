package middleware

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	contextutils "codetech/internal/utils"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v2"
)

//go:embed schemas/requests.yaml
var requestSchemas []byte

// SchemaLoader holds compiled JSON schemas keyed by name
type SchemaLoader struct {
	schemas map[string]*gojsonschema.Schema
}

// NewSchemaLoader creates an empty schema loader
func NewSchemaLoader() *SchemaLoader {
	return &SchemaLoader{
		schemas: make(map[string]*gojsonschema.Schema),
	}
}

// LoadRequestSchemas returns a loader with the embedded request schemas compiled
func LoadRequestSchemas() (*SchemaLoader, error) {
	loader := NewSchemaLoader()
	if err := loader.LoadSchemas(requestSchemas); err != nil {
		return nil, err
	}
	return loader, nil
}

// LoadSchemas compiles every entry of components/schemas in an OpenAPI style YAML document
func (sl *SchemaLoader) LoadSchemas(data []byte) error {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return contextutils.WrapError(err, "failed to parse schema document as YAML")
	}

	components, ok := doc["components"].(map[interface{}]interface{})
	if !ok {
		return contextutils.ErrorWithContextf("no components section found in schema document")
	}
	schemas, ok := components["schemas"].(map[interface{}]interface{})
	if !ok {
		return contextutils.ErrorWithContextf("no schemas section found in components")
	}

	jsonCompatibleSchemas := make(map[string]interface{}, len(schemas))
	for schemaName, schemaData := range schemas {
		name, ok := schemaName.(string)
		if !ok {
			return contextutils.ErrorWithContextf("schema name is not a string: %v", schemaName)
		}
		converted, err := convertToJSONCompatible(schemaData)
		if err != nil {
			return contextutils.WrapErrorf(err, "failed to convert schema %s", name)
		}
		jsonCompatibleSchemas[name] = converted
	}

	for name := range jsonCompatibleSchemas {
		// The whole components tree is kept so that $ref resolves
		completeSchemaDoc := map[string]interface{}{
			"$schema": "http://json-schema.org/draft-07/schema#",
			"components": map[string]interface{}{
				"schemas": jsonCompatibleSchemas,
			},
			"$ref": "#/components/schemas/" + name,
		}

		schemaBytes, err := json.Marshal(completeSchemaDoc)
		if err != nil {
			return contextutils.WrapErrorf(err, "failed to marshal schema %s", name)
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaBytes))
		if err != nil {
			return contextutils.WrapErrorf(err, "failed to compile schema %s", name)
		}
		sl.schemas[name] = schema
	}

	return nil
}

// HasSchema reports whether name was loaded
func (sl *SchemaLoader) HasSchema(name string) bool {
	_, ok := sl.schemas[name]
	return ok
}

// convertToJSONCompatible turns yaml.v2 maps into string-keyed maps and
// rewrites OpenAPI "nullable" into a JSON schema union with null.
func convertToJSONCompatible(data interface{}) (interface{}, error) {
	switch v := data.(type) {
	case map[interface{}]interface{}:
		result := make(map[string]interface{}, len(v))
		hasNullable := false

		for k, val := range v {
			keyStr, ok := k.(string)
			if !ok {
				return nil, contextutils.ErrorWithContextf("key is not a string: %v", k)
			}
			if keyStr == "nullable" {
				if nullable, ok := val.(bool); ok && nullable {
					hasNullable = true
				}
				continue
			}

			convertedVal, err := convertToJSONCompatible(val)
			if err != nil {
				return nil, err
			}
			result[keyStr] = convertedVal
		}

		if hasNullable {
			if ref, hasRef := result["$ref"].(string); hasRef {
				result["oneOf"] = []interface{}{
					map[string]interface{}{"$ref": ref},
					map[string]interface{}{"type": "null"},
				}
				delete(result, "$ref")
			} else if typeVal, hasType := result["type"].(string); hasType {
				result["type"] = []interface{}{typeVal, "null"}
				if enum, hasEnum := result["enum"].([]interface{}); hasEnum {
					result["enum"] = append(enum, nil)
				}
			}
		}

		return result, nil
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, val := range v {
			convertedVal, err := convertToJSONCompatible(val)
			if err != nil {
				return nil, err
			}
			result[i] = convertedVal
		}
		return result, nil
	default:
		return data, nil
	}
}

// ValidateJSON validates a raw JSON document against a named schema. The
// returned error lists every violation.
func (sl *SchemaLoader) ValidateJSON(body []byte, schemaName string) error {
	schema, exists := sl.schemas[schemaName]
	if !exists {
		return contextutils.ErrorWithContextf("schema %s not found", schemaName)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return contextutils.NewAppErrorWithCause(contextutils.ErrorCodeInvalidInput, contextutils.SeverityWarn,
			"Request body is not valid JSON", "", err)
	}

	if !result.Valid() {
		violations := make([]string, 0, len(result.Errors()))
		for _, validationErr := range result.Errors() {
			violations = append(violations, fmt.Sprintf("%s: %s", validationErr.Field(), validationErr.Description()))
		}
		return contextutils.NewAppError(contextutils.ErrorCodeValidationFailed, contextutils.SeverityWarn,
			strings.Join(violations, "; "), schemaName)
	}

	return nil
}
