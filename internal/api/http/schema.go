package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

var errBadRequest = errors.New("bad request")

const configSchema = `{
  "type": "object",
  "required": ["total_items", "item_distribution"],
  "properties": {
    "total_items": {"type": "integer", "minimum": 0},
    "item_distribution": {
      "type": "object",
      "propertyNames": {"enum": ["mcq", "cloze", "error_correction", "matching", "reading_q", "writing_task"]},
      "additionalProperties": {"type": "integer", "minimum": 0}
    },
    "difficulty_distribution": {
      "type": "object",
      "properties": {
        "easy": {"type": "number", "minimum": 0, "maximum": 1},
        "medium": {"type": "number", "minimum": 0, "maximum": 1},
        "hard": {"type": "number", "minimum": 0, "maximum": 1}
      },
      "additionalProperties": false
    },
    "level": {"enum": ["", "A1", "A2", "B1", "B2", "C1", "C2"]},
    "topics": {"type": "array", "items": {"type": "string"}},
    "tags": {"type": "array", "items": {"type": "string"}}
  }
}`

const requestSchema = `{
  "type": "object",
  "required": ["config"],
  "properties": {
    "title": {"type": "string", "maxLength": 200},
    "dry_run": {"type": "boolean"},
    "config": {"$ref": "schema://config.json"}
  }
}`

var (
	schemasOnce sync.Once
	schemas     map[string]*jsonschema.Schema
	schemasErr  error
)

func compiledSchema(name string) (*jsonschema.Schema, error) {
	schemasOnce.Do(func() {
		c := jsonschema.NewCompiler()
		for n, src := range map[string]string{"config": configSchema, "request": requestSchema} {
			var doc any
			if err := json.Unmarshal([]byte(src), &doc); err != nil {
				schemasErr = fmt.Errorf("parse schema %s: %w", n, err)
				return
			}
			if err := c.AddResource("schema://"+n+".json", doc); err != nil {
				schemasErr = fmt.Errorf("add schema %s: %w", n, err)
				return
			}
		}
		schemas = map[string]*jsonschema.Schema{}
		for _, n := range []string{"config", "request"} {
			s, err := c.Compile("schema://" + n + ".json")
			if err != nil {
				schemasErr = fmt.Errorf("compile schema %s: %w", n, err)
				return
			}
			schemas[n] = s
		}
	})
	if schemasErr != nil {
		return nil, schemasErr
	}
	return schemas[name], nil
}

// decodeValidated checks raw against the named schema, then decodes it into v.
func decodeValidated(raw []byte, name string, v any) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", errBadRequest, err)
	}
	s, err := compiledSchema(name)
	if err != nil {
		return err
	}
	if err := s.Validate(parsed); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}
