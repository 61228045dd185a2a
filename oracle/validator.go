package oracle

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Validator checks oracle responses against JSON schemas.
// Compiled schemas are cached by their JSON encoding.
type Validator struct {
	cache sync.Map // map[string]*gojsonschema.Schema
}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate reports whether document (a JSON text) satisfies schemaData.
func (v *Validator) Validate(schemaData map[string]interface{}, document string) error {
	schema, err := v.compile(schemaData)
	if err != nil {
		return fmt.Errorf("invalid schema definition: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(document))
	if err != nil {
		// Not JSON at all.
		return fmt.Errorf("validate response: %w", err)
	}
	if result.Valid() {
		return nil
	}

	errs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
		if len(errs) == 3 {
			break
		}
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(errs, "; "))
}

func (v *Validator) compile(schemaData map[string]interface{}) (*gojsonschema.Schema, error) {
	raw, err := json.Marshal(schemaData)
	if err != nil {
		return nil, err
	}
	key := string(raw)

	if cached, ok := v.cache.Load(key); ok {
		return cached.(*gojsonschema.Schema), nil
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, err
	}
	v.cache.Store(key, schema)
	return schema, nil
}
