package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compiled holds one compiled validator per *Schema. Keying on the pointer
// keeps two schemas that share a name from validating against each other.
var compiled sync.Map // map[*Schema]*jsonschema.Schema

// validateResponse checks raw against schema. A nil schema accepts
// anything; any failure is an *ErrInvalidResponse.
func validateResponse(schema *Schema, raw json.RawMessage) error {
	if schema == nil {
		return nil
	}
	invalid := func(format string, args ...any) error {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf(format, args...)}
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return invalid("%s: not JSON: %w", schema.Name, err)
	}
	v, err := compile(schema)
	if err != nil {
		return invalid("%s: %w", schema.Name, err)
	}
	if err := v.Validate(doc); err != nil {
		return invalid("%s: %w", schema.Name, err)
	}
	return nil
}

func compile(schema *Schema) (*jsonschema.Schema, error) {
	if v, ok := compiled.Load(schema); ok {
		return v.(*jsonschema.Schema), nil
	}

	// jsonschema wants decoded JSON values, not Go maps with typed slices.
	b, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal definition: %w", err)
	}
	def, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("decode definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	url := "schema://quizstreak/" + schema.Name + ".json"
	if err := c.AddResource(url, def); err != nil {
		return nil, fmt.Errorf("add definition: %w", err)
	}
	v, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile definition: %w", err)
	}
	actual, _ := compiled.LoadOrStore(schema, v)
	return actual.(*jsonschema.Schema), nil
}
