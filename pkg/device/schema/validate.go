// Package schema holds the JSON Schemas of device state and tool inputs,
// and validates payloads against them.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/urmzd/homeagent/pkg/device"
)

var printer = message.NewPrinter(language.English)

// Validator checks payloads against schema documents. Compiled schemas are
// cached by document content, so callers may pass the same literal freely.
type Validator struct {
	mu       sync.Mutex
	compiled map[string]*jsonschema.Schema
}

func NewValidator() *Validator {
	return &Validator{compiled: map[string]*jsonschema.Schema{}}
}

// Validate checks payload against doc. An empty document accepts anything.
// Failures wrap device.ErrValidation and name each offending field.
func (v *Validator) Validate(doc json.RawMessage, payload map[string]any) error {
	if isEmptySchema(doc) {
		return nil
	}
	sch, err := v.schema(doc)
	if err != nil {
		return err
	}

	// Go ints and float64s must look the same as decoded request bodies.
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", device.ErrValidation, err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", device.ErrValidation, err)
	}

	err = sch.Validate(inst)
	var ve *jsonschema.ValidationError
	if errors.As(err, &ve) {
		return fmt.Errorf("%w: %s", device.ErrValidation, summarize(ve))
	}
	return err
}

func isEmptySchema(doc json.RawMessage) bool {
	s := strings.TrimSpace(string(doc))
	return s == "" || s == "{}" || s == "null"
}

func (v *Validator) schema(doc json.RawMessage) (*jsonschema.Schema, error) {
	key := string(doc)

	v.mu.Lock()
	defer v.mu.Unlock()
	if sch, ok := v.compiled[key]; ok {
		return sch, nil
	}

	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("invalid schema document: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("payload.json", parsed); err != nil {
		return nil, fmt.Errorf("invalid schema document: %w", err)
	}
	sch, err := c.Compile("payload.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	v.compiled[key] = sch
	return sch, nil
}

// Len reports how many distinct schemas have been compiled.
func (v *Validator) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.compiled)
}

// summarize flattens a validation tree into "field: reason" clauses, one per
// failing leaf, in a stable order.
func summarize(ve *jsonschema.ValidationError) string {
	var parts []string
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			field := strings.Join(e.InstanceLocation, ".")
			if field == "" {
				field = "input"
			}
			parts = append(parts, field+": "+e.ErrorKind.LocalizedString(printer))
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	slices.Sort(parts)
	return strings.Join(slices.Compact(parts), "; ")
}
