package tools

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Registry maps tool names to executables. Registration order is kept
// so Definitions() is stable; registering a name twice overwrites the
// earlier tool (last registration wins).
type Registry struct {
	byName map[string]Tool
	order  []string
}

func NewRegistry(ts ...Tool) *Registry {
	r := &Registry{byName: make(map[string]Tool)}
	for _, t := range ts {
		r.Register(t)
	}
	return r
}

func (r *Registry) Register(t Tool) {
	name := t.Definition().Name
	if _, exists := r.byName[name]; exists {
		log.Warn().Str("tool", name).Msg("tool re-registered, previous registration replaced")
	} else {
		r.order = append(r.order, name)
	}
	r.byName[name] = t
}

// Definitions returns every registered tool definition in
// registration order.
func (r *Registry) Definitions() []Definition {
	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.byName[name].Definition())
	}
	return defs
}

// Execute dispatches one tool call. An unknown name and malformed
// arguments both come back as tool text the model can react to; only
// a failure inside the tool itself is returned as an error.
func (r *Registry) Execute(ctx context.Context, name string, input map[string]interface{}) (Result, error) {
	t, ok := r.byName[name]
	if !ok {
		return Result{Content: fmt.Sprintf("Tool '%s' not found", name)}, nil
	}
	if msg := validateInput(t.Definition(), input); msg != "" {
		return Result{Content: msg}, nil
	}
	return t.Execute(ctx, input)
}

// validateInput checks the argument map against the declared schema:
// required keys must be present and every supplied value must match
// its declared JSON type. Returns "" when the input is acceptable.
func validateInput(def Definition, input map[string]interface{}) string {
	props, _ := def.InputSchema["properties"].(map[string]interface{})

	if required, ok := def.InputSchema["required"].([]string); ok {
		for _, key := range required {
			if _, present := input[key]; !present {
				return fmt.Sprintf("Tool '%s' requires argument '%s'", def.Name, key)
			}
		}
	}

	for key, val := range input {
		spec, ok := props[key].(map[string]interface{})
		if !ok {
			return fmt.Sprintf("Tool '%s' does not accept argument '%s'", def.Name, key)
		}
		declared, _ := spec["type"].(string)
		if !typeMatches(declared, val) {
			return fmt.Sprintf("Tool '%s' argument '%s' must be of type %s", def.Name, key, declared)
		}
	}
	return ""
}

func typeMatches(declared string, val interface{}) bool {
	switch declared {
	case "string":
		_, ok := val.(string)
		return ok
	case "integer", "number":
		// JSON numbers decode as float64
		_, ok := val.(float64)
		return ok
	case "boolean":
		_, ok := val.(bool)
		return ok
	case "object":
		_, ok := val.(map[string]interface{})
		return ok
	case "array":
		_, ok := val.([]interface{})
		return ok
	default:
		return true
	}
}
