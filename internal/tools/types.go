// Package tools defines the Tool interface, the registry that
// dispatches model tool calls by name, and the two course tools the
// model can invoke.
package tools

import (
	"context"

	"github.com/coursemind/coursemind/internal/models"
)

// Definition is the wire contract exposed to the model for one tool.
// The shape {name, description, input_schema} must be reproduced
// exactly for the model to invoke tools correctly.
type Definition struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
}

// Result is the outcome of a single tool execution. Sources carry the
// provenance for exactly this execution; there is no mutable
// per-tool source state to reset between queries.
type Result struct {
	Content string
	Sources []models.Source
}

// Tool is a callable capability the model can invoke.
type Tool interface {
	Definition() Definition
	Execute(ctx context.Context, input map[string]interface{}) (Result, error)
}
