package datatools

import "context"

// Tool defines the interface for model-callable data retrieval tools
type Tool interface {
	// ToolName returns the name of the tool
	ToolName() string

	// ToolDescription returns a description of what the tool does
	ToolDescription() string

	// ToolPayloadSchema returns the JSON schema for the tool's input parameters
	ToolPayloadSchema() Schema

	// Call executes the tool with the given JSON parameters and returns a
	// stringified result. A returned error marks the call failed; it is
	// recorded and surfaced to the model, not treated as fatal.
	Call(ctx context.Context, params string) (string, error)
}

// Executor dispatches a tool call by name. The orchestration loop consumes
// this interface and never sees the concrete tool implementations.
type Executor interface {
	Execute(ctx context.Context, toolName, params string) (string, error)
}
