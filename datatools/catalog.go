package datatools

import (
	"context"
	"fmt"
	"sync"

	"scout/llm"
)

// Descriptor is one catalog entry: a tool's name, natural-language
// description and parameter schema. Immutable once registered.
type Descriptor struct {
	Name        string
	Description string
	Schema      Schema
}

// Registry holds the tool catalog and dispatches calls by name.
// Registration happens at startup; reads are safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty tool registry
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool to the catalog. Re-registering a name replaces the
// previous tool but keeps its catalog position.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := t.ToolName()
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = t
}

// Get returns the tool registered under name
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns tool names in registration order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Descriptors returns the catalog in registration order
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	descs := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		descs = append(descs, Descriptor{
			Name:        t.ToolName(),
			Description: t.ToolDescription(),
			Schema:      t.ToolPayloadSchema(),
		})
	}
	return descs
}

// Specs returns the catalog as provider-neutral tool specs for a model call
func (r *Registry) Specs() []llm.ToolSpec {
	descs := r.Descriptors()
	specs := make([]llm.ToolSpec, 0, len(descs))
	for _, d := range descs {
		specs = append(specs, llm.ToolSpec{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: d.Schema.Raw(),
		})
	}
	return specs
}

// Description returns the registered description for a tool name,
// or an empty string if unknown.
func (r *Registry) Description(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.tools[name]; ok {
		return t.ToolDescription()
	}
	return ""
}

// Execute dispatches a call to the named tool. Registry implements Executor.
func (r *Registry) Execute(ctx context.Context, toolName, params string) (string, error) {
	t, ok := r.Get(toolName)
	if !ok {
		return "", fmt.Errorf("unknown tool '%s'", toolName)
	}
	return t.Call(ctx, params)
}
