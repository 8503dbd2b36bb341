package plugin

import (
	"context"

	"scout/datatools"
)

// ProviderTool adapts one plugin tool to the datatools.Tool interface
type ProviderTool struct {
	provider ToolProvider
	info     *ToolInfo
}

// NewProviderTool creates a catalog tool backed by a plugin provider
func NewProviderTool(provider ToolProvider, info *ToolInfo) *ProviderTool {
	return &ProviderTool{
		provider: provider,
		info:     info,
	}
}

func (t *ProviderTool) ToolName() string {
	return t.info.Name
}

func (t *ProviderTool) ToolDescription() string {
	return t.info.Description
}

func (t *ProviderTool) ToolPayloadSchema() datatools.Schema {
	return t.info.Schema
}

// Call forwards to the plugin process. The rpc call is synchronous, so the
// context only covers everything up to dispatch.
func (t *ProviderTool) Call(ctx context.Context, params string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return t.provider.Call(t.info.Name, params)
}
