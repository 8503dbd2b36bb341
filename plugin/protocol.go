package plugin

import (
	"net/rpc"

	goplugin "github.com/hashicorp/go-plugin"

	"scout/datatools"
)

// Handshake is the handshake config shared between host and plugin binaries.
// The cookie only prevents launching a non-plugin executable by accident; it
// is not a security boundary.
var Handshake = goplugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "SCOUT_PLUGIN",
	MagicCookieValue: "e1f70b2c-tool-provider",
}

// PluginMap is the map of plugins the host can dispense
var PluginMap = map[string]goplugin.Plugin{
	"tool": &ProviderPlugin{},
}

// ToolInfo contains metadata about a tool exposed by a plugin
type ToolInfo struct {
	Name        string
	Description string
	Schema      datatools.Schema
}

// ToolProvider is the interface a plugin binary implements to contribute
// data tools to the catalog.
type ToolProvider interface {
	// Configure passes settings from the HCL plugin block to the plugin
	Configure(settings map[string]string) error

	// Call invokes a tool with the given JSON payload
	Call(toolName string, payload string) (string, error)

	// GetToolInfo returns metadata about a specific tool
	GetToolInfo(toolName string) (*ToolInfo, error)

	// ListTools returns info for all tools this plugin provides
	ListTools() ([]*ToolInfo, error)
}

// ProviderPlugin is the go-plugin wrapper dispensing a ToolProvider over net/rpc
type ProviderPlugin struct {
	Impl ToolProvider
}

func (p *ProviderPlugin) Server(*goplugin.MuxBroker) (interface{}, error) {
	return &providerServer{impl: p.Impl}, nil
}

func (p *ProviderPlugin) Client(_ *goplugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &providerRPC{client: c}, nil
}

// Serve starts a plugin binary's serve loop. Called from the plugin's main.
func Serve(impl ToolProvider) {
	goplugin.Serve(&goplugin.ServeConfig{
		HandshakeConfig: Handshake,
		Plugins: map[string]goplugin.Plugin{
			"tool": &ProviderPlugin{Impl: impl},
		},
	})
}

type configureArgs struct {
	Settings map[string]string
}

type callArgs struct {
	ToolName string
	Payload  string
}

type toolInfoArgs struct {
	ToolName string
}

type toolListReply struct {
	Tools []*ToolInfo
}

// providerServer runs inside the plugin process
type providerServer struct {
	impl ToolProvider
}

func (s *providerServer) Configure(args *configureArgs, _ *struct{}) error {
	return s.impl.Configure(args.Settings)
}

func (s *providerServer) Call(args *callArgs, reply *string) error {
	result, err := s.impl.Call(args.ToolName, args.Payload)
	if err != nil {
		return err
	}
	*reply = result
	return nil
}

func (s *providerServer) GetToolInfo(args *toolInfoArgs, reply *ToolInfo) error {
	info, err := s.impl.GetToolInfo(args.ToolName)
	if err != nil {
		return err
	}
	*reply = *info
	return nil
}

func (s *providerServer) ListTools(_ *struct{}, reply *toolListReply) error {
	tools, err := s.impl.ListTools()
	if err != nil {
		return err
	}
	reply.Tools = tools
	return nil
}

// providerRPC runs inside the host and forwards over the rpc connection
type providerRPC struct {
	client *rpc.Client
}

func (c *providerRPC) Configure(settings map[string]string) error {
	return c.client.Call("Plugin.Configure", &configureArgs{Settings: settings}, &struct{}{})
}

func (c *providerRPC) Call(toolName string, payload string) (string, error) {
	var reply string
	err := c.client.Call("Plugin.Call", &callArgs{ToolName: toolName, Payload: payload}, &reply)
	return reply, err
}

func (c *providerRPC) GetToolInfo(toolName string) (*ToolInfo, error) {
	var reply ToolInfo
	if err := c.client.Call("Plugin.GetToolInfo", &toolInfoArgs{ToolName: toolName}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *providerRPC) ListTools() ([]*ToolInfo, error) {
	var reply toolListReply
	if err := c.client.Call("Plugin.ListTools", &struct{}{}, &reply); err != nil {
		return nil, err
	}
	return reply.Tools, nil
}
