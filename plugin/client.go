package plugin

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	goplugin "github.com/hashicorp/go-plugin"

	"scout/datatools"
)

// Client wraps a go-plugin client and provides access to the tool provider
type Client struct {
	client   *goplugin.Client
	provider ToolProvider
	name     string
}

// PluginsDir returns the base directory for installed plugins
func PluginsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".scout", "plugins"), nil
}

// PluginPath returns the path to a plugin executable
func PluginPath(name, version string) (string, error) {
	pluginsDir, err := PluginsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(pluginsDir, name, version, "plugin"), nil
}

// PluginDir returns the directory for a specific plugin version
func PluginDir(name, version string) (string, error) {
	pluginsDir, err := PluginsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(pluginsDir, name, version), nil
}

// Load starts a plugin by name and version. When the binary is not installed
// and a source is given, it is downloaded from the source's GitHub releases
// first. "local" versions are never downloaded.
func Load(name, version, source string) (*Client, error) {
	pluginPath, err := PluginPath(name, version)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(pluginPath); os.IsNotExist(err) {
		if version == "local" || source == "" {
			return nil, fmt.Errorf("plugin not found: %s (version %s) at %s", name, version, pluginPath)
		}
		destDir, err := PluginDir(name, version)
		if err != nil {
			return nil, err
		}
		if err := DownloadPlugin(source, version, destDir); err != nil {
			return nil, fmt.Errorf("download plugin %s: %w", name, err)
		}
		if _, err := os.Stat(pluginPath); err != nil {
			return nil, fmt.Errorf("plugin not found after download: %s", pluginPath)
		}
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "plugin",
		Output: os.Stderr,
		Level:  hclog.Error,
	})

	client := goplugin.NewClient(&goplugin.ClientConfig{
		HandshakeConfig:  Handshake,
		Plugins:          PluginMap,
		Cmd:              exec.Command(pluginPath),
		Logger:           logger,
		AllowedProtocols: []goplugin.Protocol{goplugin.ProtocolNetRPC},
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to connect to plugin: %w", err)
	}

	raw, err := rpcClient.Dispense("tool")
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to dispense plugin: %w", err)
	}

	provider, ok := raw.(ToolProvider)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("plugin does not implement ToolProvider interface")
	}

	return &Client{
		client:   client,
		provider: provider,
		name:     name,
	}, nil
}

// Configure passes plugin block settings to the plugin process
func (c *Client) Configure(settings map[string]string) error {
	return c.provider.Configure(settings)
}

// Call invokes a tool on the plugin
func (c *Client) Call(toolName string, payload string) (string, error) {
	return c.provider.Call(toolName, payload)
}

// GetToolInfo returns metadata about a specific tool
func (c *Client) GetToolInfo(toolName string) (*ToolInfo, error) {
	return c.provider.GetToolInfo(toolName)
}

// ListTools returns info for all tools this plugin provides
func (c *Client) ListTools() ([]*ToolInfo, error) {
	return c.provider.ListTools()
}

// Tool returns a catalog-ready tool implementation for the named tool
func (c *Client) Tool(toolName string) (datatools.Tool, error) {
	info, err := c.provider.GetToolInfo(toolName)
	if err != nil {
		return nil, err
	}
	return NewProviderTool(c.provider, info), nil
}

// AllTools returns catalog-ready implementations for every tool the plugin
// provides, keyed by tool name.
func (c *Client) AllTools() (map[string]datatools.Tool, error) {
	infos, err := c.provider.ListTools()
	if err != nil {
		return nil, err
	}
	tools := make(map[string]datatools.Tool, len(infos))
	for _, info := range infos {
		tools[info.Name] = NewProviderTool(c.provider, info)
	}
	return tools, nil
}

// Close shuts down the plugin process
func (c *Client) Close() {
	if c.client != nil {
		c.client.Kill()
	}
}

// Name returns the plugin name
func (c *Client) Name() string {
	return c.name
}
