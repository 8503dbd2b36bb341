package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"scout/plugin"
)

// Config holds all configuration
type Config struct {
	Models    []Model    `hcl:"model,block"`
	Variables []Variable `hcl:"variable,block"`
	Plugins   []Plugin   `hcl:"plugin,block"`

	Analyst   *AnalystConfig   `hcl:"analyst,block"`
	Warehouse *WarehouseConfig `hcl:"warehouse,block"`
	Storage   *StorageConfig   `hcl:"storage,block"`

	// LoadedPlugins holds the loaded plugin clients, keyed by plugin name
	LoadedPlugins map[string]*plugin.Client `hcl:"-"`
	// PluginWarnings holds warnings for plugins that could not be loaded
	PluginWarnings []string `hcl:"-"`
	// ResolvedVars holds the resolved variable values for runtime use
	ResolvedVars map[string]cty.Value `hcl:"-"`
}

func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if info.IsDir() {
		return LoadDir(path)
	}
	return LoadFile(path)
}

// LoadAndValidate loads the config and validates all components
func LoadAndValidate(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all config components are valid
func (c *Config) Validate() error {
	for _, m := range c.Models {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("model '%s': %w", m.Name, err)
		}
	}

	for _, v := range c.Variables {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("variable '%s': %w", v.Name, err)
		}
	}

	for _, p := range c.Plugins {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("plugin '%s': %w", p.Name, err)
		}
	}

	if c.Analyst != nil {
		if err := c.Analyst.Validate(c.Models); err != nil {
			return fmt.Errorf("analyst: %w", err)
		}
	}

	if c.Warehouse != nil {
		if err := c.Warehouse.Validate(); err != nil {
			return fmt.Errorf("warehouse: %w", err)
		}
	}

	if c.Storage != nil {
		if err := c.Storage.Validate(); err != nil {
			return fmt.Errorf("storage: %w", err)
		}
	}

	return nil
}

func LoadFile(filename string) (*Config, error) {
	return loadFromFiles([]string{filename})
}

func LoadDir(dir string) (*Config, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.hcl"))
	if err != nil {
		return nil, err
	}
	return loadFromFiles(files)
}

// parsedBlocks holds all blocks extracted from a file in one pass
type parsedBlocks struct {
	Variables  []*hcl.Block
	Models     []*hcl.Block
	Plugins    []*hcl.Block
	Analysts   []*hcl.Block
	Warehouses []*hcl.Block
	Storages   []*hcl.Block
}

// loadFromFiles implements staged loading: variables → plugins → models →
// analyst/warehouse/storage. Later stages see the namespaces built by the
// earlier ones.
func loadFromFiles(files []string) (*Config, error) {
	parser := hclparse.NewParser()
	var allParsedBlocks []parsedBlocks

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parse %s: %w", file, diags)
		}

		// Extract all known block types in one PartialContent call
		content, _, diags := hclFile.Body.PartialContent(&hcl.BodySchema{
			Blocks: []hcl.BlockHeaderSchema{
				{Type: "variable", LabelNames: []string{"name"}},
				{Type: "model", LabelNames: []string{"name"}},
				{Type: "plugin", LabelNames: []string{"name"}},
				{Type: "analyst"},
				{Type: "warehouse"},
				{Type: "storage"},
			},
		})
		if diags.HasErrors() {
			return nil, fmt.Errorf("partial content %s: %w", file, diags)
		}

		var pb parsedBlocks
		for _, block := range content.Blocks {
			switch block.Type {
			case "variable":
				pb.Variables = append(pb.Variables, block)
			case "model":
				pb.Models = append(pb.Models, block)
			case "plugin":
				pb.Plugins = append(pb.Plugins, block)
			case "analyst":
				pb.Analysts = append(pb.Analysts, block)
			case "warehouse":
				pb.Warehouses = append(pb.Warehouses, block)
			case "storage":
				pb.Storages = append(pb.Storages, block)
			}
		}
		allParsedBlocks = append(allParsedBlocks, pb)
	}

	// Stage 1: variables (no context needed)
	var allVars []Variable
	for _, pb := range allParsedBlocks {
		for _, block := range pb.Variables {
			var v Variable
			v.Name = block.Labels[0]
			diags := gohcl.DecodeBody(block.Body, nil, &v)
			if diags.HasErrors() {
				return nil, fmt.Errorf("decode variable %s: %w", v.Name, diags)
			}
			allVars = append(allVars, v)
		}
	}

	varsCtx, resolvedVars := buildVarsContext(allVars)

	// Stage 2: plugins (with vars context)
	var allPlugins []Plugin
	var pluginWarnings []string
	loadedPlugins := make(map[string]*plugin.Client)

	for _, pb := range allParsedBlocks {
		for _, block := range pb.Plugins {
			p, err := parsePluginBlock(block, varsCtx)
			if err != nil {
				return nil, err
			}
			allPlugins = append(allPlugins, *p)

			client, err := plugin.Load(p.Name, p.Version, p.Source)
			if err != nil {
				pluginWarnings = append(pluginWarnings, fmt.Sprintf("plugin '%s' (version %s): %v", p.Name, p.Version, err))
				continue
			}
			if len(p.Settings) > 0 {
				if err := client.Configure(p.Settings); err != nil {
					pluginWarnings = append(pluginWarnings, fmt.Sprintf("plugin '%s' configure: %v", p.Name, err))
					client.Close()
					continue
				}
			}
			loadedPlugins[p.Name] = client
		}
	}

	// Stage 3: models (with vars context)
	var allModels []Model
	for _, pb := range allParsedBlocks {
		for _, block := range pb.Models {
			var m Model
			m.Name = block.Labels[0]
			diags := gohcl.DecodeBody(block.Body, varsCtx, &m)
			if diags.HasErrors() {
				return nil, diags
			}
			allModels = append(allModels, m)
		}
	}

	modelsCtx := buildModelsContext(varsCtx, allModels)

	// Stage 4: analyst, warehouse and storage blocks (with vars + models context)
	var analystCfg *AnalystConfig
	var warehouseCfg *WarehouseConfig
	var storageCfg *StorageConfig

	for _, pb := range allParsedBlocks {
		for _, block := range pb.Analysts {
			if analystCfg != nil {
				return nil, fmt.Errorf("duplicate analyst block")
			}
			var a AnalystConfig
			diags := gohcl.DecodeBody(block.Body, modelsCtx, &a)
			if diags.HasErrors() {
				return nil, fmt.Errorf("decode analyst block: %w", diags)
			}
			a.Defaults()
			analystCfg = &a
		}
		for _, block := range pb.Warehouses {
			if warehouseCfg != nil {
				return nil, fmt.Errorf("duplicate warehouse block")
			}
			var w WarehouseConfig
			diags := gohcl.DecodeBody(block.Body, modelsCtx, &w)
			if diags.HasErrors() {
				return nil, fmt.Errorf("decode warehouse block: %w", diags)
			}
			w.Defaults()
			warehouseCfg = &w
		}
		for _, block := range pb.Storages {
			if storageCfg != nil {
				return nil, fmt.Errorf("duplicate storage block")
			}
			var s StorageConfig
			diags := gohcl.DecodeBody(block.Body, modelsCtx, &s)
			if diags.HasErrors() {
				return nil, fmt.Errorf("decode storage block: %w", diags)
			}
			s.Defaults()
			storageCfg = &s
		}
	}

	return &Config{
		Variables:      allVars,
		Models:         allModels,
		Plugins:        allPlugins,
		Analyst:        analystCfg,
		Warehouse:      warehouseCfg,
		Storage:        storageCfg,
		LoadedPlugins:  loadedPlugins,
		PluginWarnings: pluginWarnings,
		ResolvedVars:   resolvedVars,
	}, nil
}

// buildVarsContext creates context with just vars
func buildVarsContext(vars []Variable) (*hcl.EvalContext, map[string]cty.Value) {
	varsMap := make(map[string]cty.Value)
	for i := range vars {
		value, err := ResolveVariableValue(&vars[i])
		if err != nil {
			value = vars[i].Default
		}
		varsMap[vars[i].Name] = cty.StringVal(value)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"vars": cty.ObjectVal(varsMap),
		},
	}, varsMap
}

// buildModelsContext adds models to existing context
func buildModelsContext(ctx *hcl.EvalContext, models []Model) *hcl.EvalContext {
	modelsMap := make(map[string]cty.Value)
	for _, m := range models {
		providerModels := make(map[string]cty.Value)
		for _, modelKey := range m.AllowedModels {
			providerModels[modelKey] = cty.StringVal(modelKey)
		}
		modelsMap[m.Name] = cty.ObjectVal(providerModels)
	}

	newVars := make(map[string]cty.Value)
	for k, v := range ctx.Variables {
		newVars[k] = v
	}
	newVars["models"] = cty.ObjectVal(modelsMap)

	return &hcl.EvalContext{
		Variables: newVars,
	}
}

// parsePluginBlock parses a plugin block with optional settings
func parsePluginBlock(block *hcl.Block, ctx *hcl.EvalContext) (*Plugin, error) {
	pluginName := block.Labels[0]

	pluginContent, _, diags := block.Body.PartialContent(&hcl.BodySchema{
		Attributes: []hcl.AttributeSchema{
			{Name: "source", Required: true},
			{Name: "version", Required: true},
		},
		Blocks: []hcl.BlockHeaderSchema{
			{Type: "settings"},
		},
	})
	if diags.HasErrors() {
		return nil, fmt.Errorf("plugin '%s': %w", pluginName, diags)
	}

	sourceVal, diags := pluginContent.Attributes["source"].Expr.Value(ctx)
	if diags.HasErrors() {
		return nil, fmt.Errorf("plugin '%s': %w", pluginName, diags)
	}

	versionVal, diags := pluginContent.Attributes["version"].Expr.Value(ctx)
	if diags.HasErrors() {
		return nil, fmt.Errorf("plugin '%s': %w", pluginName, diags)
	}

	p := &Plugin{
		Name:     pluginName,
		Source:   sourceVal.AsString(),
		Version:  versionVal.AsString(),
		Settings: make(map[string]string),
	}

	for _, settingsBlock := range pluginContent.Blocks {
		if settingsBlock.Type != "settings" {
			continue
		}
		attrs, diags := settingsBlock.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, fmt.Errorf("plugin '%s' settings: %w", pluginName, diags)
		}

		for name, attr := range attrs {
			val, diags := attr.Expr.Value(ctx)
			if diags.HasErrors() {
				return nil, fmt.Errorf("plugin '%s' setting '%s': %w", pluginName, name, diags)
			}
			switch {
			case val.Type() == cty.String:
				p.Settings[name] = val.AsString()
			case val.Type() == cty.Bool:
				p.Settings[name] = fmt.Sprintf("%v", val.True())
			case val.Type() == cty.Number:
				p.Settings[name] = val.AsBigFloat().String()
			default:
				p.Settings[name] = val.GoString()
			}
		}
	}

	return p, nil
}

// FindModelFor returns the model block whose allowed_models contains the
// given model key (e.g. "claude_sonnet_4").
func (c *Config) FindModelFor(modelKey string) (*Model, error) {
	for i := range c.Models {
		for _, allowed := range c.Models[i].AllowedModels {
			if allowed == modelKey {
				return &c.Models[i], nil
			}
		}
	}
	var available []string
	for _, m := range c.Models {
		available = append(available, m.AllowedModels...)
	}
	return nil, fmt.Errorf("model '%s' not allowed by any model block (available: %s)", modelKey, strings.Join(available, ", "))
}
