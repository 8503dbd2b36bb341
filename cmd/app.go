package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"scout/analyst"
	"scout/config"
	"scout/datatools"
	"scout/llm"
	"scout/store"
	"scout/streamers"
	"scout/warehouse"
)

// app bundles the wired-up runtime pieces every answer-serving command needs:
// config, providers, warehouse-backed tool catalog, plugin tools and the
// session store.
type app struct {
	cfg     *config.Config
	wh      warehouse.Warehouse
	catalog *datatools.Registry
	stores  *store.Bundle

	provider           llm.Provider
	classifierProvider llm.Provider
	modelKey           string
	classifierKey      string
	apiModelName       string

	turnLogger *llm.TurnLogger
	logger     hclog.Logger

	closers []func() error
}

// newApp loads and validates config at configPath and wires the runtime.
// The analyst block is required.
func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.LoadAndValidate(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Analyst == nil {
		return nil, fmt.Errorf("no analyst block in config; add one with a model reference")
	}

	a := &app{
		cfg:      cfg,
		modelKey: cfg.Analyst.Model,
		logger: hclog.New(&hclog.LoggerOptions{
			Name:  "scout",
			Level: hclog.Warn,
		}),
	}

	if err := a.wireProviders(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.wireWarehouse(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.wireCatalog(); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.wireStores(); err != nil {
		a.Close()
		return nil, err
	}

	if cfg.Analyst.DebugTurnsFile != "" {
		tl, err := llm.NewTurnLogger(cfg.Analyst.DebugTurnsFile)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open debug turns file: %w", err)
		}
		a.turnLogger = tl
		a.closers = append(a.closers, func() error { tl.Close(); return nil })
	}

	return a, nil
}

func (a *app) wireProviders(ctx context.Context) error {
	provider, apiName, err := providerFor(ctx, a.cfg, a.cfg.Analyst.Model)
	if err != nil {
		return fmt.Errorf("reasoning model: %w", err)
	}
	a.provider = provider
	a.apiModelName = apiName

	a.classifierKey = a.cfg.Analyst.ClassifierModel
	if a.classifierKey == "" || a.classifierKey == a.modelKey {
		a.classifierKey = a.modelKey
		a.classifierProvider = provider
		return nil
	}

	classifier, _, err := providerFor(ctx, a.cfg, a.classifierKey)
	if err != nil {
		return fmt.Errorf("classifier model: %w", err)
	}
	a.classifierProvider = classifier
	return nil
}

// providerFor builds the llm.Provider for a model key and resolves the
// provider's wire-level model name.
func providerFor(ctx context.Context, cfg *config.Config, modelKey string) (llm.Provider, string, error) {
	m, err := cfg.FindModelFor(modelKey)
	if err != nil {
		return nil, "", err
	}
	apiName, err := m.APIName(modelKey)
	if err != nil {
		return nil, "", err
	}

	switch m.Provider {
	case config.ProviderAnthropic:
		return llm.NewAnthropicProvider(m.APIKey), apiName, nil
	case config.ProviderOpenAI:
		return llm.NewOpenAIProvider(m.APIKey), apiName, nil
	case config.ProviderGemini:
		p, err := llm.NewGeminiProvider(ctx, m.APIKey)
		if err != nil {
			return nil, "", fmt.Errorf("gemini provider: %w", err)
		}
		return p, apiName, nil
	default:
		return nil, "", fmt.Errorf("unsupported provider '%s'", m.Provider)
	}
}

func (a *app) wireWarehouse(ctx context.Context) error {
	whCfg := a.cfg.Warehouse
	if whCfg == nil {
		whCfg = &config.WarehouseConfig{}
		whCfg.Defaults()
	}

	switch whCfg.Backend {
	case "postgres":
		w, err := warehouse.NewPostgresWarehouse(ctx, whCfg.DSN)
		if err != nil {
			return fmt.Errorf("open warehouse: %w", err)
		}
		a.wh = w
		a.closers = append(a.closers, w.Close)
	default:
		if dir := filepath.Dir(whCfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("create warehouse directory: %w", err)
			}
		}
		w, err := warehouse.NewSQLiteWarehouse(whCfg.Path)
		if err != nil {
			return fmt.Errorf("open warehouse: %w", err)
		}
		if whCfg.Seed {
			if err := w.Seed(); err != nil {
				w.Close()
				return fmt.Errorf("seed warehouse: %w", err)
			}
		}
		a.wh = w
		a.closers = append(a.closers, w.Close)
	}
	return nil
}

func (a *app) wireCatalog() error {
	r := datatools.NewRegistry()
	datatools.RegisterBuiltins(r, a.wh)

	// Plugin tools join the catalog under their own names
	for name, client := range a.cfg.LoadedPlugins {
		tools, err := client.AllTools()
		if err != nil {
			a.logger.Warn("skipping plugin tools", "plugin", name, "error", err)
			continue
		}
		for _, t := range tools {
			r.Register(t)
		}
	}

	a.catalog = r
	return nil
}

func (a *app) wireStores() error {
	stores, err := store.NewBundle(a.cfg.Storage)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	a.stores = stores
	a.closers = append(a.closers, stores.Close)
	return nil
}

// newEngine builds an analyst engine streaming to the given handler.
func (a *app) newEngine(handler streamers.ChatHandler) (*analyst.Engine, error) {
	cfg := analyst.Config{
		Provider:           a.provider,
		Model:              a.apiModelName,
		ClassifierProvider: a.classifierProvider,
		Catalog:            a.catalog,
		MaxIterations:      a.cfg.Analyst.MaxIterations,
		Temperature:        a.cfg.Analyst.Temperature,
		ScopeParams:        a.cfg.Analyst.ScopeParams,
		Handler:            handler,
		SessionLogger:      a.stores.Sessions,
		TurnLogger:         a.turnLogger,
		Logger:             a.logger.Named("analyst"),
	}

	if a.classifierKey != a.modelKey {
		m, err := a.cfg.FindModelFor(a.classifierKey)
		if err == nil {
			if apiName, err := m.APIName(a.classifierKey); err == nil {
				cfg.ClassifierModel = apiName
			}
		}
	}

	if b := a.cfg.Analyst.TokenBudgets; b != nil {
		budgets := analyst.DefaultTokenBudgets()
		if b.Low > 0 {
			budgets.Low = b.Low
		}
		if b.Medium > 0 {
			budgets.Medium = b.Medium
		}
		if b.High > 0 {
			budgets.High = b.High
		}
		cfg.Budgets = budgets
	}

	return analyst.NewEngine(cfg)
}

// Close releases every resource the app opened, including plugin processes.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	if a.cfg != nil {
		for _, client := range a.cfg.LoadedPlugins {
			client.Close()
		}
	}
}
