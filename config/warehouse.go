package config

import "fmt"

// WarehouseConfig defines the operational-data backend the tools query
type WarehouseConfig struct {
	Backend string `hcl:"backend,optional"` // "sqlite" or "postgres"
	Path    string `hcl:"path,optional"`    // SQLite file path
	DSN     string `hcl:"dsn,optional"`     // Postgres connection string
	Seed    bool   `hcl:"seed,optional"`    // Load the demo dataset on startup (sqlite only)
}

// Defaults fills in default values for unset fields
func (w *WarehouseConfig) Defaults() {
	if w.Backend == "" {
		w.Backend = "sqlite"
	}
	if w.Backend == "sqlite" && w.Path == "" {
		w.Path = ".scout/warehouse.db"
	}
}

// Validate checks that required fields are set
func (w *WarehouseConfig) Validate() error {
	switch w.Backend {
	case "sqlite":
		if w.Path == "" {
			return fmt.Errorf("path is required for the sqlite backend")
		}
	case "postgres":
		if w.DSN == "" {
			return fmt.Errorf("dsn is required for the postgres backend")
		}
		if w.Seed {
			return fmt.Errorf("seed is only supported for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown backend '%s' (expected 'sqlite' or 'postgres')", w.Backend)
	}
	return nil
}
