package wsbridge

import (
	"scout/config"
	"scout/datatools"
)

// DescribeInstance builds the JSON-safe instance description sent to bridge
// clients on hello.
func DescribeInstance(cfg *config.Config, catalog *datatools.Registry, version string) InstanceInfo {
	info := InstanceInfo{Version: version}

	if cfg != nil {
		if cfg.Analyst != nil {
			info.Model = cfg.Analyst.Model
		}
		for _, p := range cfg.Plugins {
			info.Plugins = append(info.Plugins, p.Name)
		}
	}

	if catalog != nil {
		for _, d := range catalog.Descriptors() {
			info.Tools = append(info.Tools, BridgeToolInfo{
				Name:        d.Name,
				Description: d.Description,
			})
		}
	}

	return info
}
