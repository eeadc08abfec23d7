package plugins

import "github.com/techjoec/driftbuster/internal/catalog"

// RegisterDefaults registers all ten built-in format plugins in priority
// order matching catalog.Default()'s entries (spec §2 table).
func RegisterDefaults(reg *catalog.Registry) error {
	all := []catalog.Plugin{
		XML{},
		JSON{},
		INI{},
		YAML{},
		TOML{},
		HCL{},
		Conf{},
		Dockerfile{},
		RegistryLive{},
		Text{},
	}
	for _, p := range all {
		if err := reg.Register(p); err != nil {
			return err
		}
	}
	return nil
}
