package config

import (
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// YAML renders the configuration as a config.yaml-compatible document.
// Used by `purity-cli config init` to seed a starter file from the defaults.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, eris.Wrap(err, "config: marshal yaml")
	}
	return out, nil
}
