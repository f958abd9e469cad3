package topology

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/netsim/netsim/sim"
)

// RunConfig is an optional YAML file overriding routing-policy defaults
// that the topology file itself doesn't carry: a typed struct with yaml
// tags, a Load function that reads+decodes+validates, KnownFields
// enforced so a typo'd key is caught rather than silently ignored.
type RunConfig struct {
	RoutingIntervalS   *float64 `yaml:"routing_interval_s,omitempty"`
	GraphSelectorDefault string `yaml:"graph_selector_default,omitempty"`
}

// LoadRunConfig reads and decodes path. A missing or malformed file is a
// ConfigError.
func LoadRunConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &sim.ConfigError{Msg: fmt.Sprintf("reading run config %q: %v", path, err)}
	}
	var cfg RunConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, &sim.ConfigError{Msg: fmt.Sprintf("parsing run config %q: %v", path, err)}
	}
	if cfg.RoutingIntervalS != nil && *cfg.RoutingIntervalS <= 0 {
		return nil, &sim.ConfigError{Msg: "run config routing_interval_s must be positive"}
	}
	return &cfg, nil
}
