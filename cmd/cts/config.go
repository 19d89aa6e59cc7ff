package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/openpar/cts/reduction"
	"github.com/openpar/cts/selector"
)

// Config is the optional YAML run configuration. Zero values fall back to the
// suite defaults, so an empty (or absent) file runs the standard suites.
type Config struct {
	LogLevel string   `yaml:"log_level"`
	Modes    []string `yaml:"modes"`
	Suites   []string `yaml:"suites"`

	Selector struct {
		SmallestSubset int    `yaml:"smallest_subset"`
		RandomCount    int    `yaml:"random_count"`
		Seed           uint32 `yaml:"seed"`
	} `yaml:"selector"`

	Reduction struct {
		DefaultN int    `yaml:"default_n"`
		Sizes    []int  `yaml:"sizes"`
		Seed     uint32 `yaml:"seed"`
	} `yaml:"reduction"`
}

// loadConfig reads the YAML config at path. A missing file at the default
// path is not an error; an explicitly named file must exist.
func loadConfig(path string, explicit bool) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// modeProps maps configured mode names to OCCA device property strings. An
// empty mode list probes every default mode.
func (c Config) modeProps() []string {
	if len(c.Modes) == 0 {
		return nil
	}
	props := make([]string, 0, len(c.Modes))
	for _, m := range c.Modes {
		switch m {
		case "OpenMP":
			props = append(props, `{"mode": "OpenMP"}`)
		case "CUDA":
			props = append(props, `{"mode": "CUDA", "device_id": 0}`)
		case "OpenCL":
			props = append(props, `{"mode": "OpenCL", "platform_id": 0, "device_id": 0}`)
		case "Serial":
			props = append(props, `{"mode": "Serial"}`)
		default:
			props = append(props, fmt.Sprintf(`{"mode": %q}`, m))
		}
	}
	return props
}

// suiteEnabled applies the --suite flag over the config's suite list. The
// flag wins; with neither set, every suite runs.
func (c Config) suiteEnabled(name, flag string) bool {
	if flag != "" && flag != "all" {
		return flag == name
	}
	if len(c.Suites) == 0 {
		return true
	}
	for _, s := range c.Suites {
		if s == name {
			return true
		}
	}
	return false
}

func (c Config) selectorOptions() selector.Options {
	return selector.Options{
		SmallestSubset: c.Selector.SmallestSubset,
		RandomCount:    c.Selector.RandomCount,
		Seed:           c.Selector.Seed,
	}
}

func (c Config) reductionOptions() reduction.Options {
	return reduction.Options{
		DefaultN: c.Reduction.DefaultN,
		Sizes:    c.Reduction.Sizes,
		Seed:     c.Reduction.Seed,
	}
}
