package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/joelkehle/dentalscan/internal/interpret"
)

// LoadYAML reads an interpreter config from a YAML file. Keys left out of the
// file keep their DefaultConfig value.
func LoadYAML(path string) (interpret.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return interpret.Config{}, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return ParseYAML(data)
}

func ParseYAML(data []byte) (interpret.Config, error) {
	cfg := interpret.DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return interpret.Config{}, fmt.Errorf("parse catalog: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return interpret.Config{}, err
	}
	return cfg, nil
}

// EncodeYAML renders cfg in the format LoadYAML accepts.
func EncodeYAML(cfg interpret.Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
