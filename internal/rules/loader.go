package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ruleFile is the on-disk shape of a custom rule set.
type ruleFile struct {
	Categories []Category `yaml:"categories"`
}

// LoadFile reads a yaml rule file and compiles it, replacing the built-in
// set. The file must define at least one category; categories it omits are
// simply absent from results, so deployments that extend the fixed four
// should start from the built-ins.
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: read %s: %w", path, err)
	}
	var rf ruleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("rules: parse %s: %w", path, err)
	}
	set, err := Compile(rf.Categories)
	if err != nil {
		return nil, fmt.Errorf("rules: %s: %w", path, err)
	}
	return set, nil
}

// Load returns the rule set for the given config path: the built-ins when
// path is empty, the compiled file otherwise.
func Load(path string) (*Set, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}
