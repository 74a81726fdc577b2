package director

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WriteScript writes a script to a YAML file.
func WriteScript(script *Script, path string) error {
	data, err := yaml.Marshal(script)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadScript reads and validates a script from a YAML file.
func ReadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidScript, path, err)
	}
	if err := script.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &script, nil
}
