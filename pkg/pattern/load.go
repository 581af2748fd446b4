package pattern

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Parse decodes a YAML pattern set. Keys that are absent fall back to the
// built-in patterns. The returned set is validated and compiled.
func Parse(data []byte) (*Set, error) {
	var s Set
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	s.fillDefaults()

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pattern set: %w", err)
	}
	if err := s.Compile(); err != nil {
		return nil, fmt.Errorf("compiling pattern set %q: %w", s.Name, err)
	}
	return &s, nil
}

// LoadFile loads a pattern set from a YAML file.
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Load returns the pattern set stored at path, or the default set when
// path is empty.
func Load(path string) (*Set, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// ToYAML serializes the set to YAML bytes.
func (s *Set) ToYAML() ([]byte, error) {
	return yaml.Marshal(s)
}
