package topology

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseYAML reads a topology from a YAML document with a devices and a links
// list. Unknown fields are rejected.
func ParseYAML(p []byte) (*T, error) {
	t := &T{}

	dec := yaml.NewDecoder(bytes.NewReader(p))
	dec.KnownFields(true)

	if err := dec.Decode(t); err != nil {
		return nil, fmt.Errorf("ParseYAML: %w", err)
	}

	return t, nil
}

// YAML returns the topology as a YAML document.
func (t *T) YAML() ([]byte, error) {
	return yaml.Marshal(t)
}
