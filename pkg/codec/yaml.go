package codec

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAML writes the document as block-style YAML.
type YAML struct{}

// Name returns "yaml".
func (YAML) Name() string { return "yaml" }

// Encode writes doc with yaml.v3 defaults.
func (YAML) Encode(doc Document) ([]byte, error) {
	if doc.Data == nil {
		doc.Data = map[string]any{}
	}
	return yaml.Marshal(doc)
}

// Decode parses b and normalises the mapping.
func (YAML) Decode(b []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return Document{}, err
	}
	for k, v := range doc.Data {
		n, err := Normalize(v)
		if err != nil {
			return Document{}, fmt.Errorf("key %q: %w", k, err)
		}
		doc.Data[k] = n
	}
	return doc, nil
}
