package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// JSON is the default file format.
type JSON struct {
	Pretty bool
}

// Name returns "json".
func (JSON) Name() string { return "json" }

// Encode writes doc, indented by two spaces when Pretty is set.
// A nil mapping is written as an empty object.
func (c JSON) Encode(doc Document) ([]byte, error) {
	if doc.Data == nil {
		doc.Data = map[string]any{}
	}
	if c.Pretty {
		return json.MarshalIndent(doc, "", "  ")
	}
	return json.Marshal(doc)
}

// Decode parses exactly one document. Numbers that do not fit int64 or
// float64 are rejected rather than rounded.
func (JSON) Decode(b []byte) (Document, error) {
	var doc Document
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return Document{}, err
	}
	if dec.More() {
		return Document{}, errors.New("unexpected data after document")
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
