package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Document is a JSON object that keeps its keys in insertion order and
// distinguishes an explicit null from an omitted key. Archive entries
// use it so that business-nullable fields (summary, approved) survive
// round trips while absent optionals stay absent.
type Document struct {
	fields []docField
}

type docField struct {
	key   string
	value any
}

func NewDocument() *Document {
	return &Document{}
}

// Set appends or replaces a key. A nil value is emitted as JSON null.
func (d *Document) Set(key string, value any) *Document {
	for i := range d.fields {
		if d.fields[i].key == key {
			d.fields[i].value = value
			return d
		}
	}
	d.fields = append(d.fields, docField{key: key, value: value})
	return d
}

// SetOmitEmpty appends the key only when the value is non-empty. Empty
// strings, nil values and zero-length slices/maps are dropped entirely.
func (d *Document) SetOmitEmpty(key string, value any) *Document {
	switch v := value.(type) {
	case nil:
		return d
	case string:
		if v == "" {
			return d
		}
	case []any:
		if len(v) == 0 {
			return d
		}
	case []string:
		if len(v) == 0 {
			return d
		}
	case map[string]string:
		if len(v) == 0 {
			return d
		}
	case []*Document:
		if len(v) == 0 {
			return d
		}
	}
	return d.Set(key, value)
}

// Get returns the stored value for key and whether it is present.
func (d *Document) Get(key string) (any, bool) {
	for _, f := range d.fields {
		if f.key == key {
			return f.value, true
		}
	}
	return nil, false
}

// GetString returns the value for key when it is a string.
func (d *Document) GetString(key string) string {
	if v, ok := d.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Len returns the number of keys.
func (d *Document) Len() int {
	return len(d.fields)
}

// MarshalJSON writes the object with keys in insertion order and
// without HTML escaping.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range d.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := encodeJSONValue(f.key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := encodeJSONValue(f.value)
		if err != nil {
			return nil, fmt.Errorf("encoding %q: %w", f.key, err)
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a plain JSON object. Key order follows the
// encoding/json map iteration, so decoded documents are only used for
// value access, never re-serialized verbatim.
func (d *Document) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	d.fields = d.fields[:0]
	for k, v := range m {
		d.fields = append(d.fields, docField{key: k, value: v})
	}
	return nil
}

func encodeJSONValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
