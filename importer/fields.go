package importer

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Helpers for picking typed values out of decoded archive documents.
// Absent or wrongly typed fields read as zero values, the same absence
// rule everywhere.

func stringField(doc map[string]any, key string) string {
	s, _ := doc[key].(string)
	return s
}

func boolField(doc map[string]any, key string) bool {
	b, _ := doc[key].(bool)
	return b
}

func intField(doc map[string]any, key string) int {
	f, _ := doc[key].(float64)
	return int(f)
}

func timeField(doc map[string]any, key string) time.Time {
	s, ok := doc[key].(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func uuidField(doc map[string]any, key string) (uuid.UUID, error) {
	s, ok := doc[key].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("field %s absent or not a string", key)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("field %s is not a uuid: %w", key, err)
	}
	return id, nil
}

func stringListField(doc map[string]any, key string) []string {
	switch v := doc[key].(type) {
	case string:
		return []string{v}
	case []any:
		var out []string
		for _, raw := range v {
			if s, ok := raw.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// collectionTotal reads the totalItems of a nested count collection
func collectionTotal(doc map[string]any, key string) int {
	sub, ok := doc[key].(map[string]any)
	if !ok {
		return 0
	}
	return intField(sub, "totalItems")
}

// imageURL reads the url of a nested Image document
func imageURL(doc map[string]any, key string) string {
	sub, ok := doc[key].(map[string]any)
	if !ok {
		return ""
	}
	return stringField(sub, "url")
}

// propertyValues collects PropertyValue attachments into the profile
// field map
func propertyValues(doc map[string]any) map[string]string {
	atts, ok := doc["attachment"].([]any)
	if !ok {
		return nil
	}

	var fields map[string]string
	for _, raw := range atts {
		att, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if stringField(att, "type") != "PropertyValue" {
			continue
		}
		name := stringField(att, "name")
		if name == "" {
			continue
		}
		if fields == nil {
			fields = make(map[string]string)
		}
		fields[name] = stringField(att, "value")
	}
	return fields
}
