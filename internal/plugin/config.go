package plugin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Decode strictly decodes a free-form plugin/channel config mapping into a
// typed struct. Unknown keys are rejected so typos in config files surface as
// errors instead of silently defaulted fields.
//
// The mapping comes from YAML, so it is normalized (string keys) and routed
// through the JSON decoder to get DisallowUnknownFields for free.
func Decode(raw map[string]any, out any) error {
	if raw == nil {
		raw = map[string]any{}
	}
	b, err := json.Marshal(normalize(raw))
	if err != nil {
		return fmt.Errorf("config marshal: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return fmt.Errorf("config decode: trailing data")
		}
		return err
	}
	return nil
}

// normalize ensures all map keys are strings so the value can be JSON-marshaled.
func normalize(in any) any {
	switch x := in.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[fmt.Sprint(k)] = normalize(v)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[k] = normalize(v)
		}
		return m
	case []any:
		for i := range x {
			x[i] = normalize(x[i])
		}
		return x
	default:
		return in
	}
}
