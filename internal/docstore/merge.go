package docstore

import (
	"encoding/json"
	"fmt"
)

// DeepMerge merges patch into base and returns the result. Nested objects are
// merged key by key; any other patch value replaces the base value. Neither
// input is modified. The Postgres store applies the same rule with the
// jsonb_deep_merge function.
func DeepMerge(base, patch map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, pv := range patch {
		bm, baseIsObj := out[k].(map[string]any)
		pm, patchIsObj := pv.(map[string]any)
		if baseIsObj && patchIsObj {
			out[k] = DeepMerge(bm, pm)
			continue
		}
		out[k] = pv
	}
	return out
}

// normalize round-trips data through JSON so stored values have the same
// shapes a decoded jsonb column would have.
func normalize(data map[string]any) (map[string]any, error) {
	if data == nil {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode document: %w", err)
	}
	return decode(raw)
}

func decode(raw []byte) (map[string]any, error) {
	out := map[string]any{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("docstore: decode document: %w", err)
	}
	return out, nil
}

// Decode converts document data into a typed value.
func Decode(data map[string]any, v any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("docstore: encode: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("docstore: decode: %w", err)
	}
	return nil
}

// Encode converts a typed value into document data. Zero fields tagged
// omitempty are left out, so the result is suitable as a merge patch.
func Encode(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode: %w", err)
	}
	return decode(raw)
}
