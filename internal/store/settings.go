package store

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MergeSettings deep-merges patch into current. Nested objects merge key by
// key; scalars and arrays replace; a null value leaves the current value in
// place. Unknown keys are ignored.
func MergeSettings(current Settings, patch json.RawMessage) (Settings, error) {
	trimmed := bytes.TrimSpace(patch)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Settings{}, ErrInvalidPatch
	}
	var patchMap map[string]any
	if err := json.Unmarshal(trimmed, &patchMap); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	raw, err := json.Marshal(current)
	if err != nil {
		return Settings{}, fmt.Errorf("store: encode settings: %w", err)
	}
	var base map[string]any
	if err := json.Unmarshal(raw, &base); err != nil {
		return Settings{}, fmt.Errorf("store: decode settings: %w", err)
	}
	merged := deepMerge(base, patchMap)
	raw, err = json.Marshal(merged)
	if err != nil {
		return Settings{}, fmt.Errorf("store: encode merged settings: %w", err)
	}
	var out Settings
	if err := json.Unmarshal(raw, &out); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	return out, nil
}

func deepMerge(dst, src map[string]any) map[string]any {
	for k, v := range src {
		if v == nil {
			continue
		}
		srcObj, srcIsObj := v.(map[string]any)
		dstObj, dstIsObj := dst[k].(map[string]any)
		if srcIsObj && dstIsObj {
			dst[k] = deepMerge(dstObj, srcObj)
			continue
		}
		dst[k] = v
	}
	return dst
}
