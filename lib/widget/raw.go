// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package widget

import (
	"encoding/json"
	"fmt"
)

// ApplyToValue applies change to a raw JSON value tree, the form a
// widget tree takes after decoding into any. Widgets are constructed
// with [ToValue] and raw values are normalized through JSON so the
// result matches what a decoder would have produced.
//
// After a widget splice, every element from the splice start on has
// its "path" rewritten to its new position, keeping the tree equal to
// a fresh rendering of the same state.
func ApplyToValue(root any, change Change) error {
	switch change.Op {
	case OpReplaceValue:
		normalized, err := normalize(change.Value)
		if err != nil {
			return fmt.Errorf("normalizing value at %s: %w", change.Path, err)
		}
		change.Value = normalized
	case OpSpliceValueArray:
		if change.AddedValues != nil {
			normalized := make([]any, len(change.AddedValues))
			for i, value := range change.AddedValues {
				var err error
				if normalized[i], err = normalize(value); err != nil {
					return fmt.Errorf("normalizing added value %d at %s: %w", i, change.Path, err)
				}
			}
			change.AddedValues = normalized
		}
	}

	if err := ApplyChange(root, change, ToValue); err != nil {
		return err
	}

	if change.Op == OpSpliceWidgetArray {
		array, err := Lookup(root, change.Path)
		if err != nil {
			return err
		}
		if elements, ok := array.([]any); ok {
			for i := change.Start; i < len(elements); i++ {
				Restamp(elements[i], change.Path.AppendIndex(i))
			}
		}
	}
	return nil
}

// Restamp rewrites the "path" property of a raw widget value and of
// all its children and items to match path.
func Restamp(value any, path Path) {
	node, ok := value.(map[string]any)
	if !ok {
		return
	}
	if _, isWidget := node["kind"]; !isWidget {
		return
	}
	node["path"] = pathValue(path)
	for _, property := range []string{"children", "items"} {
		elements, ok := node[property].([]any)
		if !ok {
			continue
		}
		for i, element := range elements {
			Restamp(element, path.Append(Name(property), Index(i)))
		}
	}
}

// pathValue returns path as decoded JSON: strings and float64s.
func pathValue(path Path) []any {
	steps := make([]any, len(path))
	for i, step := range path {
		if step.IsIndex() {
			steps[i] = float64(step.Index())
		} else {
			steps[i] = step.Name()
		}
	}
	return steps
}

func normalize(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var normalized any
	if err := json.Unmarshal(data, &normalized); err != nil {
		return nil, err
	}
	return normalized, nil
}
