// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package widget

import (
	"encoding/json"
	"testing"
)

func TestPathJSONMixesNamesAndIndices(t *testing.T) {
	path := NewPath("children", 0, "items", 2)

	data, err := json.Marshal(path)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `["children",0,"items",2]` {
		t.Errorf("Marshal = %s", data)
	}

	var decoded Path
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !decoded.Equal(path) {
		t.Errorf("decoded %s, want %s", decoded, path)
	}
}

func TestPathNilEncodesAsEmptyArray(t *testing.T) {
	data, err := json.Marshal(Path(nil))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("Marshal(nil) = %s, want []", data)
	}
}

func TestStepRejectsFractionalIndex(t *testing.T) {
	var path Path
	if err := json.Unmarshal([]byte(`["items",1.5]`), &path); err == nil {
		t.Fatalf("expected error for fractional index, got path %s", path)
	}
}

func TestPathAppendDoesNotAlias(t *testing.T) {
	base := make(Path, 0, 8)
	base = append(base, Name("children"))

	first := base.AppendIndex(0)
	second := base.AppendIndex(1)

	if first.String() != "/children/0" {
		t.Errorf("first = %s", first)
	}
	if second.String() != "/children/1" {
		t.Errorf("second = %s", second)
	}
}

func TestPathPrefixes(t *testing.T) {
	root := NewPath()
	window := NewPath("children", 1)
	dropdown := NewPath("children", 1, "items")

	tests := []struct {
		name   string
		prefix Path
		path   Path
		has    bool
		strict bool
	}{
		{"root of anything", root, dropdown, true, true},
		{"self", window, window, true, false},
		{"parent", window, dropdown, true, true},
		{"child is not prefix", dropdown, window, false, false},
		{"different index", NewPath("children", 0), dropdown, false, false},
		{"index vs name", NewPath(1), NewPath("1"), false, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.path.HasPrefix(test.prefix); got != test.has {
				t.Errorf("%s.HasPrefix(%s) = %v, want %v", test.path, test.prefix, got, test.has)
			}
			if got := test.prefix.IsStrictPrefixOf(test.path); got != test.strict {
				t.Errorf("%s.IsStrictPrefixOf(%s) = %v, want %v", test.prefix, test.path, got, test.strict)
			}
		})
	}
}

func TestPathRelative(t *testing.T) {
	path := NewPath("children", 0, "items", 3)
	relative, ok := path.Relative(NewPath("children", 0))
	if !ok {
		t.Fatal("Relative reported no prefix")
	}
	if !relative.Equal(NewPath("items", 3)) {
		t.Errorf("Relative = %s, want /items/3", relative)
	}
	if _, ok := path.Relative(NewPath("items")); ok {
		t.Error("Relative accepted a non-prefix")
	}
}

func TestPathParentAndLast(t *testing.T) {
	path := NewPath("children", 4)
	if !path.Parent().Equal(NewPath("children")) {
		t.Errorf("Parent = %s", path.Parent())
	}
	if last := path.Last(); !last.IsIndex() || last.Index() != 4 {
		t.Errorf("Last = %v", last)
	}
	if len(Path{}.Parent()) != 0 {
		t.Error("Parent of root is not root")
	}
}
