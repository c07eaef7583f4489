// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package widget

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestDropdownAlwaysCarriesItemsAndSelection(t *testing.T) {
	dropdown := Widget{Kind: KindDropdown, ID: "configs", Path: NewPath("children", 0)}

	data, err := json.Marshal(dropdown)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for _, want := range []string{`"kind":4`, `"items":[]`, `"selectionIndex":null`, `"path":["children",0]`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("encoded dropdown %s missing %s", data, want)
		}
	}
}

func TestContainerAlwaysCarriesChildren(t *testing.T) {
	data, err := json.Marshal(Widget{Kind: KindToolbar, ID: "tools"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"children":[]`) {
		t.Errorf("encoded toolbar %s has no children array", data)
	}

	data, err = json.Marshal(Widget{Kind: KindButton, ID: "run", Label: "Run"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(string(data), "children") || strings.Contains(string(data), "selectionIndex") {
		t.Errorf("encoded button %s carries container fields", data)
	}
}

func TestWidgetTreeRoundtrip(t *testing.T) {
	original := sampleTree()

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded Widget
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(original, decoded, cmpPath, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("roundtrip mismatch (-want +got):\n%s", diff)
	}
}

func TestCloneIsDeep(t *testing.T) {
	original := sampleTree()
	clone := original.Clone()

	clone.Children[0].Children[0].Items[0].Label = "changed"
	*clone.Children[0].Children[0].SelectionIndex = 0
	clone.Children[0].Path[1] = Index(9)

	if original.Children[0].Children[0].Items[0].Label != "Launch server" {
		t.Error("Clone shares dropdown items")
	}
	if *original.Children[0].Children[0].SelectionIndex != 1 {
		t.Error("Clone shares selection index")
	}
	if original.Children[0].Path[1] != Index(0) {
		t.Error("Clone shares path storage")
	}
}

// cmpPath lets cmp look inside path steps, which have unexported fields.
var cmpPath = cmp.AllowUnexported(Step{})

// sampleTree returns a window holding a layout container with a
// dropdown of two items and a resizable panel.
func sampleTree() Widget {
	return Widget{
		Kind:  KindWindow,
		ID:    "main",
		Path:  NewPath(),
		Title: "Workbench",
		Children: []Widget{
			{
				Kind:      KindLayoutContainer,
				ID:        "layout",
				Path:      NewPath("children", 0),
				Direction: Vertical,
				Children: []Widget{
					{
						Kind: KindDropdown,
						ID:   "configs",
						Path: NewPath("children", 0, "children", 0),
						Items: []Widget{
							{Kind: KindDropdownItem, ID: "server", Path: NewPath("children", 0, "children", 0, "items", 0), Label: "Launch server"},
							{Kind: KindDropdownItem, ID: "tests", Path: NewPath("children", 0, "children", 0, "items", 1), Label: "Run tests"},
						},
						SelectionIndex: IntPtr(1),
					},
					{
						Kind:      KindPanel,
						ID:        "console",
						Path:      NewPath("children", 0, "children", 1),
						Title:     "Console",
						Resizable: true,
					},
				},
			},
		},
	}
}
