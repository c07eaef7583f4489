// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package widget

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Step is one element of a [Path]: either a property name or an array
// index. The zero Step is the empty property name.
type Step struct {
	name    string
	index   int
	isIndex bool
}

// Name returns a property-name step.
func Name(name string) Step {
	return Step{name: name}
}

// Index returns an array-index step.
func Index(index int) Step {
	return Step{index: index, isIndex: true}
}

// IsIndex reports whether the step addresses an array element.
func (s Step) IsIndex() bool { return s.isIndex }

// Name returns the property name. Empty for index steps.
func (s Step) Name() string { return s.name }

// Index returns the array index. Zero for name steps.
func (s Step) Index() int { return s.index }

func (s Step) String() string {
	if s.isIndex {
		return strconv.Itoa(s.index)
	}
	return s.name
}

// MarshalJSON encodes a name step as a JSON string and an index step
// as a JSON number.
func (s Step) MarshalJSON() ([]byte, error) {
	if s.isIndex {
		return []byte(strconv.Itoa(s.index)), nil
	}
	return json.Marshal(s.name)
}

// UnmarshalJSON accepts a JSON string or an integral JSON number.
func (s *Step) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*s = Name(name)
		return nil
	}
	index, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("path step %s is neither a property name nor an integer index", data)
	}
	*s = Index(index)
	return nil
}

// Path addresses a location in a widget tree as a sequence of steps
// from the root. A child's path is always its parent's path with one
// or more steps appended.
type Path []Step

// NewPath builds a Path from strings (property names) and ints (array
// indices). Panics on any other element type; use it for literal paths
// in code and tests.
func NewPath(elements ...any) Path {
	path := make(Path, 0, len(elements))
	for _, element := range elements {
		switch value := element.(type) {
		case string:
			path = append(path, Name(value))
		case int:
			path = append(path, Index(value))
		case Step:
			path = append(path, value)
		default:
			panic(fmt.Sprintf("widget.NewPath: unsupported element %T", element))
		}
	}
	return path
}

// Append returns a new path with steps added. The receiver is never
// modified and the result never aliases its backing array.
func (p Path) Append(steps ...Step) Path {
	result := make(Path, len(p), len(p)+len(steps))
	copy(result, p)
	return append(result, steps...)
}

// AppendName returns p with a property-name step added.
func (p Path) AppendName(name string) Path { return p.Append(Name(name)) }

// AppendIndex returns p with an array-index step added.
func (p Path) AppendIndex(index int) Path { return p.Append(Index(index)) }

// Equal reports whether p and other contain the same steps.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix is a (not necessarily strict)
// prefix of p.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	return p[:len(prefix)].Equal(prefix)
}

// IsStrictPrefixOf reports whether p is a prefix of other and shorter
// than it.
func (p Path) IsStrictPrefixOf(other Path) bool {
	return len(p) < len(other) && other.HasPrefix(p)
}

// Relative strips prefix from p. The second result is false when
// prefix is not a prefix of p.
func (p Path) Relative(prefix Path) (Path, bool) {
	if !p.HasPrefix(prefix) {
		return nil, false
	}
	return p[len(prefix):].Append(), true
}

// Last returns the final step. Panics on an empty path.
func (p Path) Last() Step { return p[len(p)-1] }

// Parent returns p without its final step. The parent of the empty
// path is the empty path.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return Path{}
	}
	return p[:len(p)-1].Append()
}

// String renders the path as slash-separated steps, "/" for the root.
func (p Path) String() string {
	if len(p) == 0 {
		return "/"
	}
	var builder strings.Builder
	for _, step := range p {
		builder.WriteByte('/')
		builder.WriteString(step.String())
	}
	return builder.String()
}

// MarshalJSON encodes the path as a JSON array. A nil path encodes as
// [] so the wire never carries a null path.
func (p Path) MarshalJSON() ([]byte, error) {
	steps := []Step(p)
	if steps == nil {
		steps = []Step{}
	}
	return json.Marshal(steps)
}
