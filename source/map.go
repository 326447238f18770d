// Copyright 2025 The Konfi Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package source

import (
	"fmt"

	"dario.cat/mergo"

	"github.com/gieseladev/konfi"
)

// Map loads configuration from an in-memory map. Useful for hard-coded
// defaults and tests.
type Map struct {
	values map[string]any
}

// NewMap creates a map source by deep-merging the given maps, later maps
// overriding earlier ones.
func NewMap(values ...map[string]any) (*Map, error) {
	merged := make(map[string]any)
	for _, m := range values {
		if err := mergo.Merge(&merged, m, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merge values: %w", err)
		}
	}
	return &Map{values: merged}, nil
}

// MustMap is like [NewMap] but panics on error.
func MustMap(values ...map[string]any) *Map {
	m, err := NewMap(values...)
	if err != nil {
		panic(fmt.Sprintf("source: %v", err))
	}
	return m
}

// String returns a description of the source.
func (m *Map) String() string {
	return "map"
}

// LoadInto loads the map's values into the object.
func (m *Map) LoadInto(obj *konfi.Object, _ *konfi.Template) error {
	return konfi.LoadFields(obj, m.values)
}
