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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gieseladev/konfi"
)

func TestMap_LoadInto(t *testing.T) {
	t.Parallel()

	tmpl := fileTestTemplate(t)
	obj := tmpl.New()

	src := MustMap(map[string]any{
		"a":   5,
		"sub": map[string]any{"de": "hallo"},
	})
	require.NoError(t, src.LoadInto(obj, tmpl))
	assertFileValues(t, obj)
}

func TestMap_MergesDeep(t *testing.T) {
	t.Parallel()

	sub := konfi.MustTemplate("sub",
		konfi.NewField("de", konfi.String),
		konfi.NewField("fr", konfi.String),
	)
	tmpl := konfi.MustTemplate("conf",
		konfi.NewField("a", konfi.Int),
		konfi.NewField("sub", sub.Type()),
	)

	src := MustMap(
		map[string]any{
			"a":   1,
			"sub": map[string]any{"de": "hallo", "fr": "bonjour"},
		},
		map[string]any{
			"a":   2,
			"sub": map[string]any{"fr": "salut"},
		},
	)

	obj := tmpl.New()
	require.NoError(t, src.LoadInto(obj, tmpl))

	a, _ := obj.Get("a")
	assert.Equal(t, int64(2), a)

	nested, _ := obj.Get("sub")
	de, _ := nested.(*konfi.Object).Get("de")
	fr, _ := nested.(*konfi.Object).Get("fr")
	assert.Equal(t, "hallo", de)
	assert.Equal(t, "salut", fr)
}

func TestMap_Empty(t *testing.T) {
	t.Parallel()

	tmpl := fileTestTemplate(t)
	src := MustMap()
	require.NoError(t, src.LoadInto(tmpl.New(), tmpl))
}
