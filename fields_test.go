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

package konfi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nestedTestTemplate(t *testing.T) *Template {
	t.Helper()

	sub := MustTemplate("sub",
		NewField("a", Int, WithDefault(1)),
		NewField("b", String),
	)
	return MustTemplate("conf",
		NewField("x", Int),
		NewField("sub", sub.Type()),
	)
}

func TestLoadFields(t *testing.T) {
	t.Parallel()

	tmpl := nestedTestTemplate(t)
	obj := tmpl.New()

	err := LoadFields(obj, map[string]any{
		"x":   "5",
		"sub": map[string]any{"b": "hello"},
	})
	require.NoError(t, err)

	x, _ := obj.Get("x")
	assert.Equal(t, int64(5), x)

	nested, _ := obj.Get("sub")
	b, ok := nested.(*Object).Get("b")
	require.True(t, ok)
	assert.Equal(t, "hello", b)
}

func TestLoadFields_UnknownKey(t *testing.T) {
	t.Parallel()

	tmpl := MustTemplate("conf", NewField("a", Int))

	err := LoadFields(tmpl.New(), map[string]any{"a": 1, "nope": 2})
	require.Error(t, err)

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, []string{"nope"}, fieldErr.ErrorPath())

	err = LoadFields(tmpl.New(), map[string]any{"a": 1, "nope": 2}, WithIgnoreUnknown())
	require.NoError(t, err)
}

func TestLoadFields_NestedMerge(t *testing.T) {
	t.Parallel()

	tmpl := nestedTestTemplate(t)
	obj := tmpl.New()

	require.NoError(t, LoadFields(obj, map[string]any{
		"sub": map[string]any{"a": 10},
	}))
	require.NoError(t, LoadFields(obj, map[string]any{
		"sub": map[string]any{"b": "later"},
	}))

	nested, _ := obj.Get("sub")
	a, _ := nested.(*Object).Get("a")
	b, _ := nested.(*Object).Get("b")
	assert.Equal(t, int64(10), a)
	assert.Equal(t, "later", b)
}

func TestLoadFields_ErrorPaths(t *testing.T) {
	t.Parallel()

	tmpl := nestedTestTemplate(t)

	err := LoadFields(tmpl.New(), map[string]any{
		"sub": map[string]any{"b": []any{1, 2}},
	})
	require.Error(t, err)

	pathErr, ok := err.(PathError)
	require.True(t, ok)
	assert.Equal(t, []string{"sub", "b"}, pathErr.ErrorPath())
	assert.ErrorAs(t, err, new(*ConversionError))
}

func TestLoadFields_CollectsAllErrors(t *testing.T) {
	t.Parallel()

	tmpl := MustTemplate("conf",
		NewField("a", Int),
		NewField("b", Int),
	)

	err := LoadFields(tmpl.New(), map[string]any{
		"a": "nope",
		"b": "also nope",
	})
	require.Error(t, err)

	var multi *MultiPathError
	require.ErrorAs(t, err, &multi)
	assert.Len(t, multi.Errors, 2)
}

func TestSetFieldValue(t *testing.T) {
	t.Parallel()

	tmpl := MustTemplate("conf", NewField("port", Int))
	obj := tmpl.New()

	require.NoError(t, SetFieldValue(obj, tmpl.FieldByKey("port"), "8080"))
	port, _ := obj.Get("port")
	assert.Equal(t, int64(8080), port)

	err := SetFieldValue(obj, tmpl.FieldByKey("port"), []any{1})
	require.Error(t, err)
	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, []string{"port"}, fieldErr.ErrorPath())
}

func TestSetFieldValue_ConverterOverride(t *testing.T) {
	t.Parallel()

	tmpl := MustTemplate("conf",
		NewField("a", String, WithConverter(constConverter("fixed"))),
	)
	obj := tmpl.New()

	require.NoError(t, SetFieldValue(obj, tmpl.FieldByKey("a"), "anything"))
	a, _ := obj.Get("a")
	assert.Equal(t, "fixed", a)
}

func TestSetFieldValue_WholeObject(t *testing.T) {
	t.Parallel()

	tmpl := nestedTestTemplate(t)
	sub := tmpl.FieldByKey("sub")

	replacement := sub.Type().Template().New()
	replacement.Set("b", "preset")

	obj := tmpl.New()
	require.NoError(t, SetFieldValue(obj, sub, replacement))

	nested, _ := obj.Get("sub")
	assert.Same(t, replacement, nested)
}

func TestEnsureComplete(t *testing.T) {
	t.Parallel()

	tmpl := nestedTestTemplate(t)
	obj := tmpl.New()

	require.NoError(t, LoadFields(obj, map[string]any{
		"x":   1,
		"sub": map[string]any{"b": "set"},
	}))
	require.NoError(t, EnsureComplete(obj))

	// The default for sub.a is filled in at completion time.
	nested, _ := obj.Get("sub")
	a, ok := nested.(*Object).Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, a)
}

func TestEnsureComplete_MissingNestedField(t *testing.T) {
	t.Parallel()

	tmpl := nestedTestTemplate(t)
	obj := tmpl.New()
	obj.Set("x", int64(1))

	err := EnsureComplete(obj)
	require.Error(t, err)

	pathErr, ok := err.(PathError)
	require.True(t, ok)
	assert.Equal(t, []string{"sub", "b"}, pathErr.ErrorPath())
}

func TestEnsureComplete_CollectsAllMissing(t *testing.T) {
	t.Parallel()

	tmpl := nestedTestTemplate(t)

	err := EnsureComplete(tmpl.New())
	require.Error(t, err)

	var multi *MultiPathError
	require.ErrorAs(t, err, &multi)
	require.Len(t, multi.Errors, 2)

	paths := make([][]string, 0, 2)
	for _, child := range multi.Errors {
		pe, ok := child.(PathError)
		require.True(t, ok)
		paths = append(paths, pe.ErrorPath())
	}
	assert.Contains(t, paths, []string{"x"})
	assert.Contains(t, paths, []string{"sub", "b"})
}

func TestEnsureComplete_Optional(t *testing.T) {
	t.Parallel()

	tmpl := MustTemplate("conf", NewField("o", Optional(String)))
	obj := tmpl.New()

	require.NoError(t, EnsureComplete(obj))
	v, ok := obj.Get("o")
	require.True(t, ok)
	assert.Nil(t, v)
}
