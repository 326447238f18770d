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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value any
		typ   *Type
		want  bool
	}{
		{name: "any matches everything", value: struct{}{}, typ: Any, want: true},
		{name: "none matches nil", value: nil, typ: None, want: true},
		{name: "none rejects value", value: 0, typ: None, want: false},
		{name: "bool", value: true, typ: Bool, want: true},
		{name: "int from int64", value: int64(5), typ: Int, want: true},
		{name: "int from uint", value: uint(5), typ: Int, want: true},
		{name: "int rejects duration", value: time.Second, typ: Int, want: false},
		{name: "int rejects string", value: "5", typ: Int, want: false},
		{name: "float", value: 1.5, typ: Float, want: true},
		{name: "float rejects int", value: 1, typ: Float, want: false},
		{name: "complex", value: complex(1, 2), typ: Complex, want: true},
		{name: "string", value: "x", typ: String, want: true},
		{name: "bytes", value: []byte("x"), typ: Bytes, want: true},
		{name: "duration", value: time.Second, typ: Duration, want: true},
		{name: "time", value: time.Unix(0, 0), typ: Time, want: true},

		{name: "union matches alternative", value: "x", typ: Union(Int, String), want: true},
		{name: "union rejects others", value: 1.5, typ: Union(Int, String), want: false},
		{name: "optional matches nil", value: nil, typ: Optional(Int), want: true},

		{name: "untyped list", value: []any{1, "a"}, typ: List, want: true},
		{name: "typed list", value: []any{1, 2}, typ: ListOf(Int), want: true},
		{name: "typed list rejects mixed", value: []any{1, "a"}, typ: ListOf(Int), want: false},
		{name: "typed set", value: map[any]struct{}{1: {}}, typ: SetOf(Int), want: true},
		{name: "fixed tuple arity match", value: []any{1, "a"}, typ: TupleOf(Int, String), want: true},
		{name: "fixed tuple arity mismatch", value: []any{1}, typ: TupleOf(Int, String), want: false},
		{name: "variadic tuple", value: []any{1, 2, 3}, typ: VariadicTupleOf(Int), want: true},
		{name: "typed dict", value: map[any]any{"a": 1}, typ: MapOf(String, Int), want: true},
		{name: "typed dict rejects bad value", value: map[any]any{"a": "b"}, typ: MapOf(String, Int), want: false},
		{name: "mapping from string map", value: map[string]any{"a": 1}, typ: Mapping, want: true},
		{name: "iterable from slice", value: []any{1}, typ: Iterable, want: true},
		{name: "iterable rejects string", value: "abc", typ: Iterable, want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, HasType(tt.value, tt.typ))
		})
	}
}

func TestHasType_Enum(t *testing.T) {
	t.Parallel()

	color := EnumOf("Color", Member("Red", 1), Member("Green", 2))

	assert.True(t, HasType(Member("Red", 1), color))
	assert.False(t, HasType(Member("Blue", 3), color))
	assert.False(t, HasType("Red", color))
}

func TestHasType_Object(t *testing.T) {
	t.Parallel()

	tmpl := MustTemplate("conf", NewField("a", Int))
	other := MustTemplate("conf", NewField("a", Int))

	assert.True(t, HasType(tmpl.New(), tmpl.Type()))
	assert.False(t, HasType(other.New(), tmpl.Type()))
	assert.False(t, HasType("not an object", tmpl.Type()))
}

func TestIsOptional(t *testing.T) {
	t.Parallel()

	assert.True(t, IsOptional(None))
	assert.True(t, IsOptional(Optional(Int)))
	assert.True(t, IsOptional(Union(Int, Optional(String))))
	assert.False(t, IsOptional(Int))
	assert.False(t, IsOptional(Union(Int, String)))
}

func TestResolveTuple(t *testing.T) {
	t.Parallel()

	types, n := ResolveTuple(TupleOf(Int, String))
	require.Len(t, types, 2)
	assert.Equal(t, 2, n)

	types, n = ResolveTuple(VariadicTupleOf(Int))
	require.Len(t, types, 1)
	assert.Equal(t, -1, n)
}

func TestOrigin(t *testing.T) {
	t.Parallel()

	assert.Equal(t, List, Origin(ListOf(Int)))
	assert.Equal(t, Set, Origin(SetOf(Int)))
	assert.Equal(t, Dict, Origin(MapOf(String, Int)))
	assert.Equal(t, Tuple, Origin(TupleOf(Int)))
	assert.Nil(t, Origin(List))
	assert.Nil(t, Origin(Int))
}

func TestTypeKeys(t *testing.T) {
	t.Parallel()

	// Structural types share keys, nominal types don't.
	assert.Equal(t, ListOf(Int).Key(), ListOf(Int).Key())
	assert.NotEqual(t, ListOf(Int).Key(), ListOf(String).Key())
	assert.NotEqual(t, TupleOf(Int).Key(), VariadicTupleOf(Int).Key())

	assert.NotEqual(t,
		EnumOf("E", Member("A", 1)).Key(),
		EnumOf("E", Member("A", 1)).Key(),
	)

	a := MustTemplate("conf", NewField("a", Int))
	b := MustTemplate("conf", NewField("a", Int))
	assert.NotEqual(t, a.Type().Key(), b.Type().Key())
}

func TestUnion_NoAlternativesPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { Union() })
}
