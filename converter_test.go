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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constConverter(value any) Converter {
	return ConverterOf(func(any, *Type) (any, error) {
		return value, nil
	})
}

type matchAllConverter struct {
	value any
}

func (c *matchAllConverter) CanConvert(*Type) bool { return true }

func (c *matchAllConverter) Convert(any, *Type) (any, error) { return c.value, nil }

func TestRegistry_Register(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		conv    Converter
		types   []*Type
		wantErr bool
	}{
		{
			name:  "simple converter with type",
			conv:  constConverter("x"),
			types: []*Type{String},
		},
		{
			name:    "simple converter without types fails",
			conv:    constConverter("x"),
			wantErr: true,
		},
		{
			name: "complex converter without types",
			conv: &matchAllConverter{value: "x"},
		},
		{
			name:    "complex converter with types fails",
			conv:    &matchAllConverter{value: "x"},
			types:   []*Type{String},
			wantErr: true,
		},
		{
			name:    "nil converter fails",
			conv:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := NewRegistry().Register(tt.conv, tt.types...)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrRegistration)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRegistry_NewestConverterWins(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	first := constConverter("first")
	second := constConverter("second")
	require.NoError(t, r.Register(first, String))
	require.NoError(t, r.Register(second, String))

	got, err := r.Convert(123, String)
	require.NoError(t, err)
	assert.Equal(t, "second", got)

	// Removing the newest converter falls back to the older one.
	r.Unregister(second, String)
	got, err = r.Convert(123, String)
	require.NoError(t, err)
	assert.Equal(t, "first", got)

	// Removing the last custom converter falls back to the built-in.
	r.Unregister(first)
	got, err = r.Convert(123, String)
	require.NoError(t, err)
	assert.Equal(t, "123", got)
}

func TestRegistry_SimpleBeatsComplex(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	require.NoError(t, r.Register(&matchAllConverter{value: "complex"}))
	require.NoError(t, r.Register(constConverter("simple"), String))

	got, err := r.Convert(0, String)
	require.NoError(t, err)
	assert.Equal(t, "simple", got)
}

func TestRegistry_ComplexConverter(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	target := Custom("special", nil, nil)
	require.False(t, r.HasConverter(target))

	cc := &matchAllConverter{value: "converted"}
	require.NoError(t, r.Register(cc))
	require.True(t, r.HasConverter(target))

	got, err := r.Convert(1, target)
	require.NoError(t, err)
	assert.Equal(t, "converted", got)

	// Unregistering invalidates the applicability cache.
	r.Unregister(cc)
	require.False(t, r.HasConverter(target))
}

func TestRegistry_ConverterFailureChain(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	errFirst := errors.New("first failed")
	errSecond := errors.New("second failed")
	require.NoError(t, r.Register(ConverterOf(func(any, *Type) (any, error) {
		return nil, errFirst
	}), Duration))
	require.NoError(t, r.Register(ConverterOf(func(any, *Type) (any, error) {
		return nil, errSecond
	}), Duration))

	_, err := r.Convert(struct{}{}, Duration)
	require.Error(t, err)

	var convErr *ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.ErrorIs(t, err, errFirst)
	assert.ErrorIs(t, err, errSecond)
}

func TestRegistry_ConvertNilTarget(t *testing.T) {
	t.Parallel()

	_, err := NewRegistry().Convert(1, nil)
	require.Error(t, err)
}

func TestConvertValue_UsesDefaultRegistry(t *testing.T) {
	t.Parallel()

	got, err := ConvertValue("42", Int)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)
}
