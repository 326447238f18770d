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

import "fmt"

// Field describes a single configuration value of a template: its key in the
// raw configuration, the attribute it is stored under, its target type and
// how missing values are handled.
type Field struct {
	attribute string
	key       string
	comment   string
	typ       *Type

	hasDefault bool
	defaultVal any
	factory    func() any

	converter Converter

	// err holds the first option error; it is surfaced by NewTemplate.
	err error
}

// FieldOption configures a field.
type FieldOption func(*Field)

// WithKey sets the key the field is loaded from. It defaults to the
// attribute name.
func WithKey(key string) FieldOption {
	return func(f *Field) {
		f.key = key
	}
}

// WithComment attaches a human-readable description to the field.
func WithComment(comment string) FieldOption {
	return func(f *Field) {
		f.comment = comment
	}
}

// WithDefault sets the value used when no source provides one. The field is
// no longer required. Mutually exclusive with [WithFactory].
func WithDefault(value any) FieldOption {
	return func(f *Field) {
		if f.factory != nil {
			f.fail(fmt.Errorf("%w: field %q cannot have both a default value and a default factory", ErrRegistration, f.attribute))
			return
		}
		f.hasDefault = true
		f.defaultVal = value
	}
}

// WithFactory sets a function producing the default value. Use it for
// mutable defaults that must not be shared between objects. Mutually
// exclusive with [WithDefault].
func WithFactory(factory func() any) FieldOption {
	return func(f *Field) {
		if f.hasDefault {
			f.fail(fmt.Errorf("%w: field %q cannot have both a default value and a default factory", ErrRegistration, f.attribute))
			return
		}
		if factory == nil {
			f.fail(fmt.Errorf("%w: field %q default factory cannot be nil", ErrRegistration, f.attribute))
			return
		}
		f.factory = factory
	}
}

// WithConverter sets a converter used for this field instead of the registry
// lookup.
func WithConverter(conv Converter) FieldOption {
	return func(f *Field) {
		f.converter = conv
	}
}

func (f *Field) fail(err error) {
	if f.err == nil {
		f.err = err
	}
}

// NewField creates a field stored under the given attribute with the given
// target type. Option errors are deferred and reported by [NewTemplate].
func NewField(attribute string, typ *Type, opts ...FieldOption) *Field {
	f := &Field{
		attribute: attribute,
		key:       attribute,
		typ:       typ,
	}
	if attribute == "" {
		f.fail(fmt.Errorf("%w: field attribute cannot be empty", ErrRegistration))
	}
	if typ == nil {
		f.fail(fmt.Errorf("%w: field %q has no type", ErrRegistration, attribute))
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Attribute returns the name the value is stored under.
func (f *Field) Attribute() string { return f.attribute }

// Key returns the key the field is loaded from.
func (f *Field) Key() string { return f.key }

// Comment returns the field's description, if any.
func (f *Field) Comment() string { return f.comment }

// Type returns the target type of the field.
func (f *Field) Type() *Type { return f.typ }

// Converter returns the field's converter override, or nil if the registry
// should be consulted.
func (f *Field) Converter() Converter { return f.converter }

// Required reports whether the configuration must provide a value for the
// field. A field is required when it has no default, no factory and its type
// isn't optional.
func (f *Field) Required() bool {
	return !f.hasDefault && f.factory == nil && !IsOptional(f.typ)
}

// Default returns the value used when the configuration doesn't provide one.
// The factory, if set, is invoked on every call. Optional fields without an
// explicit default yield nil. For required fields [ErrNoDefault] is returned.
func (f *Field) Default() (any, error) {
	switch {
	case f.hasDefault:
		return f.defaultVal, nil
	case f.factory != nil:
		return f.factory(), nil
	case IsOptional(f.typ):
		return nil, nil
	default:
		return nil, fmt.Errorf("field %q: %w", f.key, ErrNoDefault)
	}
}
