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

// Template is the schema of a configuration: an ordered collection of fields,
// possibly nested through object-typed fields. Templates are immutable after
// creation and safe for concurrent use.
type Template struct {
	name   string
	fields []*Field
	byKey  map[string]*Field
	byAttr map[string]*Field
	typ    *Type
}

// NewTemplate creates a template from the given fields. It validates the
// fields eagerly: duplicate keys or attributes, deferred field option errors
// and fields without any way to convert their values are all reported here.
func NewTemplate(name string, fields ...*Field) (*Template, error) {
	t := &Template{
		name:   name,
		fields: fields,
		byKey:  make(map[string]*Field, len(fields)),
		byAttr: make(map[string]*Field, len(fields)),
	}

	for _, field := range fields {
		if field == nil {
			return nil, fmt.Errorf("%w: template %q contains a nil field", ErrRegistration, name)
		}
		if field.err != nil {
			return nil, field.err
		}
		if _, ok := t.byKey[field.key]; ok {
			return nil, fmt.Errorf("%w: template %q has multiple fields with key %q", ErrRegistration, name, field.key)
		}
		if _, ok := t.byAttr[field.attribute]; ok {
			return nil, fmt.Errorf("%w: template %q has multiple fields with attribute %q", ErrRegistration, name, field.attribute)
		}
		if !convertible(field) {
			return nil, fmt.Errorf("%w: field %q of template %q has no converter for type %s",
				ErrRegistration, field.key, name, field.typ)
		}

		t.byKey[field.key] = field
		t.byAttr[field.attribute] = field
	}

	t.typ = objectType(t)
	return t, nil
}

// convertible reports whether values for the field can possibly be converted.
// The check runs against the default registry; a field which only works with
// a custom registry needs a converter override.
func convertible(f *Field) bool {
	if f.converter != nil {
		return true
	}
	if f.typ.construct != nil || f.typ.isInstance != nil {
		return true
	}
	return DefaultRegistry.HasConverter(f.typ)
}

// MustTemplate is like [NewTemplate] but panics on error. Use it for
// templates declared at package level.
func MustTemplate(name string, fields ...*Field) *Template {
	t, err := NewTemplate(name, fields...)
	if err != nil {
		panic(fmt.Sprintf("konfi: invalid template: %v", err))
	}
	return t
}

// Name returns the name of the template.
func (t *Template) Name() string { return t.name }

// Fields returns the fields in declaration order. The returned slice must
// not be modified.
func (t *Template) Fields() []*Field { return t.fields }

// FieldByKey returns the field loaded from the given key, or nil.
func (t *Template) FieldByKey(key string) *Field { return t.byKey[key] }

// FieldByAttribute returns the field stored under the given attribute, or
// nil.
func (t *Template) FieldByAttribute(attribute string) *Field { return t.byAttr[attribute] }

// Type returns the object type descriptor of the template, for use as a
// field type or conversion target.
func (t *Template) Type() *Type { return t.typ }

// New creates an empty object of the template. Objects for object-typed
// fields are created eagerly so nested values can be merged from multiple
// sources.
func (t *Template) New() *Object {
	obj := &Object{
		template: t,
		values:   make(map[string]any, len(t.fields)),
	}
	for _, field := range t.fields {
		if nested := field.typ.Template(); nested != nil {
			obj.values[field.attribute] = nested.New()
		}
	}
	return obj
}

// Object holds the values loaded for a template, keyed by field attribute.
// Values are stored in converted form. An object is not safe for concurrent
// mutation.
type Object struct {
	template *Template
	values   map[string]any
}

// Template returns the template the object was created from.
func (o *Object) Template() *Template { return o.template }

// Has reports whether a value is set for the given attribute.
func (o *Object) Has(attribute string) bool {
	_, ok := o.values[attribute]
	return ok
}

// Get returns the value stored under the given attribute.
func (o *Object) Get(attribute string) (any, bool) {
	v, ok := o.values[attribute]
	return v, ok
}

// Set stores a value under the given attribute. The value is stored as is;
// use [SetFieldValue] to convert first.
func (o *Object) Set(attribute string, value any) {
	o.values[attribute] = value
}

// Map returns the values as a plain nested map keyed by attribute. Nested
// objects, also inside containers, are flattened recursively.
func (o *Object) Map() map[string]any {
	out := make(map[string]any, len(o.values))
	for attr, value := range o.values {
		out[attr] = flatten(value)
	}
	return out
}

func flatten(value any) any {
	switch v := value.(type) {
	case *Object:
		return v.Map()
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = flatten(item)
		}
		return out
	case map[any]any:
		out := make(map[any]any, len(v))
		for k, item := range v {
			out[k] = flatten(item)
		}
		return out
	default:
		return value
	}
}

// String returns the template name.
func (o *Object) String() string {
	return o.template.name
}
