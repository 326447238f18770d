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
	"sort"

	"github.com/spf13/cast"
)

type loadConfig struct {
	registry      *Registry
	ignoreUnknown bool
}

// LoadOption configures field loading.
type LoadOption func(*loadConfig)

// WithRegistry sets the converter registry used for loading. It defaults to
// [DefaultRegistry].
func WithRegistry(r *Registry) LoadOption {
	return func(c *loadConfig) {
		c.registry = r
	}
}

// WithIgnoreUnknown makes loading skip keys the template has no field for
// instead of failing.
func WithIgnoreUnknown() LoadOption {
	return func(c *loadConfig) {
		c.ignoreUnknown = true
	}
}

func newLoadConfig(opts []LoadOption) *loadConfig {
	c := &loadConfig{registry: DefaultRegistry}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadFields loads the values into the object, converting each value to its
// field's type. Mappings for object-typed fields are merged into the nested
// object recursively, so multiple partial sources accumulate. All failures
// are collected and reported together, qualified with their key paths.
func LoadFields(obj *Object, values map[string]any, opts ...LoadOption) error {
	return loadFields(obj, values, newLoadConfig(opts))
}

func loadFields(obj *Object, values map[string]any, cfg *loadConfig) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var errs []error
	for _, key := range keys {
		field := obj.template.FieldByKey(key)
		if field == nil {
			if !cfg.ignoreUnknown {
				errs = append(errs, &FieldError{Path: []string{key}, Reason: "unexpected key"})
			}
			continue
		}
		if err := setFieldValue(obj, field, values[key], cfg); err != nil {
			errs = append(errs, err)
		}
	}
	return GroupErrors("multiple fields failed to load", errs...)
}

// SetFieldValue converts the value to the field's type and stores it in the
// object. For object-typed fields a mapping value is merged into the nested
// object instead of replacing it.
func SetFieldValue(obj *Object, field *Field, value any, opts ...LoadOption) error {
	return setFieldValue(obj, field, value, newLoadConfig(opts))
}

func setFieldValue(obj *Object, field *Field, value any, cfg *loadConfig) error {
	if nested := field.typ.Template(); nested != nil {
		switch v := value.(type) {
		case *Object:
			if v.template == nested {
				obj.values[field.attribute] = v
				return nil
			}
		case map[string]any:
			return loadNested(obj, field, nested, v, cfg)
		case map[any]any:
			values := make(map[string]any, len(v))
			for key, val := range v {
				k, err := cast.ToStringE(key)
				if err != nil {
					return &FieldError{
						Path:   []string{field.key},
						Field:  field,
						Reason: "mapping key is not a string",
						Err:    err,
					}
				}
				values[k] = val
			}
			return loadNested(obj, field, nested, values, cfg)
		}
	}

	converted, err := convertFieldValue(field, value, cfg)
	if err != nil {
		return &FieldError{
			Path:  []string{field.key},
			Field: field,
			Err:   err,
		}
	}
	obj.values[field.attribute] = converted
	return nil
}

func loadNested(obj *Object, field *Field, tmpl *Template, values map[string]any, cfg *loadConfig) error {
	child, ok := obj.values[field.attribute].(*Object)
	if !ok || child == nil {
		child = tmpl.New()
		obj.values[field.attribute] = child
	}
	return PrependPath(loadFields(child, values, cfg), field.key)
}

func convertFieldValue(field *Field, value any, cfg *loadConfig) (any, error) {
	if field.converter != nil {
		converted, err := field.converter.Convert(value, field.typ)
		if err == nil {
			return converted, nil
		}
		if HasType(value, field.typ) {
			return value, nil
		}
		return nil, newConversionError(value, field.typ, err)
	}
	return cfg.registry.Convert(value, field.typ)
}

// EnsureComplete verifies that every required field of the object holds a
// value and fills in defaults for the rest. Nested objects are checked
// recursively. All missing fields are collected and reported together.
func EnsureComplete(obj *Object) error {
	var errs []error
	for _, field := range obj.template.fields {
		if field.typ.Template() != nil {
			// Objects created by Template.New always carry their nested
			// objects; a hand-built object without one has nothing to check.
			child, ok := obj.values[field.attribute].(*Object)
			if !ok || child == nil {
				continue
			}
			if err := EnsureComplete(child); err != nil {
				errs = append(errs, PrependPath(err, field.key))
			}
			continue
		}

		if _, ok := obj.values[field.attribute]; ok {
			continue
		}

		value, err := field.Default()
		if err != nil {
			errs = append(errs, &FieldError{
				Path:   []string{field.key},
				Field:  field,
				Reason: "missing required value",
			})
			continue
		}
		obj.values[field.attribute] = value
	}
	return GroupErrors("configuration is incomplete", errs...)
}
