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

import "errors"

// Convert converts value to the target type. The applicable converters are
// tried in order until one succeeds; their failures are chained into the
// final error. If every converter fails but the value already satisfies the
// target type it is returned unchanged. If no converter was tried at all and
// the target carries a constructor, the constructor is used as a last
// resort.
func (r *Registry) Convert(value any, target *Type) (any, error) {
	return r.convert(value, target, nil)
}

// ConvertExcluding is like [Registry.Convert] but skips the given converters
// during lookup. Converters converting through an intermediate type use this
// to exclude themselves and avoid infinite recursion.
func (r *Registry) ConvertExcluding(value any, target *Type, exclude ...Converter) (any, error) {
	return r.convert(value, target, exclude)
}

func (r *Registry) convert(value any, target *Type, exclude []Converter) (any, error) {
	if target == nil {
		return nil, errors.New("conversion target cannot be nil")
	}

	var attempts []error
	tried := false

	for _, conv := range r.Converters(target) {
		if excluded(conv, exclude) {
			continue
		}
		tried = true

		converted, err := conv.Convert(value, target)
		if err == nil {
			return converted, nil
		}
		attempts = append(attempts, err)
	}

	if HasType(value, target) {
		return value, nil
	}

	if !tried && target.construct != nil {
		converted, err := target.construct(value)
		if err != nil {
			return nil, newConversionError(value, target, err)
		}
		return converted, nil
	}

	return nil, newConversionError(value, target, errors.Join(attempts...))
}

func excluded(conv Converter, exclude []Converter) bool {
	for _, ex := range exclude {
		if conv == ex {
			return true
		}
	}
	return false
}

// ConvertValue converts value to the target type using the default registry.
func ConvertValue(value any, target *Type) (any, error) {
	return DefaultRegistry.Convert(value, target)
}
