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
	"fmt"
	"sync"
)

// Converter converts a raw value to a target type.
type Converter interface {
	// Convert converts value to the target type. It returns an error if the
	// value cannot be converted.
	Convert(value any, target *Type) (any, error)
}

// ComplexConverter is a converter which declares its applicability through a
// predicate instead of explicit target types. Complex converters are
// registered without target types and may keep internal state.
type ComplexConverter interface {
	Converter

	// CanConvert reports whether the converter can produce the target type.
	CanConvert(target *Type) bool
}

// ConvertFunc is the signature of a plain conversion function.
type ConvertFunc func(value any, target *Type) (any, error)

type funcConverter struct {
	fn ConvertFunc
}

func (c *funcConverter) Convert(value any, target *Type) (any, error) {
	return c.fn(value, target)
}

// ConverterOf wraps fn into a Converter with a stable identity, so it can
// later be unregistered or excluded from a conversion.
func ConverterOf(fn ConvertFunc) Converter {
	return &funcConverter{fn: fn}
}

// Registry maps target types to converters. Simple converters are keyed by
// explicit target types; complex converters are kept in a separate list and
// selected by predicate. On lookup the most recently registered converter
// wins, and simple converters strictly take precedence over complex ones.
//
// Registration is expected to happen at process initialization. Concurrent
// lookups are safe; concurrent registration and lookup must be serialized by
// the caller.
type Registry struct {
	mu       sync.RWMutex
	simple   map[string][]Converter
	advanced []ComplexConverter

	// cache memoizes which complex converters apply to a target type.
	// Invalidated on every registration and unregistration.
	cache map[string][]Converter
}

// NewRegistry creates a registry pre-populated with the built-in converters.
func NewRegistry() *Registry {
	r := &Registry{
		simple: make(map[string][]Converter),
		cache:  make(map[string][]Converter),
	}
	registerBuiltins(r)
	return r
}

// DefaultRegistry is the registry used by the package-level functions and,
// unless overridden with [WithRegistry], by field loading.
var DefaultRegistry = NewRegistry()

// Register adds a converter to the registry. Simple converters require at
// least one explicit target type; complex converters must be registered
// without any. Registering the same converter for the same type twice yields
// two independent entries.
func (r *Registry) Register(conv Converter, types ...*Type) error {
	if conv == nil {
		return fmt.Errorf("%w: converter cannot be nil", ErrRegistration)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if cc, ok := conv.(ComplexConverter); ok {
		if len(types) > 0 {
			return fmt.Errorf("%w: complex converter cannot be registered with explicit types", ErrRegistration)
		}
		r.advanced = append(r.advanced, cc)
		r.cache = make(map[string][]Converter)
		return nil
	}

	if len(types) == 0 {
		return fmt.Errorf("%w: simple converter requires at least one target type", ErrRegistration)
	}
	for _, t := range types {
		if t == nil {
			return fmt.Errorf("%w: target type cannot be nil", ErrRegistration)
		}
	}

	for _, t := range types {
		r.simple[t.Key()] = append(r.simple[t.Key()], conv)
	}
	r.cache = make(map[string][]Converter)
	return nil
}

// MustRegister is like [Registry.Register] but panics on error. Use it in
// init code where registration failure is a programming error.
func (r *Registry) MustRegister(conv Converter, types ...*Type) {
	if err := r.Register(conv, types...); err != nil {
		panic(fmt.Sprintf("konfi: failed to register converter: %v", err))
	}
}

// Unregister removes a converter by identity. For simple converters the
// converter is removed from each given type's list, or from every list if no
// types are given. Complex converters are removed from the complex list.
// Removing a converter that isn't registered is a no-op.
func (r *Registry) Unregister(conv Converter, types ...*Type) {
	if conv == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := conv.(ComplexConverter); ok {
		for i, cc := range r.advanced {
			if Converter(cc) == conv {
				r.advanced = append(r.advanced[:i], r.advanced[i+1:]...)
				break
			}
		}
		r.cache = make(map[string][]Converter)
		return
	}

	keys := make([]string, 0, len(types))
	if len(types) == 0 {
		for key := range r.simple {
			keys = append(keys, key)
		}
	} else {
		for _, t := range types {
			keys = append(keys, t.Key())
		}
	}

	for _, key := range keys {
		convs := r.simple[key]
		for i, c := range convs {
			if c == conv {
				convs = append(convs[:i], convs[i+1:]...)
				break
			}
		}
		if len(convs) == 0 {
			delete(r.simple, key)
		} else {
			r.simple[key] = convs
		}
	}
	r.cache = make(map[string][]Converter)
}

// Converters returns the converters applicable to the target type, most
// recently registered first. If any simple converters are registered for the
// exact type they are returned; only if none exist, the applicable complex
// converters are returned.
func (r *Registry) Converters(target *Type) []Converter {
	key := target.Key()

	r.mu.RLock()
	if convs := r.simple[key]; len(convs) > 0 {
		out := make([]Converter, len(convs))
		for i, c := range convs {
			out[len(convs)-1-i] = c
		}
		r.mu.RUnlock()
		return out
	}
	if cached, ok := r.cache[key]; ok {
		r.mu.RUnlock()
		return cached
	}
	advanced := make([]ComplexConverter, len(r.advanced))
	copy(advanced, r.advanced)
	r.mu.RUnlock()

	// CanConvert may recurse into the registry, so it runs unlocked.
	var applicable []Converter
	for i := len(advanced) - 1; i >= 0; i-- {
		if advanced[i].CanConvert(target) {
			applicable = append(applicable, advanced[i])
		}
	}

	r.mu.Lock()
	r.cache[key] = applicable
	r.mu.Unlock()
	return applicable
}

// HasConverter reports whether any converter applies to the target type.
func (r *Registry) HasConverter(target *Type) bool {
	return len(r.Converters(target)) > 0
}

// Register adds a converter to the default registry.
func Register(conv Converter, types ...*Type) error {
	return DefaultRegistry.Register(conv, types...)
}

// Unregister removes a converter from the default registry.
func Unregister(conv Converter, types ...*Type) {
	DefaultRegistry.Unregister(conv, types...)
}

// HasConverter reports whether the default registry has a converter for the
// target type.
func HasConverter(target *Type) bool {
	return DefaultRegistry.HasConverter(target)
}
