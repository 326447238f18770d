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
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// registerBuiltins populates a registry with the built-in converters. Every
// registry created through [NewRegistry] gets its own set, so that complex
// converters recurse into the registry they belong to.
func registerBuiltins(r *Registry) {
	r.MustRegister(ConverterOf(convertBool), Bool)
	r.MustRegister(ConverterOf(convertInt), Int)
	r.MustRegister(ConverterOf(convertFloat), Float)
	r.MustRegister(ConverterOf(convertComplex), Complex)
	r.MustRegister(ConverterOf(convertString), String)
	r.MustRegister(ConverterOf(convertBytes), Bytes)
	r.MustRegister(ConverterOf(convertDuration), Duration)
	r.MustRegister(ConverterOf(convertTime), Time)
	r.MustRegister(ConverterOf(convertNone), None)
	r.MustRegister(ConverterOf(convertAny), Any)
	r.MustRegister(ConverterOf(convertIterable), Iterable)
	r.MustRegister(ConverterOf(convertMapping), Mapping)

	r.MustRegister(ConverterOf(makeListConverter(r)), List)
	r.MustRegister(ConverterOf(makeSetConverter(r)), Set)
	r.MustRegister(ConverterOf(makeTupleConverter(r)), Tuple)
	r.MustRegister(ConverterOf(makeDictConverter(r)), Dict)

	r.MustRegister(&unionConverter{registry: r})
	r.MustRegister(&typedTupleConverter{registry: r})
	r.MustRegister(&iterableConverter{registry: r})
	r.MustRegister(&mappingConverter{registry: r})
	r.MustRegister(&templateConverter{registry: r})
	r.MustRegister(&enumConverter{})
}

// Primitive converters.

func convertBool(value any, _ *Type) (any, error) {
	return cast.ToBoolE(value)
}

func convertInt(value any, _ *Type) (any, error) {
	return cast.ToInt64E(value)
}

func convertFloat(value any, _ *Type) (any, error) {
	return cast.ToFloat64E(value)
}

func convertComplex(value any, _ *Type) (any, error) {
	switch v := value.(type) {
	case complex128:
		return v, nil
	case complex64:
		return complex128(v), nil
	case string:
		return strconv.ParseComplex(strings.TrimSpace(v), 128)
	default:
		f, err := cast.ToFloat64E(value)
		if err != nil {
			return nil, fmt.Errorf("cannot convert %v (%T) to complex", value, value)
		}
		return complex(f, 0), nil
	}
}

func convertString(value any, _ *Type) (any, error) {
	return cast.ToStringE(value)
}

func convertBytes(value any, _ *Type) (any, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("cannot convert %v (%T) to bytes", value, value)
	}
}

func convertDuration(value any, _ *Type) (any, error) {
	return cast.ToDurationE(value)
}

func convertTime(value any, _ *Type) (any, error) {
	return cast.ToTimeE(value)
}

// convertNone converts all values to nil.
func convertNone(any, *Type) (any, error) {
	return nil, nil
}

// convertAny returns the value as is.
func convertAny(value any, _ *Type) (any, error) {
	return value, nil
}

// Untyped container converters.

// convertIterable converts the value to an untyped iterable ([]any).
//
// Even though strings are iterable, this converter does not treat them as
// such to be consistent with the user's expectations. Mappings become an
// iterable of key-value pairs instead of just the keys. Everything else that
// isn't iterable is wrapped in a single-element slice.
func convertIterable(value any, _ *Type) (any, error) {
	switch v := value.(type) {
	case []any:
		return v, nil
	case string, []byte:
		return []any{v}, nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]any, 0, len(v))
		for _, k := range keys {
			out = append(out, []any{k, v[k]})
		}
		return out, nil
	case map[any]any:
		return sortedPairs(v), nil
	case map[any]struct{}:
		out := make([]any, 0, len(v))
		for k := range v {
			out = append(out, k)
		}
		sort.Slice(out, func(i, j int) bool { return fmt.Sprint(out[i]) < fmt.Sprint(out[j]) })
		return out, nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, nil
	case reflect.Map:
		pairs := make(map[any]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			pairs[iter.Key().Interface()] = iter.Value().Interface()
		}
		return sortedPairs(pairs), nil
	default:
		return []any{value}, nil
	}
}

func sortedPairs(m map[any]any) []any {
	keys := make([]any, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return fmt.Sprint(keys[i]) < fmt.Sprint(keys[j]) })
	out := make([]any, 0, len(m))
	for _, k := range keys {
		out = append(out, []any{k, m[k]})
	}
	return out
}

// convertMapping converts the value to an untyped mapping (map[any]any).
// Sequences are interpreted as a mapping from index to value. All other
// value types fail.
func convertMapping(value any, _ *Type) (any, error) {
	switch v := value.(type) {
	case map[any]any:
		return v, nil
	case map[string]any:
		out := make(map[any]any, len(v))
		for k, val := range v {
			out[k] = val
		}
		return out, nil
	case []any:
		out := make(map[any]any, len(v))
		for i, val := range v {
			out[i] = val
		}
		return out, nil
	case string, []byte:
		return nil, fmt.Errorf("cannot convert %v (%T) to a mapping", value, value)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map:
		out := make(map[any]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().Interface()] = iter.Value().Interface()
		}
		return out, nil
	case reflect.Slice, reflect.Array:
		out := make(map[any]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = rv.Index(i).Interface()
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cannot convert %v (%T) to a mapping", value, value)
	}
}

// Concrete container types are first converted to their base interface and
// then coerced into the concrete representation.

func makeListConverter(r *Registry) ConvertFunc {
	return func(value any, _ *Type) (any, error) {
		it, err := r.Convert(value, Iterable)
		if err != nil {
			return nil, err
		}
		items := it.([]any)
		out := make([]any, len(items))
		copy(out, items)
		return out, nil
	}
}

func makeSetConverter(r *Registry) ConvertFunc {
	return func(value any, _ *Type) (any, error) {
		it, err := r.Convert(value, Iterable)
		if err != nil {
			return nil, err
		}
		items := it.([]any)
		out := make(map[any]struct{}, len(items))
		for _, item := range items {
			if item != nil && !reflect.TypeOf(item).Comparable() {
				return nil, fmt.Errorf("set element %v (%T) is not comparable", item, item)
			}
			out[item] = struct{}{}
		}
		return out, nil
	}
}

func makeTupleConverter(r *Registry) ConvertFunc {
	return func(value any, _ *Type) (any, error) {
		it, err := r.Convert(value, Iterable)
		if err != nil {
			return nil, err
		}
		items := it.([]any)
		out := make([]any, len(items))
		copy(out, items)
		return out, nil
	}
}

func makeDictConverter(r *Registry) ConvertFunc {
	return func(value any, _ *Type) (any, error) {
		m, err := r.Convert(value, Mapping)
		if err != nil {
			return nil, err
		}
		src := m.(map[any]any)
		out := make(map[any]any, len(src))
		for k, v := range src {
			out[k] = v
		}
		return out, nil
	}
}

// Complex converters.

// unionConverter converts to union types. It first checks whether the value
// is already in the union and otherwise tries the alternatives from first to
// last.
type unionConverter struct {
	registry *Registry
}

func (c *unionConverter) CanConvert(target *Type) bool {
	if !IsUnion(target) {
		return false
	}
	for _, alt := range TypeArgs(target) {
		if !c.registry.HasConverter(alt) {
			return false
		}
	}
	return true
}

func (c *unionConverter) Convert(value any, target *Type) (any, error) {
	if HasType(value, target) {
		return value, nil
	}

	var attempts []error
	for _, alt := range TypeArgs(target) {
		converted, err := c.registry.Convert(value, alt)
		if err == nil {
			return converted, nil
		}
		attempts = append(attempts, err)
	}
	return nil, errors.Join(attempts...)
}

// typedTupleConverter converts to parametrized tuple types. The input is
// first converted to a list; fixed-arity tuples require an exact length
// match, variable-length tuples accept any length.
type typedTupleConverter struct {
	registry *Registry
}

func (c *typedTupleConverter) CanConvert(target *Type) bool {
	if !IsTuple(target) || len(TypeArgs(target)) == 0 {
		return false
	}
	if !c.registry.HasConverter(Origin(target)) {
		return false
	}
	for _, elem := range TypeArgs(target) {
		if !c.registry.HasConverter(elem) {
			return false
		}
	}
	return true
}

func (c *typedTupleConverter) Convert(value any, target *Type) (any, error) {
	converted, err := c.registry.Convert(value, List)
	if err != nil {
		return nil, err
	}
	values := converted.([]any)

	types, n := ResolveTuple(target)
	if n >= 0 && n != len(values) {
		return nil, fmt.Errorf("cannot convert %v to %d-tuple, lengths don't match", values, n)
	}

	out := make([]any, len(values))
	for i, val := range values {
		elemType := types[0]
		if n >= 0 {
			elemType = types[i]
		}
		v, err := c.registry.Convert(val, elemType)
		if err != nil {
			return nil, fmt.Errorf("cannot convert value at index %d (%v) to %s: %w", i, val, elemType, err)
		}
		out[i] = v
	}
	return out, nil
}

// iterableConverter converts to typed iterables. The value is converted to
// an untyped iterable, every item is converted to the item type, and the
// result is converted to the container type.
type iterableConverter struct {
	registry *Registry
}

func (c *iterableConverter) CanConvert(target *Type) bool {
	if !IsIterable(target) || IsTuple(target) || IsMapping(target) {
		return false
	}
	return c.registry.HasConverter(Origin(target)) &&
		c.registry.HasConverter(TypeArgs(target)[0])
}

func (c *iterableConverter) Convert(value any, target *Type) (any, error) {
	itemType := TypeArgs(target)[0]

	it, err := c.registry.Convert(value, Iterable)
	if err != nil {
		return nil, err
	}
	items := it.([]any)

	out := make([]any, len(items))
	for i, item := range items {
		v, err := c.registry.Convert(item, itemType)
		if err != nil {
			return nil, fmt.Errorf("cannot convert value at index %d (%v) to %s: %w", i, item, itemType, err)
		}
		out[i] = v
	}

	// Exclude this converter from the follow-up lookup to avoid recursing
	// back into itself.
	return c.registry.ConvertExcluding(out, Origin(target), c)
}

// mappingConverter converts to typed mappings. The value is converted to an
// untyped mapping, every key and value is converted to its declared type,
// and the result is converted to the container type.
type mappingConverter struct {
	registry *Registry
}

func (c *mappingConverter) CanConvert(target *Type) bool {
	if !IsMapping(target) {
		return false
	}
	args := TypeArgs(target)
	return c.registry.HasConverter(Origin(target)) &&
		c.registry.HasConverter(args[0]) &&
		c.registry.HasConverter(args[1])
}

func (c *mappingConverter) Convert(value any, target *Type) (any, error) {
	args := TypeArgs(target)
	keyType, valueType := args[0], args[1]

	m, err := c.registry.Convert(value, Mapping)
	if err != nil {
		return nil, err
	}

	out := make(map[any]any)
	for key, val := range m.(map[any]any) {
		k, err := c.registry.Convert(key, keyType)
		if err != nil {
			return nil, fmt.Errorf("cannot convert key %v to %s: %w", key, keyType, err)
		}
		if k != nil && !reflect.TypeOf(k).Comparable() {
			return nil, fmt.Errorf("mapping key %v (%T) is not comparable", k, k)
		}

		v, err := c.registry.Convert(val, valueType)
		if err != nil {
			return nil, fmt.Errorf("cannot convert value of %v (%v) to %s: %w", key, val, valueType, err)
		}

		out[k] = v
	}

	return c.registry.ConvertExcluding(out, Origin(target), c)
}

// templateConverter converts mappings to template objects. It exists mainly
// for templates used inside containers like list[MyTemplate] or
// dict[string, MyTemplate] and requires the value to form a complete object.
type templateConverter struct {
	registry *Registry
}

func (c *templateConverter) CanConvert(target *Type) bool {
	return target.Kind() == KindObject
}

func (c *templateConverter) Convert(value any, target *Type) (any, error) {
	m, err := c.registry.Convert(value, Mapping)
	if err != nil {
		return nil, err
	}

	values := make(map[string]any)
	for key, val := range m.(map[any]any) {
		k, err := cast.ToStringE(key)
		if err != nil {
			return nil, fmt.Errorf("cannot convert key %v to string: %w", key, err)
		}
		values[k] = val
	}

	obj := target.Template().New()
	if err := LoadFields(obj, values, WithRegistry(c.registry)); err != nil {
		return nil, err
	}
	if err := EnsureComplete(obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// enumConverter converts values to enum members. It prefers a perfect name
// match, then a perfect value match. If both fail and the value is a string,
// the first case-insensitive match on either the name or a string-valued
// member wins.
type enumConverter struct{}

func (c *enumConverter) CanConvert(target *Type) bool {
	return target.Kind() == KindEnum
}

func (c *enumConverter) Convert(value any, target *Type) (any, error) {
	if name, ok := value.(string); ok {
		for _, member := range target.Members() {
			if member.Name == name {
				return member, nil
			}
		}
	}

	for _, member := range target.Members() {
		if enumValuesEqual(member.Value, value) {
			return member, nil
		}
	}

	if s, ok := value.(string); ok {
		lower := strings.ToLower(s)
		for _, member := range target.Members() {
			if strings.ToLower(member.Name) == lower {
				return member, nil
			}
			if mv, ok := member.Value.(string); ok && strings.ToLower(mv) == lower {
				return member, nil
			}
		}
	}

	return nil, fmt.Errorf("%v isn't in enum %s", value, target)
}

func enumValuesEqual(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	af, aok := asNumber(a)
	bf, bok := asNumber(b)
	return aok && bok && af == bf
}

func asNumber(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(v)
		return f, err == nil
	default:
		return 0, false
	}
}
