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
	"reflect"
	"strings"
	"sync/atomic"
	"time"
)

// Kind identifies the variant of a type descriptor.
type Kind int

// The kinds of type descriptors.
const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindFloat
	KindComplex
	KindString
	KindBytes
	KindDuration
	KindTime
	KindNone
	KindAny
	KindIterable
	KindMapping
	KindList
	KindSet
	KindDict
	KindTuple
	KindUnion
	KindObject
	KindEnum
	KindCustom
)

// Type is an immutable descriptor of a conversion target type. Descriptors
// are compared by their canonical key, which also serves as the registry and
// cache key. Build them with the package-level constructors; the zero value
// is not a valid type.
type Type struct {
	kind     Kind
	name     string
	args     []*Type
	variadic bool
	template *Template
	members  []EnumMember

	construct  func(value any) (any, error)
	isInstance func(value any) bool

	key string
}

// Kind returns the variant of the descriptor.
func (t *Type) Kind() Kind { return t.kind }

// Key returns the canonical identity of the descriptor. Two descriptors
// describe the same type iff their keys are equal.
func (t *Type) Key() string { return t.key }

// Template returns the template of an object descriptor, or nil.
func (t *Type) Template() *Template { return t.template }

// Members returns the members of an enum descriptor.
func (t *Type) Members() []EnumMember { return t.members }

// String returns a human-readable name for the type.
func (t *Type) String() string { return t.name }

func basicType(kind Kind, name string) *Type {
	return &Type{kind: kind, name: name, key: name}
}

// Unparametrized type descriptors. Iterable and Mapping describe the untyped
// container interfaces; List, Set, Dict and Tuple are the untyped concrete
// container origins.
var (
	Bool     = basicType(KindBool, "bool")
	Int      = basicType(KindInt, "int")
	Float    = basicType(KindFloat, "float")
	Complex  = basicType(KindComplex, "complex")
	String   = basicType(KindString, "string")
	Bytes    = basicType(KindBytes, "bytes")
	Duration = basicType(KindDuration, "duration")
	Time     = basicType(KindTime, "time")
	None     = basicType(KindNone, "none")
	Any      = basicType(KindAny, "any")
	Iterable = basicType(KindIterable, "iterable")
	Mapping  = basicType(KindMapping, "mapping")
	List     = basicType(KindList, "list")
	Set      = basicType(KindSet, "set")
	Dict     = basicType(KindDict, "dict")
	Tuple    = basicType(KindTuple, "tuple")
)

func parametrizedName(origin string, args []*Type, variadic bool) string {
	names := make([]string, len(args))
	for i, arg := range args {
		names[i] = arg.name
	}
	if variadic {
		return fmt.Sprintf("%s[%s, ...]", origin, names[0])
	}
	return fmt.Sprintf("%s[%s]", origin, strings.Join(names, ", "))
}

func parametrizedKey(origin string, args []*Type, variadic bool) string {
	keys := make([]string, len(args))
	for i, arg := range args {
		keys[i] = arg.key
	}
	if variadic {
		return origin + "[" + keys[0] + ",...]"
	}
	return origin + "[" + strings.Join(keys, ",") + "]"
}

func mustArgs(origin string, args []*Type) {
	for _, arg := range args {
		if arg == nil {
			panic(fmt.Sprintf("konfi: nil type argument for %s", origin))
		}
	}
}

// ListOf returns the descriptor of a list with the given element type.
func ListOf(elem *Type) *Type {
	mustArgs("list", []*Type{elem})
	return &Type{
		kind: KindList,
		name: parametrizedName("list", []*Type{elem}, false),
		args: []*Type{elem},
		key:  parametrizedKey("list", []*Type{elem}, false),
	}
}

// SetOf returns the descriptor of a set with the given element type.
// Converted elements must be comparable.
func SetOf(elem *Type) *Type {
	mustArgs("set", []*Type{elem})
	return &Type{
		kind: KindSet,
		name: parametrizedName("set", []*Type{elem}, false),
		args: []*Type{elem},
		key:  parametrizedKey("set", []*Type{elem}, false),
	}
}

// MapOf returns the descriptor of a mapping with the given key and value
// types. Converted keys must be comparable.
func MapOf(key, value *Type) *Type {
	mustArgs("dict", []*Type{key, value})
	return &Type{
		kind: KindDict,
		name: parametrizedName("dict", []*Type{key, value}, false),
		args: []*Type{key, value},
		key:  parametrizedKey("dict", []*Type{key, value}, false),
	}
}

// TupleOf returns the descriptor of a fixed-arity tuple with the given
// element types.
func TupleOf(elems ...*Type) *Type {
	mustArgs("tuple", elems)
	return &Type{
		kind: KindTuple,
		name: parametrizedName("tuple", elems, false),
		args: elems,
		key:  parametrizedKey("tuple", elems, false),
	}
}

// VariadicTupleOf returns the descriptor of a homogeneous variable-length
// tuple with the given element type.
func VariadicTupleOf(elem *Type) *Type {
	mustArgs("tuple", []*Type{elem})
	return &Type{
		kind:     KindTuple,
		name:     parametrizedName("tuple", []*Type{elem}, true),
		args:     []*Type{elem},
		variadic: true,
		key:      parametrizedKey("tuple", []*Type{elem}, true),
	}
}

// Union returns the descriptor of a union of the given alternatives. The
// declaration order is meaningful: union conversion tries the alternatives
// left to right.
func Union(alts ...*Type) *Type {
	mustArgs("union", alts)
	if len(alts) == 0 {
		panic("konfi: union needs at least one alternative")
	}
	return &Type{
		kind: KindUnion,
		name: parametrizedName("union", alts, false),
		args: alts,
		key:  parametrizedKey("union", alts, false),
	}
}

// Optional returns the descriptor of a value that may also be nil. It is
// shorthand for Union(t, None).
func Optional(t *Type) *Type {
	return Union(t, None)
}

// EnumMember is a single named member of an enum type.
type EnumMember struct {
	Name  string
	Value any
}

// Member creates an enum member.
func Member(name string, value any) EnumMember {
	return EnumMember{Name: name, Value: value}
}

var typeIDs atomic.Uint64

// EnumOf returns the descriptor of an enum with the given members. Enum
// descriptors are nominal: every call creates a distinct type.
func EnumOf(name string, members ...EnumMember) *Type {
	return &Type{
		kind:    KindEnum,
		name:    name,
		members: members,
		key:     fmt.Sprintf("enum:%s#%d", name, typeIDs.Add(1)),
	}
}

// Custom returns a descriptor for a caller-defined type. The construct
// function acts as the constructor fallback of the conversion engine and
// isInstance implements the structural check used by [HasType]; either may
// be nil.
func Custom(name string, construct func(value any) (any, error), isInstance func(value any) bool) *Type {
	return &Type{
		kind:       KindCustom,
		name:       name,
		construct:  construct,
		isInstance: isInstance,
		key:        fmt.Sprintf("custom:%s#%d", name, typeIDs.Add(1)),
	}
}

func objectType(tmpl *Template) *Type {
	return &Type{
		kind:     KindObject,
		name:     tmpl.Name(),
		template: tmpl,
		key:      fmt.Sprintf("object:%s#%d", tmpl.Name(), typeIDs.Add(1)),
	}
}

// IsUnion reports whether t is a union of alternatives.
func IsUnion(t *Type) bool {
	return t.kind == KindUnion
}

// IsOptional reports whether t admits nil: either the none type itself or a
// union containing an optional alternative, recursively.
func IsOptional(t *Type) bool {
	if t.kind == KindNone {
		return true
	}
	if t.kind == KindUnion {
		for _, alt := range t.args {
			if IsOptional(alt) {
				return true
			}
		}
	}
	return false
}

// TypeArgs returns the alternative or element types of a parametrized
// descriptor, in declaration order.
func TypeArgs(t *Type) []*Type {
	return t.args
}

// IsTuple reports whether t is a tuple type, parametrized or not.
func IsTuple(t *Type) bool {
	return t.kind == KindTuple
}

// ResolveTuple returns the element types of a tuple descriptor together with
// its fixed length. For homogeneous variable-length tuples the length is -1
// and a single element type is returned.
func ResolveTuple(t *Type) ([]*Type, int) {
	if t.variadic {
		return t.args, -1
	}
	return t.args, len(t.args)
}

// IsIterable reports whether t is a parametrized iterable container that is
// neither a tuple nor a mapping.
func IsIterable(t *Type) bool {
	return (t.kind == KindList || t.kind == KindSet) && len(t.args) > 0
}

// IsMapping reports whether t is a parametrized mapping container. Mapping
// takes precedence over iterable.
func IsMapping(t *Type) bool {
	return t.kind == KindDict && len(t.args) > 0
}

// Origin returns the untyped container origin of a parametrized container
// descriptor, or nil for everything else.
func Origin(t *Type) *Type {
	if len(t.args) == 0 {
		return nil
	}
	switch t.kind {
	case KindList:
		return List
	case KindSet:
		return Set
	case KindDict:
		return Dict
	case KindTuple:
		return Tuple
	default:
		return nil
	}
}

// HasType reports whether value already structurally satisfies t. Unions
// match if any alternative matches, tuples element-wise respecting arity,
// and parametrized containers element-wise against the container shape and
// element types. Everything else is a plain instance check against the
// canonical Go representation of the kind.
func HasType(value any, t *Type) bool {
	switch t.kind {
	case KindAny:
		return true

	case KindNone:
		return value == nil

	case KindUnion:
		for _, alt := range t.args {
			if HasType(value, alt) {
				return true
			}
		}
		return false

	case KindTuple:
		vs, ok := value.([]any)
		if !ok {
			return false
		}
		if len(t.args) == 0 {
			return true
		}
		types, n := ResolveTuple(t)
		if n < 0 {
			for _, v := range vs {
				if !HasType(v, types[0]) {
					return false
				}
			}
			return true
		}
		if n != len(vs) {
			return false
		}
		for i, v := range vs {
			if !HasType(v, types[i]) {
				return false
			}
		}
		return true

	case KindList:
		vs, ok := value.([]any)
		if !ok {
			return false
		}
		if len(t.args) == 0 {
			return true
		}
		for _, v := range vs {
			if !HasType(v, t.args[0]) {
				return false
			}
		}
		return true

	case KindSet:
		vs, ok := value.(map[any]struct{})
		if !ok {
			return false
		}
		if len(t.args) == 0 {
			return true
		}
		for v := range vs {
			if !HasType(v, t.args[0]) {
				return false
			}
		}
		return true

	case KindDict, KindMapping:
		return hasMappingType(value, t)

	case KindIterable:
		switch value.(type) {
		case []any, map[any]any, map[string]any, map[any]struct{}:
			return true
		}
		return false

	case KindBool:
		_, ok := value.(bool)
		return ok

	case KindInt:
		if _, ok := value.(time.Duration); ok {
			return false
		}
		switch reflect.ValueOf(value).Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return true
		default:
			return false
		}

	case KindFloat:
		switch value.(type) {
		case float32, float64:
			return true
		default:
			return false
		}

	case KindComplex:
		switch value.(type) {
		case complex64, complex128:
			return true
		default:
			return false
		}

	case KindString:
		_, ok := value.(string)
		return ok

	case KindBytes:
		_, ok := value.([]byte)
		return ok

	case KindDuration:
		_, ok := value.(time.Duration)
		return ok

	case KindTime:
		_, ok := value.(time.Time)
		return ok

	case KindObject:
		obj, ok := value.(*Object)
		return ok && obj.Template() == t.template

	case KindEnum:
		member, ok := value.(EnumMember)
		if !ok {
			return false
		}
		for _, m := range t.members {
			if m.Name == member.Name {
				return true
			}
		}
		return false

	case KindCustom:
		return t.isInstance != nil && t.isInstance(value)

	default:
		return false
	}
}

func hasMappingType(value any, t *Type) bool {
	var pairs [][2]any
	switch m := value.(type) {
	case map[any]any:
		for k, v := range m {
			pairs = append(pairs, [2]any{k, v})
		}
	case map[string]any:
		for k, v := range m {
			pairs = append(pairs, [2]any{k, v})
		}
	default:
		return false
	}

	if len(t.args) != 2 {
		return true
	}
	for _, kv := range pairs {
		if !HasType(kv[0], t.args[0]) || !HasType(kv[1], t.args[1]) {
			return false
		}
	}
	return true
}
