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
	"strings"
)

// ErrRegistration is wrapped by all errors caused by invalid registry or
// template usage, such as registering a complex converter with explicit
// target types or giving a field both a default value and a default factory.
// These errors are always immediate and fatal.
var ErrRegistration = errors.New("invalid registration")

// ErrNoDefault is returned by [Field.Default] when the field has neither a
// default value nor a default factory and its type isn't optional.
var ErrNoDefault = errors.New("field has no default value")

// ConversionError reports that a value could not be converted to a target
// type. Err carries the chain of individual converter failures, if any
// converters were tried.
type ConversionError struct {
	Value  any
	Target *Type
	Err    error
}

// Error returns a formatted error message naming the value and target type.
func (e *ConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot convert %v (%T) to %s: %v", e.Value, e.Value, e.Target, e.Err)
	}
	return fmt.Sprintf("cannot convert %v (%T) to %s", e.Value, e.Value, e.Target)
}

// Unwrap returns the chain of underlying converter failures.
func (e *ConversionError) Unwrap() error {
	return e.Err
}

func newConversionError(value any, target *Type, err error) *ConversionError {
	return &ConversionError{Value: value, Target: target, Err: err}
}

// PathError is implemented by errors which carry the sequence of keys from
// the template root to the offending field. Both [FieldError] and
// [MultiPathError] implement it.
type PathError interface {
	error

	// ErrorPath returns the key path from the template root to the field
	// the error refers to.
	ErrorPath() []string

	prependPath(key string)
}

// FieldError is a path-qualified failure for a single field: an unexpected
// key, a missing required value, or a wrapped conversion error.
type FieldError struct {
	Path   []string
	Field  *Field // may be nil
	Reason string
	Err    error
}

// Error returns the dotted path followed by the reason and, if present, the
// underlying error.
func (e *FieldError) Error() string {
	var b strings.Builder
	if len(e.Path) > 0 {
		b.WriteString(strings.Join(e.Path, "."))
		b.WriteString(": ")
	}
	b.WriteString(e.Reason)
	if e.Err != nil {
		if e.Reason != "" {
			b.WriteString(": ")
		}
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// ErrorPath returns the key path of the field.
func (e *FieldError) ErrorPath() []string {
	return e.Path
}

// Unwrap returns the underlying error, if any.
func (e *FieldError) Unwrap() error {
	return e.Err
}

func (e *FieldError) prependPath(key string) {
	e.Path = append([]string{key}, e.Path...)
}

// MultiPathError aggregates multiple sibling path errors discovered during
// the same recursive pass. Its string form enumerates every child error
// indented beneath a summary line.
type MultiPathError struct {
	Path   []string
	Reason string
	Errors []error
}

// Error returns the summary line followed by each child error on its own
// indented line.
func (e *MultiPathError) Error() string {
	var b strings.Builder
	if len(e.Path) > 0 {
		b.WriteString(strings.Join(e.Path, "."))
		b.WriteString(": ")
	}
	b.WriteString(e.Reason)
	for _, err := range e.Errors {
		for _, line := range strings.Split(err.Error(), "\n") {
			b.WriteString("\n  ")
			b.WriteString(line)
		}
	}
	return b.String()
}

// ErrorPath returns the key path common to all child errors.
func (e *MultiPathError) ErrorPath() []string {
	return e.Path
}

// Unwrap returns the child errors for use with errors.Is and errors.As.
func (e *MultiPathError) Unwrap() []error {
	return e.Errors
}

// prependPath re-qualifies the error when it bubbles through a nesting
// boundary. The key is prepended to the children as well so that each child
// keeps a full path from the template root.
func (e *MultiPathError) prependPath(key string) {
	e.Path = append([]string{key}, e.Path...)
	for _, err := range e.Errors {
		if pe, ok := err.(PathError); ok {
			pe.prependPath(key)
		}
	}
}

// PrependPath re-qualifies err with the given parent keys, outermost first.
// Errors which don't carry a path are wrapped in a [FieldError] first.
func PrependPath(err error, keys ...string) error {
	if err == nil {
		return nil
	}
	pe, ok := err.(PathError)
	if !ok {
		pe = &FieldError{Err: err}
	}
	for i := len(keys) - 1; i >= 0; i-- {
		pe.prependPath(keys[i])
	}
	return pe
}

// GroupErrors aggregates the given errors. Nil entries are dropped; a single
// error is returned directly, multiple errors are wrapped in a
// [MultiPathError] with the given summary line.
func GroupErrors(reason string, errs ...error) error {
	collected := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			collected = append(collected, err)
		}
	}

	switch len(collected) {
	case 0:
		return nil
	case 1:
		return collected[0]
	default:
		return &MultiPathError{Reason: reason, Errors: collected}
	}
}

// SourceError reports that a source failed while loading a template. It
// identifies the offending source and template without discarding the cause.
type SourceError struct {
	Source   Source
	Template *Template
	Err      error
}

// Error returns a formatted error message naming the source and template.
func (e *SourceError) Error() string {
	return fmt.Sprintf("source %v failed to load template %q: %v", e.Source, e.Template.Name(), e.Err)
}

// Unwrap returns the originating error.
func (e *SourceError) Unwrap() error {
	return e.Err
}
