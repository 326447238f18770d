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

package source

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/gieseladev/konfi"
)

// Decoder decodes a raw environment variable value.
type Decoder func(raw string) (any, error)

// DecodeRaw returns the value as an undecoded string.
func DecodeRaw(raw string) (any, error) {
	return raw, nil
}

// DecodeEnvYAML decodes the value as a YAML document. Plain scalars like
// numbers and booleans come out typed, everything else stays a string. This
// is the default decoder.
func DecodeEnvYAML(raw string) (any, error) {
	var value any
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
		return nil, err
	}
	return value, nil
}

// DecodeEnvJSON decodes the value as a JSON document.
func DecodeEnvJSON(raw string) (any, error) {
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, err
	}
	return value, nil
}

var (
	decodersMu sync.RWMutex
	decoders   = map[string]Decoder{
		"raw":  DecodeRaw,
		"yaml": DecodeEnvYAML,
		"json": DecodeEnvJSON,
	}
)

// RegisterDecoder registers a named decoder for use with
// [WithDecoderName]. Existing names are overwritten.
func RegisterDecoder(name string, dec Decoder) {
	decodersMu.Lock()
	defer decodersMu.Unlock()
	decoders[strings.ToLower(name)] = dec
}

// ResolveDecoder returns the decoder registered under the given name.
func ResolveDecoder(name string) (Decoder, error) {
	decodersMu.RLock()
	defer decodersMu.RUnlock()
	dec, ok := decoders[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("no decoder named %q", name)
	}
	return dec, nil
}

// NameBuilder builds an environment variable name from the key path leading
// to a field, prefix first.
type NameBuilder func(parts ...string) string

var invalidEnvChars = regexp.MustCompile(`(?i)^\d+|[^a-z0-9]+`)

// BuildEnvName strips leading digits and non-alphanumeric characters from
// every part, joins the parts with underscores and upper-cases the result.
func BuildEnvName(parts ...string) string {
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		part = invalidEnvChars.ReplaceAllString(part, "")
		if part != "" {
			cleaned = append(cleaned, part)
		}
	}
	return strings.ToUpper(strings.Join(cleaned, "_"))
}

// Env loads configuration from environment variables. Variable names are
// derived from the field key paths: the field "de" of the nested template
// under key "sub" with prefix "p" reads P_SUB_DE. Values are decoded with
// the configured decoder, YAML by default, so "300" loads as a number and
// "[a, b]" as a list.
type Env struct {
	prefix      string
	decoderName string
	decoder     Decoder
	nameBuilder NameBuilder
	lookup      func(name string) (string, bool)
}

// EnvOption configures an environment source.
type EnvOption func(*Env)

// WithDecoder sets the decoder used for raw values.
func WithDecoder(dec Decoder) EnvOption {
	return func(e *Env) {
		e.decoder = dec
		e.decoderName = ""
	}
}

// WithDecoderName selects a registered decoder by name. The name is resolved
// on first load, so decoders registered after the source was created are
// found.
func WithDecoderName(name string) EnvOption {
	return func(e *Env) {
		e.decoder = nil
		e.decoderName = name
	}
}

// WithNameBuilder sets the function building variable names from key paths.
func WithNameBuilder(build NameBuilder) EnvOption {
	return func(e *Env) {
		e.nameBuilder = build
	}
}

// WithLookup replaces the environment lookup. Intended for tests.
func WithLookup(lookup func(name string) (string, bool)) EnvOption {
	return func(e *Env) {
		e.lookup = lookup
	}
}

// NewEnv creates an environment source with the given name prefix.
func NewEnv(prefix string, opts ...EnvOption) *Env {
	e := &Env{
		prefix:      prefix,
		decoder:     DecodeEnvYAML,
		nameBuilder: BuildEnvName,
		lookup:      os.LookupEnv,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// String returns a description of the source.
func (e *Env) String() string {
	return fmt.Sprintf("env(%s)", e.prefix)
}

func (e *Env) resolveDecoder() (Decoder, error) {
	if e.decoder != nil {
		return e.decoder, nil
	}
	return ResolveDecoder(e.decoderName)
}

// LoadInto walks the template and loads every field for which a variable is
// set. Unset variables leave the field untouched so other sources and
// defaults can fill it.
func (e *Env) LoadInto(obj *konfi.Object, template *konfi.Template) error {
	dec, err := e.resolveDecoder()
	if err != nil {
		return err
	}

	var parts []string
	if e.prefix != "" {
		parts = []string{e.prefix}
	}
	_, err = e.loadObject(obj, template, dec, parts)
	return err
}

func (e *Env) loadObject(obj *konfi.Object, template *konfi.Template, dec Decoder, parts []string) (bool, error) {
	found := false
	var errs []error

	for _, field := range template.Fields() {
		path := append(append([]string(nil), parts...), field.Key())

		if nested := field.Type().Template(); nested != nil {
			child, ok := objectValue(obj, field.Attribute())
			if !ok {
				child = nested.New()
			}
			set, err := e.loadObject(child, nested, dec, path)
			if err != nil {
				errs = append(errs, konfi.PrependPath(err, field.Key()))
			}
			if set {
				obj.Set(field.Attribute(), child)
				found = true
			}
			continue
		}

		name := e.nameBuilder(path...)
		raw, ok := e.lookup(name)
		if !ok {
			continue
		}

		value, err := dec(raw)
		if err != nil {
			errs = append(errs, &konfi.FieldError{
				Path:   []string{field.Key()},
				Field:  field,
				Reason: fmt.Sprintf("cannot decode %s", name),
				Err:    err,
			})
			continue
		}

		if err := konfi.SetFieldValue(obj, field, value); err != nil {
			errs = append(errs, err)
			continue
		}
		found = true
	}

	return found, konfi.GroupErrors("multiple environment variables failed to load", errs...)
}

func objectValue(obj *konfi.Object, attribute string) (*konfi.Object, bool) {
	v, ok := obj.Get(attribute)
	if !ok {
		return nil, false
	}
	child, ok := v.(*konfi.Object)
	return child, ok && child != nil
}
