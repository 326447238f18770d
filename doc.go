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

// Package konfi loads configuration from layered sources into typed
// templates.
//
// A configuration schema is declared as a [Template] of [Field]s, each with
// a target type described by a [Type] descriptor. Sources (files,
// environment variables, Consul, plain maps; see the source subpackage)
// load raw values into an [Object], later sources overriding earlier ones
// while nested objects merge key by key. Every value is run through the
// converter registry, which turns loosely typed input like "300" or
// "yes" into the declared field type. After all sources ran, the object is
// checked for completeness: required fields must hold a value, everything
// else falls back to its default.
//
// A minimal setup:
//
//	tmpl := konfi.MustTemplate("app",
//		konfi.NewField("name", konfi.String),
//		konfi.NewField("port", konfi.Int, konfi.WithDefault(8080)),
//	)
//
//	loader := konfi.NewLoader(
//		source.MustFile("config.yaml"),
//		source.NewEnv("app"),
//	)
//	obj, err := loader.Load(tmpl)
//
// The loaded object can be read directly with [Object.Get] or decoded into
// a plain struct with [Bind].
//
// Conversion is extensible: register a [Converter] for explicit target
// types, or a [ComplexConverter] which decides applicability per type. All
// built-in conversions, including containers, unions, enums and nested
// templates, go through the same registry and can be replaced.
package konfi
