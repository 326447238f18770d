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

// Source provides configuration values for a template. Sources load their
// values into the given object; later sources override earlier ones, nested
// objects are merged key by key.
type Source interface {
	LoadInto(obj *Object, template *Template) error
}

// SourceFunc adapts a function to the [Source] interface.
type SourceFunc func(obj *Object, template *Template) error

// LoadInto calls f.
func (f SourceFunc) LoadInto(obj *Object, template *Template) error {
	return f(obj, template)
}

// Loader loads a configuration from an ordered list of sources. At least one
// source must be configured before loading. A loader is safe for concurrent
// use.
type Loader struct {
	mu      sync.RWMutex
	sources []Source
}

// NewLoader creates a loader with the given sources.
func NewLoader(sources ...Source) *Loader {
	return &Loader{sources: sources}
}

// SetSources replaces the loader's sources. The order is significant: later
// sources take precedence.
func (l *Loader) SetSources(sources ...Source) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sources = sources
}

// Sources returns the loader's sources in load order.
func (l *Loader) Sources() []Source {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Source, len(l.sources))
	copy(out, l.sources)
	return out
}

// Load runs every source against the target and verifies the result is
// complete. The target is either a [*Template], in which case a new object is
// created, or a [*Object] which is filled in place and may carry preset
// values. Source failures abort loading and are reported as a [*SourceError].
func (l *Loader) Load(target any) (*Object, error) {
	var obj *Object
	switch t := target.(type) {
	case *Template:
		obj = t.New()
	case *Object:
		obj = t
	default:
		return nil, fmt.Errorf("cannot load into %T, need a template or an object", target)
	}

	sources := l.Sources()
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources configured")
	}

	for _, src := range sources {
		if err := src.LoadInto(obj, obj.template); err != nil {
			return nil, &SourceError{Source: src, Template: obj.template, Err: err}
		}
	}

	if err := EnsureComplete(obj); err != nil {
		return nil, err
	}
	return obj, nil
}

var defaultLoader = new(Loader)

// SetSources replaces the sources of the default loader.
func SetSources(sources ...Source) {
	defaultLoader.SetSources(sources...)
}

// Load loads the target using the default loader.
func Load(target any) (*Object, error) {
	return defaultLoader.Load(target)
}
