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
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"

	"github.com/gieseladev/konfi"
)

// DecodeFunc decodes raw file contents into a key-value mapping.
type DecodeFunc func(data []byte) (map[string]any, error)

// DecodeYAML decodes YAML file contents.
func DecodeYAML(data []byte) (map[string]any, error) {
	values := make(map[string]any)
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return values, nil
}

// DecodeJSON decodes JSON file contents.
func DecodeJSON(data []byte) (map[string]any, error) {
	values := make(map[string]any)
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return values, nil
}

// DecodeTOML decodes TOML file contents.
func DecodeTOML(data []byte) (map[string]any, error) {
	values := make(map[string]any)
	if err := toml.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return values, nil
}

// File loads configuration from a file. The file is read and decoded on
// every load, so re-loading picks up changes.
type File struct {
	path   string
	data   []byte
	decode DecodeFunc

	ignoreNotFound bool
}

// NewYAML creates a source reading the YAML file at path.
func NewYAML(path string) *File {
	return &File{path: path, decode: DecodeYAML}
}

// NewJSON creates a source reading the JSON file at path.
func NewJSON(path string) *File {
	return &File{path: path, decode: DecodeJSON}
}

// NewTOML creates a source reading the TOML file at path.
func NewTOML(path string) *File {
	return &File{path: path, decode: DecodeTOML}
}

// NewContent creates a source decoding in-memory file contents.
func NewContent(data []byte, decode DecodeFunc) *File {
	return &File{data: data, decode: decode}
}

// String returns a description of the source.
func (f *File) String() string {
	if f.path == "" {
		return "file(<content>)"
	}
	return fmt.Sprintf("file(%s)", f.path)
}

// LoadInto reads, decodes and loads the file into the object.
func (f *File) LoadInto(obj *konfi.Object, _ *konfi.Template) error {
	data := f.data
	if f.path != "" {
		var err error
		data, err = os.ReadFile(f.path)
		if err != nil {
			if f.ignoreNotFound && errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
	}

	values, err := f.decode(data)
	if err != nil {
		return err
	}
	return konfi.LoadFields(obj, values)
}

// FileLoaderFunc creates a source for a configuration file path.
type FileLoaderFunc func(path string) (konfi.Source, error)

var (
	fileLoadersMu sync.RWMutex
	fileLoaders   = map[string]FileLoaderFunc{}
)

func init() {
	MustRegisterFileLoader(func(path string) (konfi.Source, error) {
		return NewYAML(path), nil
	}, ".yaml", ".yml")
	MustRegisterFileLoader(func(path string) (konfi.Source, error) {
		return NewJSON(path), nil
	}, ".json")
	MustRegisterFileLoader(func(path string) (konfi.Source, error) {
		return NewTOML(path), nil
	}, ".toml")
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// RegisterFileLoader registers a loader for the given file extensions, used
// by [NewFile] to dispatch on the path. Registering an extension that is
// already taken fails; use [ReplaceFileLoader] to override.
func RegisterFileLoader(fn FileLoaderFunc, exts ...string) error {
	if fn == nil {
		return fmt.Errorf("%w: file loader cannot be nil", konfi.ErrRegistration)
	}
	if len(exts) == 0 {
		return fmt.Errorf("%w: file loader requires at least one extension", konfi.ErrRegistration)
	}

	fileLoadersMu.Lock()
	defer fileLoadersMu.Unlock()

	for _, ext := range exts {
		if _, ok := fileLoaders[normalizeExt(ext)]; ok {
			return fmt.Errorf("%w: file loader for %q already registered", konfi.ErrRegistration, ext)
		}
	}
	for _, ext := range exts {
		fileLoaders[normalizeExt(ext)] = fn
	}
	return nil
}

// MustRegisterFileLoader is like [RegisterFileLoader] but panics on error.
func MustRegisterFileLoader(fn FileLoaderFunc, exts ...string) {
	if err := RegisterFileLoader(fn, exts...); err != nil {
		panic(fmt.Sprintf("source: failed to register file loader: %v", err))
	}
}

// ReplaceFileLoader registers a loader for the given extensions, replacing
// any existing registration.
func ReplaceFileLoader(fn FileLoaderFunc, exts ...string) {
	fileLoadersMu.Lock()
	defer fileLoadersMu.Unlock()
	for _, ext := range exts {
		fileLoaders[normalizeExt(ext)] = fn
	}
}

// HasFileLoader reports whether a loader is registered for the extension.
func HasFileLoader(ext string) bool {
	fileLoadersMu.RLock()
	defer fileLoadersMu.RUnlock()
	_, ok := fileLoaders[normalizeExt(ext)]
	return ok
}

type fileConfig struct {
	unknownNoop    bool
	ignoreNotFound bool
}

// FileOption configures [NewFile].
type FileOption func(*fileConfig)

// WithUnknownNoop makes [NewFile] return a source that loads nothing when no
// loader is registered for the file's extension, instead of failing.
func WithUnknownNoop() FileOption {
	return func(c *fileConfig) {
		c.unknownNoop = true
	}
}

// WithIgnoreNotFound makes the source treat a missing file as empty.
func WithIgnoreNotFound() FileOption {
	return func(c *fileConfig) {
		c.ignoreNotFound = true
	}
}

type noopSource struct{}

func (noopSource) LoadInto(*konfi.Object, *konfi.Template) error { return nil }

func (noopSource) String() string { return "file(noop)" }

// NewFile creates a source for the file at path, dispatching on its
// extension.
func NewFile(path string, opts ...FileOption) (konfi.Source, error) {
	var cfg fileConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	ext := normalizeExt(filepath.Ext(path))

	fileLoadersMu.RLock()
	fn, ok := fileLoaders[ext]
	fileLoadersMu.RUnlock()

	if !ok {
		if cfg.unknownNoop {
			return noopSource{}, nil
		}
		return nil, fmt.Errorf("no file loader for %q files", ext)
	}

	src, err := fn(path)
	if err != nil {
		return nil, err
	}
	if f, ok := src.(*File); ok && cfg.ignoreNotFound {
		f.ignoreNotFound = true
	}
	return src, nil
}

// MustFile is like [NewFile] but panics on error.
func MustFile(path string, opts ...FileOption) konfi.Source {
	src, err := NewFile(path, opts...)
	if err != nil {
		panic(fmt.Sprintf("source: %v", err))
	}
	return src
}
