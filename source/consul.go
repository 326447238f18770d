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
	"fmt"
	"strings"

	"github.com/hashicorp/consul/api"

	"github.com/gieseladev/konfi"
)

// ConsulKV is the part of the Consul KV API the source uses. Satisfied by
// *api.KV.
type ConsulKV interface {
	List(prefix string, q *api.QueryOptions) (api.KVPairs, *api.QueryMeta, error)
}

// Consul loads configuration from the Consul KV store. Keys under the
// prefix map to field key paths, with "/" separating nesting levels; values
// are decoded with the configured decoder, YAML by default.
type Consul struct {
	kv      ConsulKV
	prefix  string
	decoder Decoder
	opts    *api.QueryOptions
}

// ConsulOption configures a Consul source.
type ConsulOption func(*Consul)

// WithConsulKV sets the KV client. Defaults to a client built from the
// Consul environment (CONSUL_HTTP_ADDR and friends).
func WithConsulKV(kv ConsulKV) ConsulOption {
	return func(c *Consul) {
		c.kv = kv
	}
}

// WithConsulDecoder sets the decoder used for KV values.
func WithConsulDecoder(dec Decoder) ConsulOption {
	return func(c *Consul) {
		c.decoder = dec
	}
}

// WithConsulQueryOptions sets the query options passed to every List call.
func WithConsulQueryOptions(opts *api.QueryOptions) ConsulOption {
	return func(c *Consul) {
		c.opts = opts
	}
}

// NewConsul creates a Consul source reading every key under the prefix.
func NewConsul(prefix string, opts ...ConsulOption) (*Consul, error) {
	c := &Consul{
		prefix:  strings.Trim(prefix, "/"),
		decoder: DecodeEnvYAML,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.kv == nil {
		client, err := api.NewClient(api.DefaultConfig())
		if err != nil {
			return nil, fmt.Errorf("consul client: %w", err)
		}
		c.kv = client.KV()
	}
	return c, nil
}

// String returns a description of the source.
func (c *Consul) String() string {
	return fmt.Sprintf("consul(%s)", c.prefix)
}

// LoadInto lists the keys under the prefix and loads them into the object.
// Directory entries and keys outside the prefix are skipped.
func (c *Consul) LoadInto(obj *konfi.Object, _ *konfi.Template) error {
	pairs, _, err := c.kv.List(c.prefix, c.opts)
	if err != nil {
		return fmt.Errorf("consul list %q: %w", c.prefix, err)
	}

	values := make(map[string]any)
	for _, pair := range pairs {
		if pair == nil || pair.Value == nil {
			continue
		}

		key := strings.Trim(strings.TrimPrefix(pair.Key, c.prefix), "/")
		if key == "" {
			continue
		}

		value, err := c.decoder(string(pair.Value))
		if err != nil {
			return fmt.Errorf("consul key %q: %w", pair.Key, err)
		}
		insertPath(values, strings.Split(key, "/"), value)
	}

	return konfi.LoadFields(obj, values)
}

// insertPath places the value into the nested map at the given key path,
// creating intermediate maps as needed. A scalar loaded earlier for an
// intermediate key is replaced by a map.
func insertPath(values map[string]any, path []string, value any) {
	for _, key := range path[:len(path)-1] {
		child, ok := values[key].(map[string]any)
		if !ok {
			child = make(map[string]any)
			values[key] = child
		}
		values = child
	}
	values[path[len(path)-1]] = value
}
