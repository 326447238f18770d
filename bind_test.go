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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bindServer struct {
	Host    string        `konfi:"host"`
	Port    int           `konfi:"port"`
	Timeout time.Duration `konfi:"timeout"`
}

type bindConfig struct {
	Name   string     `konfi:"name"`
	Tags   []string   `konfi:"tags"`
	Server bindServer `konfi:"server"`
}

func TestBind(t *testing.T) {
	t.Parallel()

	server := MustTemplate("server",
		NewField("host", String),
		NewField("port", Int),
		NewField("timeout", Duration),
	)
	tmpl := MustTemplate("conf",
		NewField("name", String),
		NewField("tags", ListOf(String)),
		NewField("server", server.Type()),
	)

	obj := tmpl.New()
	require.NoError(t, LoadFields(obj, map[string]any{
		"name": "app",
		"tags": []any{"a", "b"},
		"server": map[string]any{
			"host":    "localhost",
			"port":    "8080",
			"timeout": "5s",
		},
	}))
	require.NoError(t, EnsureComplete(obj))

	var conf bindConfig
	require.NoError(t, Bind(obj, &conf))

	assert.Equal(t, "app", conf.Name)
	assert.Equal(t, []string{"a", "b"}, conf.Tags)
	assert.Equal(t, "localhost", conf.Server.Host)
	assert.Equal(t, 8080, conf.Server.Port)
	assert.Equal(t, 5*time.Second, conf.Server.Timeout)
}

func TestBind_EnumValue(t *testing.T) {
	t.Parallel()

	level := EnumOf("Level",
		Member("Debug", "debug"),
		Member("Info", "info"),
	)
	tmpl := MustTemplate("conf", NewField("level", level))

	obj := tmpl.New()
	require.NoError(t, LoadFields(obj, map[string]any{"level": "Info"}))

	var conf struct {
		Level string `konfi:"level"`
	}
	require.NoError(t, Bind(obj, &conf))
	assert.Equal(t, "info", conf.Level)
}

func TestBind_InvalidTarget(t *testing.T) {
	t.Parallel()

	tmpl := MustTemplate("conf", NewField("a", Int))
	obj := tmpl.New()
	obj.Set("a", int64(1))

	var conf struct{ A int }
	require.Error(t, Bind(obj, conf))
}
